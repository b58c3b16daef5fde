package oauth2

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	stateCookie       = "oauthstate"
	callbackURLCookie = "oauthCallbackURL"

	// StateTTL bounds how long a consent round trip may take.
	StateTTL = 10 * time.Minute
)

var errMissingState = errors.New("oauth state cookie is missing")

func generateStateOauthCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		slog.Error("generating oauth state", "error", err)
	}
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(StateTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return state
}

func checkState(w http.ResponseWriter, r *http.Request) error {
	cookie, _ := r.Cookie(stateCookie)
	if cookie == nil {
		return errMissingState
	}
	if r.FormValue("state") != cookie.Value {
		http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/", MaxAge: -1})
		return fmt.Errorf("invalid oauth state: %q", r.FormValue("state"))
	}
	return nil
}

// OauthRedirector sets a fresh state cookie and sends the browser to the
// provider. A callbackURL query value is remembered in a short lived cookie.
func OauthRedirector(oauthConfig *oauth2.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if callbackURL := r.URL.Query().Get("callbackURL"); callbackURL != "" {
			http.SetCookie(w, &http.Cookie{
				Name:   callbackURLCookie,
				Value:  callbackURL,
				Path:   "/",
				MaxAge: 120,
			})
		}
		state := generateStateOauthCookie(w)
		http.Redirect(w, r, oauthConfig.AuthCodeURL(state), http.StatusFound)
	}
}

// CallbackURLFromRequest returns the callbackURL remembered by OauthRedirector, if any.
func CallbackURLFromRequest(r *http.Request) string {
	if c, err := r.Cookie(callbackURLCookie); err == nil {
		return c.Value
	}
	return ""
}
