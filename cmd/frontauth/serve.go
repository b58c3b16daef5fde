package main

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	fa "github.com/martinez-Diana/FRONTJMARTINEZ"
	"github.com/martinez-Diana/FRONTJMARTINEZ/client"
	"github.com/martinez-Diana/FRONTJMARTINEZ/oauth2"
	scsstore "github.com/martinez-Diana/FRONTJMARTINEZ/stores/scs"
)

// Error codes the web front end puts on the login route
const (
	errCodeFederated = "federated_failed"
)

func newServeCmd(config func() *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web front end",
		Long: `Run a small web front end that signs users in with Google and lands the
backend token through /auth/success. Each browser gets its own session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config()
			logger := slog.Default()

			web := newWebServer(cfg, client.NewAuthClient(cfg.Server), logger)
			if !web.google.Enabled() {
				logger.Warn("Google sign in is unavailable: no client id is configured")
			}

			server := &http.Server{
				Addr:         cfg.Web.Listen,
				Handler:      web.Handler(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errs := make(chan error, 1)
			go func() {
				logger.Info("web front end listening", "address", server.Addr, "public_url", cfg.Web.PublicURL)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errs <- err
				}
				close(errs)
			}()

			select {
			case err := <-errs:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down web front end")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}

// webServer is the browser front end. Sessions live in scs, one per browser.
type webServer struct {
	cfg      *Config
	logger   *slog.Logger
	client   fa.AuthClient
	sm       *scs.SessionManager
	sessions *fa.SessionStore
	google   *oauth2.GoogleOAuth2
	callback *fa.CallbackLandingHandler
}

func newWebServer(cfg *Config, authClient fa.AuthClient, logger *slog.Logger) *webServer {
	sm := scs.New()
	sm.Lifetime = cfg.Web.SessionLifetime
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = strings.HasPrefix(cfg.Web.PublicURL, "https://")

	s := &webServer{
		cfg:      cfg,
		logger:   logger,
		client:   authClient,
		sm:       sm,
		sessions: fa.NewSessionStore(scsstore.NewKeyValueStore(sm)),
	}
	s.callback = &fa.CallbackLandingHandler{
		Sessions: s.sessions,
		Landing:  fa.Route(cfg.Landing),
		Logger:   logger,
	}

	callbackURL := strings.TrimSuffix(cfg.Web.PublicURL, "/") + "/auth/google/callback/"
	s.google = oauth2.NewGoogleOAuth2(cfg.Google.ClientID, cfg.Google.ClientSecret, callbackURL, s.handleCredential)
	s.google.HandleError = func(err error, w http.ResponseWriter, r *http.Request) {
		s.redirectLogin(w, r, errCodeFederated)
	}
	s.google.Logger = logger
	return s
}

func (s *webServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.Handle("/", http.RedirectHandler(fa.DefaultRoutes[fa.RouteLogin], http.StatusFound))
	r.HandleFunc(fa.DefaultRoutes[fa.RouteLogin], s.loginPage).Methods(http.MethodGet)
	r.HandleFunc("/logout", s.logout).Methods(http.MethodPost)
	r.Handle("/auth/success", s.callback).Methods(http.MethodGet)
	r.PathPrefix("/auth/google/").Handler(http.StripPrefix("/auth/google", s.google))

	for route, path := range fa.DefaultRoutes {
		if route == fa.RouteLogin {
			continue
		}
		r.HandleFunc(path, s.landingPage(route)).Methods(http.MethodGet)
	}
	return s.sm.LoadAndSave(r)
}

// handleCredential exchanges the Google ID token with the backend and
// lands the resulting token through the callback route.
func (s *webServer) handleCredential(credential string, w http.ResponseWriter, r *http.Request) {
	result, err := s.client.FederatedLogin(r.Context(), credential)
	if err == nil && (result == nil || result.Token == "") {
		err = errors.New("backend returned no token")
	}
	if err != nil {
		s.logger.Warn("federated login rejected by backend", "error", err)
		code := errCodeFederated
		var reqErr *fa.RequestError
		if errors.As(err, &reqErr) && reqErr.Message != "" {
			code = reqErr.Message
		}
		s.redirectLogin(w, r, code)
		return
	}
	target := "/auth/success?" + url.Values{fa.ParamToken: {result.Token}}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *webServer) redirectLogin(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, fa.DefaultRoutes.URL(fa.Destination{Route: fa.RouteLogin, Error: code}), http.StatusFound)
}

// errorText turns an error code from the login route into a message
func (s *webServer) errorText(code string) string {
	messages := s.cfg.Messages()
	switch code {
	case "":
		return ""
	case errCodeFederated:
		return messages.FederatedFailed
	case fa.ErrCodeSessionUnavailable:
		return messages.SessionSaveFailed
	}
	return code
}

func (s *webServer) loginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, "login", map[string]any{
		"Error":         s.errorText(r.URL.Query().Get(fa.ParamError)),
		"GoogleEnabled": s.google.Enabled(),
	})
}

func (s *webServer) landingPage(route fa.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.sessions.Read(r.Context())
		if err != nil {
			s.logger.Error("reading session", "error", err)
			s.redirectLogin(w, r, fa.ErrCodeSessionUnavailable)
			return
		}
		if session == nil {
			http.Redirect(w, r, fa.DefaultRoutes[fa.RouteLogin], http.StatusFound)
			return
		}
		s.render(w, "landing", map[string]any{
			"Route": string(route),
			"User":  session.User,
		})
	}
}

func (s *webServer) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Clear(r.Context()); err != nil {
		s.logger.Warn("clearing session", "error", err)
	}
	if err := s.sm.Destroy(r.Context()); err != nil {
		s.logger.Warn("destroying web session", "error", err)
	}
	http.Redirect(w, r, fa.DefaultRoutes[fa.RouteLogin], http.StatusFound)
}

func (s *webServer) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("rendering page", "page", name, "error", err)
	}
}

var pages = template.Must(template.New("pages").Parse(`
{{define "login"}}<!doctype html>
<html><head><title>Sign in</title></head><body>
<h1>Sign in</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .GoogleEnabled}}<p><a href="/auth/google/">Sign in with Google</a></p>
{{else}}<p class="warning">Google sign in is unavailable: no client id is configured.</p>{{end}}
<p>Password and email code sign in are available from the terminal: <code>frontauth login</code></p>
</body></html>{{end}}

{{define "landing"}}<!doctype html>
<html><head><title>{{.Route}}</title></head><body>
<h1>{{.Route}}</h1>
{{with .User}}<p>Signed in as {{with index . "email"}}{{.}}{{else}}{{index . "username"}}{{end}}</p>{{else}}<p>Signed in</p>{{end}}
<form method="post" action="/logout"><button type="submit">Sign out</button></form>
</body></html>{{end}}
`))
