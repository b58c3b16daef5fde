package oauth2

import (
	"os"
	"strings"

	"golang.org/x/oauth2/google"
)

type GoogleOAuth2 struct {
	*BaseOAuth2
}

// NewGoogleOAuth2 creates the Google credential source. Empty arguments fall
// back to OAUTH2_GOOGLE_CLIENT_ID, OAUTH2_GOOGLE_CLIENT_SECRET and
// OAUTH2_GOOGLE_CALLBACK_URL.
func NewGoogleOAuth2(clientId string, clientSecret string, callbackUrl string, handleCredential CredentialFunc) *GoogleOAuth2 {
	if clientId == "" {
		clientId = strings.TrimSpace(os.Getenv("OAUTH2_GOOGLE_CLIENT_ID"))
	}
	if clientSecret == "" {
		clientSecret = strings.TrimSpace(os.Getenv("OAUTH2_GOOGLE_CLIENT_SECRET"))
	}
	if callbackUrl == "" {
		callbackUrl = strings.TrimSpace(os.Getenv("OAUTH2_GOOGLE_CALLBACK_URL"))
	}

	out := GoogleOAuth2{
		BaseOAuth2: NewBaseOAuth2(clientId, clientSecret, callbackUrl, handleCredential),
	}
	out.oauthConfig.Endpoint = google.Endpoint
	// openid is what makes Google include an id_token in the token response.
	out.oauthConfig.Scopes = []string{"openid", "email", "profile"}
	return &out
}
