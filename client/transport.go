package client

import (
	"context"
	"net/http"
)

// TokenSource yields the bearer token for outgoing requests. An empty token
// means the request is sent unauthenticated. *frontauth.SessionStore
// implements it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// AuthTransport wraps an http.RoundTripper to add Authorization headers
type AuthTransport struct {
	Base  http.RoundTripper
	Token string
}

// RoundTrip implements http.RoundTripper
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return roundTripWithToken(t.Base, req, t.Token)
}

// NewAuthTransport creates an AuthTransport with the given token
func NewAuthTransport(token string) *AuthTransport {
	return &AuthTransport{
		Base:  http.DefaultTransport,
		Token: token,
	}
}

// SessionTransport looks the token up on every request, so a login or
// logout takes effect on clients created before it.
type SessionTransport struct {
	Base   http.RoundTripper
	Tokens TokenSource
}

// NewSessionTransport creates a SessionTransport over base (http.DefaultTransport if nil)
func NewSessionTransport(base http.RoundTripper, tokens TokenSource) *SessionTransport {
	return &SessionTransport{Base: base, Tokens: tokens}
}

// RoundTrip implements http.RoundTripper
func (t *SessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.Tokens.Token(req.Context())
	if err != nil {
		return nil, err
	}
	return roundTripWithToken(t.Base, req, token)
}

// NewAPIClient returns an HTTP client whose requests carry the persisted token
func NewAPIClient(tokens TokenSource) *http.Client {
	return &http.Client{Transport: NewSessionTransport(nil, tokens)}
}

func roundTripWithToken(base http.RoundTripper, req *http.Request, token string) (*http.Response, error) {
	if token != "" {
		// Clone the request to avoid mutating the original
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
