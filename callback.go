package frontauth

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
)

// Query parameters carried by the out-of-band login redirect
const (
	ParamToken = "token"
	ParamError = "error"
)

// ErrCodeSessionUnavailable is carried to the login page when the token
// from a callback could not be stored
const ErrCodeSessionUnavailable = "session_unavailable"

// CallbackLandingHandler completes a login that was finished on another
// page (typically a federated login handled by the backend) and redirected
// here with either a token or an error.
//
// Successful callbacks always land on Landing. RedirectPolicy is not
// consulted because the role is only known from untrusted claims.
type CallbackLandingHandler struct {
	Sessions  *SessionStore
	Navigator Navigator

	// Landing is where an accepted token leads. Defaults to RouteHome.
	Landing Route

	// Routes renders destinations for ServeHTTP. Defaults to DefaultRoutes.
	Routes RouteTable

	Logger *slog.Logger
}

// Handle decides, persists and navigates once for the given parameters. It
// returns the destination it navigated to.
func (h *CallbackLandingHandler) Handle(ctx context.Context, params url.Values) Destination {
	dest := h.decide(ctx, params)
	if h.Navigator != nil {
		h.Navigator.Navigate(dest)
	}
	return dest
}

// ServeHTTP runs the callback for a request and answers with a redirect to
// the destination.
func (h *CallbackLandingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	dest := h.decide(r.Context(), r.URL.Query())
	routes := h.Routes
	if routes == nil {
		routes = DefaultRoutes
	}
	http.Redirect(w, r, routes.URL(dest), http.StatusFound)
}

func (h *CallbackLandingHandler) decide(ctx context.Context, params url.Values) Destination {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if errMsg := params.Get(ParamError); errMsg != "" {
		logger.Warn("authentication callback reported an error", "error", errMsg)
		return Destination{Route: RouteLogin, Error: errMsg}
	}

	token := params.Get(ParamToken)
	if token == "" {
		return Destination{Route: RouteLogin}
	}

	if err := h.Sessions.SaveToken(ctx, token); err != nil {
		logger.Error("failed to store callback token", "error", err)
		return Destination{Route: RouteLogin, Error: ErrCodeSessionUnavailable}
	}

	claims, err := UntrustedClaims(token)
	if err != nil {
		logger.Warn("could not decode callback token claims", "error", err)
		// a user record left by an earlier session must not pair with this token
		if err := h.Sessions.ClearUser(ctx); err != nil {
			logger.Warn("failed to clear stale user", "error", err)
		}
	} else if err := h.Sessions.SaveUser(ctx, claims); err != nil {
		logger.Warn("failed to store decoded user", "error", err)
	}

	landing := h.Landing
	if landing == "" {
		landing = RouteHome
	}
	return Destination{Route: landing}
}
