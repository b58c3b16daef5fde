// Package client provides the HTTP implementation of frontauth.AuthClient
// and transports that attach the persisted bearer token to later API calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	fa "github.com/martinez-Diana/FRONTJMARTINEZ"
)

var _ fa.AuthClient = (*AuthClient)(nil)

// Endpoints are the backend paths of the four operations
type Endpoints struct {
	Login       string
	RequestCode string
	VerifyCode  string
	Federated   string
}

var DefaultEndpoints = Endpoints{
	Login:       "/api/login",
	RequestCode: "/api/auth/email/request-code",
	VerifyCode:  "/api/auth/email/verify-code",
	Federated:   "/api/auth/google",
}

// AuthClient talks JSON over HTTP to the authentication backend
type AuthClient struct {
	serverURL  string
	httpClient *http.Client
	endpoints  Endpoints
}

// LoginRequest is the body of the password login call
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CodeRequest is the body of the request-code and verify-code calls
type CodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code,omitempty"`
}

// FederatedRequest is the body of the federated login call
type FederatedRequest struct {
	Credential string `json:"credential"`
}

// ErrorResponse is the body the backend sends with a failure status
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ClientOption configures an AuthClient
type ClientOption func(*AuthClient)

// WithEndpoints overrides the backend paths. Empty entries keep their defaults.
func WithEndpoints(endpoints Endpoints) ClientOption {
	return func(c *AuthClient) {
		if endpoints.Login != "" {
			c.endpoints.Login = endpoints.Login
		}
		if endpoints.RequestCode != "" {
			c.endpoints.RequestCode = endpoints.RequestCode
		}
		if endpoints.VerifyCode != "" {
			c.endpoints.VerifyCode = endpoints.VerifyCode
		}
		if endpoints.Federated != "" {
			c.endpoints.Federated = endpoints.Federated
		}
	}
}

// WithHTTPClient sets a custom HTTP client (for timeouts, TLS config, etc.)
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *AuthClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTransport sets a custom transport (for connection pooling, proxies, etc.)
func WithTransport(transport http.RoundTripper) ClientOption {
	return func(c *AuthClient) {
		c.httpClient = &http.Client{
			Transport: transport,
			Timeout:   c.httpClient.Timeout,
		}
	}
}

// NewAuthClient creates a client for the backend at serverURL
func NewAuthClient(serverURL string, opts ...ClientOption) *AuthClient {
	// Normalize server URL
	u, err := url.Parse(serverURL)
	if err == nil && u.Scheme != "" && u.Host != "" {
		serverURL = fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, strings.TrimSuffix(u.Path, "/"))
	}

	c := &AuthClient{
		serverURL:  serverURL,
		httpClient: &http.Client{},
		endpoints:  DefaultEndpoints,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ServerURL returns the server URL this client is configured for
func (c *AuthClient) ServerURL() string {
	return c.serverURL
}

// Login authenticates with username (or email) and password
func (c *AuthClient) Login(ctx context.Context, username, password string) (*fa.AuthResult, error) {
	var result fa.AuthResult
	if err := c.post(ctx, c.endpoints.Login, LoginRequest{Username: username, Password: password}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RequestEmailCode asks the backend to email a one-time code
func (c *AuthClient) RequestEmailCode(ctx context.Context, email string) error {
	return c.post(ctx, c.endpoints.RequestCode, CodeRequest{Email: email}, nil)
}

// VerifyEmailCode exchanges an emailed code for a session
func (c *AuthClient) VerifyEmailCode(ctx context.Context, email, code string) (*fa.AuthResult, error) {
	var result fa.AuthResult
	if err := c.post(ctx, c.endpoints.VerifyCode, CodeRequest{Email: email, Code: code}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FederatedLogin exchanges an identity provider credential (a Google ID token) for a session
func (c *AuthClient) FederatedLogin(ctx context.Context, credential string) (*fa.AuthResult, error) {
	var result fa.AuthResult
	if err := c.post(ctx, c.endpoints.Federated, FederatedRequest{Credential: credential}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// post sends body as JSON and decodes a 2xx response into out (if non nil).
// Every failure is returned as a *fa.RequestError.
func (c *AuthClient) post(ctx context.Context, path string, body any, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return &fa.RequestError{Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return &fa.RequestError{Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &fa.RequestError{Err: fmt.Errorf("failed to connect to server: %w", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &fa.RequestError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reqErr := &fa.RequestError{StatusCode: resp.StatusCode}
		var errResp ErrorResponse
		if json.Unmarshal(data, &errResp) == nil {
			reqErr.Message = errResp.Error
			if reqErr.Message == "" {
				reqErr.Message = errResp.Message
			}
		}
		return reqErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &fa.RequestError{StatusCode: resp.StatusCode, Err: fmt.Errorf("invalid response from server: %w", err)}
	}
	return nil
}
