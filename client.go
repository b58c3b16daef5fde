package frontauth

import "context"

// AuthClient performs the remote authentication operations. Failures should
// be reported as *RequestError so the backend's message can reach the user.
type AuthClient interface {
	// Login authenticates with a username (or email) and password
	Login(ctx context.Context, username, password string) (*AuthResult, error)

	// RequestEmailCode asks the backend to email a one-time code. No token is issued.
	RequestEmailCode(ctx context.Context, email string) error

	// VerifyEmailCode exchanges an emailed code for a session
	VerifyEmailCode(ctx context.Context, email, code string) (*AuthResult, error)

	// FederatedLogin exchanges an identity provider credential for a session
	FederatedLogin(ctx context.Context, credential string) (*AuthResult, error)
}
