package frontauth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// NavigationDelay is how long the success message stays visible before navigating
const NavigationDelay = 1500 * time.Millisecond

const (
	kindPassword    = "password"
	kindRequestCode = "request-code"
	kindVerifyCode  = "verify-code"
	kindFederated   = "federated"
)

// FlowOption configures a LoginFlowController
type FlowOption func(*LoginFlowController)

// WithClock sets the clock the navigation delay is scheduled on
func WithClock(clock clockwork.Clock) FlowOption {
	return func(c *LoginFlowController) {
		c.clock = clock
	}
}

func WithRedirectPolicy(policy *RedirectPolicy) FlowOption {
	return func(c *LoginFlowController) {
		c.policy = policy
	}
}

// WithMessages overrides the user facing texts. Empty entries keep their defaults.
func WithMessages(messages Messages) FlowOption {
	return func(c *LoginFlowController) {
		c.messages = messages
	}
}

func WithLogger(logger *slog.Logger) FlowOption {
	return func(c *LoginFlowController) {
		c.logger = logger
	}
}

func WithNavigationDelay(d time.Duration) FlowOption {
	return func(c *LoginFlowController) {
		c.delay = d
	}
}

// attempt is one in-flight submission
type attempt struct {
	id        string
	kind      string
	view      FormView
	federated bool
}

// LoginFlowController drives the login state machine: method selection, the
// email request/verify sub-flow, the lifecycle of the single in-flight
// request, session persistence and the deferred post-login navigation.
//
// All methods are safe for concurrent use. At most one submission is in
// flight at any time; the remote call runs without the lock held.
type LoginFlowController struct {
	mu        sync.Mutex
	client    AuthClient
	sessions  *SessionStore
	navigator Navigator
	policy    *RedirectPolicy
	clock     clockwork.Clock
	messages  Messages
	logger    *slog.Logger
	delay     time.Duration

	state       FlowState
	fields      Fields
	inflight    *attempt
	established bool
	navTimer    clockwork.Timer
}

// NewLoginFlowController creates a controller in its initial state: the
// traditional method selected, nothing in flight.
func NewLoginFlowController(client AuthClient, sessions *SessionStore, navigator Navigator, opts ...FlowOption) *LoginFlowController {
	c := &LoginFlowController{
		client:    client,
		sessions:  sessions,
		navigator: navigator,
		state: FlowState{
			Method:  MethodTraditional,
			SubStep: SubStepRequest,
			Status:  StatusIdle,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.navigator == nil {
		c.navigator = NavigatorFunc(func(Destination) {})
	}
	if c.policy == nil {
		c.policy = DefaultRedirectPolicy()
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.delay <= 0 {
		c.delay = NavigationDelay
	}
	c.messages = c.messages.withDefaults()
	return c
}

// State returns a snapshot of the flow
func (c *LoginFlowController) State() FlowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Fields returns the current form values
func (c *LoginFlowController) Fields() Fields {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fields
}

// View returns the form that should currently be shown
func (c *LoginFlowController) View() FormView {
	return c.State().View()
}

// Busy reports whether a submission is in flight. Submit controls should be
// disabled while it returns true.
func (c *LoginFlowController) Busy() bool {
	return c.State().Status == StatusPending
}

// SelectMethod switches the active method. Selecting the email method
// always starts again at the request step. Field values are kept.
func (c *LoginFlowController) SelectMethod(method Method) error {
	if method != MethodTraditional && method != MethodEmail {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Method = method
	if method == MethodEmail {
		c.state.SubStep = SubStepRequest
	}
	return nil
}

// OnFieldChange updates a form field and clears any displayed message
func (c *LoginFlowController) OnFieldChange(field Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch field {
	case FieldUsername:
		c.fields.Username = value
	case FieldPassword:
		c.fields.Password = value
	case FieldEmail:
		c.fields.Email = value
	case FieldCode:
		c.fields.Code = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	c.state.Message = ""
	c.state.ErrorMessage = ""
	return nil
}

// SubmitPasswordLogin logs in with the username and password fields.
//
// Like all Submit methods it returns an error only when the submission was
// rejected before any request was made (ErrSubmissionPending,
// ErrFlowComplete, ErrInactiveForm or a *ValidationError), or ErrSuperseded
// when the user left the form while the request was in flight. The outcome
// of the request itself is reported through State.
func (c *LoginFlowController) SubmitPasswordLogin(ctx context.Context) error {
	a, f, err := c.begin(kindPassword, TraditionalForm, func(f Fields) error {
		if err := requireField(FieldUsername, f.Username); err != nil {
			return err
		}
		return requireField(FieldPassword, f.Password)
	})
	if err != nil {
		return err
	}

	result, err := c.client.Login(ctx, f.Username, f.Password)
	return c.establish(ctx, a, result, err, c.messages.LoginSuccess, c.messages.LoginFailed)
}

// SubmitRequestCode asks for a one-time code to be emailed. On success the
// flow moves to the verify step; no session is written.
func (c *LoginFlowController) SubmitRequestCode(ctx context.Context) error {
	a, f, err := c.begin(kindRequestCode, EmailRequestForm, func(f Fields) error {
		return requireField(FieldEmail, f.Email)
	})
	if err != nil {
		return err
	}

	reqErr := c.client.RequestEmailCode(ctx, f.Email)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.settleLocked(a); err != nil {
		return err
	}
	if reqErr != nil {
		c.failLocked(a, reqErr, c.messages.CodeRequestFailed)
		return nil
	}

	c.state.Status = StatusSuccess
	c.state.SubStep = SubStepVerify
	c.state.Message = c.messages.CodeSent
	c.state.ErrorMessage = ""
	c.logger.Info("login code requested", "attempt", a.id)
	return nil
}

// SubmitVerifyCode exchanges the emailed code for a session
func (c *LoginFlowController) SubmitVerifyCode(ctx context.Context) error {
	a, f, err := c.begin(kindVerifyCode, EmailVerifyForm, func(f Fields) error {
		if err := requireField(FieldEmail, f.Email); err != nil {
			return err
		}
		if err := requireField(FieldCode, f.Code); err != nil {
			return err
		}
		if utf8.RuneCountInString(f.Code) > MaxCodeLength {
			return &ValidationError{Field: FieldCode, Message: fmt.Sprintf("must be at most %d characters", MaxCodeLength)}
		}
		return nil
	})
	if err != nil {
		return err
	}

	result, err := c.client.VerifyEmailCode(ctx, f.Email, f.Code)
	return c.establish(ctx, a, result, err, c.messages.CodeVerified, c.messages.CodeInvalid)
}

// SubmitFederated exchanges an identity provider credential for a session.
// It is available whichever method is selected.
func (c *LoginFlowController) SubmitFederated(ctx context.Context, credential string) error {
	a, _, err := c.begin(kindFederated, TraditionalForm, func(Fields) error {
		if credential == "" {
			return &ValidationError{Field: FieldCredential, Message: "required"}
		}
		return nil
	})
	if err != nil {
		return err
	}

	result, err := c.client.FederatedLogin(ctx, credential)
	return c.establish(ctx, a, result, err, c.messages.FederatedSuccess, c.messages.FederatedFailed)
}

// OnFederatedError records a failure reported by the identity provider
// before any credential was obtained (for example a closed consent popup).
func (c *LoginFlowController) OnFederatedError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Status == StatusPending || c.established {
		return
	}
	c.logger.Warn("identity provider reported an error", "error", err)
	c.state.Status = StatusError
	c.state.Message = ""
	c.state.ErrorMessage = c.messages.FederatedFailed
}

// CancelNavigation stops a scheduled post-login navigation. It reports
// whether a navigation was actually cancelled.
func (c *LoginFlowController) CancelNavigation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.navTimer == nil {
		return false
	}
	stopped := c.navTimer.Stop()
	c.navTimer = nil
	return stopped
}

// begin moves the flow to pending and returns a snapshot of the fields the
// request should use.
func (c *LoginFlowController) begin(kind string, view FormView, validate func(Fields) error) (*attempt, Fields, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status == StatusPending {
		return nil, Fields{}, ErrSubmissionPending
	}
	if c.established {
		return nil, Fields{}, ErrFlowComplete
	}
	federated := kind == kindFederated
	if !federated && c.state.View() != view {
		return nil, Fields{}, fmt.Errorf("%w: %s", ErrInactiveForm, view)
	}
	if err := validate(c.fields); err != nil {
		return nil, Fields{}, err
	}

	a := &attempt{
		id:        uuid.NewString(),
		kind:      kind,
		view:      view,
		federated: federated,
	}
	c.inflight = a
	c.state.Status = StatusPending
	c.state.Message = ""
	c.state.ErrorMessage = ""
	c.logger.Debug("login submission started", "attempt", a.id, "kind", kind)
	return a, c.fields, nil
}

// settleLocked ends the in-flight attempt. A non-federated attempt whose
// form is no longer shown is discarded without touching state.
// Caller must hold c.mu
func (c *LoginFlowController) settleLocked(a *attempt) error {
	if c.inflight == a {
		c.inflight = nil
	}
	if !a.federated && c.state.View() != a.view {
		c.state.Status = StatusIdle
		c.logger.Info("discarding superseded login result", "attempt", a.id, "kind", a.kind)
		return ErrSuperseded
	}
	return nil
}

// Caller must hold c.mu
func (c *LoginFlowController) failLocked(a *attempt, err error, fallback string) {
	msg := serverMessage(err)
	if msg == "" {
		msg = fallback
	}
	c.state.Status = StatusError
	c.state.Message = ""
	c.state.ErrorMessage = msg
	c.logger.Warn("login submission failed", "attempt", a.id, "kind", a.kind, "error", err)
}

// establish completes a session issuing submission: persist, report and
// schedule navigation to the user's landing route. A result is judged
// against the form shown when it arrives; the session write that follows
// runs without the lock while the flow stays pending.
func (c *LoginFlowController) establish(ctx context.Context, a *attempt, result *AuthResult, err error, okMsg, failMsg string) error {
	if err == nil && (result == nil || result.Token == "") {
		err = &RequestError{Err: errEmptyResult}
	}

	c.mu.Lock()
	if serr := c.settleLocked(a); serr != nil {
		c.mu.Unlock()
		return serr
	}
	if err != nil {
		c.failLocked(a, err, failMsg)
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	saveErr := c.sessions.Save(ctx, result)
	if saveErr != nil {
		c.logger.Error("failed to persist session", "attempt", a.id, "error", saveErr)
		// a token without its user record must not outlive the failure
		if err := c.sessions.Clear(ctx); err != nil {
			c.logger.Warn("failed to clear partial session", "attempt", a.id, "error", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if saveErr != nil {
		c.state.Status = StatusError
		c.state.Message = ""
		c.state.ErrorMessage = c.messages.SessionSaveFailed
		return nil
	}

	c.established = true
	c.state.Status = StatusSuccess
	c.state.Message = okMsg
	c.state.ErrorMessage = ""

	dest := c.policy.RouteForUser(result.User)
	navigator := c.navigator
	c.navTimer = c.clock.AfterFunc(c.delay, func() {
		navigator.Navigate(dest)
	})
	c.logger.Info("login succeeded", "attempt", a.id, "kind", a.kind, "route", dest.Route)
	return nil
}

func requireField(field Field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Message: "required"}
	}
	return nil
}
