package frontauth

import (
	"encoding/json"
	"math"
)

// Method is a login method the user can select
type Method string

const (
	MethodTraditional Method = "traditional"
	MethodEmail       Method = "email"
)

// SubStep is the step within the email code flow
type SubStep string

const (
	SubStepRequest SubStep = "request"
	SubStepVerify  SubStep = "verify"
)

// Status is the lifecycle of the current submission
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// FormView tells a presentation layer which of the mutually exclusive forms to show.
type FormView int

const (
	TraditionalForm FormView = iota
	EmailRequestForm
	EmailVerifyForm
)

func (v FormView) String() string {
	switch v {
	case TraditionalForm:
		return "traditional"
	case EmailRequestForm:
		return "email-request"
	case EmailVerifyForm:
		return "email-verify"
	}
	return "unknown"
}

// Field names a form input
type Field string

const (
	FieldUsername Field = "username"
	FieldPassword Field = "password"
	FieldEmail    Field = "email"
	FieldCode     Field = "code"

	// FieldCredential is the federated credential. It is not a form input.
	FieldCredential Field = "credential"
)

// MaxCodeLength is the length of the one-time codes sent by email
const MaxCodeLength = 6

// Fields holds the current form values. They are transient and never persisted.
type Fields struct {
	Username string
	Password string
	Email    string
	Code     string
}

// FlowState is a snapshot of the login flow
type FlowState struct {
	Method       Method
	SubStep      SubStep // only meaningful when Method is MethodEmail
	Status       Status
	Message      string
	ErrorMessage string
}

// View derives the form to render from the method and sub-step.
func (s FlowState) View() FormView {
	if s.Method != MethodEmail {
		return TraditionalForm
	}
	if s.SubStep == SubStepVerify {
		return EmailVerifyForm
	}
	return EmailRequestForm
}

// UserProfile is the user record returned by the backend (or decoded from
// token claims). The core only ever inspects role_id.
type UserProfile map[string]any

// RoleID returns the numeric role of the user. ok is false when the field is
// absent or does not hold an integer. Strings never count, even "2".
func (p UserProfile) RoleID() (id int, ok bool) {
	if p == nil {
		return 0, false
	}
	switch v := p["role_id"].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// AuthResult is what a successful login call yields
type AuthResult struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}

// Session is the persisted {token, user} pair. User may be nil when only a
// token could be stored.
type Session struct {
	Token string
	User  UserProfile
}
