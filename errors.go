package frontauth

import (
	"errors"
	"fmt"
)

var (
	// ErrSubmissionPending is returned when a submission is attempted while another is in flight
	ErrSubmissionPending = errors.New("a login request is already in flight")

	// ErrFlowComplete is returned once a session has been established by the flow
	ErrFlowComplete = errors.New("login flow already completed")

	// ErrInactiveForm is returned when submitting a form that is not currently shown
	ErrInactiveForm = errors.New("form is not active")

	// ErrSuperseded is returned when the user switched method while the request was in flight
	ErrSuperseded = errors.New("login request superseded by a method change")

	ErrUnknownField  = errors.New("unknown form field")
	ErrUnknownMethod = errors.New("unknown login method")

	errEmptyResult = errors.New("empty authentication result")
)

// RequestError reports a failed remote call. Message is the human readable
// text supplied by the backend, if any.
type RequestError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("request failed (HTTP %d): %s", e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("request failed: %v", e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("request failed: HTTP %d", e.StatusCode)
	}
	return "request failed"
}

func (e *RequestError) Unwrap() error { return e.Err }

// ValidationError reports a required field that is empty or malformed
type ValidationError struct {
	Field   Field
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// DecodeFailure reports a token whose claims could not be decoded. It is
// never fatal.
type DecodeFailure struct {
	Err error
}

func (e *DecodeFailure) Error() string {
	return fmt.Sprintf("malformed token: %v", e.Err)
}

func (e *DecodeFailure) Unwrap() error { return e.Err }

// serverMessage returns the backend supplied message carried by err, if any.
func serverMessage(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	return ""
}
