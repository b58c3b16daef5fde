package frontauth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fa "github.com/martinez-Diana/FRONTJMARTINEZ"
	"github.com/martinez-Diana/FRONTJMARTINEZ/stores"
)

func userResult(token string, roleID any) *fa.AuthResult {
	user := fa.UserProfile{"id": 7, "username": "ana"}
	if roleID != nil {
		user["role_id"] = roleID
	}
	return &fa.AuthResult{Token: token, User: user}
}

func TestNewLoginFlowController_InitialState(t *testing.T) {
	h := newHarness(t, &fakeClient{})

	state := h.controller.State()
	assert.Equal(t, fa.MethodTraditional, state.Method)
	assert.Equal(t, fa.StatusIdle, state.Status)
	assert.Empty(t, state.Message)
	assert.Empty(t, state.ErrorMessage)
	assert.Equal(t, fa.TraditionalForm, h.controller.View())
	assert.False(t, h.controller.Busy())
}

func TestSelectMethod_EmailAlwaysStartsAtRequest(t *testing.T) {
	h := newHarness(t, &fakeClient{})
	h.setFields(t, "email", "ana@example.com")

	require.NoError(t, h.controller.SelectMethod(fa.MethodEmail))
	require.NoError(t, h.controller.SubmitRequestCode(context.Background()))
	require.Equal(t, fa.EmailVerifyForm, h.controller.View())

	// reselecting email from verify
	require.NoError(t, h.controller.SelectMethod(fa.MethodEmail))
	assert.Equal(t, fa.SubStepRequest, h.controller.State().SubStep)

	// and after a detour through the traditional form
	require.NoError(t, h.controller.SubmitRequestCode(context.Background()))
	require.NoError(t, h.controller.SelectMethod(fa.MethodTraditional))
	require.NoError(t, h.controller.SelectMethod(fa.MethodEmail))
	assert.Equal(t, fa.EmailRequestForm, h.controller.View())

	assert.Equal(t, "ana@example.com", h.controller.Fields().Email, "field values survive method changes")
}

func TestSelectMethod_Unknown(t *testing.T) {
	h := newHarness(t, &fakeClient{})
	err := h.controller.SelectMethod(fa.Method("sms"))
	assert.ErrorIs(t, err, fa.ErrUnknownMethod)
	assert.Equal(t, fa.MethodTraditional, h.controller.State().Method)
}

func TestSubmitPasswordLogin_RoutesByRole(t *testing.T) {
	tests := []struct {
		name   string
		roleID any
		want   fa.Route
	}{
		{name: "administrator", roleID: 1, want: fa.RouteAdmin},
		{name: "employee", roleID: 2, want: fa.RouteStaff},
		{name: "catalog viewer", roleID: 3, want: fa.RouteCatalog},
		{name: "json float role", roleID: float64(2), want: fa.RouteStaff},
		{name: "unknown role", roleID: 42, want: fa.RouteHome},
		{name: "missing role", roleID: nil, want: fa.RouteHome},
		{name: "malformed role", roleID: "admin", want: fa.RouteHome},
		{name: "string role", roleID: "2", want: fa.RouteHome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, &fakeClient{result: userResult("tok-"+tt.name, tt.roleID)})
			h.setFields(t, "username", "ana", "password", "secret")

			require.NoError(t, h.controller.SubmitPasswordLogin(context.Background()))

			state := h.controller.State()
			assert.Equal(t, fa.StatusSuccess, state.Status)
			assert.Equal(t, fa.DefaultMessages.LoginSuccess, state.Message)
			assert.Empty(t, h.navigator.Destinations(), "navigation waits for the delay")

			dests := h.fireNavigation(t, 1)
			assert.Equal(t, fa.Destination{Route: tt.want}, dests[0])

			session := h.navigator.SessionAt(0)
			require.NotNil(t, session, "session must be persisted before navigating")
			assert.Equal(t, "tok-"+tt.name, session.Token)
			assert.NotNil(t, session.User)
		})
	}
}

func TestSubmitPasswordLogin_NavigatesOnlyAfterDelay(t *testing.T) {
	h := newHarness(t, &fakeClient{result: userResult("tok", 1)})
	h.setFields(t, "username", "ana", "password", "secret")
	require.NoError(t, h.controller.SubmitPasswordLogin(context.Background()))

	h.clock.Advance(fa.NavigationDelay - time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, h.navigator.Destinations())

	h.clock.Advance(time.Millisecond)
	require.Eventually(t, func() bool {
		return len(h.navigator.Destinations()) == 1
	}, time.Second, time.Millisecond)
}

func TestSubmitPasswordLogin_Failure(t *testing.T) {
	t.Run("uses server message", func(t *testing.T) {
		h := newHarness(t, &fakeClient{err: &fa.RequestError{StatusCode: 401, Message: "Credenciales inválidas"}})
		h.setFields(t, "username", "ana", "password", "wrong")

		require.NoError(t, h.controller.SubmitPasswordLogin(context.Background()))

		state := h.controller.State()
		assert.Equal(t, fa.StatusError, state.Status)
		assert.Equal(t, "Credenciales inválidas", state.ErrorMessage)
		assert.Empty(t, state.Message)
		assert.Zero(t, h.kv.Len())
	})

	t.Run("falls back without server message", func(t *testing.T) {
		h := newHarness(t, &fakeClient{err: errors.New("connection refused")})
		h.setFields(t, "username", "ana", "password", "secret")

		require.NoError(t, h.controller.SubmitPasswordLogin(context.Background()))
		assert.Equal(t, fa.DefaultMessages.LoginFailed, h.controller.State().ErrorMessage)
	})

	t.Run("empty token is a failure", func(t *testing.T) {
		h := newHarness(t, &fakeClient{result: &fa.AuthResult{User: fa.UserProfile{"role_id": 1}}})
		h.setFields(t, "username", "ana", "password", "secret")

		require.NoError(t, h.controller.SubmitPasswordLogin(context.Background()))
		assert.Equal(t, fa.StatusError, h.controller.State().Status)
		assert.Zero(t, h.kv.Len())
	})

	t.Run("can retry after failure", func(t *testing.T) {
		client := &fakeClient{err: &fa.RequestError{Message: "nope"}}
		h := newHarness(t, client)
		h.setFields(t, "username", "ana", "password", "secret")
		require.NoError(t, h.controller.SubmitPasswordLogin(context.Background()))

		client.err = nil
		client.result = userResult("tok", 2)
		require.NoError(t, h.controller.SubmitPasswordLogin(context.Background()))
		assert.Equal(t, fa.StatusSuccess, h.controller.State().Status)
		assert.Len(t, client.Calls(), 2)
	})
}

func TestSubmit_Validation(t *testing.T) {
	client := &fakeClient{result: userResult("tok", 1)}
	h := newHarness(t, client)

	var verr *fa.ValidationError
	err := h.controller.SubmitPasswordLogin(context.Background())
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, fa.FieldUsername, verr.Field)

	h.setFields(t, "username", "ana")
	err = h.controller.SubmitPasswordLogin(context.Background())
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, fa.FieldPassword, verr.Field)

	require.NoError(t, h.controller.SelectMethod(fa.MethodEmail))
	err = h.controller.SubmitRequestCode(context.Background())
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, fa.FieldEmail, verr.Field)

	err = h.controller.SubmitFederated(context.Background(), "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, fa.FieldCredential, verr.Field)

	assert.Empty(t, client.Calls(), "rejected submissions make no request")
	assert.Equal(t, fa.StatusIdle, h.controller.State().Status)
}

func TestSubmitVerifyCode_CodeLength(t *testing.T) {
	client := &fakeClient{result: userResult("tok", 3)}
	h := newHarness(t, client)
	h.setFields(t, "email", "ana@example.com")
	require.NoError(t, h.controller.SelectMethod(fa.MethodEmail))
	require.NoError(t, h.controller.SubmitRequestCode(context.Background()))

	h.setFields(t, "code", "1234567")
	var verr *fa.ValidationError
	require.ErrorAs(t, h.controller.SubmitVerifyCode(context.Background()), &verr)
	assert.Equal(t, fa.FieldCode, verr.Field)
	assert.Contains(t, verr.Error(), "6")

	h.setFields(t, "code", "")
	require.ErrorAs(t, h.controller.SubmitVerifyCode(context.Background()), &verr)

	h.setFields(t, "code", "123456")
	require.NoError(t, h.controller.SubmitVerifyCode(context.Background()))
	assert.Equal(t, []string{"request-code:ana@example.com", "verify-code:ana@example.com:123456"}, client.Calls())
}

func TestSubmit_InactiveForm(t *testing.T) {
	client := &fakeClient{result: userResult("tok", 1)}
	h := newHarness(t, client)
	h.setFields(t, "email", "ana@example.com", "code", "123456", "username", "ana", "password", "x")

	assert.ErrorIs(t, h.controller.SubmitRequestCode(context.Background()), fa.ErrInactiveForm)
	assert.ErrorIs(t, h.controller.SubmitVerifyCode(context.Background()), fa.ErrInactiveForm)

	require.NoError(t, h.controller.SelectMethod(fa.MethodEmail))
	assert.ErrorIs(t, h.controller.SubmitPasswordLogin(context.Background()), fa.ErrInactiveForm)
	assert.ErrorIs(t, h.controller.SubmitVerifyCode(context.Background()), fa.ErrInactiveForm)

	assert.Empty(t, client.Calls())
}

func TestSubmitRequestCode_NoSessionNoNavigation(t *testing.T) {
	h := newHarness(t, &fakeClient{})
	h.setFields(t, "email", "ana@example.com")
	require.NoError(t, h.controller.SelectMethod(fa.MethodEmail))

	require.NoError(t, h.controller.SubmitRequestCode(context.Background()))

	state := h.controller.State()
	assert.Equal(t, fa.StatusSuccess, state.Status)
	assert.Equal(t, fa.SubStepVerify, state.SubStep)
	assert.Equal(t, fa.DefaultMessages.CodeSent, state.Message)
	assert.Zero(t, h.kv.Len(), "requesting a code never writes the session")

	h.clock.Advance(10 * fa.NavigationDelay)
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, h.navigator.Destinations())
}

func TestSubmitRequestCode_Failure(t *testing.T) {
	h := newHarness(t, &fakeClient{codeErr: &fa.RequestError{StatusCode: 404, Message: "Usuario no encontrado"}})
	h.setFields(t, "email", "nobody@example.com")
	require.NoError(t, h.controller.SelectMethod(fa.MethodEmail))

	require.NoError(t, h.controller.SubmitRequestCode(context.Background()))

	state := h.controller.State()
	assert.Equal(t, fa.StatusError, state.Status)
	assert.Equal(t, fa.SubStepRequest, state.SubStep)
	assert.Equal(t, "Usuario no encontrado", state.ErrorMessage)
}

func TestSubmitVerifyCode_Success(t *testing.T) {
	h := newHarness(t, &fakeClient{result: userResult("email-tok", 2)})
	h.setFields(t, "email", "ana@example.com")
	require.NoError(t, h.controller.SelectMethod(fa.MethodEmail))
	require.NoError(t, h.controller.SubmitRequestCode(context.Background()))
	h.setFields(t, "code", "654321")

	require.NoError(t, h.controller.SubmitVerifyCode(context.Background()))
	assert.Equal(t, fa.DefaultMessages.CodeVerified, h.controller.State().Message)

	dests := h.fireNavigation(t, 1)
	assert.Equal(t, fa.RouteStaff, dests[0].Route)
	assert.Equal(t, "email-tok", h.navigator.SessionAt(0).Token)
}

func TestSubmitVerifyCode_InvalidCode(t *testing.T) {
	h := newHarness(t, &fakeClient{err: &fa.RequestError{StatusCode: 400}})
	h.setFields(t, "email", "ana@example.com")
	require.NoError(t, h.controller.SelectMethod(fa.MethodEmail))
	require.NoError(t, h.controller.SubmitRequestCode(context.Background()))
	h.setFields(t, "code", "000000")

	require.NoError(t, h.controller.SubmitVerifyCode(context.Background()))

	state := h.controller.State()
	assert.Equal(t, fa.StatusError, state.Status)
	assert.Equal(t, fa.DefaultMessages.CodeInvalid, state.ErrorMessage)
	assert.Equal(t, fa.EmailVerifyForm, state.View(), "a wrong code stays on the verify form")
}

func TestSubmitFederated_FromAnyMethod(t *testing.T) {
	h := newHarness(t, &fakeClient{result: userResult("g-tok", 1)})
	require.NoError(t, h.controller.SelectMethod(fa.MethodEmail))

	require.NoError(t, h.controller.SubmitFederated(context.Background(), "google-credential"))
	assert.Equal(t, fa.DefaultMessages.FederatedSuccess, h.controller.State().Message)

	dests := h.fireNavigation(t, 1)
	assert.Equal(t, fa.RouteAdmin, dests[0].Route)
	assert.Equal(t, []string{"federated:google-credential"}, h.client.Calls())
}

func TestSubmitFederated_Failure(t *testing.T) {
	h := newHarness(t, &fakeClient{err: &fa.RequestError{StatusCode: 401, Message: "Token de Google inválido"}})

	require.NoError(t, h.controller.SubmitFederated(context.Background(), "bad"))
	assert.Equal(t, "Token de Google inválido", h.controller.State().ErrorMessage)
}

func TestOnFederatedError(t *testing.T) {
	h := newHarness(t, &fakeClient{})
	h.controller.OnFederatedError(errors.New("popup closed"))

	state := h.controller.State()
	assert.Equal(t, fa.StatusError, state.Status)
	assert.Equal(t, fa.DefaultMessages.FederatedFailed, state.ErrorMessage)
}

func TestSubmit_PendingIsNoop(t *testing.T) {
	client := &fakeClient{result: userResult("tok", 1), gate: make(chan struct{})}
	h := newHarness(t, client)
	h.setFields(t, "username", "ana", "password", "secret")

	done := make(chan error, 1)
	go func() { done <- h.controller.SubmitPasswordLogin(context.Background()) }()
	require.Eventually(t, h.controller.Busy, time.Second, time.Millisecond)

	assert.ErrorIs(t, h.controller.SubmitPasswordLogin(context.Background()), fa.ErrSubmissionPending)
	assert.ErrorIs(t, h.controller.SubmitFederated(context.Background(), "cred"), fa.ErrSubmissionPending)
	assert.Equal(t, fa.StatusPending, h.controller.State().Status)

	close(client.gate)
	require.NoError(t, <-done)
	assert.Len(t, client.Calls(), 1, "no duplicate requests while pending")
	assert.Equal(t, fa.StatusSuccess, h.controller.State().Status)
}

func TestSubmit_SupersededByMethodChange(t *testing.T) {
	client := &fakeClient{result: userResult("tok", 1), gate: make(chan struct{})}
	h := newHarness(t, client)
	h.setFields(t, "username", "ana", "password", "secret")

	done := make(chan error, 1)
	go func() { done <- h.controller.SubmitPasswordLogin(context.Background()) }()
	require.Eventually(t, h.controller.Busy, time.Second, time.Millisecond)

	require.NoError(t, h.controller.SelectMethod(fa.MethodEmail))
	close(client.gate)

	assert.ErrorIs(t, <-done, fa.ErrSuperseded)
	assert.Equal(t, fa.StatusIdle, h.controller.State().Status)
	assert.Zero(t, h.kv.Len(), "a superseded login is not persisted")

	h.clock.Advance(fa.NavigationDelay)
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, h.navigator.Destinations())
}

func TestOnFieldChange_ClearsMessages(t *testing.T) {
	h := newHarness(t, &fakeClient{err: &fa.RequestError{Message: "bad"}})
	h.setFields(t, "username", "ana", "password", "x")
	require.NoError(t, h.controller.SubmitPasswordLogin(context.Background()))
	require.NotEmpty(t, h.controller.State().ErrorMessage)

	require.NoError(t, h.controller.OnFieldChange(fa.FieldPassword, "y"))
	state := h.controller.State()
	assert.Empty(t, state.ErrorMessage)
	assert.Empty(t, state.Message)
	assert.Equal(t, "y", h.controller.Fields().Password)

	h2 := newHarness(t, &fakeClient{})
	h2.setFields(t, "email", "ana@example.com")
	require.NoError(t, h2.controller.SelectMethod(fa.MethodEmail))
	require.NoError(t, h2.controller.SubmitRequestCode(context.Background()))
	require.NotEmpty(t, h2.controller.State().Message)

	require.NoError(t, h2.controller.OnFieldChange(fa.FieldCode, "1"))
	assert.Empty(t, h2.controller.State().Message)

	assert.ErrorIs(t, h2.controller.OnFieldChange(fa.Field("phone"), "1"), fa.ErrUnknownField)
}

func TestSubmit_FlowCompleteAfterSuccess(t *testing.T) {
	client := &fakeClient{result: userResult("tok", 1)}
	h := newHarness(t, client)
	h.setFields(t, "username", "ana", "password", "secret")
	require.NoError(t, h.controller.SubmitPasswordLogin(context.Background()))

	assert.ErrorIs(t, h.controller.SubmitPasswordLogin(context.Background()), fa.ErrFlowComplete)
	assert.ErrorIs(t, h.controller.SubmitFederated(context.Background(), "cred"), fa.ErrFlowComplete)

	h.controller.OnFederatedError(errors.New("late popup error"))
	assert.Equal(t, fa.StatusSuccess, h.controller.State().Status)
	assert.Len(t, client.Calls(), 1)
}

func TestSubmit_SessionSaveFailure(t *testing.T) {
	client := &fakeClient{result: userResult("tok", 1)}
	h := newHarness(t, client)
	sessions := fa.NewSessionStore(failingKV{h.kv})
	controller := fa.NewLoginFlowController(client, sessions, h.navigator, fa.WithClock(h.clock))
	require.NoError(t, controller.OnFieldChange(fa.FieldUsername, "ana"))
	require.NoError(t, controller.OnFieldChange(fa.FieldPassword, "secret"))

	require.NoError(t, controller.SubmitPasswordLogin(context.Background()))

	state := controller.State()
	assert.Equal(t, fa.StatusError, state.Status)
	assert.Equal(t, fa.DefaultMessages.SessionSaveFailed, state.ErrorMessage)

	h.clock.Advance(fa.NavigationDelay)
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, h.navigator.Destinations())
}

func TestSubmit_PartialSessionWriteIsCleared(t *testing.T) {
	client := &fakeClient{result: userResult("tok", 1)}
	h := newHarness(t, client)
	kv := userRejectingKV{stores.NewMemoryStore()}
	require.NoError(t, kv.MemoryStore.Set(context.Background(), fa.KeyUser, `{"role_id":3}`))
	sessions := fa.NewSessionStore(kv)
	controller := fa.NewLoginFlowController(client, sessions, h.navigator, fa.WithClock(h.clock))
	require.NoError(t, controller.OnFieldChange(fa.FieldUsername, "ana"))
	require.NoError(t, controller.OnFieldChange(fa.FieldPassword, "secret"))

	require.NoError(t, controller.SubmitPasswordLogin(context.Background()))

	assert.Equal(t, fa.DefaultMessages.SessionSaveFailed, controller.State().ErrorMessage)
	session, err := sessions.Read(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session, "no token is left without its user record")
	assert.Zero(t, kv.Len())
}

func TestSubmit_StateReadableDuringSessionWrite(t *testing.T) {
	client := &fakeClient{result: userResult("tok", 2)}
	h := newHarness(t, client)
	kv := newGatedKV()
	controller := fa.NewLoginFlowController(client, fa.NewSessionStore(kv), h.navigator, fa.WithClock(h.clock))
	require.NoError(t, controller.OnFieldChange(fa.FieldUsername, "ana"))
	require.NoError(t, controller.OnFieldChange(fa.FieldPassword, "secret"))

	done := make(chan error, 1)
	go func() { done <- controller.SubmitPasswordLogin(context.Background()) }()
	<-kv.entered

	assert.Eventually(t, func() bool { return controller.Busy() }, time.Second, time.Millisecond,
		"state stays readable and pending while the session is written")
	assert.ErrorIs(t, controller.SubmitPasswordLogin(context.Background()), fa.ErrSubmissionPending)

	close(kv.release)
	require.NoError(t, <-done)
	assert.Equal(t, fa.StatusSuccess, controller.State().Status)
	assert.Equal(t, []string{"login:ana"}, client.Calls())
}

func TestCancelNavigation(t *testing.T) {
	h := newHarness(t, &fakeClient{result: userResult("tok", 1)})
	assert.False(t, h.controller.CancelNavigation(), "nothing scheduled yet")

	h.setFields(t, "username", "ana", "password", "secret")
	require.NoError(t, h.controller.SubmitPasswordLogin(context.Background()))

	assert.True(t, h.controller.CancelNavigation())
	h.clock.Advance(fa.NavigationDelay)
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, h.navigator.Destinations())

	session, err := h.sessions.Read(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session, "cancelling navigation keeps the session")
	assert.Equal(t, "tok", session.Token)
}

func TestFlowOptions(t *testing.T) {
	policy := &fa.RedirectPolicy{Roles: map[int]fa.Route{1: fa.RouteDashboard}, Default: fa.RouteCatalog}
	h := newHarness(t, &fakeClient{result: userResult("tok", 1)},
		fa.WithRedirectPolicy(policy),
		fa.WithMessages(fa.SpanishMessages),
		fa.WithNavigationDelay(3*time.Second),
	)
	h.setFields(t, "username", "ana", "password", "secret")
	require.NoError(t, h.controller.SubmitPasswordLogin(context.Background()))
	assert.Equal(t, fa.SpanishMessages.LoginSuccess, h.controller.State().Message)

	h.clock.Advance(fa.NavigationDelay)
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, h.navigator.Destinations(), "custom delay is longer than the default")

	h.clock.Advance(3*time.Second - fa.NavigationDelay)
	require.Eventually(t, func() bool {
		return len(h.navigator.Destinations()) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, fa.RouteDashboard, h.navigator.Destinations()[0].Route)
}

func TestWithMessages_PartialOverride(t *testing.T) {
	h := newHarness(t, &fakeClient{err: errors.New("down")}, fa.WithMessages(fa.Messages{LoginFailed: "Try again later"}))
	h.setFields(t, "username", "ana", "password", "x")
	require.NoError(t, h.controller.SubmitPasswordLogin(context.Background()))
	assert.Equal(t, "Try again later", h.controller.State().ErrorMessage)

	require.NoError(t, h.controller.SelectMethod(fa.MethodEmail))
	h.controller.OnFederatedError(errors.New("x"))
	assert.True(t, strings.HasPrefix(h.controller.State().ErrorMessage, "Could not sign in with Google"))
}
