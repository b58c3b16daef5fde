package frontauth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	fa "github.com/martinez-Diana/FRONTJMARTINEZ"
	"github.com/martinez-Diana/FRONTJMARTINEZ/stores"
)

// fakeClient records calls and answers with canned results. When gate is
// set every call blocks until it is closed.
type fakeClient struct {
	mu    sync.Mutex
	calls []string

	result  *fa.AuthResult
	err     error
	codeErr error
	gate    chan struct{}
}

func (f *fakeClient) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) Login(ctx context.Context, username, password string) (*fa.AuthResult, error) {
	f.record("login:" + username)
	return f.result, f.err
}

func (f *fakeClient) RequestEmailCode(ctx context.Context, email string) error {
	f.record("request-code:" + email)
	return f.codeErr
}

func (f *fakeClient) VerifyEmailCode(ctx context.Context, email, code string) (*fa.AuthResult, error) {
	f.record("verify-code:" + email + ":" + code)
	return f.result, f.err
}

func (f *fakeClient) FederatedLogin(ctx context.Context, credential string) (*fa.AuthResult, error) {
	f.record("federated:" + credential)
	return f.result, f.err
}

// recordingNavigator captures navigations together with the session that
// was persisted at the moment each one fired.
type recordingNavigator struct {
	mu       sync.Mutex
	sessions *fa.SessionStore
	dests    []fa.Destination
	seen     []*fa.Session
}

func (n *recordingNavigator) Navigate(dest fa.Destination) {
	var session *fa.Session
	if n.sessions != nil {
		session, _ = n.sessions.Read(context.Background())
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dests = append(n.dests, dest)
	n.seen = append(n.seen, session)
}

func (n *recordingNavigator) Destinations() []fa.Destination {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]fa.Destination(nil), n.dests...)
}

func (n *recordingNavigator) SessionAt(i int) *fa.Session {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.seen[i]
}

// failingKV rejects every write
type failingKV struct {
	*stores.MemoryStore
}

func (failingKV) Set(context.Context, string, string) error {
	return errors.New("storage quota exceeded")
}

// userRejectingKV accepts the token but rejects the user record
type userRejectingKV struct {
	*stores.MemoryStore
}

func (kv userRejectingKV) Set(ctx context.Context, key, value string) error {
	if key == fa.KeyUser {
		return errors.New("storage quota exceeded")
	}
	return kv.MemoryStore.Set(ctx, key, value)
}

// gatedKV holds every write until release is closed
type gatedKV struct {
	*stores.MemoryStore
	entered chan struct{}
	release chan struct{}
}

func newGatedKV() *gatedKV {
	return &gatedKV{
		MemoryStore: stores.NewMemoryStore(),
		entered:     make(chan struct{}, 2),
		release:     make(chan struct{}),
	}
}

func (kv *gatedKV) Set(ctx context.Context, key, value string) error {
	kv.entered <- struct{}{}
	<-kv.release
	return kv.MemoryStore.Set(ctx, key, value)
}

type harness struct {
	client     *fakeClient
	kv         *stores.MemoryStore
	sessions   *fa.SessionStore
	navigator  *recordingNavigator
	clock      *clockwork.FakeClock
	controller *fa.LoginFlowController
}

func newHarness(t *testing.T, client *fakeClient, opts ...fa.FlowOption) *harness {
	t.Helper()
	h := &harness{
		client: client,
		kv:     stores.NewMemoryStore(),
		clock:  clockwork.NewFakeClock(),
	}
	h.sessions = fa.NewSessionStore(h.kv)
	h.navigator = &recordingNavigator{sessions: h.sessions}
	opts = append([]fa.FlowOption{fa.WithClock(h.clock)}, opts...)
	h.controller = fa.NewLoginFlowController(client, h.sessions, h.navigator, opts...)
	return h
}

// fireNavigation advances past the navigation delay and waits for want navigations
func (h *harness) fireNavigation(t *testing.T, want int) []fa.Destination {
	t.Helper()
	h.clock.Advance(fa.NavigationDelay)
	require.Eventually(t, func() bool {
		return len(h.navigator.Destinations()) == want
	}, time.Second, time.Millisecond)
	return h.navigator.Destinations()
}

func (h *harness) setFields(t *testing.T, kv ...string) {
	t.Helper()
	for i := 0; i+1 < len(kv); i += 2 {
		require.NoError(t, h.controller.OnFieldChange(fa.Field(kv[i]), kv[i+1]))
	}
}

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}
