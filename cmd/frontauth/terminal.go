package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	fa "github.com/martinez-Diana/FRONTJMARTINEZ"
)

var errAborted = errors.New("sign in aborted")

// terminal reads prompts from the user. Passwords are read without echo
// when the input is a terminal.
type terminal struct {
	in  *bufio.Reader
	out io.Writer

	// readPassword is a test seam for term.ReadPassword
	readPassword func() ([]byte, error)
}

func newTerminal(in io.Reader, out io.Writer) *terminal {
	t := &terminal{in: bufio.NewReader(in), out: out}
	t.readPassword = func() ([]byte, error) {
		if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			pw, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(out)
			return pw, err
		}
		line, err := t.readLine()
		return []byte(line), err
	}
	return t
}

func (t *terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (t *terminal) prompt(label string) (string, error) {
	fmt.Fprintf(t.out, "%s: ", label)
	return t.readLine()
}

func (t *terminal) password(label string) (string, error) {
	fmt.Fprintf(t.out, "%s: ", label)
	pw, err := t.readPassword()
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// credentialSource obtains a federated credential, typically through a browser
type credentialSource func(ctx context.Context) (string, error)

// loginSession drives a LoginFlowController from terminal prompts
type loginSession struct {
	app        *app
	term       *terminal
	controller *fa.LoginFlowController
	navigated  chan fa.Destination
	federated  credentialSource
	delay      time.Duration
}

func newLoginSession(a *app, t *terminal, federated credentialSource, opts ...fa.FlowOption) *loginSession {
	s := &loginSession{
		app:       a,
		term:      t,
		navigated: make(chan fa.Destination, 1),
		federated: federated,
		delay:     fa.NavigationDelay,
	}
	navigator := fa.NavigatorFunc(func(dest fa.Destination) {
		select {
		case s.navigated <- dest:
		default:
		}
	})
	opts = append([]fa.FlowOption{
		fa.WithMessages(a.cfg.Messages()),
		fa.WithLogger(a.logger),
		fa.WithNavigationDelay(s.delay),
	}, opts...)
	s.controller = fa.NewLoginFlowController(a.client, a.sessions, navigator, opts...)
	return s
}

// run prompts until a session is established or the user quits
func (s *loginSession) run(ctx context.Context) error {
	for {
		choice, err := s.chooseMethod()
		if err != nil {
			return err
		}

		var done bool
		switch choice {
		case "1":
			done, err = s.passwordLogin(ctx)
		case "2":
			done, err = s.emailLogin(ctx)
		case "3":
			done, err = s.googleLogin(ctx)
		case "q":
			return errAborted
		default:
			printWarning(s.term.out, "unknown option %q", choice)
			continue
		}
		if err != nil {
			return err
		}
		if done {
			return s.awaitNavigation(ctx)
		}
	}
}

func (s *loginSession) chooseMethod() (string, error) {
	google := "Google"
	if !s.app.cfg.GoogleEnabled() {
		google += " (unavailable)"
	}
	printInfo(s.term.out, "\nSign in with:\n  1) username and password\n  2) email code\n  3) %s\n  q) quit", google)
	choice, err := s.term.prompt(">")
	if errors.Is(err, io.EOF) {
		return "", errAborted
	}
	return strings.ToLower(choice), err
}

func (s *loginSession) passwordLogin(ctx context.Context) (bool, error) {
	if err := s.controller.SelectMethod(fa.MethodTraditional); err != nil {
		return false, err
	}
	username, err := s.term.prompt("Username or email")
	if err != nil {
		return false, err
	}
	password, err := s.term.password("Password")
	if err != nil {
		return false, err
	}
	if err := s.setField(fa.FieldUsername, username); err != nil {
		return false, err
	}
	if err := s.setField(fa.FieldPassword, password); err != nil {
		return false, err
	}
	return s.submit(s.controller.SubmitPasswordLogin(ctx))
}

func (s *loginSession) emailLogin(ctx context.Context) (bool, error) {
	if err := s.controller.SelectMethod(fa.MethodEmail); err != nil {
		return false, err
	}
	email, err := s.term.prompt("Email")
	if err != nil {
		return false, err
	}
	if err := s.setField(fa.FieldEmail, email); err != nil {
		return false, err
	}
	// a sent code is a success that does not end the flow
	if _, err := s.submit(s.controller.SubmitRequestCode(ctx)); err != nil {
		return false, err
	}
	if s.controller.View() != fa.EmailVerifyForm {
		return false, nil
	}

	for {
		code, err := s.term.prompt(fmt.Sprintf("%d digit code (empty to go back)", fa.MaxCodeLength))
		if err != nil || code == "" {
			return false, err
		}
		if err := s.setField(fa.FieldCode, code); err != nil {
			return false, err
		}
		done, err := s.submit(s.controller.SubmitVerifyCode(ctx))
		if done || err != nil {
			return done, err
		}
	}
}

func (s *loginSession) googleLogin(ctx context.Context) (bool, error) {
	if !s.app.cfg.GoogleEnabled() || s.federated == nil {
		printWarning(s.term.out, "Google sign in is unavailable: no client id is configured (set FRONTAUTH_GOOGLE_CLIENT_ID)")
		return false, nil
	}

	credential, err := s.federated(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		s.controller.OnFederatedError(err)
		s.report()
		return false, nil
	}
	return s.submitCredential(ctx, credential)
}

func (s *loginSession) submitCredential(ctx context.Context, credential string) (bool, error) {
	return s.submit(s.controller.SubmitFederated(ctx, credential))
}

// submit reports the outcome of a submission. Validation problems are shown
// and are not errors.
func (s *loginSession) submit(err error) (bool, error) {
	var verr *fa.ValidationError
	if errors.As(err, &verr) {
		printWarning(s.term.out, "%v", verr)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.report().Status == fa.StatusSuccess, nil
}

func (s *loginSession) report() fa.FlowState {
	state := s.controller.State()
	if state.ErrorMessage != "" {
		printError(s.term.out, "%s", state.ErrorMessage)
	}
	if state.Message != "" {
		printSuccess(s.term.out, "%s", state.Message)
	}
	return state
}

func (s *loginSession) setField(field fa.Field, value string) error {
	return s.controller.OnFieldChange(field, value)
}

// awaitNavigation waits for the deferred navigation and prints where it led
func (s *loginSession) awaitNavigation(ctx context.Context) error {
	timeout := time.NewTimer(s.delay + 5*time.Second)
	defer timeout.Stop()

	select {
	case dest := <-s.navigated:
		printInfo(s.term.out, "Continue at %s", fa.DefaultRoutes.URL(dest))
		return nil
	case <-ctx.Done():
		s.controller.CancelNavigation()
		return ctx.Err()
	case <-timeout.C:
		return errors.New("timed out waiting for navigation")
	}
}
