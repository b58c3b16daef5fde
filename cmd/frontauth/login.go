package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/martinez-Diana/FRONTJMARTINEZ/oauth2"
)

// consentTimeout bounds how long the terminal waits for a browser round trip
const consentTimeout = 5 * time.Minute

func newLoginCmd(newApp appFactory) *cobra.Command {
	var credential string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in interactively and store the session",
		Long: `Sign in with a username and password, an emailed one-time code or Google.

With --credential the given Google ID token is exchanged directly and no
prompt is shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withApp(ctx, newApp, func(a *app) error {
				t := newTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
				s := newLoginSession(a, t, loopbackCredential(a.cfg.Google, cmd.OutOrStdout(), a.logger))

				if credential != "" {
					done, err := s.submitCredential(ctx, credential)
					if err != nil {
						return err
					}
					if !done {
						return errors.New("sign in failed")
					}
					return s.awaitNavigation(ctx)
				}
				return s.run(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&credential, "credential", "", "Google ID token to exchange without prompting")
	return cmd
}

// loopbackCredential runs the Google consent flow against a short lived
// local callback server listening on the configured callback URL.
func loopbackCredential(cfg GoogleConfig, out io.Writer, logger *slog.Logger) credentialSource {
	if cfg.ClientID == "" {
		return nil
	}

	return func(ctx context.Context) (string, error) {
		callback, err := url.Parse(cfg.CallbackURL)
		if err != nil || callback.Host == "" {
			return "", fmt.Errorf("invalid google callback URL %q", cfg.CallbackURL)
		}

		type outcome struct {
			credential string
			err        error
		}
		results := make(chan outcome, 1)
		deliver := func(o outcome) {
			select {
			case results <- o:
			default:
			}
		}

		google := oauth2.NewGoogleOAuth2(cfg.ClientID, cfg.ClientSecret, cfg.CallbackURL,
			func(credential string, w http.ResponseWriter, r *http.Request) {
				fmt.Fprintln(w, "Signed in. You can close this window and return to the terminal.")
				deliver(outcome{credential: credential})
			})
		google.HandleError = func(err error, w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Sign in failed. Return to the terminal.", http.StatusBadRequest)
			deliver(outcome{err: err})
		}
		google.Logger = logger

		// the handler serves /callback/ relative to its mount point
		prefix := strings.TrimSuffix(strings.TrimSuffix(callback.Path, "/"), "/callback")

		ln, err := net.Listen("tcp", callback.Host)
		if err != nil {
			return "", fmt.Errorf("starting callback listener: %w", err)
		}
		srv := &http.Server{
			Handler:           http.StripPrefix(prefix, google),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("callback server failed", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())

		start := url.URL{Scheme: "http", Host: callback.Host, Path: prefix + "/"}
		printInfo(out, "Open %s in your browser to continue with Google", start.String())

		ctx, cancel := context.WithTimeout(ctx, consentTimeout)
		defer cancel()
		select {
		case o := <-results:
			return o.credential, o.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}
