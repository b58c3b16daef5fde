package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	fa "github.com/martinez-Diana/FRONTJMARTINEZ"
	"github.com/martinez-Diana/FRONTJMARTINEZ/client"
)

func newLogoutCmd(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), newApp, func(a *app) error {
				if err := a.sessions.Clear(cmd.Context()); err != nil {
					return fmt.Errorf("clearing session: %w", err)
				}
				printSuccess(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func newWhoamiCmd(newApp appFactory) *cobra.Command {
	var jsonOutput bool
	var fetch string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		Long: `Show the stored user record and where the role would land.

The user record comes from the login response or from the unverified token
claims and is informational only. With --fetch the stored token is sent as a
bearer token to the given backend path and the response is printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), newApp, func(a *app) error {
				w := cmd.OutOrStdout()
				session, err := a.sessions.Read(cmd.Context())
				if err != nil {
					return err
				}
				if session == nil {
					printWarning(w, "Not signed in")
					return nil
				}

				if fetch != "" {
					return fetchWithSession(cmd, a, fetch)
				}

				user := session.User
				if user == nil {
					// a token stored by a callback may have had undecodable claims
					user, _ = fa.UntrustedClaims(session.Token)
				}
				dest := fa.DefaultRedirectPolicy().RouteForUser(user)

				if jsonOutput {
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					return enc.Encode(map[string]any{
						"user":    user,
						"landing": fa.DefaultRoutes.URL(dest),
					})
				}

				printSuccess(w, "Signed in")
				if user != nil {
					for _, key := range []string{"id", "username", "email", "role_id"} {
						if v, ok := user[key]; ok {
							printInfo(w, "  %-9s %v", key+":", v)
						}
					}
				}
				printInfo(w, "  landing:  %s", fa.DefaultRoutes.URL(dest))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().StringVar(&fetch, "fetch", "", "backend path to GET with the stored token, e.g. /api/profile")
	return cmd
}

func fetchWithSession(cmd *cobra.Command, a *app, path string) error {
	api := client.NewAPIClient(a.sessions)
	target := a.client.ServerURL() + "/" + strings.TrimPrefix(path, "/")

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := api.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	w := cmd.OutOrStdout()
	if resp.StatusCode >= 300 {
		printError(w, "GET %s: %s", target, resp.Status)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}
