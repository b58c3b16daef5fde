// Package oauth2 obtains a federated identity credential (the provider ID
// token) through the authorization code flow, for handing to
// LoginFlowController.SubmitFederated.
//
// The handler serves two routes relative to where it is mounted:
//
//	/           redirects to the provider consent page
//	/callback/  exchanges the code and calls HandleCredential
//
// Mount it under a prefix with http.StripPrefix, for example
// "/auth/google/" with a callback URL of ".../auth/google/callback/".
package oauth2

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
)

var (
	// ErrProviderDenied is passed to HandleError when the provider redirects back with an error.
	ErrProviderDenied = errors.New("oauth2: provider returned an error")

	// ErrMissingIDToken is passed to HandleError when the token response has no id_token.
	ErrMissingIDToken = errors.New("oauth2: token response has no id_token")
)

// CredentialFunc receives the provider ID token after a successful exchange.
// It owns the response.
type CredentialFunc func(credential string, w http.ResponseWriter, r *http.Request)

// ErrorFunc receives provider-side failures: consent denied, exchange
// failures and token responses without an ID token. It owns the response.
type ErrorFunc func(err error, w http.ResponseWriter, r *http.Request)

type BaseOAuth2 struct {
	ClientId     string
	ClientSecret string
	CallbackURL  string

	HandleCredential CredentialFunc
	HandleError      ErrorFunc

	// HTTPClient is used for the code exchange. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	Logger *slog.Logger

	oauthConfig oauth2.Config
	mux         *http.ServeMux
}

func NewBaseOAuth2(clientId string, clientSecret string, callbackUrl string, handleCredential CredentialFunc) *BaseOAuth2 {
	out := &BaseOAuth2{
		ClientId:         clientId,
		ClientSecret:     clientSecret,
		CallbackURL:      callbackUrl,
		HandleCredential: handleCredential,
		mux:              http.NewServeMux(),
		oauthConfig: oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			RedirectURL:  callbackUrl,
		},
	}
	out.mux.HandleFunc("/callback/", out.handleCallback)
	out.mux.HandleFunc("/", OauthRedirector(&out.oauthConfig))
	return out
}

// Enabled reports whether a client id is configured. Without one the
// federated option should be shown as unavailable.
func (b *BaseOAuth2) Enabled() bool {
	return b.ClientId != ""
}

// Config returns a copy of the underlying oauth2 configuration.
func (b *BaseOAuth2) Config() oauth2.Config {
	return b.oauthConfig
}

// SetOAuthEndpoint overrides the provider endpoint.
func (b *BaseOAuth2) SetOAuthEndpoint(endpoint oauth2.Endpoint) {
	b.oauthConfig.Endpoint = endpoint
}

func (b *BaseOAuth2) SetHTTPClient(client *http.Client) {
	b.HTTPClient = client
}

func (b *BaseOAuth2) Handler() http.Handler {
	return b.mux
}

func (b *BaseOAuth2) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.ServeHTTP(w, r)
}

func (b *BaseOAuth2) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func (b *BaseOAuth2) exchangeContext(ctx context.Context) context.Context {
	if b.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, b.HTTPClient)
}

func (b *BaseOAuth2) handleCallback(w http.ResponseWriter, r *http.Request) {
	if err := checkState(w, r); err != nil {
		b.logger().Warn("rejecting oauth callback", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if providerErr := r.FormValue("error"); providerErr != "" {
		b.fail(fmt.Errorf("%w: %s", ErrProviderDenied, providerErr), w, r)
		return
	}

	token, err := b.oauthConfig.Exchange(b.exchangeContext(r.Context()), r.FormValue("code"))
	if err != nil {
		b.fail(fmt.Errorf("code exchange: %w", err), w, r)
		return
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		b.fail(ErrMissingIDToken, w, r)
		return
	}

	if b.HandleCredential == nil {
		http.Error(w, "no credential handler configured", http.StatusInternalServerError)
		return
	}
	b.HandleCredential(idToken, w, r)
}

func (b *BaseOAuth2) fail(err error, w http.ResponseWriter, r *http.Request) {
	b.logger().Info("federated sign-in failed", "error", err)
	if b.HandleError != nil {
		b.HandleError(err, w, r)
		return
	}
	http.Error(w, "federated sign-in failed", http.StatusBadGateway)
}
