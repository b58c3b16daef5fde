// Package frontauth implements the client side of a login front end: the
// state machine that drives password, email code and federated (Google)
// logins to a single session contract.
//
// Every login path ends the same way. A bearer token and a user profile are
// obtained, persisted, and the user is routed to a landing view chosen from
// their role.
//
// # Architecture
//
// LoginFlowController: The state machine. It tracks the selected method, the
// email sub-step (request a code, then verify it), the status of the single
// in-flight request and the user facing messages. A successful login is
// persisted through a SessionStore and followed, after NavigationDelay, by a
// navigation to the route chosen by the RedirectPolicy.
//
// AuthClient: The four remote operations. The client package provides an
// HTTP implementation.
//
// SessionStore: Persists the token and the user under the keys "token" and
// "user" of a KeyValueStore. The stores packages provide in-memory, file,
// scs session, GORM and Cloud Datastore backed stores.
//
// CallbackLandingHandler: An alternate entry point for logins completed on
// another page, which redirect back with a token or an error.
//
// # Basic Usage
//
//	import (
//	    fa "github.com/martinez-Diana/FRONTJMARTINEZ"
//	    "github.com/martinez-Diana/FRONTJMARTINEZ/client"
//	    "github.com/martinez-Diana/FRONTJMARTINEZ/stores"
//	)
//
//	sessions := fa.NewSessionStore(stores.NewMemoryStore())
//	api := client.NewAuthClient("https://api.example.com")
//	flow := fa.NewLoginFlowController(api, sessions, fa.NavigatorFunc(func(d fa.Destination) {
//	    // render the view for d.Route
//	}))
//
//	flow.OnFieldChange(fa.FieldUsername, "ana@example.com")
//	flow.OnFieldChange(fa.FieldPassword, "secret")
//	if err := flow.SubmitPasswordLogin(ctx); err != nil {
//	    // rejected before any request was made
//	}
//	state := flow.State() // StatusSuccess or StatusError with ErrorMessage
//
// # Untrusted claims
//
// UntrustedClaims decodes a token's payload without checking its signature.
// It is only used on the callback path, where no structured profile is
// available. Never use it to make authorization decisions.
//
// # Testing
//
// The navigation delay runs on a clockwork.Clock, so tests pass a fake clock
// and advance it instead of sleeping.
package frontauth
