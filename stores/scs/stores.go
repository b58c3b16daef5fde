// Package scs stores the frontauth session inside an alexedwards/scs
// session, so that each browser talking to the web front end gets its own
// token and user record.
//
// The context passed to the store must carry loaded session data: use the
// request context of a handler wrapped by SessionManager.LoadAndSave.
package scs

import (
	"context"
	"fmt"

	"github.com/alexedwards/scs/v2"

	fa "github.com/martinez-Diana/FRONTJMARTINEZ"
)

var _ fa.KeyValueStore = (*KeyValueStore)(nil)

// DefaultPrefix namespaces the session keys inside the scs session
const DefaultPrefix = "frontauth."

// KeyValueStore implements fa.KeyValueStore on top of an scs session
type KeyValueStore struct {
	Session *scs.SessionManager
	Prefix  string
}

func NewKeyValueStore(session *scs.SessionManager) *KeyValueStore {
	return &KeyValueStore{Session: session, Prefix: DefaultPrefix}
}

func (s *KeyValueStore) key(key string) string {
	return s.Prefix + key
}

func (s *KeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	k := s.key(key)
	if !s.Session.Exists(ctx, k) {
		return "", false, nil
	}
	return s.Session.GetString(ctx, k), true, nil
}

// Set stores the value. Storing a new token also renews the session token
// so a pre-login session id never carries an authenticated session.
func (s *KeyValueStore) Set(ctx context.Context, key, value string) error {
	if key == fa.KeyToken {
		if err := s.Session.RenewToken(ctx); err != nil {
			return fmt.Errorf("failed to renew session token: %w", err)
		}
	}
	s.Session.Put(ctx, s.key(key), value)
	return nil
}

func (s *KeyValueStore) Remove(ctx context.Context, key string) error {
	s.Session.Remove(ctx, s.key(key))
	return nil
}
