package frontauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys under which the session is persisted
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// KeyValueStore is the persistence capability the session is written to.
// Implementations live in the stores packages.
type KeyValueStore interface {
	// Get returns the value for key. found is false (with a nil error) when
	// the key is not set.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// SessionStore persists the {token, user} pair in a KeyValueStore. The two
// values are written under independent keys; there is no transactional
// guarantee across them.
type SessionStore struct {
	kv KeyValueStore
}

func NewSessionStore(kv KeyValueStore) *SessionStore {
	return &SessionStore{kv: kv}
}

// Save writes both the token and the user record
func (s *SessionStore) Save(ctx context.Context, result *AuthResult) error {
	if result == nil {
		return errEmptyResult
	}
	if err := s.SaveToken(ctx, result.Token); err != nil {
		return err
	}
	return s.SaveUser(ctx, result.User)
}

func (s *SessionStore) SaveToken(ctx context.Context, token string) error {
	if err := s.kv.Set(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

func (s *SessionStore) SaveUser(ctx context.Context, user UserProfile) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := s.kv.Set(ctx, KeyUser, string(data)); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	return nil
}

// ClearUser removes only the user record
func (s *SessionStore) ClearUser(ctx context.Context) error {
	return s.kv.Remove(ctx, KeyUser)
}

// Token returns the persisted bearer token, or "" when there is none
func (s *SessionStore) Token(ctx context.Context) (string, error) {
	token, _, err := s.kv.Get(ctx, KeyToken)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return token, nil
}

// Read returns the persisted session. Returns nil, nil if no token is stored.
func (s *SessionStore) Read(ctx context.Context) (*Session, error) {
	token, err := s.Token(ctx)
	if err != nil || token == "" {
		return nil, err
	}

	session := &Session{Token: token}
	data, found, err := s.kv.Get(ctx, KeyUser)
	if err != nil {
		return nil, fmt.Errorf("failed to read user: %w", err)
	}
	if found && data != "" {
		if err := json.Unmarshal([]byte(data), &session.User); err != nil {
			return nil, fmt.Errorf("invalid stored user: %w", err)
		}
	}
	return session, nil
}

// Clear removes both keys. This is the session teardown.
func (s *SessionStore) Clear(ctx context.Context) error {
	return errors.Join(s.kv.Remove(ctx, KeyToken), s.kv.Remove(ctx, KeyUser))
}
