//go:build !wasm
// +build !wasm

package gae

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"

	fa "github.com/martinez-Diana/FRONTJMARTINEZ"
)

var _ fa.KeyValueStore = (*KeyValueStore)(nil)

// KeyValueStore implements fa.KeyValueStore using Google Cloud Datastore
type KeyValueStore struct {
	client    *datastore.Client
	namespace string
}

// NewKeyValueStore creates a new Datastore-backed KeyValueStore
func NewKeyValueStore(client *datastore.Client, namespace string) *KeyValueStore {
	return &KeyValueStore{
		client:    client,
		namespace: namespace,
	}
}

func (s *KeyValueStore) namespacedKey(name string) *datastore.Key {
	key := datastore.NameKey(KindSessionValue, name, nil)
	key.Namespace = s.namespace
	return key
}

func (s *KeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entity SessionValueEntity
	if err := s.client.Get(ctx, s.namespacedKey(key), &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return entity.Value, true, nil
}

func (s *KeyValueStore) Set(ctx context.Context, key, value string) error {
	entity := &SessionValueEntity{
		Value:     value,
		UpdatedAt: time.Now(),
	}
	if _, err := s.client.Put(ctx, s.namespacedKey(key), entity); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// Remove deletes the entity. Datastore deletes of missing entities succeed.
func (s *KeyValueStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Delete(ctx, s.namespacedKey(key)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
