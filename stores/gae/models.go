//go:build !wasm
// +build !wasm

package gae

import (
	"time"

	"cloud.google.com/go/datastore"
)

// KindSessionValue is the Datastore kind for stored session values
const KindSessionValue = "SessionValue"

// SessionValueEntity is the Datastore entity for one stored value
type SessionValueEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	Value     string         `datastore:"value,noindex"`
	UpdatedAt time.Time      `datastore:"updated_at"`
}
