//go:build !wasm
// +build !wasm

// Package gae provides a Google Cloud Datastore implementation of
// frontauth.KeyValueStore, for front ends deployed on Google Cloud Platform.
//
// # Datastore Kinds
//
//   - SessionValue: one entity per session key, keyed by name
//
// # Namespacing
//
// Pass a namespace to isolate the sessions of different tenants or
// profiles:
//
//	kv := gae.NewKeyValueStore(client, "tenant-123")
//
// # Usage
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	sessions := frontauth.NewSessionStore(gae.NewKeyValueStore(client, ""))
package gae
