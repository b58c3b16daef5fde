//go:build !wasm
// +build !wasm

// Package gorm provides a GORM backed frontauth.KeyValueStore. It works
// with any database GORM supports (PostgreSQL, MySQL, SQLite, etc.) and lets
// several front end profiles share one table through namespaces.
//
// # Database Schema
//
// AutoMigrate creates a single table:
//   - session_values: (namespace, name) -> value
//
// # Usage
//
//	db, _ := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	_ = gormstore.AutoMigrate(db)
//	kv := gormstore.NewKeyValueStore(db, "default")
//	sessions := frontauth.NewSessionStore(kv)
package gorm
