//go:build !wasm
// +build !wasm

package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	fa "github.com/martinez-Diana/FRONTJMARTINEZ"
)

var _ fa.KeyValueStore = (*KeyValueStore)(nil)

// AutoMigrate runs the database migration for the session table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&KeyValueModel{})
}

// KeyValueStore implements fa.KeyValueStore using GORM
type KeyValueStore struct {
	db        *gorm.DB
	namespace string
}

func NewKeyValueStore(db *gorm.DB, namespace string) *KeyValueStore {
	if namespace == "" {
		namespace = "default"
	}
	return &KeyValueStore{db: db, namespace: namespace}
}

func (s *KeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	var model KeyValueModel
	err := s.db.WithContext(ctx).
		First(&model, "namespace = ? AND name = ?", s.namespace, key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return model.Value, true, nil
}

func (s *KeyValueStore) Set(ctx context.Context, key, value string) error {
	model := &KeyValueModel{
		Namespace: s.namespace,
		Name:      key,
		Value:     value,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(model).Error
}

func (s *KeyValueStore) Remove(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).
		Where("namespace = ? AND name = ?", s.namespace, key).
		Delete(&KeyValueModel{}).Error
}
