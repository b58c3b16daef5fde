//go:build !wasm
// +build !wasm

package gorm

import "time"

// KeyValueModel is the GORM model for one stored value
type KeyValueModel struct {
	Namespace string    `gorm:"primaryKey;size:128"`
	Name      string    `gorm:"primaryKey;size:64"`
	Value     string    `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (KeyValueModel) TableName() string { return "session_values" }
