package main

import (
	"context"
	"fmt"

	"cloud.google.com/go/datastore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	fa "github.com/martinez-Diana/FRONTJMARTINEZ"
	"github.com/martinez-Diana/FRONTJMARTINEZ/stores"
	gaestore "github.com/martinez-Diana/FRONTJMARTINEZ/stores/gae"
	gormstore "github.com/martinez-Diana/FRONTJMARTINEZ/stores/gorm"
)

// openStore returns the key-value store selected by cfg and a function
// releasing its resources.
func openStore(ctx context.Context, cfg StoreConfig) (fa.KeyValueStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Kind {
	case StoreMemory:
		return stores.NewMemoryStore(), noop, nil

	case StoreFS:
		store, err := stores.NewFSKeyValueStore(cfg.Path, "frontauth")
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil

	case StorePostgres:
		db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := gormstore.AutoMigrate(db); err != nil {
			return nil, nil, fmt.Errorf("migrating session table: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return gormstore.NewKeyValueStore(db, cfg.Namespace), sqlDB.Close, nil

	case StoreDatastore:
		client, err := datastore.NewClient(ctx, cfg.Project)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to datastore: %w", err)
		}
		return gaestore.NewKeyValueStore(client, cfg.Namespace), client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Kind)
}
