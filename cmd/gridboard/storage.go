package main

import (
	"context"
	"fmt"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
	"github.com/goliatone/go-gridboard/pkg/config"
	"github.com/goliatone/go-gridboard/pkg/store/mongostore"
	"github.com/goliatone/go-gridboard/pkg/store/sqlstore"
)

type stores struct {
	catalog dashboard.CatalogStore
	configs dashboard.ConfigStore
	close   func()
}

// openStores connects the configured backend. The memory driver starts with an
// empty catalog; seeding fills it.
func openStores(ctx context.Context, cfg config.StorageConfig) (stores, error) {
	switch cfg.Driver {
	case config.DriverSQLite, config.DriverPostgres:
		db, err := sqlstore.Open(ctx, cfg.Driver, cfg.DSN)
		if err != nil {
			return stores{}, fmt.Errorf("open %s store: %w", cfg.Driver, err)
		}
		return stores{catalog: db, configs: db, close: func() { _ = db.Close() }}, nil
	case config.DriverMongo:
		db, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return stores{}, err
		}
		return stores{catalog: db, configs: db, close: func() { _ = db.Close(context.Background()) }}, nil
	default:
		return stores{
			catalog: dashboard.NewInMemoryCatalogStore(),
			configs: dashboard.NewInMemoryConfigStore(),
			close:   func() {},
		}, nil
	}
}
