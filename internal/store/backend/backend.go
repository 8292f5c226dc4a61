// Package backend picks the store implementation named by STORE_DRIVER.
package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go-crm-core/internal/config"
	"go-crm-core/internal/database"
	"go-crm-core/internal/store"
	"go-crm-core/internal/store/memory"
	mongostore "go-crm-core/internal/store/mongo"
	"go-crm-core/internal/store/postgres"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var errNotConnected = errors.New("driver selected but no connection was opened")

type Params struct {
	fx.In

	Config   *config.Config
	Logger   *zap.Logger
	Mongo    *database.MongoDB `optional:"true"`
	Postgres *sql.DB           `optional:"true"`
}

// NewStore is the fx constructor around Open.
func NewStore(p Params) (store.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return Open(ctx, p.Config, p.Mongo, p.Postgres, p.Logger)
}

// Open prepares the selected backend: indexes for MongoDB, migrations for
// PostgreSQL, nothing for the in-memory store.
func Open(ctx context.Context, cfg *config.Config, mdb *database.MongoDB, pg *sql.DB, logger *zap.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("Using the in-memory store; data is lost on restart")
		return memory.New(), nil
	case config.DriverMongo:
		if mdb == nil {
			return nil, fmt.Errorf("mongo: %w", errNotConnected)
		}
		s := mongostore.New(mdb.Client, mdb.DB, logger)
		if err := s.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		return s, nil
	case config.DriverPostgres:
		if pg == nil {
			return nil, fmt.Errorf("postgres: %w", errNotConnected)
		}
		if err := postgres.Migrate(pg); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return postgres.New(pg), nil
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}
}
