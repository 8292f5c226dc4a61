package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"go-crm-core/internal/config"

	_ "github.com/lib/pq"
	"go.uber.org/fx"
)

// NewPostgres opens the pool when the postgres driver is selected and returns nil otherwise.
func NewPostgres(lc fx.Lifecycle, cfg *config.Config) (*sql.DB, error) {
	if cfg.StoreDriver != config.DriverPostgres {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := OpenPostgres(ctx, cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Println("Closing PostgreSQL pool...")
			return db.Close()
		},
	})
	return db, nil
}

func OpenPostgres(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	log.Println("Connected to PostgreSQL!")
	return db, nil
}
