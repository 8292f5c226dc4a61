package database

import (
	"context"
	"log"
	"time"

	"go-crm-core/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
)

// MongoDB bundles the client (needed for sessions) and the database handle.
type MongoDB struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewMongoDB connects when the mongo driver is selected and returns nil otherwise.
func NewMongoDB(lc fx.Lifecycle, cfg *config.Config) (*MongoDB, error) {
	if cfg.StoreDriver != config.DriverMongo {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := ConnectMongo(ctx, cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Println("Disconnecting from MongoDB...")
			return client.Client.Disconnect(ctx)
		},
	})
	return client, nil
}

// ConnectMongo dials and pings MongoDB. Transactions need a replica set.
func ConnectMongo(ctx context.Context, cfg *config.Config) (*MongoDB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	log.Println("Connected to MongoDB!")
	return &MongoDB{Client: client, DB: client.Database(cfg.DBName)}, nil
}
