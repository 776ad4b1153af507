package repository

import (
	"context"
	"fmt"

	"notes-portal/internal/config"
	"notes-portal/internal/database"

	"github.com/rs/zerolog"
)

// Open connects to the store selected by cfg.Store.Driver, brings its
// schema or indexes up to date and returns the offer repository. The
// returned function releases the connection.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (OfferRepository, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return NewOfferRepository(pool, logger), pool.Close, nil

	case config.StoreDriverMongo:
		client, err := database.NewMongoClient(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize mongodb: %w", err)
		}
		db := client.Database(cfg.Mongo.Database)
		if err := database.EnsureMongoIndexes(ctx, db, logger); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Error().Err(err).Msg("failed to disconnect from mongodb")
			}
		}
		return NewMongoOfferRepository(db, cfg.Mongo.UpdateRetries, logger), closeFn, nil
	}

	return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
}
