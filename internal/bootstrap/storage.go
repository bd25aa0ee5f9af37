package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Domenick1991/medcare/config"
	"github.com/Domenick1991/medcare/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OpenRepository connects the configured backend, prepares its schema and
// returns the repository with a release func owned by the caller.
func OpenRepository(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.BookingRepository, func(), error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		repo := repository.NewBookingRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		log.Info("storage ready", "driver", config.StoragePostgres)
		return repo, pool.Close, nil

	case config.StorageMongo:
		client, err := repository.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewMongoBookingRepository(client.Database(cfg.Mongo.Database), cfg.Mongo.Collection)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("create mongo indexes: %w", err)
		}
		log.Info("storage ready", "driver", config.StorageMongo, "database", cfg.Mongo.Database)
		release := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Warn("mongo disconnect failed", "error", err)
			}
		}
		return repo, release, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
