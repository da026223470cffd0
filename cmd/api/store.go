package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/accounthub/internal/account"
	"github.com/geocoder89/accounthub/internal/config"
	"github.com/geocoder89/accounthub/internal/db"
	"github.com/geocoder89/accounthub/internal/http/handlers"
	"github.com/geocoder89/accounthub/internal/observability"
	"github.com/geocoder89/accounthub/internal/repo/memory"
	"github.com/geocoder89/accounthub/internal/repo/postgres"
)

// openStore picks the user store. Dev without a configured database runs on the
// in-memory repo and has nothing for readiness to ping; everything else gets
// migrated Postgres.
func openStore(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (account.Store, handlers.Pinger, func(), error) {
	if cfg.UseMemoryStore() {
		log.Warn("no database configured, users are kept in memory")
		return memory.NewUsersRepo(), nil, func() {}, nil
	}

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.DBURL); err != nil {
			return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		log.Info("migrations applied")
	}

	pool, err := db.NewPool(ctx, cfg.DBURL, int32(cfg.DBMaxConns))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect database: %w", err)
	}

	return postgres.NewUsersRepo(pool, prom), pool, pool.Close, nil
}
