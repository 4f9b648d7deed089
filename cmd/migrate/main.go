package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration instead of applying pending ones")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, zap.String("component", "migrate"))
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if cfg.Storage.Driver == config.StorageDriverSQLite {
		if *down {
			logger.Fatal("rollback is not supported for sqlite")
		}
		store, err := persistence.NewSQLite(cfg.Storage.SQLitePath, logger)
		if err != nil {
			logger.Fatal("failed to open sqlite", zap.Error(err))
		}
		defer store.Close()
		if err := repository.MigrateGorm(store.DB); err != nil {
			logger.Fatal("failed to migrate sqlite", zap.Error(err))
		}
		logger.Info("sqlite schema up to date")
		return
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if *down {
		err = persistence.RollbackLast(ctx, pg.PoolHandle(), logger)
	} else {
		err = persistence.RunMigrations(ctx, pg.PoolHandle(), logger)
	}
	if err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
}
