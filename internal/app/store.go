package app

import (
	"context"
	"fmt"

	"github.com/scalpapaschal-dotcom/OuterCircle/internal/config"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/database"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/repository"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/server/rest"
)

// store is a migrated repository together with the pool backing it.
type store struct {
	repo   repository.MessageRepository
	pinger rest.Pinger
	close  func() error
}

func poolOptions(cfg *config.Config) []database.PoolOption {
	return []database.PoolOption{
		database.WithMaxOpenConns(cfg.DatabaseMaxOpenConns),
		database.WithMaxIdleConns(cfg.DatabaseMaxIdleConns),
		database.WithConnMaxLifetime(cfg.DatabaseConnMaxLifetime),
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendGorm:
		return openGormStore(ctx, cfg)
	default:
		return openSQLStore(ctx, cfg)
	}
}

func openSQLStore(ctx context.Context, cfg *config.Config) (*store, error) {
	db, err := database.NewSQLDatabase(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, poolOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &store{
		repo:   repository.NewMessageRepository(db),
		pinger: db,
		close:  db.Close,
	}, nil
}

func openGormStore(ctx context.Context, cfg *config.Config) (*store, error) {
	db, err := database.NewGormDatabase(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, poolOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := repository.NewGormMessageRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		_ = database.CloseGorm(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		_ = database.CloseGorm(db)
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}

	return &store{
		repo:   repo,
		pinger: sqlDB,
		close:  func() error { return database.CloseGorm(db) },
	}, nil
}
