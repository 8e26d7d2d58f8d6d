package database

import (
	"context"
	"errors"
	"fmt"

	"zerofarm/internal/config"
	"zerofarm/internal/logger"
	"zerofarm/internal/storage"
	"zerofarm/internal/storage/noop"
	"zerofarm/internal/storage/postgres"
	"zerofarm/internal/storage/sqlite"
	"zerofarm/internal/types"
)

var (
	// ErrUnsupportedDBType indicates that the provided database type is not supported.
	ErrUnsupportedDBType = errors.New("unsupported database type specified")
	// ErrDBConnectionFailed indicates that the attempt to connect to the database failed.
	ErrDBConnectionFailed = errors.New("database connection failed")
	// ErrMissingConnectionString indicates that the database connection string was not provided.
	ErrMissingConnectionString = errors.New("database connection string is missing")
)

// NewStore creates a storage.Store backend from the database config.
func NewStore(ctx context.Context, log logger.Logger, cfg config.DatabaseConfig) (storage.Store, error) {
	switch cfg.Type {
	case types.Postgres:
		if cfg.ConnectionString == "" {
			return nil, fmt.Errorf("для PostgreSQL: %w", ErrMissingConnectionString)
		}
		log.Info("Инициализация хранилища PostgreSQL...")
		store, err := postgres.NewStore(ctx, log, cfg.ConnectionString, cfg.PoolMaxConns)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к PostgreSQL: %w: %w", ErrDBConnectionFailed, err)
		}
		return store, nil
	case types.SQLite:
		if cfg.ConnectionString == "" {
			return nil, fmt.Errorf("для SQLite: %w", ErrMissingConnectionString)
		}
		log.Info("Инициализация хранилища SQLite...")
		store, err := sqlite.NewStore(ctx, log, cfg.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к SQLite: %w: %w", ErrDBConnectionFailed, err)
		}
		return store, nil
	case types.None, "":
		log.Info("Персистентность отключена, используется заглушка")
		return noop.NewStore(), nil
	default:
		return nil, fmt.Errorf("%w: %s (ожидается '%s', '%s' или '%s')",
			ErrUnsupportedDBType, cfg.Type, types.Postgres, types.SQLite, types.None)
	}
}
