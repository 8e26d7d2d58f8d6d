package postgres

import (
	"context"
	"fmt"
	"strconv"

	"zerofarm/internal/logger"
	"zerofarm/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
)

// store implements the storage.Store interface using PostgreSQL.
type store struct {
	pool *pgxpool.Pool
	log  logger.Logger
}

const createWalletsTableSQL = `
CREATE TABLE IF NOT EXISTS wallets (
    address VARCHAR(42) PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    selected BOOLEAN NOT NULL DEFAULT FALSE,
    active BOOLEAN NOT NULL DEFAULT FALSE,
    tx_count INTEGER NOT NULL DEFAULT 0,
    nft_count INTEGER NOT NULL DEFAULT 0
);`

const createActivitiesTableSQL = `
CREATE TABLE IF NOT EXISTS activities (
    id SERIAL PRIMARY KEY,
    timestamp TIMESTAMP NOT NULL,
    wallet_address VARCHAR(42) NOT NULL,
    kind VARCHAR(50) NOT NULL,
    status VARCHAR(50) NOT NULL,
    details TEXT,
    tx_hash VARCHAR(66)
);`

// NewStore creates a new PostgreSQL-backed store.
func NewStore(ctx context.Context, log logger.Logger, connectionString string, maxConnsStr string) (storage.Store, error) {
	config, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	if maxConnsStr != "" {
		maxConns, err := strconv.Atoi(maxConnsStr)
		if err != nil {
			log.Warn("Некорректное значение pool_max_conns, используется значение по умолчанию", "value", maxConnsStr, "err", err)
		} else if maxConns > 0 {
			config.MaxConns = int32(maxConns)
			log.Info("Установлен лимит подключений к БД", "count", config.MaxConns)
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Defer closing the pool if initialization fails after this point
	defer func() {
		if err != nil && pool != nil {
			pool.Close()
		}
	}()

	if err = pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if _, err = pool.Exec(ctx, createWalletsTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create wallets table: %w", err)
	}
	if _, err = pool.Exec(ctx, createActivitiesTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create activities table: %w", err)
	}

	log.Success("Подключение к PostgreSQL установлено")
	return &store{pool: pool, log: log}, nil
}

// SaveWallet inserts or updates one wallet record.
func (s *store) SaveWallet(ctx context.Context, record storage.WalletRecord) error {
	query := `INSERT INTO wallets (address, name, selected, active, tx_count, nft_count)
	           VALUES ($1, $2, $3, $4, $5, $6)
	           ON CONFLICT (address) DO UPDATE SET
	               name = EXCLUDED.name,
	               selected = EXCLUDED.selected,
	               active = EXCLUDED.active,
	               tx_count = EXCLUDED.tx_count,
	               nft_count = EXCLUDED.nft_count`

	_, err := s.pool.Exec(ctx, query,
		record.Address,
		record.Name,
		record.Selected,
		record.Active,
		record.TxCount,
		record.NftCount,
	)
	if err != nil {
		s.log.Error("Не удалось сохранить кошелек в БД", "err", err, "addr", record.Address)
		return fmt.Errorf("failed to upsert wallet: %w", err)
	}
	return nil
}

// DeleteWallet removes a wallet record by address.
func (s *store) DeleteWallet(ctx context.Context, address string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM wallets WHERE address = $1`, address); err != nil {
		s.log.Error("Не удалось удалить кошелек из БД", "err", err, "addr", address)
		return fmt.Errorf("failed to delete wallet: %w", err)
	}
	return nil
}

// LoadWallets returns all persisted wallet records.
func (s *store) LoadWallets(ctx context.Context) ([]storage.WalletRecord, error) {
	query := `SELECT address, name, selected, active, tx_count, nft_count FROM wallets ORDER BY address`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallets: %w", err)
	}
	defer rows.Close()

	var records []storage.WalletRecord
	for rows.Next() {
		var r storage.WalletRecord
		if err := rows.Scan(&r.Address, &r.Name, &r.Selected, &r.Active, &r.TxCount, &r.NftCount); err != nil {
			return nil, fmt.Errorf("failed to scan wallet row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// SaveActivity appends one activity record to the 'activities' table.
func (s *store) SaveActivity(ctx context.Context, record storage.ActivityRecord) error {
	query := `INSERT INTO activities (timestamp, wallet_address, kind, status, details, tx_hash)
	           VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		record.Timestamp,
		record.WalletAddress,
		record.Kind,
		record.Status,
		record.Details,
		record.TxHash,
	)
	if err != nil {
		s.log.Error("Не удалось сохранить активность в БД", "err", err, "addr", record.WalletAddress, "kind", record.Kind)
		return fmt.Errorf("failed to execute insert query: %w", err)
	}
	return nil
}

// LoadActivities returns the most recent records, oldest first.
func (s *store) LoadActivities(ctx context.Context, limit int) ([]storage.ActivityRecord, error) {
	query := `SELECT timestamp, wallet_address, kind, status, details, tx_hash
	           FROM (SELECT * FROM activities ORDER BY id DESC LIMIT $1) recent
	           ORDER BY id ASC`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var records []storage.ActivityRecord
	for rows.Next() {
		var r storage.ActivityRecord
		if err := rows.Scan(&r.Timestamp, &r.WalletAddress, &r.Kind, &r.Status, &r.Details, &r.TxHash); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close closes the database connection pool.
func (s *store) Close() error {
	if s.pool != nil {
		s.log.Info("Закрытие пула подключений PostgreSQL...")
		s.pool.Close()
	}
	return nil
}
