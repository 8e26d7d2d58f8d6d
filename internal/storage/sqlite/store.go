package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"zerofarm/internal/logger"
	"zerofarm/internal/storage"

	_ "github.com/mattn/go-sqlite3"
)

// store implements the storage.Store interface using SQLite.
type store struct {
	db  *sql.DB
	log logger.Logger
}

const createWalletsTableSQL = `
CREATE TABLE IF NOT EXISTS wallets (
    address TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    selected INTEGER NOT NULL DEFAULT 0,
    active INTEGER NOT NULL DEFAULT 0,
    tx_count INTEGER NOT NULL DEFAULT 0,
    nft_count INTEGER NOT NULL DEFAULT 0
);`

const createActivitiesTableSQL = `
CREATE TABLE IF NOT EXISTS activities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp DATETIME NOT NULL,
    wallet_address TEXT NOT NULL,
    kind TEXT NOT NULL,
    status TEXT NOT NULL,
    details TEXT,
    tx_hash TEXT
);`

// NewStore creates a new SQLite-backed store.
func NewStore(ctx context.Context, log logger.Logger, dbPath string) (storage.Store, error) {
	log.Info("Инициализация базы SQLite...", "path", dbPath)

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create directory for sqlite db %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database at %s: %w", dbPath, err)
	}

	// Defer closing the DB if initialization fails
	defer func() {
		if err != nil && db != nil {
			db.Close()
		}
	}()

	if err = db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database at %s: %w", dbPath, err)
	}

	if _, err = db.ExecContext(ctx, createWalletsTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create wallets table: %w", err)
	}
	if _, err = db.ExecContext(ctx, createActivitiesTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create activities table: %w", err)
	}

	log.Success("База SQLite инициализирована", "path", dbPath)
	return &store{db: db, log: log}, nil
}

// SaveWallet inserts or updates one wallet record.
func (s *store) SaveWallet(ctx context.Context, record storage.WalletRecord) error {
	query := `INSERT INTO wallets (address, name, selected, active, tx_count, nft_count)
	           VALUES (?, ?, ?, ?, ?, ?)
	           ON CONFLICT (address) DO UPDATE SET
	               name = excluded.name,
	               selected = excluded.selected,
	               active = excluded.active,
	               tx_count = excluded.tx_count,
	               nft_count = excluded.nft_count`

	_, err := s.db.ExecContext(ctx, query,
		record.Address,
		record.Name,
		record.Selected,
		record.Active,
		record.TxCount,
		record.NftCount,
	)
	if err != nil {
		s.log.Error("Не удалось сохранить кошелек в SQLite", "err", err, "addr", record.Address)
		return fmt.Errorf("failed to upsert wallet in sqlite: %w", err)
	}
	return nil
}

// DeleteWallet removes a wallet record by address.
func (s *store) DeleteWallet(ctx context.Context, address string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM wallets WHERE address = ?`, address); err != nil {
		s.log.Error("Не удалось удалить кошелек из SQLite", "err", err, "addr", address)
		return fmt.Errorf("failed to delete wallet in sqlite: %w", err)
	}
	return nil
}

// LoadWallets returns all persisted wallet records.
func (s *store) LoadWallets(ctx context.Context) ([]storage.WalletRecord, error) {
	query := `SELECT address, name, selected, active, tx_count, nft_count FROM wallets ORDER BY address`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallets from sqlite: %w", err)
	}
	defer rows.Close()

	var records []storage.WalletRecord
	for rows.Next() {
		var r storage.WalletRecord
		if err := rows.Scan(&r.Address, &r.Name, &r.Selected, &r.Active, &r.TxCount, &r.NftCount); err != nil {
			return nil, fmt.Errorf("failed to scan wallet row from sqlite: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// SaveActivity appends one activity record.
func (s *store) SaveActivity(ctx context.Context, record storage.ActivityRecord) error {
	query := `INSERT INTO activities (timestamp, wallet_address, kind, status, details, tx_hash)
	           VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		record.Timestamp,
		record.WalletAddress,
		record.Kind,
		record.Status,
		record.Details,
		record.TxHash,
	)
	if err != nil {
		s.log.Error("Не удалось сохранить активность в SQLite", "err", err,
			"addr", record.WalletAddress, "kind", record.Kind)
		return fmt.Errorf("failed to execute insert query in sqlite: %w", err)
	}
	return nil
}

// LoadActivities returns the most recent records, oldest first.
func (s *store) LoadActivities(ctx context.Context, limit int) ([]storage.ActivityRecord, error) {
	query := `SELECT timestamp, wallet_address, kind, status, details, tx_hash
	           FROM (SELECT * FROM activities ORDER BY id DESC LIMIT ?)
	           ORDER BY id ASC`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities from sqlite: %w", err)
	}
	defer rows.Close()

	var records []storage.ActivityRecord
	for rows.Next() {
		var r storage.ActivityRecord
		if err := rows.Scan(&r.Timestamp, &r.WalletAddress, &r.Kind, &r.Status, &r.Details, &r.TxHash); err != nil {
			return nil, fmt.Errorf("failed to scan activity row from sqlite: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close closes the database connection.
func (s *store) Close() error {
	s.log.Info("Закрытие подключения SQLite...")
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
