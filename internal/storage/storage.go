package storage

import (
	"context"
	"time"
)

// WalletRecord is the persisted projection of a wallet. The private key is
// never stored; it is re-derived from the keys file on startup.
type WalletRecord struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
	Active   bool   `json:"active"`
	TxCount  int    `json:"tx_count"`
	NftCount int    `json:"nft_count"`
}

// ActivityRecord represents one completed task execution in the feed.
type ActivityRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	WalletAddress string    `json:"wallet_address"`
	Kind          string    `json:"kind"`
	Status        string    `json:"status"`           // "success" or "failed"
	Details       string    `json:"details,omitempty"`
	TxHash        string    `json:"tx_hash,omitempty"` // Can be empty on pre-send errors
}

// Store defines the interface for persisting wallet state and the activity
// feed between runs. Implementations could be Postgres, SQLite, NoOp, etc.
type Store interface {
	// SaveWallet inserts or updates one wallet record.
	SaveWallet(ctx context.Context, record WalletRecord) error
	// DeleteWallet removes a wallet record by address.
	DeleteWallet(ctx context.Context, address string) error
	// LoadWallets returns all persisted wallet records.
	LoadWallets(ctx context.Context) ([]WalletRecord, error)
	// SaveActivity appends one activity record.
	SaveActivity(ctx context.Context, record ActivityRecord) error
	// LoadActivities returns the most recent records, oldest first,
	// capped at limit.
	LoadActivities(ctx context.Context, limit int) ([]ActivityRecord, error)
	// Close closes any underlying resources (like database connections).
	Close() error
}
