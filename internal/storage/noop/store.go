package noop

import (
	"context"

	"zerofarm/internal/storage"
)

// noOpStore is an implementation of storage.Store that does nothing.
// Useful when persistence is disabled.
type noOpStore struct{}

// NewStore creates a new no-operation store.
func NewStore() storage.Store {
	return &noOpStore{}
}

func (s *noOpStore) SaveWallet(ctx context.Context, record storage.WalletRecord) error {
	return nil
}

func (s *noOpStore) DeleteWallet(ctx context.Context, address string) error {
	return nil
}

func (s *noOpStore) LoadWallets(ctx context.Context) ([]storage.WalletRecord, error) {
	return nil, nil
}

func (s *noOpStore) SaveActivity(ctx context.Context, record storage.ActivityRecord) error {
	return nil
}

func (s *noOpStore) LoadActivities(ctx context.Context, limit int) ([]storage.ActivityRecord, error) {
	return nil, nil
}

func (s *noOpStore) Close() error {
	return nil
}
