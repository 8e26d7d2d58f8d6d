package wallet

import (
	"errors"
	"fmt"
	"sync"

	"zerofarm/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrWalletExists indicates an attempt to add a wallet whose address is already known.
	ErrWalletExists = errors.New("wallet with this address already exists")
	// ErrWalletNotFound indicates the requested wallet does not exist (or was deleted).
	ErrWalletNotFound = errors.New("wallet not found")
)

// entry pairs an account with its own mutex so that patches to different
// wallets never block each other.
type entry struct {
	mu   sync.Mutex
	acct Account
	seq  int
}

// Store is the single source of truth for wallet mutable state. All
// mutations go through Patch; nothing else writes account state.
type Store struct {
	mu       sync.RWMutex
	accounts map[common.Address]*entry
	order    []common.Address
	nextSeq  int
}

// NewStore creates an empty wallet store.
func NewStore() *Store {
	return &Store{accounts: make(map[common.Address]*entry)}
}

// Add registers a new wallet. Fails with ErrWalletExists on a duplicate
// address. A missing name defaults to "Wallet N".
func (s *Store) Add(acct Account) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[acct.Address]; exists {
		return Account{}, fmt.Errorf("%w: %s", ErrWalletExists, acct.Address.Hex())
	}

	if acct.Name == "" {
		acct.Name = fmt.Sprintf("Wallet %d", len(s.accounts)+1)
	}
	if acct.Balances == nil {
		acct.Balances = make(map[types.TokenSymbol]string)
	}

	e := &entry{acct: acct, seq: s.nextSeq}
	s.nextSeq++
	s.accounts[acct.Address] = e
	s.order = append(s.order, acct.Address)

	return acct.clone(), nil
}

// Import adds a batch of wallets, skipping duplicates. Returns the number
// actually added.
func (s *Store) Import(accts []Account) int {
	added := 0
	for _, acct := range accts {
		if _, err := s.Add(acct); err == nil {
			added++
		}
	}
	return added
}

// Get returns a copy of the wallet state.
func (s *Store) Get(addr common.Address) (Account, bool) {
	s.mu.RLock()
	e, ok := s.accounts[addr]
	s.mu.RUnlock()
	if !ok {
		return Account{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acct.clone(), true
}

// List returns copies of all wallets in insertion order.
func (s *Store) List() []Account {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.order))
	for _, addr := range s.order {
		if e, ok := s.accounts[addr]; ok {
			entries = append(entries, e)
		}
	}
	s.mu.RUnlock()

	out := make([]Account, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.acct.clone())
		e.mu.Unlock()
	}
	return out
}

// Seq returns the wallet's insertion sequence number, used for
// deterministic tie-breaking.
func (s *Store) Seq(addr common.Address) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.accounts[addr]
	if !ok {
		return 0, false
	}
	return e.seq, true
}

// Patch applies fn to the wallet under its per-wallet lock. Concurrent
// patches to the same wallet serialize; different wallets proceed in
// parallel. Returns ErrWalletNotFound if the wallet was deleted.
func (s *Store) Patch(addr common.Address, fn func(*Account)) error {
	s.mu.RLock()
	e, ok := s.accounts[addr]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrWalletNotFound, addr.Hex())
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.acct)
	return nil
}

// Delete removes the wallet. Idempotent: deleting a missing wallet
// returns ErrWalletNotFound for the caller to ignore or report.
func (s *Store) Delete(addr common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[addr]; !ok {
		return fmt.Errorf("%w: %s", ErrWalletNotFound, addr.Hex())
	}
	delete(s.accounts, addr)
	for i, a := range s.order {
		if a == addr {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Selected returns copies of all wallets currently selected, in insertion order.
func (s *Store) Selected() []Account {
	var out []Account
	for _, acct := range s.List() {
		if acct.Selected {
			out = append(out, acct)
		}
	}
	return out
}

// SetSelectedAll flips the selected flag on every wallet.
func (s *Store) SetSelectedAll(selected bool) {
	for _, acct := range s.List() {
		_ = s.Patch(acct.Address, func(a *Account) { a.Selected = selected })
	}
}
