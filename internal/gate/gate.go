package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ErrAcquireTimeout indicates that no slot freed up within the ceiling.
var ErrAcquireTimeout = errors.New("gate: timed out waiting for a free slot")

// Gate bounds concurrent in-flight chain operations: a global cap across
// all wallets plus at most one operation per wallet, so a wallet's own
// tasks never overlap.
type Gate struct {
	global  chan struct{}
	ceiling time.Duration

	mu        sync.Mutex
	perWallet map[common.Address]chan struct{}
}

// New creates a gate with the given global slot count and acquire ceiling.
func New(globalLimit int, ceiling time.Duration) *Gate {
	if globalLimit <= 0 {
		globalLimit = 1
	}
	return &Gate{
		global:    make(chan struct{}, globalLimit),
		ceiling:   ceiling,
		perWallet: make(map[common.Address]chan struct{}),
	}
}

func (g *Gate) walletSlot(addr common.Address) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	slot, ok := g.perWallet[addr]
	if !ok {
		slot = make(chan struct{}, 1)
		g.perWallet[addr] = slot
	}
	return slot
}

// Acquire blocks until both the wallet slot and a global slot are free, or
// until the ceiling or ctx expires. On success the returned release
// function must always be called, even if the guarded operation fails.
func (g *Gate) Acquire(ctx context.Context, addr common.Address) (func(), error) {
	deadline := time.NewTimer(g.ceiling)
	defer deadline.Stop()

	walletSlot := g.walletSlot(addr)

	select {
	case walletSlot <- struct{}{}:
	case <-deadline.C:
		return nil, fmt.Errorf("%w (wallet %s)", ErrAcquireTimeout, addr.Hex())
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case g.global <- struct{}{}:
	case <-deadline.C:
		<-walletSlot
		return nil, fmt.Errorf("%w (global)", ErrAcquireTimeout)
	case <-ctx.Done():
		<-walletSlot
		return nil, ctx.Err()
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			<-g.global
			<-walletSlot
		})
	}
	return release, nil
}

// InFlight returns the number of currently held global slots.
func (g *Gate) InFlight() int {
	return len(g.global)
}
