package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	walletA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	walletB = common.HexToAddress("0x2222222222222222222222222222222222222222")
	walletC = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func TestAcquire(t *testing.T) {
	ctx := context.Background()

	t.Run("allows one operation per wallet", func(t *testing.T) {
		g := New(5, 50*time.Millisecond)

		release, err := g.Acquire(ctx, walletA)
		require.NoError(t, err)
		defer release()

		_, err = g.Acquire(ctx, walletA)
		assert.ErrorIs(t, err, ErrAcquireTimeout)
	})

	t.Run("frees the wallet slot on release", func(t *testing.T) {
		g := New(5, 50*time.Millisecond)

		release, err := g.Acquire(ctx, walletA)
		require.NoError(t, err)
		release()

		release2, err := g.Acquire(ctx, walletA)
		require.NoError(t, err)
		release2()
	})

	t.Run("enforces the global cap across wallets", func(t *testing.T) {
		g := New(2, 50*time.Millisecond)

		releaseA, err := g.Acquire(ctx, walletA)
		require.NoError(t, err)
		defer releaseA()
		releaseB, err := g.Acquire(ctx, walletB)
		require.NoError(t, err)

		_, err = g.Acquire(ctx, walletC)
		assert.ErrorIs(t, err, ErrAcquireTimeout)

		// Освобождение глобального слота открывает дорогу третьему кошельку.
		releaseB()
		releaseC, err := g.Acquire(ctx, walletC)
		require.NoError(t, err)
		releaseC()
	})

	t.Run("returns the context error on cancellation", func(t *testing.T) {
		g := New(1, time.Minute)

		release, err := g.Acquire(ctx, walletA)
		require.NoError(t, err)
		defer release()

		cancelCtx, cancel := context.WithCancel(ctx)
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		_, err = g.Acquire(cancelCtx, walletB)
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("release is safe to call twice", func(t *testing.T) {
		g := New(1, 50*time.Millisecond)

		release, err := g.Acquire(ctx, walletA)
		require.NoError(t, err)
		release()
		release()

		assert.Equal(t, 0, g.InFlight())
	})
}

func TestInFlight(t *testing.T) {
	g := New(3, 50*time.Millisecond)
	ctx := context.Background()

	assert.Equal(t, 0, g.InFlight())

	releaseA, err := g.Acquire(ctx, walletA)
	require.NoError(t, err)
	releaseB, err := g.Acquire(ctx, walletB)
	require.NoError(t, err)
	assert.Equal(t, 2, g.InFlight())

	releaseA()
	releaseB()
	assert.Equal(t, 0, g.InFlight())
}
