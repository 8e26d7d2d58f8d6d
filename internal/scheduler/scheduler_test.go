package scheduler

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zerofarm/internal/config"
	"zerofarm/internal/logger"
	"zerofarm/internal/types"
)

var (
	walletA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	walletB = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func newTestScheduler(defs []Definition) *Scheduler {
	return New(defs, time.UTC, config.MinMax{Min: 30, Max: 30}, 5*time.Minute, logger.NewNopLogger())
}

func fixedDef(kind types.TaskKind, intervalHours float64, txPerWallet int) Definition {
	return Definition{
		Kind:          kind,
		Enabled:       true,
		IntervalHours: intervalHours,
		TxPerWallet:   txPerWallet,
		WindowStart:   0,
		WindowEnd:     24,
	}
}

func TestActivate(t *testing.T) {
	t.Run("creates entries only for enabled kinds", func(t *testing.T) {
		defs := []Definition{
			fixedDef(types.TaskClaim, 24, 1),
			{Kind: types.TaskSwap, Enabled: false, IntervalHours: 12, TxPerWallet: 3, WindowEnd: 24},
		}
		s := newTestScheduler(defs)
		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

		s.Activate(walletA, now)

		sum := s.DueSummary(now)
		assert.Equal(t, 1, sum.ActiveWallets)
		assert.Equal(t, 1, sum.TotalEntries)
		assert.True(t, s.IsActive(walletA))
	})

	t.Run("is a no-op for an already active wallet", func(t *testing.T) {
		s := newTestScheduler([]Definition{fixedDef(types.TaskClaim, 24, 1)})
		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

		s.Activate(walletA, now)
		first := s.DueSummary(now).NextFireAt
		s.Activate(walletA, now.Add(time.Hour))

		assert.Equal(t, first, s.DueSummary(now).NextFireAt)
	})

	t.Run("schedules the first fire one interval ahead", func(t *testing.T) {
		s := newTestScheduler([]Definition{fixedDef(types.TaskClaim, 24, 1)})
		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

		s.Activate(walletA, now)

		assert.Equal(t, now.Add(24*time.Hour), s.DueSummary(now).NextFireAt)
	})
}

func TestJitterBounds(t *testing.T) {
	def := fixedDef(types.TaskClaim, 10, 1)
	def.Randomize = true
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	lower := now.Add(8 * time.Hour)
	upper := now.Add(12 * time.Hour)

	for i := 0; i < 50; i++ {
		s := newTestScheduler([]Definition{def})
		s.Activate(walletA, now)
		next := s.DueSummary(now).NextFireAt
		require.False(t, next.Before(lower), "fire time %v below jitter floor %v", next, lower)
		require.False(t, next.After(upper), "fire time %v above jitter ceiling %v", next, upper)
	}
}

func TestWindowAlignment(t *testing.T) {
	def := fixedDef(types.TaskClaim, 2, 1)
	def.WindowStart = 9
	def.WindowEnd = 18

	t.Run("inside the window fires as computed", func(t *testing.T) {
		s := newTestScheduler([]Definition{def})
		now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC) // candidate 12:00

		s.Activate(walletA, now)

		assert.Equal(t, now.Add(2*time.Hour), s.DueSummary(now).NextFireAt)
	})

	t.Run("before the window delays to the window start", func(t *testing.T) {
		s := newTestScheduler([]Definition{def})
		now := time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC) // candidate 07:00

		s.Activate(walletA, now)

		expected := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		assert.Equal(t, expected, s.DueSummary(now).NextFireAt)
	})

	t.Run("after the window delays to the next day", func(t *testing.T) {
		s := newTestScheduler([]Definition{def})
		now := time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC) // candidate 21:00

		s.Activate(walletA, now)

		expected := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
		assert.Equal(t, expected, s.DueSummary(now).NextFireAt)
	})
}

func TestTick(t *testing.T) {
	t.Run("returns due entries and marks them in flight", func(t *testing.T) {
		s := newTestScheduler([]Definition{fixedDef(types.TaskClaim, 1, 1)})
		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
		s.Activate(walletA, now)

		due := s.Tick(now.Add(time.Hour))
		require.Len(t, due, 1)
		assert.Equal(t, walletA, due[0].Wallet)
		assert.Equal(t, types.TaskClaim, due[0].Kind)

		// Повторный тик не возвращает ту же запись до Complete.
		assert.Empty(t, s.Tick(now.Add(2*time.Hour)))

		s.Complete(walletA, types.TaskClaim, OutcomeRateLimited, now.Add(2*time.Hour))
		assert.Len(t, s.Tick(now.Add(2*time.Hour)), 1)
	})

	t.Run("orders ties by wallet activation order", func(t *testing.T) {
		s := newTestScheduler([]Definition{fixedDef(types.TaskClaim, 1, 1)})
		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
		s.Activate(walletB, now)
		s.Activate(walletA, now)

		due := s.Tick(now.Add(time.Hour))
		require.Len(t, due, 2)
		assert.Equal(t, walletB, due[0].Wallet)
		assert.Equal(t, walletA, due[1].Wallet)
	})

	t.Run("returns nothing before the fire time", func(t *testing.T) {
		s := newTestScheduler([]Definition{fixedDef(types.TaskClaim, 1, 1)})
		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
		s.Activate(walletA, now)

		assert.Empty(t, s.Tick(now.Add(59*time.Minute)))
	})
}

func TestComplete(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("success within a cycle waits the intra-cycle delay", func(t *testing.T) {
		s := newTestScheduler([]Definition{fixedDef(types.TaskSwap, 1, 3)})
		s.Activate(walletA, now)

		fireAt := now.Add(time.Hour)
		due := s.Tick(fireAt)
		require.Len(t, due, 1)
		assert.Equal(t, 3, due[0].Remaining)

		s.Complete(walletA, types.TaskSwap, OutcomeSuccess, fireAt)
		assert.Equal(t, fireAt.Add(30*time.Second), s.DueSummary(fireAt).NextFireAt)

		due = s.Tick(fireAt.Add(30 * time.Second))
		require.Len(t, due, 1)
		assert.Equal(t, 2, due[0].Remaining)
	})

	t.Run("finishing a cycle schedules the next interval", func(t *testing.T) {
		s := newTestScheduler([]Definition{fixedDef(types.TaskClaim, 1, 1)})
		s.Activate(walletA, now)

		fireAt := now.Add(time.Hour)
		require.Len(t, s.Tick(fireAt), 1)
		s.Complete(walletA, types.TaskClaim, OutcomeSuccess, fireAt)

		assert.Equal(t, fireAt.Add(time.Hour), s.DueSummary(fireAt).NextFireAt)
	})

	t.Run("permanent failure advances straight to the next cycle", func(t *testing.T) {
		s := newTestScheduler([]Definition{fixedDef(types.TaskClaim, 1, 3)})
		s.Activate(walletA, now)

		fireAt := now.Add(time.Hour)
		require.Len(t, s.Tick(fireAt), 1)
		s.Complete(walletA, types.TaskClaim, OutcomePermanentFailure, fireAt)

		assert.Equal(t, fireAt.Add(time.Hour), s.DueSummary(fireAt).NextFireAt)

		// Счетчик повторов сброшен на новый цикл.
		due := s.Tick(fireAt.Add(time.Hour))
		require.Len(t, due, 1)
		assert.Equal(t, 3, due[0].Remaining)
	})

	t.Run("transient failure backs off briefly", func(t *testing.T) {
		s := newTestScheduler([]Definition{fixedDef(types.TaskClaim, 1, 1)})
		s.Activate(walletA, now)

		fireAt := now.Add(time.Hour)
		require.Len(t, s.Tick(fireAt), 1)
		s.Complete(walletA, types.TaskClaim, OutcomeTransientFailure, fireAt)

		assert.Equal(t, fireAt.Add(5*time.Minute), s.DueSummary(fireAt).NextFireAt)
	})

	t.Run("rate limited retries on the next tick", func(t *testing.T) {
		s := newTestScheduler([]Definition{fixedDef(types.TaskClaim, 1, 1)})
		s.Activate(walletA, now)

		fireAt := now.Add(time.Hour)
		require.Len(t, s.Tick(fireAt), 1)
		s.Complete(walletA, types.TaskClaim, OutcomeRateLimited, fireAt)

		assert.Len(t, s.Tick(fireAt), 1)
	})

	t.Run("ignores entries removed by deactivation", func(t *testing.T) {
		s := newTestScheduler([]Definition{fixedDef(types.TaskClaim, 1, 1)})
		s.Activate(walletA, now)

		fireAt := now.Add(time.Hour)
		require.Len(t, s.Tick(fireAt), 1)
		s.Deactivate(walletA)

		s.Complete(walletA, types.TaskClaim, OutcomeSuccess, fireAt)
		assert.Equal(t, 0, s.DueSummary(fireAt).TotalEntries)
	})
}

func TestDeactivate(t *testing.T) {
	s := newTestScheduler([]Definition{fixedDef(types.TaskClaim, 1, 1)})
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.Activate(walletA, now)

	s.Deactivate(walletA)
	assert.False(t, s.IsActive(walletA))
	assert.Equal(t, 0, s.DueSummary(now).TotalEntries)

	// Повторная деактивация безопасна.
	s.Deactivate(walletA)
	assert.False(t, s.IsActive(walletA))
}

func TestUpdateDefinition(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("disabling removes idle entries on the next tick", func(t *testing.T) {
		def := fixedDef(types.TaskClaim, 1, 1)
		s := newTestScheduler([]Definition{def})
		s.Activate(walletA, now)

		def.Enabled = false
		s.UpdateDefinition(def)

		s.Tick(now)
		assert.Equal(t, 0, s.DueSummary(now).TotalEntries)
	})

	t.Run("enabling creates entries for active wallets", func(t *testing.T) {
		def := fixedDef(types.TaskClaim, 1, 1)
		disabled := def
		disabled.Enabled = false

		s := newTestScheduler([]Definition{disabled})
		s.Activate(walletA, now)
		assert.Equal(t, 0, s.DueSummary(now).TotalEntries)

		s.UpdateDefinition(def)
		s.Tick(now)

		assert.Equal(t, 1, s.DueSummary(now.Add(2*time.Hour)).TotalEntries)
	})
}
