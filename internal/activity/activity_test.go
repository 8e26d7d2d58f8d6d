package activity

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zerofarm/internal/types"
)

const (
	addrA = "0x1111111111111111111111111111111111111111"
	addrB = "0x2222222222222222222222222222222222222222"
)

func TestRecord(t *testing.T) {
	t.Run("evicts the oldest beyond the cap", func(t *testing.T) {
		l := NewLog(100)
		for i := 0; i < 150; i++ {
			l.Record(Activity{
				WalletAddress: addrA,
				Kind:          types.TaskClaim,
				Status:        types.ActivitySuccess,
				Details:       fmt.Sprintf("запись %d", i),
			})
		}

		assert.Equal(t, 100, l.Len())
		all := l.All()
		assert.Equal(t, "запись 50", all[0].Details)
		assert.Equal(t, "запись 149", all[len(all)-1].Details)
	})

	t.Run("assigns strictly increasing ids and timestamps", func(t *testing.T) {
		l := NewLog(100)
		var prev Activity
		for i := 0; i < 20; i++ {
			a := l.Record(Activity{WalletAddress: addrA, Kind: types.TaskSwap, Status: types.ActivitySuccess})
			if i > 0 {
				require.Greater(t, a.ID, prev.ID)
				require.True(t, a.Timestamp.After(prev.Timestamp),
					"timestamp %v not after %v", a.Timestamp, prev.Timestamp)
			}
			prev = a
		}
	})

	t.Run("concurrent appends keep timestamps monotonic", func(t *testing.T) {
		l := NewLog(1000)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					l.Record(Activity{WalletAddress: addrA, Kind: types.TaskClaim, Status: types.ActivitySuccess})
				}
			}()
		}
		wg.Wait()

		all := l.All()
		require.Len(t, all, 500)
		for i := 1; i < len(all); i++ {
			require.True(t, all[i].Timestamp.After(all[i-1].Timestamp))
			require.Greater(t, all[i].ID, all[i-1].ID)
		}
	})
}

func TestFeed(t *testing.T) {
	l := NewLog(100)
	l.Record(Activity{WalletAddress: addrA, Kind: types.TaskClaim, Status: types.ActivitySuccess})
	l.Record(Activity{WalletAddress: addrB, Kind: types.TaskSwap, Status: types.ActivityFailed})
	l.Record(Activity{WalletAddress: addrA, Kind: types.TaskMint, Status: types.ActivitySuccess})

	t.Run("returns newest first", func(t *testing.T) {
		feed := l.Feed(0, "")
		require.Len(t, feed, 3)
		assert.Equal(t, types.TaskMint, feed[0].Kind)
		assert.Equal(t, types.TaskClaim, feed[2].Kind)
	})

	t.Run("filters by wallet case-insensitively", func(t *testing.T) {
		feed := l.Feed(0, "0X1111111111111111111111111111111111111111")
		require.Len(t, feed, 2)
		for _, a := range feed {
			assert.Equal(t, addrA, a.WalletAddress)
		}
	})

	t.Run("honors the limit", func(t *testing.T) {
		feed := l.Feed(1, "")
		require.Len(t, feed, 1)
		assert.Equal(t, types.TaskMint, feed[0].Kind)
	})
}

func TestSummaryFor(t *testing.T) {
	l := NewLog(100)
	l.Record(Activity{WalletAddress: addrA, Kind: types.TaskClaim, Status: types.ActivitySuccess})
	l.Record(Activity{WalletAddress: addrA, Kind: types.TaskClaim, Status: types.ActivityFailed})
	l.Record(Activity{WalletAddress: addrA, Kind: types.TaskSwap, Status: types.ActivitySuccess})
	l.Record(Activity{WalletAddress: addrB, Kind: types.TaskSwap, Status: types.ActivitySuccess})

	s := l.SummaryFor(addrA)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Successful)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 2, s.ByKind[types.TaskClaim])
	assert.Equal(t, 1, s.ByKind[types.TaskSwap])
}

func TestSeed(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	seed := make([]Activity, 0, 120)
	for i := 0; i < 120; i++ {
		seed = append(seed, Activity{
			ID:            int64(i + 1),
			WalletAddress: addrA,
			Kind:          types.TaskClaim,
			Status:        types.ActivitySuccess,
			Timestamp:     base.Add(time.Duration(i) * time.Second),
		})
	}

	l := NewLog(100)
	l.Seed(seed)

	assert.Equal(t, 100, l.Len())
	all := l.All()
	assert.Equal(t, int64(21), all[0].ID)

	// Новые записи продолжают нумерацию и монотонность времени.
	a := l.Record(Activity{WalletAddress: addrA, Kind: types.TaskSwap, Status: types.ActivitySuccess})
	assert.Equal(t, int64(121), a.ID)
	assert.True(t, a.Timestamp.After(all[len(all)-1].Timestamp))
}

func TestClear(t *testing.T) {
	l := NewLog(100)
	l.Record(Activity{WalletAddress: addrA, Kind: types.TaskClaim, Status: types.ActivitySuccess})
	l.Record(Activity{WalletAddress: addrB, Kind: types.TaskSwap, Status: types.ActivitySuccess})

	l.Clear(addrA)
	require.Equal(t, 1, l.Len())
	assert.Equal(t, addrB, l.All()[0].WalletAddress)

	l.Clear("")
	assert.Equal(t, 0, l.Len())
}
