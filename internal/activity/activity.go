package activity

import (
	"strings"
	"sync"
	"time"

	"zerofarm/internal/types"
)

// Activity is an immutable record of one task execution attempt. It is
// never mutated after being recorded, only filtered and sorted for display.
type Activity struct {
	ID            int64
	WalletAddress string
	Kind          types.TaskKind
	Status        types.ActivityStatus
	Details       string
	Timestamp     time.Time
	TxHash        string
}

// Summary aggregates a wallet's activity history.
type Summary struct {
	Total      int
	Successful int
	Failed     int
	ByKind     map[types.TaskKind]int
}

// Log is an append-only activity ledger with a FIFO retention cap: once the
// cap is exceeded the oldest record is evicted. Appends are atomic.
type Log struct {
	mu     sync.Mutex
	cap    int
	nextID int64
	lastTs time.Time
	items  []Activity // oldest first
}

// NewLog creates a ledger retaining at most cap records.
func NewLog(cap int) *Log {
	if cap <= 0 {
		cap = 100
	}
	return &Log{cap: cap, nextID: 1}
}

// Seed replaces the ledger content with previously persisted records,
// assumed oldest-first. Used once at startup.
func (l *Log) Seed(items []Activity) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(items) > l.cap {
		items = items[len(items)-l.cap:]
	}
	l.items = append([]Activity(nil), items...)
	for _, a := range l.items {
		if a.ID >= l.nextID {
			l.nextID = a.ID + 1
		}
		if a.Timestamp.After(l.lastTs) {
			l.lastTs = a.Timestamp
		}
	}
}

// Record appends an activity, assigning its ID and timestamp at write time.
// Timestamps are strictly monotonic even when appends race.
func (l *Log) Record(a Activity) Activity {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if !now.After(l.lastTs) {
		now = l.lastTs.Add(time.Nanosecond)
	}
	l.lastTs = now

	a.ID = l.nextID
	l.nextID++
	a.Timestamp = now

	l.items = append(l.items, a)
	if len(l.items) > l.cap {
		l.items = l.items[len(l.items)-l.cap:]
	}

	return a
}

// Feed returns up to limit records, newest first, optionally filtered by
// wallet address (case-insensitive).
func (l *Log) Feed(limit int, walletFilter string) []Activity {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Activity
	for i := len(l.items) - 1; i >= 0; i-- {
		a := l.items[i]
		if walletFilter != "" && !strings.EqualFold(a.WalletAddress, walletFilter) {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// All returns a copy of every retained record, oldest first.
func (l *Log) All() []Activity {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Activity(nil), l.items...)
}

// Len returns the number of retained records.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// SummaryFor aggregates the retained history of one wallet.
func (l *Log) SummaryFor(walletAddress string) Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Summary{ByKind: make(map[types.TaskKind]int)}
	for _, a := range l.items {
		if !strings.EqualFold(a.WalletAddress, walletAddress) {
			continue
		}
		s.Total++
		switch a.Status {
		case types.ActivitySuccess:
			s.Successful++
		case types.ActivityFailed:
			s.Failed++
		}
		s.ByKind[a.Kind]++
	}
	return s
}

// Clear drops records for one wallet, or every record when walletFilter is empty.
func (l *Log) Clear(walletFilter string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if walletFilter == "" {
		l.items = nil
		return
	}
	kept := l.items[:0]
	for _, a := range l.items {
		if !strings.EqualFold(a.WalletAddress, walletFilter) {
			kept = append(kept, a)
		}
	}
	l.items = kept
}
