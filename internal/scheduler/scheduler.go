package scheduler

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"zerofarm/internal/config"
	"zerofarm/internal/logger"
	"zerofarm/internal/types"
	"zerofarm/internal/utils"

	"github.com/ethereum/go-ethereum/common"
)

// Outcome classifies a completed execution for rescheduling purposes.
type Outcome int

const (
	// OutcomeSuccess advances the repetition counter or the cycle.
	OutcomeSuccess Outcome = iota
	// OutcomeTransientFailure reschedules the entry with a short backoff.
	OutcomeTransientFailure
	// OutcomePermanentFailure advances straight to the next cycle so one
	// bad task cannot wedge the schedule.
	OutcomePermanentFailure
	// OutcomeRateLimited retries the entry on the next tick.
	OutcomeRateLimited
)

// entryKey identifies a (wallet, task kind) pair.
type entryKey struct {
	wallet common.Address
	kind   types.TaskKind
}

// entry is the schedule state for one (wallet, task kind) pair.
type entry struct {
	wallet      common.Address
	kind        types.TaskKind
	nextFireAt  time.Time
	remaining   int // tx left in the current cycle
	lastOutcome types.ActivityStatus
	executing   bool
	seq         int // wallet activation order, tie-break for Tick
}

// Due is one entry ready for execution, handed to the executor with a
// snapshot of its definition.
type Due struct {
	Wallet     common.Address
	Kind       types.TaskKind
	Def        Definition
	NextFireAt time.Time
	Remaining  int
}

// Summary describes the schedule at a point in time.
type Summary struct {
	ActiveWallets int
	TotalEntries  int
	DueEntries    int
	NextFireAt    time.Time // zero when no entries exist
}

// Scheduler owns schedule entries for every active wallet and decides when
// each (wallet, task kind) pair is due. It never executes anything itself
// and never blocks: Tick hands due entries to the caller.
type Scheduler struct {
	mu      sync.Mutex
	defs    map[types.TaskKind]Definition
	order   []types.TaskKind // definition order, for deterministic activation
	entries map[entryKey]*entry
	active  map[common.Address]int // activation sequence per wallet
	nextSeq int
	pending []Definition // definition updates consumed on the next tick

	loc            *time.Location
	intraCycle     config.MinMax
	failureBackoff time.Duration
	log            logger.Logger
}

// New creates a scheduler from the given definitions. The location controls
// how time windows are interpreted.
func New(defs []Definition, loc *time.Location, intraCycle config.MinMax, failureBackoff time.Duration, log logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{
		defs:           make(map[types.TaskKind]Definition, len(defs)),
		entries:        make(map[entryKey]*entry),
		active:         make(map[common.Address]int),
		loc:            loc,
		intraCycle:     intraCycle,
		failureBackoff: failureBackoff,
		log:            log,
	}
	for _, def := range defs {
		s.defs[def.Kind] = def
		s.order = append(s.order, def.Kind)
	}
	return s
}

// Activate creates schedule entries for every enabled task kind. A no-op if
// the wallet is already active.
func (s *Scheduler) Activate(addr common.Address, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.active[addr]; exists {
		return
	}
	seq := s.nextSeq
	s.nextSeq++
	s.active[addr] = seq

	created := 0
	for _, kind := range s.order {
		def := s.defs[kind]
		if !def.Enabled {
			continue
		}
		s.entries[entryKey{addr, kind}] = &entry{
			wallet:     addr,
			kind:       kind,
			nextFireAt: s.alignToWindow(def, now.Add(s.jitteredInterval(def))),
			remaining:  def.TxPerWallet,
			seq:        seq,
		}
		created++
	}
	s.log.Info("Кошелек активирован в планировщике", "addr", addr.Hex(), "entries", created)
}

// Deactivate removes every schedule entry for the wallet. Idempotent. An
// execution already in flight finishes, but its completion creates no new
// entry.
func (s *Scheduler) Deactivate(addr common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.active[addr]; !exists {
		return
	}
	delete(s.active, addr)
	for key := range s.entries {
		if key.wallet == addr {
			delete(s.entries, key)
		}
	}
	s.log.Info("Кошелек деактивирован в планировщике", "addr", addr.Hex())
}

// IsActive reports whether the wallet has schedule entries.
func (s *Scheduler) IsActive(addr common.Address) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[addr]
	return ok
}

// Tick returns every due entry (nextFireAt <= now) sorted by nextFireAt
// ascending, ties broken by wallet activation order. Returned entries are
// marked in-flight: they will not be returned again until Complete is
// called for them.
func (s *Scheduler) Tick(now time.Time) []Due {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyPendingLocked()

	var due []*entry
	for _, e := range s.entries {
		if !e.executing && !e.nextFireAt.After(now) {
			due = append(due, e)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].nextFireAt.Equal(due[j].nextFireAt) {
			return due[i].nextFireAt.Before(due[j].nextFireAt)
		}
		return due[i].seq < due[j].seq
	})

	out := make([]Due, 0, len(due))
	for _, e := range due {
		e.executing = true
		out = append(out, Due{
			Wallet:     e.wallet,
			Kind:       e.kind,
			Def:        s.defs[e.kind],
			NextFireAt: e.nextFireAt,
			Remaining:  e.remaining,
		})
	}
	return out
}

// Complete reports an execution result and computes the entry's next state.
// Unknown entries (wallet deactivated or deleted meanwhile) are ignored.
func (s *Scheduler) Complete(addr common.Address, kind types.TaskKind, outcome Outcome, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entryKey{addr, kind}
	e, ok := s.entries[key]
	if !ok {
		return
	}
	e.executing = false

	def := s.defs[kind]
	if !def.Enabled {
		delete(s.entries, key)
		return
	}

	switch outcome {
	case OutcomeSuccess:
		e.lastOutcome = types.ActivitySuccess
		e.remaining--
		if e.remaining <= 0 {
			e.remaining = def.TxPerWallet
			e.nextFireAt = s.alignToWindow(def, now.Add(s.jitteredInterval(def)))
		} else {
			e.nextFireAt = now.Add(utils.RandomDurationSeconds(s.intraCycle))
		}
	case OutcomePermanentFailure:
		e.lastOutcome = types.ActivityFailed
		e.remaining = def.TxPerWallet
		e.nextFireAt = s.alignToWindow(def, now.Add(s.jitteredInterval(def)))
	case OutcomeTransientFailure:
		e.lastOutcome = types.ActivityFailed
		e.nextFireAt = now.Add(s.failureBackoff)
	case OutcomeRateLimited:
		e.lastOutcome = types.ActivityFailed
		e.nextFireAt = now
	}
}

// UpdateDefinition queues a definition change. It is consumed on the next
// tick: running entries finish under the old definition, new cycles use
// the new one.
func (s *Scheduler) UpdateDefinition(def Definition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, def)
}

// applyPendingLocked folds queued definition updates into the schedule.
func (s *Scheduler) applyPendingLocked() {
	for _, def := range s.pending {
		if _, known := s.defs[def.Kind]; !known {
			s.order = append(s.order, def.Kind)
		}
		s.defs[def.Kind] = def

		if !def.Enabled {
			for key, e := range s.entries {
				if key.kind == def.Kind && !e.executing {
					delete(s.entries, key)
				}
			}
			continue
		}

		now := time.Now()
		for addr, seq := range s.active {
			key := entryKey{addr, def.Kind}
			if _, exists := s.entries[key]; exists {
				continue
			}
			s.entries[key] = &entry{
				wallet:     addr,
				kind:       def.Kind,
				nextFireAt: s.alignToWindow(def, now.Add(s.jitteredInterval(def))),
				remaining:  def.TxPerWallet,
				seq:        seq,
			}
		}
	}
	s.pending = nil
}

// DueSummary describes the current schedule.
func (s *Scheduler) DueSummary(now time.Time) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{ActiveWallets: len(s.active), TotalEntries: len(s.entries)}
	for _, e := range s.entries {
		if !e.executing && !e.nextFireAt.After(now) {
			sum.DueEntries++
		}
		if sum.NextFireAt.IsZero() || e.nextFireAt.Before(sum.NextFireAt) {
			sum.NextFireAt = e.nextFireAt
		}
	}
	return sum
}

// jitteredInterval returns the base interval, or a value drawn uniformly
// from [0.8, 1.2] times it when the definition randomizes timing.
func (s *Scheduler) jitteredInterval(def Definition) time.Duration {
	base := def.Interval()
	if !def.Randomize {
		return base
	}
	factor := 0.8 + rand.Float64()*0.4
	return time.Duration(float64(base) * factor)
}

// alignToWindow returns the candidate unchanged when its hour of day falls
// inside [start, end), otherwise the next occurrence of the window's start
// hour. The result is never earlier than the candidate: a cycle is delayed
// into the window, not dropped.
func (s *Scheduler) alignToWindow(def Definition, candidate time.Time) time.Time {
	if def.AlwaysOpen() {
		return candidate
	}
	local := candidate.In(s.loc)
	hour := local.Hour()
	if hour >= def.WindowStart && hour < def.WindowEnd {
		return candidate
	}

	next := time.Date(local.Year(), local.Month(), local.Day(), def.WindowStart, 0, 0, 0, s.loc)
	if !next.After(candidate) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
