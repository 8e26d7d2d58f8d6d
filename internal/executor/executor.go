package executor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"zerofarm/internal/activity"
	"zerofarm/internal/chain"
	"zerofarm/internal/config"
	"zerofarm/internal/gate"
	"zerofarm/internal/logger"
	"zerofarm/internal/scheduler"
	"zerofarm/internal/types"
	"zerofarm/internal/wallet"
)

// Executor carries out one due schedule entry: it takes a concurrency slot,
// invokes the chain-action collaborator with retries, records exactly one
// activity per completed attempt chain and reports the outcome back to the
// scheduler. Failures never escape Execute.
type Executor struct {
	cfg     config.ExecutorConfig
	actions chain.Actions
	query   chain.BalanceQuery
	wallets *wallet.Store
	ledger  *activity.Log
	gate    *gate.Gate
	sched   *scheduler.Scheduler
	log     logger.Logger
	wg      *sync.WaitGroup

	// onActivity, when set, is called after every recorded activity.
	// Used for persistence.
	onActivity func(activity.Activity)
}

// New creates an executor.
func New(
	cfg config.ExecutorConfig,
	actions chain.Actions,
	query chain.BalanceQuery,
	wallets *wallet.Store,
	ledger *activity.Log,
	g *gate.Gate,
	sched *scheduler.Scheduler,
	wg *sync.WaitGroup,
	log logger.Logger,
) *Executor {
	return &Executor{
		cfg:     cfg,
		actions: actions,
		query:   query,
		wallets: wallets,
		ledger:  ledger,
		gate:    g,
		sched:   sched,
		wg:      wg,
		log:     log,
	}
}

// SetActivitySink registers a callback invoked after every recorded activity.
func (e *Executor) SetActivitySink(sink func(activity.Activity)) {
	e.onActivity = sink
}

// Execute runs one due entry to completion. It blocks for the duration of
// the execution and must be called from a worker goroutine.
func (e *Executor) Execute(ctx context.Context, due scheduler.Due) {
	release, err := e.gate.Acquire(ctx, due.Wallet)
	if err != nil {
		if errors.Is(err, gate.ErrAcquireTimeout) {
			e.log.Warn("Не удалось получить слот выполнения",
				"task", due.Kind, "addr", due.Wallet.Hex(), "err", err)
			e.record(due, types.ActivityFailed, "Превышено время ожидания свободного слота", "")
			e.sched.Complete(due.Wallet, due.Kind, scheduler.OutcomeRateLimited, time.Now())
			return
		}
		// Контекст отменен: без активности, запись вернется в расписание.
		e.sched.Complete(due.Wallet, due.Kind, scheduler.OutcomeRateLimited, time.Now())
		return
	}
	defer release()

	acct, ok := e.wallets.Get(due.Wallet)
	if !ok {
		e.log.Debug("Кошелек удален до начала выполнения, пропуск",
			"task", due.Kind, "addr", due.Wallet.Hex())
		return
	}

	result, execErr := e.executeWithRetries(ctx, acct, due)

	now := time.Now()
	var outcome scheduler.Outcome
	switch {
	case execErr == nil:
		outcome = scheduler.OutcomeSuccess
		e.log.Success("Задача успешно выполнена",
			"task", due.Kind, "addr", due.Wallet.Hex(), "tx", result.TxHash)
		e.record(due, types.ActivitySuccess, result.Details, result.TxHash)
	case chain.IsTransient(execErr):
		outcome = scheduler.OutcomeTransientFailure
		e.log.ErrorWithBlankLine("Задача не выполнена после всех попыток",
			"task", due.Kind, "addr", due.Wallet.Hex(), "err", execErr)
		e.record(due, types.ActivityFailed, execErr.Error(), "")
	default:
		outcome = scheduler.OutcomePermanentFailure
		e.log.Error("Задача завершилась неустранимой ошибкой",
			"task", due.Kind, "addr", due.Wallet.Hex(), "err", execErr)
		e.record(due, types.ActivityFailed, execErr.Error(), "")
	}

	// Ликвидность кошелька могла измениться: проверяем перед побочными эффектами.
	if _, alive := e.wallets.Get(due.Wallet); !alive {
		e.log.Debug("Кошелек удален во время выполнения, состояние не обновляется",
			"task", due.Kind, "addr", due.Wallet.Hex())
		return
	}

	if outcome == scheduler.OutcomeSuccess {
		_ = e.wallets.Patch(due.Wallet, func(a *wallet.Account) {
			a.Stats.TxCount++
			if due.Kind == types.TaskMint {
				a.Stats.NftCount++
			}
		})
		e.refreshAsync(due.Wallet)
	}

	e.sched.Complete(due.Wallet, due.Kind, outcome, now)
}

// executeWithRetries runs the chain action with a per-attempt timeout and
// the exponential backoff retry policy. Permanent errors stop retrying
// immediately.
func (e *Executor) executeWithRetries(ctx context.Context, acct wallet.Account, due scheduler.Due) (*chain.Result, error) {
	maxAttempts := 1 + e.cfg.RetryAttempts
	timeout := time.Duration(e.cfg.TaskTimeoutSeconds) * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		e.log.Debug("Попытка выполнения задачи",
			"task", due.Kind, "attempt", attempt, "addr", acct.Address.Hex())

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		result, err := e.runAction(attemptCtx, acct, due)
		cancel()

		if err == nil {
			return result, nil
		}
		lastErr = err

		if !chain.IsTransient(err) {
			return nil, err
		}
		e.log.Warn("Ошибка выполнения задачи, попытка повтора",
			"task", due.Kind, "attempt", attempt, "maxAttempts", maxAttempts,
			"err", err, "addr", acct.Address.Hex())

		if attempt < maxAttempts {
			backoff := time.Duration(e.cfg.BackoffBaseSeconds*math.Pow(e.cfg.BackoffFactor, float64(attempt-1))) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, lastErr
			}
		}
	}

	return nil, lastErr
}

// refreshAsync triggers a non-blocking balance and stats refresh.
func (e *Executor) refreshAsync(addr common.Address) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		refreshCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		e.RefreshWallet(refreshCtx, addr)
	}()
}

// RefreshWallet reads balances and stats from the chain and patches the
// wallet. Read failures are logged, not propagated.
func (e *Executor) RefreshWallet(ctx context.Context, addr common.Address) {
	for _, token := range types.AllTokens() {
		balance, err := e.query.GetBalance(ctx, token, addr)
		if err != nil {
			e.log.Debug("Не удалось обновить баланс", "token", token, "addr", addr.Hex(), "err", err)
			continue
		}
		_ = e.wallets.Patch(addr, func(a *wallet.Account) {
			a.Balances[token] = balance
		})
	}

	stats, err := e.query.GetStats(ctx, addr)
	if err != nil {
		e.log.Debug("Не удалось обновить статистику", "addr", addr.Hex(), "err", err)
		return
	}
	_ = e.wallets.Patch(addr, func(a *wallet.Account) {
		a.Stats = wallet.Stats{TxCount: stats.TxCount, NftCount: stats.NftCount}
	})
}

// record writes exactly one activity for a completed attempt chain.
func (e *Executor) record(due scheduler.Due, status types.ActivityStatus, details, txHash string) {
	recorded := e.ledger.Record(activity.Activity{
		WalletAddress: due.Wallet.Hex(),
		Kind:          due.Kind,
		Status:        status,
		Details:       details,
		TxHash:        txHash,
	})
	if e.onActivity != nil {
		e.onActivity(recorded)
	}
}

func opError(kind types.TaskKind, msg string) error {
	return chain.NewPermanent(string(kind), fmt.Errorf("%s", msg))
}
