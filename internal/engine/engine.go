package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"zerofarm/internal/activity"
	"zerofarm/internal/chain"
	"zerofarm/internal/config"
	"zerofarm/internal/executor"
	"zerofarm/internal/gate"
	"zerofarm/internal/logger"
	"zerofarm/internal/scheduler"
	"zerofarm/internal/storage"
	"zerofarm/internal/types"
	"zerofarm/internal/wallet"
)

// Engine ties the wallet store, scheduler, executor and persistence into a
// single long-running farming loop. All public methods are safe for
// concurrent use.
type Engine struct {
	cfg     *config.Config
	wallets *wallet.Store
	ledger  *activity.Log
	sched   *scheduler.Scheduler
	exec    *executor.Executor
	store   storage.Store
	log     logger.Logger
	wg      *sync.WaitGroup
}

// New wires up the engine from its collaborators.
func New(
	cfg *config.Config,
	defs []scheduler.Definition,
	actions chain.Actions,
	query chain.BalanceQuery,
	store storage.Store,
	wg *sync.WaitGroup,
	log logger.Logger,
) (*Engine, error) {
	loc := time.Local
	if cfg.Scheduler.Timezone != "" {
		parsed, err := time.LoadLocation(cfg.Scheduler.Timezone)
		if err != nil {
			log.Warn("Не удалось загрузить часовой пояс, используется локальный",
				"timezone", cfg.Scheduler.Timezone, "err", err)
		} else {
			loc = parsed
		}
	}

	wallets := wallet.NewStore()
	ledger := activity.NewLog(cfg.Scheduler.ActivityRetention)
	sched := scheduler.New(defs, loc,
		cfg.Scheduler.IntraCycleDelay,
		time.Duration(cfg.Scheduler.FailureBackoffMinutes)*time.Minute,
		log)
	g := gate.New(cfg.Concurrency.GlobalLimit,
		time.Duration(cfg.Concurrency.AcquireTimeoutSeconds)*time.Second)

	exec := executor.New(cfg.Executor, actions, query, wallets, ledger, g, sched, wg, log)

	e := &Engine{
		cfg:     cfg,
		wallets: wallets,
		ledger:  ledger,
		sched:   sched,
		exec:    exec,
		store:   store,
		log:     log,
		wg:      wg,
	}
	exec.SetActivitySink(e.persistActivity)
	return e, nil
}

// Restore loads persisted wallet state and the activity feed, then attaches
// the given accounts. Wallets that were active in the previous run resume
// their schedules.
func (e *Engine) Restore(ctx context.Context, accounts []wallet.Account) error {
	records, err := e.store.LoadWallets(ctx)
	if err != nil {
		return err
	}
	byAddress := make(map[string]storage.WalletRecord, len(records))
	for _, r := range records {
		byAddress[strings.ToLower(r.Address)] = r
	}

	restored := 0
	for _, acct := range accounts {
		if r, ok := byAddress[strings.ToLower(acct.Address.Hex())]; ok {
			acct.Name = r.Name
			acct.Selected = r.Selected
			acct.Active = r.Active
			acct.Stats = wallet.Stats{TxCount: r.TxCount, NftCount: r.NftCount}
			restored++
		}
		added, addErr := e.wallets.Add(acct)
		if addErr != nil {
			e.log.Warn("Кошелек пропущен при восстановлении", "addr", acct.Address.Hex(), "err", addErr)
			continue
		}
		if added.Active {
			e.sched.Activate(added.Address, time.Now())
		}
	}
	e.log.Info("Кошельки загружены", "total", len(e.wallets.List()), "restored", restored)

	activities, err := e.store.LoadActivities(ctx, e.cfg.Scheduler.ActivityRetention)
	if err != nil {
		e.log.Error("Не удалось загрузить историю активности", "err", err)
	} else if len(activities) > 0 {
		seed := make([]activity.Activity, 0, len(activities))
		for _, r := range activities {
			seed = append(seed, activity.Activity{
				WalletAddress: r.WalletAddress,
				Kind:          types.TaskKind(r.Kind),
				Status:        types.ActivityStatus(r.Status),
				Details:       r.Details,
				Timestamp:     r.Timestamp,
				TxHash:        r.TxHash,
			})
		}
		e.ledger.Seed(seed)
		e.log.Info("История активности загружена", "count", len(seed))
	}
	return nil
}

// Run drives the scheduling loop until the context is canceled. Each tick
// collects due entries and dispatches them to worker goroutines; the
// concurrency gate inside the executor enforces the in-flight limits.
func (e *Engine) Run(ctx context.Context) {
	tick := time.Duration(e.cfg.Scheduler.TickSeconds) * time.Second
	if tick <= 0 {
		tick = time.Second
	}
	e.log.InfoWithBlankLine("Запуск основного цикла", "tick", tick)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Warn("Основной цикл остановлен (контекст отменен)")
			return
		case now := <-ticker.C:
			due := e.sched.Tick(now)
			for _, d := range due {
				e.log.Debug("Запуск задачи", "task", d.Kind, "addr", d.Wallet.Hex(), "remaining", d.Remaining)
				e.wg.Add(1)
				go func(d scheduler.Due) {
					defer e.wg.Done()
					e.exec.Execute(ctx, d)
					e.persistWallet(d.Wallet)
				}(d)
			}
		}
	}
}

// persistWallet writes the current wallet state through the store. Failures
// are logged, not propagated: the in-memory state stays authoritative.
func (e *Engine) persistWallet(addr common.Address) {
	acct, ok := e.wallets.Get(addr)
	if !ok {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := e.store.SaveWallet(saveCtx, storage.WalletRecord{
		Address:  acct.Address.Hex(),
		Name:     acct.Name,
		Selected: acct.Selected,
		Active:   acct.Active,
		TxCount:  acct.Stats.TxCount,
		NftCount: acct.Stats.NftCount,
	})
	if err != nil {
		e.log.Error("Не удалось сохранить состояние кошелька", "addr", acct.Address.Hex(), "err", err)
	}
}

// persistActivity mirrors a recorded activity into the store.
func (e *Engine) persistActivity(a activity.Activity) {
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := e.store.SaveActivity(saveCtx, storage.ActivityRecord{
		Timestamp:     a.Timestamp,
		WalletAddress: a.WalletAddress,
		Kind:          string(a.Kind),
		Status:        string(a.Status),
		Details:       a.Details,
		TxHash:        a.TxHash,
	})
	if err != nil {
		e.log.Error("Не удалось сохранить запись активности", "addr", a.WalletAddress, "err", err)
	}
}
