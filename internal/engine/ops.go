package engine

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"zerofarm/internal/activity"
	"zerofarm/internal/keyloader"
	"zerofarm/internal/scheduler"
	"zerofarm/internal/wallet"
)

// AddWallet registers a new wallet from a loaded key. An empty name gets a
// generated default.
func (e *Engine) AddWallet(key *keyloader.LoadedKey, name string) (wallet.Account, error) {
	acct, err := e.wallets.Add(wallet.FromLoadedKey(key, name))
	if err != nil {
		return wallet.Account{}, err
	}
	e.log.Info("Кошелек добавлен", "addr", acct.Address.Hex(), "name", acct.Name)
	e.persistWallet(acct.Address)
	return acct, nil
}

// ImportKeys adds all loaded keys, skipping addresses already present.
// Returns the number of wallets actually added.
func (e *Engine) ImportKeys(keys []*keyloader.LoadedKey) int {
	accounts := make([]wallet.Account, 0, len(keys))
	for _, key := range keys {
		accounts = append(accounts, wallet.FromLoadedKey(key, ""))
	}
	added := e.wallets.Import(accounts)
	e.log.Info("Импорт ключей завершен", "added", added, "skipped", len(keys)-added)
	for _, acct := range e.wallets.List() {
		e.persistWallet(acct.Address)
	}
	return added
}

// DeleteWallet stops the wallet's schedules and removes it. In-flight
// executions finish but no longer touch wallet state.
func (e *Engine) DeleteWallet(addr common.Address) error {
	e.sched.Deactivate(addr)
	if err := e.wallets.Delete(addr); err != nil {
		return err
	}
	e.log.Info("Кошелек удален", "addr", addr.Hex())

	deleteCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.store.DeleteWallet(deleteCtx, addr.Hex()); err != nil {
		e.log.Error("Не удалось удалить кошелек из хранилища", "addr", addr.Hex(), "err", err)
	}
	return nil
}

// RenameWallet changes a wallet's display name.
func (e *Engine) RenameWallet(addr common.Address, name string) error {
	if err := e.wallets.Patch(addr, func(a *wallet.Account) { a.Name = name }); err != nil {
		return err
	}
	e.persistWallet(addr)
	return nil
}

// SetSelected marks or unmarks one wallet for bulk start/stop.
func (e *Engine) SetSelected(addr common.Address, selected bool) error {
	if err := e.wallets.Patch(addr, func(a *wallet.Account) { a.Selected = selected }); err != nil {
		return err
	}
	e.persistWallet(addr)
	return nil
}

// SetSelectedAll marks or unmarks every wallet.
func (e *Engine) SetSelectedAll(selected bool) {
	e.wallets.SetSelectedAll(selected)
	for _, acct := range e.wallets.List() {
		e.persistWallet(acct.Address)
	}
}

// ActivateWallet starts the wallet's task schedules. Already-active wallets
// keep their existing schedule.
func (e *Engine) ActivateWallet(addr common.Address) error {
	if err := e.wallets.Patch(addr, func(a *wallet.Account) { a.Active = true }); err != nil {
		return err
	}
	e.sched.Activate(addr, time.Now())
	e.log.Info("Фарминг запущен для кошелька", "addr", addr.Hex())
	e.persistWallet(addr)
	return nil
}

// DeactivateWallet stops the wallet's task schedules. Idempotent.
func (e *Engine) DeactivateWallet(addr common.Address) error {
	if err := e.wallets.Patch(addr, func(a *wallet.Account) { a.Active = false }); err != nil {
		return err
	}
	e.sched.Deactivate(addr)
	e.log.Info("Фарминг остановлен для кошелька", "addr", addr.Hex())
	e.persistWallet(addr)
	return nil
}

// StartAllSelected activates every selected wallet. Returns the number of
// wallets started.
func (e *Engine) StartAllSelected() int {
	started := 0
	for _, acct := range e.wallets.Selected() {
		if err := e.ActivateWallet(acct.Address); err == nil {
			started++
		}
	}
	e.log.InfoWithBlankLine("Массовый запуск завершен", "started", started)
	return started
}

// StopAllSelected deactivates every selected wallet.
func (e *Engine) StopAllSelected() int {
	stopped := 0
	for _, acct := range e.wallets.Selected() {
		if err := e.DeactivateWallet(acct.Address); err == nil {
			stopped++
		}
	}
	e.log.InfoWithBlankLine("Массовая остановка завершена", "stopped", stopped)
	return stopped
}

// UpdateTaskDefinition queues a runtime definition change, applied on the
// next tick.
func (e *Engine) UpdateTaskDefinition(def scheduler.Definition) {
	e.sched.UpdateDefinition(def)
	e.log.Info("Определение задачи обновлено", "task", def.Kind, "enabled", def.Enabled)
}

// Wallets returns a snapshot of all wallets in insertion order.
func (e *Engine) Wallets() []wallet.Account {
	return e.wallets.List()
}

// WalletState returns a snapshot of one wallet.
func (e *Engine) WalletState(addr common.Address) (wallet.Account, bool) {
	return e.wallets.Get(addr)
}

// ActivityFeed returns the newest activities first, optionally filtered by
// wallet address.
func (e *Engine) ActivityFeed(limit int, walletFilter string) []activity.Activity {
	return e.ledger.Feed(limit, walletFilter)
}

// ActivitySummary aggregates the feed for one wallet address.
func (e *Engine) ActivitySummary(walletAddress string) activity.Summary {
	return e.ledger.SummaryFor(walletAddress)
}

// ClearActivities drops the history for one wallet, or the whole feed when
// the filter is empty. The persisted ledger is left untouched.
func (e *Engine) ClearActivities(walletFilter string) {
	e.ledger.Clear(walletFilter)
	if walletFilter == "" {
		e.log.Info("Журнал активности очищен")
		return
	}
	e.log.Info("Журнал активности очищен для кошелька", "addr", walletFilter)
}

// DueSummary reports the current scheduling picture.
func (e *Engine) DueSummary() scheduler.Summary {
	return e.sched.DueSummary(time.Now())
}

// RefreshBalances triggers a synchronous balance and stats refresh for one
// wallet.
func (e *Engine) RefreshBalances(ctx context.Context, addr common.Address) {
	e.exec.RefreshWallet(ctx, addr)
	e.persistWallet(addr)
}
