package main

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"zerofarm/internal/bootstrap"
	"zerofarm/internal/chain"
	"zerofarm/internal/config"
	"zerofarm/internal/engine"
	"zerofarm/internal/evm"
	"zerofarm/internal/keyloader"
	"zerofarm/internal/logger"
	"zerofarm/internal/platform/database"
	"zerofarm/internal/wallet"

	"github.com/joho/godotenv"

	_ "github.com/mattn/go-sqlite3"
)

var (
	configPath = flag.String("config", "config/config.yml", "Path to the configuration file")
	keysPath   = flag.String("keys", "local/data/private_keys.txt", "Path to the private keys file")
)

func main() {
	_ = godotenv.Load()

	logInstance := logger.NewColorLogger()

	defer func() {
		if r := recover(); r != nil {
			logInstance.Fatal("Критическая ошибка (panic)", "error", r)
		}
	}()

	rand.Seed(time.Now().UnixNano())
	flag.Parse()

	logInstance.Info("Запуск ZeroFarm...")

	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go gracefulShutdown(cancel, logInstance)

	logInstance.Info("Загрузка конфигурации...", "path", *configPath)
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			logInstance.Fatal("Файл конфигурации не найден", "path", *configPath, "error", err)
		} else if errors.Is(err, config.ErrConfigParseFailed) {
			logInstance.Fatal("Ошибка парсинга файла конфигурации (проверьте YAML синтаксис)", "path", *configPath, "error", err)
		} else {
			logInstance.Fatal("Некорректная конфигурация", "path", *configPath, "error", err)
		}
	}
	logInstance.Info("Конфигурация успешно загружена",
		"global_limit", cfg.Concurrency.GlobalLimit, "tick", cfg.Scheduler.TickSeconds)

	store, err := database.NewStore(ctx, logInstance, cfg.Database)
	if err != nil {
		if errors.Is(err, database.ErrUnsupportedDBType) || errors.Is(err, database.ErrMissingConnectionString) {
			logInstance.Fatal("Ошибка конфигурации хранилища данных", "db_type", cfg.Database.Type, "error", err)
		} else {
			logInstance.Fatal("Не удалось инициализировать хранилище данных", "db_type", cfg.Database.Type, "error", err)
		}
	}
	defer func() {
		if err := store.Close(); err != nil {
			logInstance.Error("Ошибка закрытия хранилища", "error", err)
		}
	}()

	logInstance.Info("Загрузка приватных ключей...", "path", *keysPath)
	keys, err := keyloader.LoadKeys(*keysPath, logInstance)
	if err != nil {
		if errors.Is(err, keyloader.ErrKeysFileNotFound) {
			logInstance.Fatal("Файл ключей не найден", "path", *keysPath, "error", err)
		} else if errors.Is(err, keyloader.ErrNoValidKeysFound) {
			logInstance.Fatal("В файле ключей не найдено валидных ключей", "path", *keysPath, "error", err)
		} else {
			logInstance.Fatal("Не удалось прочитать файл ключей", "path", *keysPath, "error", err)
		}
	}
	logInstance.Info("Ключи успешно загружены", "count", len(keys))

	client, err := evm.NewClient(ctx, logInstance, cfg.RPCNodes)
	if err != nil {
		logInstance.Fatal("Не удалось подключиться ни к одному RPC узлу", "error", err)
	}
	defer client.Close()

	actions, err := chain.NewEVMActions(client, cfg.Endpoints, logInstance)
	if err != nil {
		logInstance.Fatal("Не удалось инициализировать исполнитель операций", "error", err)
	}
	query := chain.NewEVMBalanceQuery(actions)

	defs := bootstrap.DefinitionsFromConfig(cfg, logInstance)

	eng, err := engine.New(cfg, defs, actions, query, store, &wg, logInstance)
	if err != nil {
		logInstance.Fatal("Не удалось инициализировать ядро", "error", err)
	}

	accounts := make([]wallet.Account, 0, len(keys))
	for _, key := range keys {
		accounts = append(accounts, wallet.FromLoadedKey(key, ""))
	}
	if err := eng.Restore(ctx, accounts); err != nil {
		logInstance.Fatal("Не удалось восстановить состояние кошельков", "error", err)
	}

	// Без сохраненного состояния запускаем все кошельки сразу.
	anyActive := false
	for _, acct := range eng.Wallets() {
		if acct.Active {
			anyActive = true
			break
		}
	}
	if !anyActive {
		eng.SetSelectedAll(true)
		eng.StartAllSelected()
	}

	eng.Run(ctx)

	logInstance.Info("ZeroFarm ожидает завершения операций перед выходом...")
	wg.Wait()
	logInstance.Info("ZeroFarm завершил работу.")
}

// gracefulShutdown handles termination signals.
func gracefulShutdown(cancel context.CancelFunc, log logger.Logger) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-signalChan
	log.Warn("Получен сигнал завершения", "signal", sig.String())
	log.Warn("Инициируется плавная остановка... Отменяем контекст.")
	cancel()
}
