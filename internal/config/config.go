package config

import (
	"errors"
	"fmt"
	"os"

	"zerofarm/internal/types"

	"gopkg.in/yaml.v3"
)

var (
	// ErrConfigNotFound indicates that the configuration file was not found.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrConfigParseFailed indicates an error occurred while parsing the configuration file.
	ErrConfigParseFailed = errors.New("failed to parse config file")
	// ErrConfigInvalid indicates a semantic problem in the configuration values.
	ErrConfigInvalid = errors.New("invalid config value")
)

// Config corresponds to the structure of config.yml.
type Config struct {
	RPCNodes    []string                      `yaml:"rpc_nodes"`
	Database    DatabaseConfig                `yaml:"database"`
	Concurrency ConcurrencyConfig             `yaml:"concurrency"`
	Executor    ExecutorConfig                `yaml:"executor"`
	Scheduler   SchedulerConfig               `yaml:"scheduler"`
	Tasks       map[types.TaskKind]TaskConfig `yaml:"tasks"`
	Endpoints   EndpointsConfig               `yaml:"endpoints"`
}

// DatabaseConfig holds settings for the persistence backend.
type DatabaseConfig struct {
	Type             types.DBType `yaml:"type"`
	ConnectionString string       `yaml:"connection_string"`
	PoolMaxConns     string       `yaml:"pool_max_conns"`
}

// ConcurrencyConfig holds settings for the concurrency gate.
type ConcurrencyConfig struct {
	GlobalLimit           int `yaml:"global_limit"`            // max in-flight chain operations, default 5
	AcquireTimeoutSeconds int `yaml:"acquire_timeout_seconds"` // ceiling for waiting on a slot, default 60
}

// ExecutorConfig holds settings for task execution and retries.
type ExecutorConfig struct {
	TaskTimeoutSeconds int     `yaml:"task_timeout_seconds"` // per-attempt timeout, default 30
	RetryAttempts      int     `yaml:"retry_attempts"`       // retries after the first attempt, default 2
	BackoffBaseSeconds float64 `yaml:"backoff_base_seconds"` // default 2
	BackoffFactor      float64 `yaml:"backoff_factor"`       // default 2
}

// SchedulerConfig holds settings for the scheduling loop.
type SchedulerConfig struct {
	TickSeconds           int    `yaml:"tick_seconds"`            // scheduler wake interval, default 1
	Timezone              string `yaml:"timezone"`                // IANA name for time windows, default local
	ActivityRetention     int    `yaml:"activity_retention"`      // FIFO cap on retained activities, default 100
	IntraCycleDelay       MinMax `yaml:"intra_cycle_delay"`       // seconds between repetitions within a cycle
	FailureBackoffMinutes int    `yaml:"failure_backoff_minutes"` // reschedule delay after exhausted retries, default 5
}

// TaskConfig defines one recurring task kind.
type TaskConfig struct {
	Enabled       bool                   `yaml:"enabled"`
	IntervalHours float64                `yaml:"interval_hours"`
	TxPerWallet   int                    `yaml:"tx_per_wallet"`
	Randomize     bool                   `yaml:"randomize"`
	Window        WindowConfig           `yaml:"window"`
	Params        map[string]interface{} `yaml:"params"` // kind-specific parameters
}

// WindowConfig is the hour-of-day range during which a task may fire.
// End may equal 24, meaning a midnight-exclusive upper bound.
type WindowConfig struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// EndpointsConfig holds the external HTTP services used by chain actions.
type EndpointsConfig struct {
	Faucet  string `yaml:"faucet"`
	Mint    string `yaml:"mint"`
	Domain  string `yaml:"domain"`
	Storage string `yaml:"storage"`
}

// MinMax represents a min/max integer range.
type MinMax struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// LoadConfig reads the configuration file from the given path and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("файл конфигурации '%s': %w", path, ErrConfigNotFound)
		}
		return nil, fmt.Errorf("чтение файла конфигурации '%s': %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("разбор файла конфигурации '%s': %w: %w", path, ErrConfigParseFailed, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills in zero-valued settings with their documented defaults.
func (c *Config) ApplyDefaults() {
	if c.Concurrency.GlobalLimit <= 0 {
		c.Concurrency.GlobalLimit = 5
	}
	if c.Concurrency.AcquireTimeoutSeconds <= 0 {
		c.Concurrency.AcquireTimeoutSeconds = 60
	}
	if c.Executor.TaskTimeoutSeconds <= 0 {
		c.Executor.TaskTimeoutSeconds = 30
	}
	if c.Executor.RetryAttempts < 0 {
		c.Executor.RetryAttempts = 0
	}
	if c.Executor.BackoffBaseSeconds <= 0 {
		c.Executor.BackoffBaseSeconds = 2
	}
	if c.Executor.BackoffFactor <= 0 {
		c.Executor.BackoffFactor = 2
	}
	if c.Scheduler.TickSeconds <= 0 {
		c.Scheduler.TickSeconds = 1
	}
	if c.Scheduler.ActivityRetention <= 0 {
		c.Scheduler.ActivityRetention = 100
	}
	if c.Scheduler.IntraCycleDelay.Min <= 0 && c.Scheduler.IntraCycleDelay.Max <= 0 {
		c.Scheduler.IntraCycleDelay = MinMax{Min: 30, Max: 90}
	}
	if c.Scheduler.FailureBackoffMinutes <= 0 {
		c.Scheduler.FailureBackoffMinutes = 5
	}
}

// Validate checks the semantic invariants of the configuration.
func (c *Config) Validate() error {
	if len(c.RPCNodes) == 0 {
		return fmt.Errorf("%w: rpc_nodes не задан", ErrConfigInvalid)
	}
	for kind, task := range c.Tasks {
		if !kind.Valid() {
			return fmt.Errorf("%w: неизвестный вид задачи '%s'", ErrConfigInvalid, kind)
		}
		if !task.Enabled {
			continue
		}
		if task.IntervalHours <= 0 {
			return fmt.Errorf("%w: задача '%s': interval_hours должен быть > 0", ErrConfigInvalid, kind)
		}
		if task.TxPerWallet <= 0 {
			return fmt.Errorf("%w: задача '%s': tx_per_wallet должен быть > 0", ErrConfigInvalid, kind)
		}
		if task.Window.Start < 0 || task.Window.Start > 23 {
			return fmt.Errorf("%w: задача '%s': window.start вне диапазона 0-23", ErrConfigInvalid, kind)
		}
		if task.Window.End < 1 || task.Window.End > 24 {
			return fmt.Errorf("%w: задача '%s': window.end вне диапазона 1-24", ErrConfigInvalid, kind)
		}
		if task.Window.Start >= task.Window.End {
			return fmt.Errorf("%w: задача '%s': window.start должен быть меньше window.end", ErrConfigInvalid, kind)
		}
	}
	return nil
}
