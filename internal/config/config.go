// Package config loads the dbpool process configuration from YAML.
//
// Precedence, lowest first: built-in defaults, the YAML file, DBPOOL_*
// environment variables. The result is validated before it is returned.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/dbpool/internal/database"
	"github.com/koustreak/dbpool/internal/errs"
	"github.com/koustreak/dbpool/internal/logger"
	"github.com/koustreak/dbpool/internal/monitor"
)

// Idle container names accepted by WorkerConfig.IdleContainer.
const (
	IdleStack     = "stack"
	IdleSyncStack = "sync_stack"
)

// Config is the root of the configuration file.
type Config struct {
	Database database.Config `yaml:"database"`
	Worker   WorkerConfig    `yaml:"worker"`
	Logging  logger.Config   `yaml:"logging"`
	Monitor  monitor.Config  `yaml:"monitor"`
}

// WorkerConfig sizes the worker group.
type WorkerConfig struct {
	Count       int           `yaml:"count"`
	IdleBackoff time.Duration `yaml:"idle_backoff"`

	// IdleContainer picks the idle handle container of every pool:
	// "stack" for single-caller pools, "sync_stack" for shared ones.
	IdleContainer string `yaml:"idle_container"`
}

// Load reads the file at path on top of the defaults. An empty path skips
// the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is set. The
// connection string is left empty on purpose: there is no sane default.
func Default() *Config {
	return &Config{
		Database: *database.DefaultConfig(database.BackendSQLServer, ""),
		Worker: WorkerConfig{
			Count:         4,
			IdleBackoff:   10 * time.Millisecond,
			IdleContainer: IdleStack,
		},
		Logging: logger.Config{
			Level:      "info",
			Format:     "json",
			TimeFormat: "rfc3339",
		},
		Monitor: *monitor.DefaultConfig(),
	}
}

func applyEnvOverrides(cfg *Config) error {
	// Database
	if v := os.Getenv("DBPOOL_BACKEND"); v != "" {
		cfg.Database.Backend = database.Backend(v)
	}
	if v := os.Getenv("DBPOOL_CONNECTION_STRING"); v != "" {
		cfg.Database.ConnectionString = v
	}
	if v := os.Getenv("DBPOOL_MAX_HANDLE_COUNT"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, "DBPOOL_MAX_HANDLE_COUNT", err)
		}
		cfg.Database.MaxHandleCount = int32(n)
	}

	// Workers
	if v := os.Getenv("DBPOOL_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, "DBPOOL_WORKERS", err)
		}
		cfg.Worker.Count = n
	}

	// Logging
	if v := os.Getenv("DBPOOL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Monitor
	if v := os.Getenv("DBPOOL_MONITOR_ADDR"); v != "" {
		cfg.Monitor.Addr = v
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Database.Backend {
	case database.BackendPostgres, database.BackendMySQL, database.BackendSQLServer, database.BackendSQLite:
	default:
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("database.backend %q is not supported", c.Database.Backend))
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}

	if c.Worker.Count < 1 {
		return errs.New(errs.ErrKindInvalidInput, "worker.count must be at least 1")
	}
	if c.Worker.IdleBackoff <= 0 {
		return errs.New(errs.ErrKindInvalidInput, "worker.idle_backoff must be positive")
	}
	switch c.Worker.IdleContainer {
	case IdleStack, IdleSyncStack:
	default:
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("worker.idle_container %q is not supported", c.Worker.IdleContainer))
	}

	if !logger.ValidLevel(c.Logging.Level) {
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("logging.level %q is not supported", c.Logging.Level))
	}

	if c.Monitor.Enabled && c.Monitor.Addr == "" {
		return errs.New(errs.ErrKindInvalidInput, "monitor.addr is required when the monitor is enabled")
	}
	return nil
}

// IdleContainer returns the pool option matching Worker.IdleContainer.
func (c *Config) IdleContainer() database.Option {
	if c.Worker.IdleContainer == IdleSyncStack {
		return database.WithIdleContainer(database.NewSyncStack)
	}
	return database.WithIdleContainer(database.NewStack)
}
