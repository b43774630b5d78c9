// Package config resolves the application settings held by viper.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // ledger.timezone must resolve without system zoneinfo

	"github.com/spf13/viper"

	"github.com/Veraticus/cashflow/internal/common"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the resolved application configuration.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Ledger   LedgerConfig
	Logging  LoggingConfig
}

// DatabaseConfig selects and locates the store.
type DatabaseConfig struct {
	Driver          string
	Path            string
	DSN             string
	ConnectAttempts int
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	RequestTimeout time.Duration
	Metrics        bool
}

// LedgerConfig holds the business policy knobs.
type LedgerConfig struct {
	location              *time.Location
	Timezone              string
	FeeSchedule           string
	AllowNegativeBalances bool
}

// Location is the parsed Timezone.
func (l LedgerConfig) Location() *time.Location {
	if l.location == nil {
		return time.Local
	}
	return l.location
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  string
	Format string
}

// SetDefaults registers every key's default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "$HOME/.local/share/cashflow/cashflow.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.connect_attempts", 5)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.metrics", true)

	v.SetDefault("ledger.allow_negative_balances", true)
	v.SetDefault("ledger.timezone", "Asia/Manila")
	v.SetDefault("ledger.fee_schedule", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("database.driver")),
			Path:            ExpandPath(v.GetString("database.path")),
			DSN:             v.GetString("database.dsn"),
			ConnectAttempts: v.GetInt("database.connect_attempts"),
		},
		Server: ServerConfig{
			Addr:           v.GetString("server.addr"),
			AllowedOrigins: v.GetStringSlice("server.allowed_origins"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
			Metrics:        v.GetBool("server.metrics"),
		},
		Ledger: LedgerConfig{
			AllowNegativeBalances: v.GetBool("ledger.allow_negative_balances"),
			Timezone:              v.GetString("ledger.timezone"),
			FeeSchedule:           ExpandPath(v.GetString("ledger.fee_schedule")),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	switch cfg.Database.Driver {
	case DriverSQLite:
		if cfg.Database.Path == "" {
			return Config{}, fmt.Errorf("%w: database.path", common.ErrMissingConfig)
		}
	case DriverPostgres:
		if cfg.Database.DSN == "" {
			return Config{}, fmt.Errorf("%w: database.dsn is required for postgres", common.ErrMissingConfig)
		}
	default:
		return Config{}, fmt.Errorf("%w: database.driver %q", common.ErrInvalidConfig, cfg.Database.Driver)
	}

	if cfg.Ledger.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Ledger.Timezone)
		if err != nil {
			return Config{}, fmt.Errorf("%w: ledger.timezone: %v", common.ErrInvalidConfig, err)
		}
		cfg.Ledger.location = loc
	}

	if _, err := common.ParseLevel(cfg.Logging.Level); err != nil {
		return Config{}, err
	}
	switch cfg.Logging.Format {
	case "console", "json":
	default:
		return Config{}, fmt.Errorf("%w: logging.format %q", common.ErrInvalidConfig, cfg.Logging.Format)
	}

	if cfg.Server.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("%w: server.request_timeout must be positive", common.ErrInvalidConfig)
	}

	return cfg, nil
}
