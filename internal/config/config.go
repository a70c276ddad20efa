// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers defaults, an optional YAML file and SENTIVISION_ env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/common/model"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DefaultMySQLPort is used when DB_PORT is unset.
const DefaultMySQLPort = "3306"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	Database Database `koanf:"database"`

	// ClientsFile is the YAML client list shared with the fetch pipeline.
	ClientsFile string `koanf:"clients_file"`

	// SettingsFile is the pipeline settings YAML holding global sources.
	SettingsFile string `koanf:"settings_file"`

	// PageSize is the number of rows in paginated article tables.
	PageSize int `koanf:"page_size"`

	RateLimit RateLimit `koanf:"rate_limit"`

	Metrics Metrics `koanf:"metrics"`

	ReadTimeoutSec  int `koanf:"read_timeout_sec"`
	WriteTimeoutSec int `koanf:"write_timeout_sec"`

	// MigrateOnStart applies the schema before serving.
	MigrateOnStart bool `koanf:"migrate_on_start"`
}

// Database configures the shared article store.
type Database struct {
	Driver       string `koanf:"driver"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
}

// RateLimit bounds mutating requests per second. RPS <= 0 disables limiting.
type RateLimit struct {
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`
}

// Metrics names the exported Prometheus series.
type Metrics struct {
	Namespace string            `koanf:"namespace"`
	Subsystem string            `koanf:"subsystem"`
	Labels    map[string]string `koanf:"labels"`
	// BucketsMs overrides the latency histogram buckets, in milliseconds.
	BucketsMs []float64 `koanf:"buckets_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Addr:      ":8080",
		Database: Database{
			Driver:       DriverSQLite,
			DSN:          "file:sentivision.db",
			MaxOpenConns: 10,
		},
		ClientsFile:     "config/clients.yaml",
		SettingsFile:    "config/settings.yaml",
		PageSize:        20,
		RateLimit:       RateLimit{RPS: 5, Burst: 10},
		Metrics:         Metrics{Namespace: "sentivision", Subsystem: "dashboard"},
		ReadTimeoutSec:  10,
		WriteTimeoutSec: 30,
		MigrateOnStart:  true,
	}
}

// ReadTimeout returns the HTTP read timeout.
func (c *Config) ReadTimeout() time.Duration { return time.Duration(c.ReadTimeoutSec) * time.Second }

// WriteTimeout returns the HTTP write timeout.
func (c *Config) WriteTimeout() time.Duration { return time.Duration(c.WriteTimeoutSec) * time.Second }

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Database.Driver != DriverSQLite && c.Database.Driver != DriverPostgres && c.Database.Driver != DriverMySQL:
		return fmt.Errorf("%w: unsupported database driver %q", ErrInvalidConfig, c.Database.Driver)
	case strings.TrimSpace(c.Database.DSN) == "":
		return fmt.Errorf("%w: database dsn must not be empty", ErrInvalidConfig)
	case c.PageSize <= 0:
		return fmt.Errorf("%w: page_size must be positive", ErrInvalidConfig)
	case c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0:
		return fmt.Errorf("%w: rate_limit.burst must be positive when rps is set", ErrInvalidConfig)
	case strings.TrimSpace(c.ClientsFile) == "":
		return fmt.Errorf("%w: clients_file must not be empty", ErrInvalidConfig)
	}
	return c.Metrics.validate()
}

func (m Metrics) validate() error {
	for _, name := range []string{m.Namespace, m.Subsystem} {
		if name != "" && !model.LabelName(name).IsValidLegacy() {
			return fmt.Errorf("%w: invalid metrics name part %q", ErrInvalidConfig, name)
		}
	}
	for k := range m.Labels {
		if !model.LabelName(k).IsValidLegacy() || strings.HasPrefix(k, "__") {
			return fmt.Errorf("%w: invalid metrics label %q", ErrInvalidConfig, k)
		}
	}
	for i := 1; i < len(m.BucketsMs); i++ {
		if m.BucketsMs[i] <= m.BucketsMs[i-1] {
			return fmt.Errorf("%w: metrics.buckets_ms must be strictly increasing", ErrInvalidConfig)
		}
	}
	return nil
}

// LegacyDB holds the DB_* variables shared with the fetch pipeline.
type LegacyDB struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// MySQLDSN builds a go-sql-driver/mysql DSN for the pipeline's database.
func (l LegacyDB) MySQLDSN() string {
	port := l.Port
	if port == "" {
		port = DefaultMySQLPort
	}
	cfg := mysql.NewConfig()
	cfg.User = l.User
	cfg.Passwd = l.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(l.Host, port)
	cfg.DBName = l.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}
