// Package config provides configuration file support for sgov.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DirName is the workspace metadata directory.
	DirName = ".sgov"
	// FileName is the config file inside DirName.
	FileName = "config.yaml"
	// HomeEnv overrides the workspace root.
	HomeEnv = "SGOV_HOME"
)

// Store backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Config represents the sgov configuration.
type Config struct {
	RemediationDays int           `yaml:"remediation_days"`
	SystemActor     string        `yaml:"system_actor"`
	Store           StoreConfig   `yaml:"store"`
	Audit           AuditConfig   `yaml:"audit"`
	Notify          NotifyConfig  `yaml:"notify"`
	Logging         LoggingConfig `yaml:"logging"`
	Metrics         MetricsConfig `yaml:"metrics"`
}

// StoreConfig selects where lookups live.
type StoreConfig struct {
	Backend   string `yaml:"backend"` // csv, sqlite
	Dir       string `yaml:"dir"`
	Lookup    string `yaml:"lookup"`
	Inventory string `yaml:"inventory"`
}

// AuditConfig locates the audit log.
type AuditConfig struct {
	Path string `yaml:"path"`
}

// WebhookConfig is one notification endpoint.
type WebhookConfig struct {
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret,omitempty"`
	Enabled bool   `yaml:"enabled"`
	// Events limits the endpoint to these event types. Empty means all.
	Events []string `yaml:"events,omitempty"`
}

// NotifyConfig configures owner notifications.
type NotifyConfig struct {
	Webhooks   []WebhookConfig `yaml:"webhooks,omitempty"`
	MaxRetries int             `yaml:"max_retries"`
	Timeout    string          `yaml:"timeout"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, text
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		RemediationDays: 7,
		SystemActor:     "admin",
		Store: StoreConfig{
			Backend:   BackendCSV,
			Dir:       "lookups",
			Lookup:    "flagged_searches",
			Inventory: "search_inventory",
		},
		Audit: AuditConfig{
			Path: "audit/governance_audit.jsonl",
		},
		Notify: NotifyConfig{
			MaxRetries: 3,
			Timeout:    "10s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Addr: ":2112",
		},
	}
}

// Path returns the config file location under root.
func Path(root string) string {
	return filepath.Join(root, DirName, FileName)
}

// Load loads configuration from .sgov/config.yaml.
// Returns default config if file doesn't exist.
func Load(root string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path(root))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to .sgov/config.yaml.
func Save(root string, cfg *Config) error {
	cfgPath := Path(root)
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(cfgPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.RemediationDays <= 0 {
		return fmt.Errorf("remediation_days must be positive, got %d", c.RemediationDays)
	}
	switch c.Store.Backend {
	case BackendCSV, BackendSQLite:
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", BackendCSV, BackendSQLite, c.Store.Backend)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	return nil
}

// Resolve makes a config-relative path absolute under root/.sgov.
func (c *Config) Resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, DirName, p)
}

// Keys lists the scalar keys accepted by Get and Set.
var Keys = []string{
	"remediation_days",
	"system_actor",
	"store.backend",
	"store.dir",
	"store.lookup",
	"store.inventory",
	"audit.path",
	"notify.max_retries",
	"notify.timeout",
	"logging.level",
	"logging.format",
	"metrics.addr",
}

// Get returns a scalar config value by dotted key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "remediation_days":
		return strconv.Itoa(c.RemediationDays), nil
	case "system_actor":
		return c.SystemActor, nil
	case "store.backend":
		return c.Store.Backend, nil
	case "store.dir":
		return c.Store.Dir, nil
	case "store.lookup":
		return c.Store.Lookup, nil
	case "store.inventory":
		return c.Store.Inventory, nil
	case "audit.path":
		return c.Audit.Path, nil
	case "notify.max_retries":
		return strconv.Itoa(c.Notify.MaxRetries), nil
	case "notify.timeout":
		return c.Notify.Timeout, nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.format":
		return c.Logging.Format, nil
	case "metrics.addr":
		return c.Metrics.Addr, nil
	}
	return "", fmt.Errorf("unknown config key: %s (valid: %s)", key, strings.Join(Keys, ", "))
}

// Set assigns a scalar config value by dotted key and re-validates.
func (c *Config) Set(key, value string) error {
	switch key {
	case "remediation_days", "notify.max_retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		if key == "remediation_days" {
			c.RemediationDays = n
		} else {
			c.Notify.MaxRetries = n
		}
	case "system_actor":
		c.SystemActor = value
	case "store.backend":
		c.Store.Backend = value
	case "store.dir":
		c.Store.Dir = value
	case "store.lookup":
		c.Store.Lookup = value
	case "store.inventory":
		c.Store.Inventory = value
	case "audit.path":
		c.Audit.Path = value
	case "notify.timeout":
		c.Notify.Timeout = value
	case "logging.level":
		c.Logging.Level = value
	case "logging.format":
		c.Logging.Format = value
	case "metrics.addr":
		c.Metrics.Addr = value
	default:
		return fmt.Errorf("unknown config key: %s (valid: %s)", key, strings.Join(Keys, ", "))
	}
	return c.Validate()
}
