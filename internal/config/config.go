package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backends accepted in config.yaml.
const (
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// DefaultAddr is the HTTP listen address when none is configured.
const DefaultAddr = "127.0.0.1:4780"

// Config is the contents of <home>/config.yaml after env overrides.
type Config struct {
	Backend         string `yaml:"backend"`
	DatabaseURL     string `yaml:"database_url"`
	RedisAddr       string `yaml:"redis_addr"`
	Addr            string `yaml:"addr"`
	APIKey          string `yaml:"api_key"`
	SlackWebhookURL string `yaml:"slack_webhook_url"`
}

// Path returns the default config file location inside home.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// Load reads path (Path(home) when empty). A missing file yields defaults.
// DATABASE_URL, REDIS_ADDR, AEGIS_API_KEY and SLACK_WEBHOOK_URL override the file.
func Load(home, path string) (Config, error) {
	if path == "" {
		path = Path(home)
	}
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, err
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if cfg.Backend == "" {
		cfg.Backend = BackendSQLite
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return cfg, cfg.Validate()
}

// Validate checks the backend name and its required settings.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendRedis:
		return nil
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("backend postgres requires database_url or DATABASE_URL")
		}
		return nil
	default:
		return fmt.Errorf("unknown backend %q (want sqlite, redis or postgres)", c.Backend)
	}
}

// Save writes cfg to path (Path(home) when empty).
func Save(home, path string, cfg Config) error {
	if path == "" {
		path = Path(home)
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("AEGIS_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.SlackWebhookURL = v
	}
}
