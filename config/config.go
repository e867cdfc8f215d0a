// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendDisk     = "disk"
)

// ErrMissing marks a required credential that is not set.
var ErrMissing = errors.New("config: missing required setting")

// Config is the process configuration read by cmd/api.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"local"`
	LogPath  string `env:"LOG_PATH" envDefault:"guarulhosfacil.log"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	// TrustedProxies lists the addresses or CIDRs whose X-Forwarded-For is
	// believed. Empty means the peer address is the client.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"postgres"`
	DatabaseURL  string `env:"DATABASE_URL"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"guarulhosfacil.db"`
	Redis        Redis

	PhotoBackend  string `env:"PHOTO_BACKEND" envDefault:"postgres"`
	PhotoDir      string `env:"PHOTO_DIR" envDefault:"photos"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	SessionSecret string `env:"SESSION_SECRET"`
	SubmitterSalt string `env:"SUBMITTER_SALT"`

	GenAIKey   string `env:"GENAI_API_KEY"`
	GenAIModel string `env:"GENAI_MODEL"`

	ListCacheTTL time.Duration `env:"LIST_CACHE_TTL" envDefault:"60s"`
	RateRPS      float64       `env:"RATE_RPS" envDefault:"1"`
	RateBurst    int           `env:"RATE_BURST" envDefault:"5"`
}

// Redis holds the connection settings for STORE_BACKEND=redis.
type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	Prefix   string `env:"REDIS_PREFIX" envDefault:"guarulhosfacil"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment and checks that the selected backends have
// what they need.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.PhotoBackend = strings.ToLower(strings.TrimSpace(cfg.PhotoBackend))
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	proxies := cfg.TrustedProxies[:0]
	for _, p := range cfg.TrustedProxies {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	cfg.TrustedProxies = proxies
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first missing or malformed setting.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL (STORE_BACKEND=postgres)", ErrMissing)
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("%w: REDIS_ADDR (STORE_BACKEND=redis)", ErrMissing)
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: SQLITE_PATH (STORE_BACKEND=sqlite)", ErrMissing)
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.PhotoBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL (PHOTO_BACKEND=postgres)", ErrMissing)
		}
	case BackendDisk:
		if c.PhotoDir == "" {
			return fmt.Errorf("%w: PHOTO_DIR (PHOTO_BACKEND=disk)", ErrMissing)
		}
	default:
		return fmt.Errorf("config: unknown PHOTO_BACKEND %q", c.PhotoBackend)
	}

	if c.SessionSecret == "" {
		return fmt.Errorf("%w: SESSION_SECRET", ErrMissing)
	}
	if c.RateRPS <= 0 || c.RateBurst < 1 {
		return fmt.Errorf("config: RATE_RPS and RATE_BURST must be positive")
	}
	for _, p := range c.TrustedProxies {
		if !validProxy(p) {
			return fmt.Errorf("config: TRUSTED_PROXIES entry %q is not an IP or CIDR", p)
		}
	}
	return nil
}

func validProxy(p string) bool {
	if strings.Contains(p, "/") {
		_, _, err := net.ParseCIDR(p)
		return err == nil
	}
	return net.ParseIP(p) != nil
}

// AnalysisEnabled reports whether the document analysis page can call a model.
func (c Config) AnalysisEnabled() bool { return c.GenAIKey != "" }

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
