package config

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

var managed = []string{
	"APP_ENV", "LOG_PATH", "HTTP_ADDR", "STORE_BACKEND", "DATABASE_URL", "SQLITE_PATH",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_PREFIX", "PHOTO_BACKEND", "PHOTO_DIR",
	"PUBLIC_BASE_URL", "SESSION_SECRET", "SUBMITTER_SALT", "GENAI_API_KEY", "GENAI_MODEL",
	"LIST_CACHE_TTL", "RATE_RPS", "RATE_BURST", "TRUSTED_PROXIES",
}

// setBase clears every variable Load reads, then sets the minimum for the
// postgres backend.
func setBase(t *testing.T) {
	t.Helper()
	for _, key := range managed {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("PHOTO_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/gf")
	t.Setenv("SESSION_SECRET", "s3cret")
}

func TestLoad_Defaults(t *testing.T) {
	setBase(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != EnvLocal || cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.ListCacheTTL != 60*time.Second {
		t.Fatalf("expected 60s list cache ttl, got %v", cfg.ListCacheTTL)
	}
	if cfg.Redis.Prefix != "guarulhosfacil" {
		t.Fatalf("unexpected redis prefix %q", cfg.Redis.Prefix)
	}
	if cfg.AnalysisEnabled() {
		t.Fatal("analysis must be disabled without a key")
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	setBase(t)
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("error should name the variable, got %v", err)
	}
}

func TestLoad_RedisBackend(t *testing.T) {
	setBase(t)
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("PHOTO_BACKEND", "disk")
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); !errors.Is(err, ErrMissing) {
		t.Fatalf("expected missing REDIS_ADDR, got %v", err)
	}

	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreBackend != BackendRedis || cfg.Redis.DB != 2 {
		t.Fatalf("unexpected redis config %+v", cfg)
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	setBase(t)
	t.Setenv("STORE_BACKEND", "firebase")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestLoad_TrimsBaseURL(t *testing.T) {
	setBase(t)
	t.Setenv("PUBLIC_BASE_URL", "https://gf.example/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PublicBaseURL != "https://gf.example" {
		t.Fatalf("unexpected base url %q", cfg.PublicBaseURL)
	}
}

func TestParseEnvError(t *testing.T) {
	setBase(t)
	t.Setenv("RATE_BURST", "many")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestLoad_TrustedProxies(t *testing.T) {
	setBase(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Fatalf("no proxy should be trusted by default, got %v", cfg.TrustedProxies)
	}

	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 172.16.0.0/12")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[1] != "172.16.0.0/12" {
		t.Fatalf("unexpected proxies %v", cfg.TrustedProxies)
	}

	t.Setenv("TRUSTED_PROXIES", "load-balancer")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for a proxy that is not an IP")
	}
}
