package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guarulhosfacil/config"
	"guarulhosfacil/document"
)

func discardLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestSetupLogger_Levels(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		env   string
		level logrus.Level
	}{
		{config.EnvLocal, logrus.DebugLevel},
		{config.EnvDev, logrus.InfoLevel},
		{config.EnvProd, logrus.WarnLevel},
		{"staging", logrus.WarnLevel},
	}
	for _, tc := range cases {
		log, closeLog, err := setupLogger(tc.env, filepath.Join(dir, tc.env+".log"))
		require.NoError(t, err, tc.env)
		assert.Equal(t, tc.level, log.Logger.GetLevel(), tc.env)
		closeLog()
	}
}

func TestSetupLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, closeLog, err := setupLogger(config.EnvDev, path)
	require.NoError(t, err)
	log.WithField("operation", "test").Info("hello")
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "operation=test")
}

func sqliteConfig(t *testing.T) config.Config {
	dir := t.TempDir()
	return config.Config{
		Env:           config.EnvLocal,
		StoreBackend:  config.BackendSQLite,
		SQLitePath:    filepath.Join(dir, "cases.db"),
		PhotoBackend:  config.BackendDisk,
		PhotoDir:      filepath.Join(dir, "photos"),
		PublicBaseURL: "http://localhost:8080",
		SessionSecret: "secret",
		ListCacheTTL:  time.Minute,
		RateRPS:       10,
		RateBurst:     10,
	}
}

func TestNewServer_SQLiteBackend(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)

	b, err := openBackends(ctx, cfg, discardLog())
	require.NoError(t, err)
	defer b.Close()

	srv, limiter, err := newServer(ctx, cfg, b, discardLog())
	require.NoError(t, err)
	require.NotNil(t, limiter)

	router := srv.Router()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := `{"category":"Outro","lat":-23.45,"lng":-46.53}`
	req := httptest.NewRequest(http.MethodPost, "/api/cases", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestNewAnalyzer_DisabledWithoutKey(t *testing.T) {
	analyzer, err := newAnalyzer(context.Background(), config.Config{}, document.NewExtractor(), discardLog())
	require.NoError(t, err)
	assert.False(t, analyzer.Enabled())
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.HTTPAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, discardLog()) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}
