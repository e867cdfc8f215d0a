package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"guarulhosfacil/cases"
	"guarulhosfacil/config"
	"guarulhosfacil/db"
	"guarulhosfacil/document"
	"guarulhosfacil/photo"
	"guarulhosfacil/ratelimit"
	"guarulhosfacil/session"
	"guarulhosfacil/summarizer"
	"guarulhosfacil/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("guarulhosfacil: %v", err)
	}

	log, closeLog, err := setupLogger(cfg.Env, cfg.LogPath)
	if err != nil {
		config.Exitf("guarulhosfacil: setup logger: %v", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("service stopped with error")
		closeLog()
		os.Exit(1)
	}
	log.Info("service stopped")
}

func setupLogger(env, logPath string) (*logrus.Entry, func(), error) {
	log := logrus.New()
	closer := func() {}

	if env == config.EnvLocal {
		log.SetOutput(os.Stdout)
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return logrus.NewEntry(log), closer, nil
	}

	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	closer = func() { _ = logFile.Close() }

	log.SetOutput(logFile)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	switch env {
	case config.EnvDev:
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetLevel(logrus.WarnLevel)
	}
	return logrus.NewEntry(log), closer, nil
}

// backends holds the opened stores and how to release them.
type backends struct {
	cases  cases.Repository
	photos photo.Store
	close  []func()
}

func (b *backends) Close() {
	for i := len(b.close) - 1; i >= 0; i-- {
		b.close[i]()
	}
}

func openBackends(ctx context.Context, cfg config.Config, log *logrus.Entry) (*backends, error) {
	b := &backends{}

	var pool *pgxpool.Pool
	if cfg.StoreBackend == config.BackendPostgres || cfg.PhotoBackend == config.BackendPostgres {
		p, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		pool = p
		b.close = append(b.close, pool.Close)
	}

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		b.cases = cases.NewRepository(pool)
	case config.BackendRedis:
		rdb, err := db.NewRedis(ctx, db.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			b.Close()
			return nil, err
		}
		b.close = append(b.close, func() { _ = rdb.Close() })
		b.cases = cases.NewRedisRepository(rdb, cases.WithKeyPrefix(cfg.Redis.Prefix))
	case config.BackendSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.close = append(b.close, func() { _ = sqlDB.Close() })
		repo := cases.NewSQLiteRepository(sqlDB)
		if err := repo.EnsureSchema(ctx); err != nil {
			b.Close()
			return nil, err
		}
		b.cases = repo
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	switch cfg.PhotoBackend {
	case config.BackendPostgres:
		b.photos = photo.NewRepository(pool)
	default:
		b.photos = photo.NewDiskStore(cfg.PhotoDir)
	}

	log.WithField("store", cfg.StoreBackend).WithField("photos", cfg.PhotoBackend).Info("backends ready")
	return b, nil
}

func newAnalyzer(ctx context.Context, cfg config.Config, extractor summarizer.Extractor, log *logrus.Entry) (*summarizer.Service, error) {
	if !cfg.AnalysisEnabled() {
		log.Warn("GENAI_API_KEY not set; document analysis disabled")
		return summarizer.NewService(extractor, nil), nil
	}
	client, err := summarizer.NewGenAIClient(ctx, cfg.GenAIKey, cfg.GenAIModel)
	if err != nil {
		return nil, err
	}
	return summarizer.NewService(extractor, client), nil
}

func newServer(ctx context.Context, cfg config.Config, b *backends, log *logrus.Entry) (*web.Server, *ratelimit.Store, error) {
	photos := photo.NewService(b.photos, cfg.PublicBaseURL)
	extractor := document.NewExtractor()
	analyzer, err := newAnalyzer(ctx, cfg, extractor, log)
	if err != nil {
		return nil, nil, err
	}
	limiter := ratelimit.NewStore(cfg.RateRPS, cfg.RateBurst)

	srv, err := web.NewServer(web.Deps{
		Cases:          cases.NewService(b.cases, photos, cfg.ListCacheTTL),
		Photos:         photos,
		Extractor:      extractor,
		Analyzer:       analyzer,
		Sessions:       session.NewTracker(cfg.SessionSecret, session.DefaultTTL, cfg.Env == config.EnvProd),
		Limiter:        limiter,
		SubmitterSalt:  cfg.SubmitterSalt,
		TrustedProxies: cfg.TrustedProxies,
		Log:            log,
	})
	if err != nil {
		return nil, nil, err
	}
	return srv, limiter, nil
}

func run(ctx context.Context, cfg config.Config, log *logrus.Entry) error {
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
		gin.DefaultWriter = io.Discard
	}

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	srv, limiter, err := newServer(ctx, cfg, b, log)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return limiter.RunJanitor(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
