package test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"guarulhosfacil/cases"
	"guarulhosfacil/test/actors"
	"guarulhosfacil/test/chaos"
	"guarulhosfacil/test/infra"
	"guarulhosfacil/test/oracles"
)

var (
	flDuration    = flag.Duration("duration", 30*time.Second, "how long to run stress")
	flConcurrency = flag.Int("concurrency", 8, "number of concurrent confirmers")
	flSeed        = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flDSN         = flag.String("dsn", "", "existing Postgres DSN to reuse (avoids Docker)")
	flStress      = flag.Bool("stress", false, "run the confirmation stress test")
)

const (
	contendedCases = 3
	appName        = "guarulhosfacil-stress"
)

func TestConfirmationConcurrency(t *testing.T) {
	flag.Parse()
	if !*flStress && os.Getenv("STRESS_TEST") == "" {
		t.Skip("set -stress or STRESS_TEST=1 to run")
	}
	seed := *flSeed
	rand.Seed(seed)

	var (
		pgC        *infra.PGContainer
		dsn        string
		err        error
		usedShared bool
	)
	ctx, cancel := context.WithTimeout(context.Background(), *flDuration+60*time.Second)
	defer cancel()

	switch {
	case *flDSN != "":
		dsn = *flDSN
		usedShared = true
		pgC = &infra.PGContainer{}
	case os.Getenv("STRESS_TEST_PG_DSN") != "":
		dsn = os.Getenv("STRESS_TEST_PG_DSN")
		usedShared = true
		pgC = &infra.PGContainer{}
	default:
		if dockerAvailable(ctx) {
			pgC, dsn, err = infra.StartPostgres16(ctx, "")
			if err != nil {
				t.Fatalf("start postgres: %v", err)
			}
		} else {
			dsn, err = infra.InitLocalDatabase(ctx)
			if err != nil {
				t.Skipf("no docker and no local postgres: %v", err)
			}
			pgC = &infra.PGContainer{}
		}
	}
	defer pgC.Terminate(context.Background())

	pool, teardown, err := infra.ApplyMigrations(ctx, dsn, infra.Options{Isolate: usedShared, AppName: appName})
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	defer pool.Close()
	defer func() {
		if err := teardown(context.Background()); err != nil {
			t.Logf("teardown warning: %v", err)
		}
	}()

	repo := cases.NewRepository(pool)
	ids := mustSeed(t, ctx, repo)
	tally := actors.NewTally()

	g, ctx2 := errgroup.WithContext(ctx)
	stop := make(chan struct{})

	for i := 0; i < *flConcurrency; i++ {
		g.Go(func() error { return actors.Confirmer(ctx2, repo, ids, tally, stop) })
	}
	g.Go(func() error { return actors.Voter(ctx2, repo, ids, tally, stop) })
	g.Go(func() error { return actors.Submitter(ctx2, repo, tally, stop) })
	go chaos.TerminateRandomBackend(ctx2, pool, appName, stop)

	deadline := time.Now().Add(*flDuration)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var failed bool
loop:
	for time.Now().Before(deadline) {
		select {
		case <-ctx2.Done():
			break loop
		case <-ticker.C:
			name, row, err := oracles.Run(ctx2, pool, tally)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					break loop
				}
				// chaos may have cut the oracle's own connection
				t.Logf("oracle %s error: %v", name, err)
				continue
			}
			if name != "" {
				failed = true
				dumpRecent(t, ctx2, pool)
				t.Fatalf("Oracle %s failed. First row: %s (seed=%d)", name, row, seed)
			}
		}
	}

	close(stop)
	if err := g.Wait(); err != nil && !failed {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("actors errored: %v", err)
		}
	}

	name, row, err := oracles.Run(ctx, pool, tally)
	if err != nil {
		t.Fatalf("final oracle %s: %v", name, err)
	}
	if name != "" {
		dumpRecent(t, ctx, pool)
		t.Fatalf("Oracle %s failed after run. First row: %s (seed=%d)", name, row, seed)
	}
	t.Logf("store failures under chaos: %d", tally.Failures())
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}

func mustSeed(t *testing.T, ctx context.Context, repo cases.Repository) []string {
	t.Helper()
	ids := make([]string, 0, contendedCases)
	for i := 0; i < contendedCases; i++ {
		rec := actors.NewRecord(fmt.Sprintf("seed-%d-%d", i, rand.Int63()))
		id, err := repo.Append(ctx, rec)
		if err != nil {
			t.Fatalf("seed case %d: %v", i, err)
		}
		ids = append(ids, id)
	}
	return ids
}

func dumpRecent(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	rows, err := pool.Query(ctx, `SELECT id, status, confirmations, created_at FROM cases ORDER BY created_at DESC LIMIT 50`)
	if err != nil {
		t.Logf("dump cases error: %v", err)
		return
	}
	defer rows.Close()
	cols := rows.FieldDescriptions()
	t.Logf("-- cases --")
	for rows.Next() {
		vals, _ := rows.Values()
		buf := make([]any, 0, len(vals))
		for i := range vals {
			buf = append(buf, fmt.Sprintf("%s=%v", string(cols[i].Name), vals[i]))
		}
		t.Logf("%s", buf)
	}
}
