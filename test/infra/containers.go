package infra

import (
	"context"
	"fmt"
	"os"

	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const defaultImage = "postgres:16"

// PGContainer is the database of a stress run. C is nil when the run reuses
// an existing server.
type PGContainer struct {
	C *postgres.PostgresContainer
}

// StartPostgres16 returns a DSN for the stress run: overrideDSN, then
// STRESS_TEST_PG_DSN, then a fresh container of STRESS_TEST_PG_IMAGE
// (postgres:16 when unset).
func StartPostgres16(ctx context.Context, overrideDSN string) (*PGContainer, string, error) {
	for _, dsn := range []string{overrideDSN, os.Getenv("STRESS_TEST_PG_DSN")} {
		if dsn != "" {
			return &PGContainer{}, dsn, nil
		}
	}

	image := os.Getenv("STRESS_TEST_PG_IMAGE")
	if image == "" {
		image = defaultImage
	}
	pgC, err := postgres.Run(ctx, image,
		postgres.WithDatabase("guarulhosfacil"),
		postgres.WithUsername("guarulhos"),
		postgres.WithPassword("guarulhos"),
	)
	if err != nil {
		return nil, "", fmt.Errorf("run %s: %w", image, err)
	}

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgC.Terminate(ctx)
		return nil, "", fmt.Errorf("connection string: %w", err)
	}
	return &PGContainer{C: pgC}, dsn, nil
}

// Terminate stops the container, if the run started one.
func (p *PGContainer) Terminate(ctx context.Context) error {
	if p == nil || p.C == nil {
		return nil
	}
	return p.C.Terminate(ctx)
}
