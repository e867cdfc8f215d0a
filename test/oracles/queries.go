package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"guarulhosfacil/test/actors"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_confirmations_floor",
			SQL:  `SELECT id, confirmations FROM cases WHERE confirmations < 1`,
		},
		{
			Name: "O2_status_label",
			SQL: `SELECT id, status FROM cases
                  WHERE status NOT IN ('Pendente', 'Votado para Resolução')`,
		},
		{
			Name: "O3_photo_kept",
			SQL:  `SELECT id FROM cases WHERE photo_url IS NULL OR photo_url NOT LIKE 'stress://%'`,
		},
		{
			Name: "O4_created_at_set",
			SQL:  `SELECT id FROM cases WHERE created_at > now() + interval '1 minute'`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool, tally *actors.Tally) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	if name, row, err := confirmationBounds(ctx, pool, tally); name != "" || err != nil {
		return name, row, err
	}
	return submissionsKept(ctx, pool, tally)
}

// confirmationBounds checks 1 + acked <= stored <= 1 + attempted per case.
// Acks are read before the table and attempts after it.
func confirmationBounds(ctx context.Context, pool *pgxpool.Pool, tally *actors.Tally) (string, string, error) {
	const name = "O5_no_lost_confirmation"

	acked := tally.Acked()
	stored := make(map[string]int)
	rows, err := pool.Query(ctx, `SELECT id, confirmations FROM cases`)
	if err != nil {
		return name, "", fmt.Errorf("oracle %s: %w", name, err)
	}
	for rows.Next() {
		var (
			id    string
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			rows.Close()
			return name, "", err
		}
		stored[id] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return name, "", err
	}
	attempted := tally.Attempted()

	for id, n := range acked {
		if stored[id] < 1+n {
			return name, fmt.Sprintf("id=%s stored=%d acked=%d", id, stored[id], n), nil
		}
	}
	for id, n := range attempted {
		if stored[id] > 1+n {
			return name, fmt.Sprintf("id=%s stored=%d attempted=%d", id, stored[id], n), nil
		}
	}
	return "", "", nil
}

func submissionsKept(ctx context.Context, pool *pgxpool.Pool, tally *actors.Tally) (string, string, error) {
	const name = "O6_submission_kept"

	ids := tally.Submitted()
	if len(ids) == 0 {
		return "", "", nil
	}
	var found int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM cases WHERE id = ANY($1)`, ids).Scan(&found); err != nil {
		return name, "", fmt.Errorf("oracle %s: %w", name, err)
	}
	if found != len(ids) {
		return name, fmt.Sprintf("acked=%d stored=%d", len(ids), found), nil
	}
	return "", "", nil
}
