package cases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateID signals an append with an id that is already stored.
var ErrDuplicateID = errors.New("cases: duplicate case id")

const selectColumns = `id, category, description, latitude, longitude, created_at, confirmations, status,
	photo_url, submitter_hash, triggering_event_date, registration_date, citation_date, last_movement_date`

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed case repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Append inserts rec and returns its id.
func (r *PGRepository) Append(ctx context.Context, rec Record) (string, error) {
	const insertSQL = `
		INSERT INTO cases (id, category, description, latitude, longitude, created_at, confirmations, status,
			photo_url, submitter_hash, triggering_event_date, registration_date, citation_date, last_movement_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`

	var id string
	err := r.pool.QueryRow(ctx, insertSQL,
		rec.ID,
		rec.Category,
		rec.Description,
		rec.Latitude,
		rec.Longitude,
		rec.CreatedAt,
		rec.Confirmations,
		rec.Status,
		rec.PhotoURL,
		rec.SubmitterHash,
		rec.Dates.TriggeringEvent,
		rec.Dates.Registration,
		rec.Dates.Citation,
		rec.Dates.LastMovement,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrDuplicateID
		}
		return "", fmt.Errorf("cases: append: %w", err)
	}
	return id, nil
}

// ListAll returns every stored case keyed by id.
func (r *PGRepository) ListAll(ctx context.Context) (map[string]Record, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM cases ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("cases: list: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Record)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("cases: scan: %w", err)
		}
		out[rec.ID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cases: iterate: %w", err)
	}
	return out, nil
}

// Get fetches one case by id.
func (r *PGRepository) Get(ctx context.Context, id string) (Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM cases WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("cases: get: %w", err)
	}
	return rec, nil
}

// UpdateFields overwrites the non-nil members of fields. Concurrent updates
// follow last-write-wins.
func (r *PGRepository) UpdateFields(ctx context.Context, id string, fields Fields) error {
	if fields.Confirmations != nil && *fields.Confirmations < 1 {
		return ErrInvalidConfirmations
	}

	sets := make([]string, 0, 2)
	args := []any{id}
	if fields.Status != nil {
		args = append(args, string(*fields.Status))
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if fields.Confirmations != nil {
		args = append(args, *fields.Confirmations)
		sets = append(sets, fmt.Sprintf("confirmations = $%d", len(args)))
	}
	if len(sets) == 0 {
		sets = append(sets, "id = id")
	}

	tag, err := r.pool.Exec(ctx, "UPDATE cases SET "+strings.Join(sets, ", ")+" WHERE id = $1", args...)
	if err != nil {
		return fmt.Errorf("cases: update fields: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementConfirmations atomically adds one confirmation and returns the new
// total.
func (r *PGRepository) IncrementConfirmations(ctx context.Context, id string) (int, error) {
	const updateSQL = `
		UPDATE cases
		SET confirmations = confirmations + 1
		WHERE id = $1
		RETURNING confirmations
	`

	var total int
	if err := r.pool.QueryRow(ctx, updateSQL, id).Scan(&total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("cases: increment confirmations: %w", err)
	}
	return total, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID,
		&rec.Category,
		&rec.Description,
		&rec.Latitude,
		&rec.Longitude,
		&rec.CreatedAt,
		&rec.Confirmations,
		&rec.Status,
		&rec.PhotoURL,
		&rec.SubmitterHash,
		&rec.Dates.TriggeringEvent,
		&rec.Dates.Registration,
		&rec.Dates.Citation,
		&rec.Dates.LastMovement,
	)
	return rec, err
}
