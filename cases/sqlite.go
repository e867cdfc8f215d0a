package cases

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"guarulhosfacil/limitation"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cases (
	id TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	created_at TEXT NOT NULL,
	confirmations INTEGER NOT NULL DEFAULT 1 CHECK (confirmations >= 1),
	status TEXT NOT NULL DEFAULT 'Pendente',
	photo_url TEXT,
	submitter_hash TEXT NOT NULL DEFAULT '',
	triggering_event_date TEXT,
	registration_date TEXT,
	citation_date TEXT,
	last_movement_date TEXT
);
CREATE INDEX IF NOT EXISTS cases_created_at_idx ON cases (created_at);
`

// SQLiteRepository implements Repository on an embedded SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps db; call EnsureSchema before first use.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// EnsureSchema creates the cases table when missing.
func (r *SQLiteRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("cases: sqlite schema: %w", err)
	}
	return nil
}

// Append inserts rec and returns its id.
func (r *SQLiteRepository) Append(ctx context.Context, rec Record) (string, error) {
	const insertSQL = `
		INSERT INTO cases (id, category, description, latitude, longitude, created_at, confirmations, status,
			photo_url, submitter_hash, triggering_event_date, registration_date, citation_date, last_movement_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, insertSQL,
		rec.ID,
		rec.Category,
		rec.Description,
		rec.Latitude,
		rec.Longitude,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.Confirmations,
		string(rec.Status),
		rec.PhotoURL,
		rec.SubmitterHash,
		nullableDate(rec.Dates.TriggeringEvent),
		nullableDate(rec.Dates.Registration),
		nullableDate(rec.Dates.Citation),
		nullableDate(rec.Dates.LastMovement),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return "", ErrDuplicateID
		}
		return "", fmt.Errorf("cases: append: %w", err)
	}
	return rec.ID, nil
}

// ListAll returns every stored case keyed by id.
func (r *SQLiteRepository) ListAll(ctx context.Context) (map[string]Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM cases ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("cases: list: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Record)
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
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
func (r *SQLiteRepository) Get(ctx context.Context, id string) (Record, error) {
	rec, err := scanSQLiteRecord(r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM cases WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("cases: get: %w", err)
	}
	return rec, nil
}

// UpdateFields overwrites the non-nil members of fields.
func (r *SQLiteRepository) UpdateFields(ctx context.Context, id string, fields Fields) error {
	if fields.Confirmations != nil && *fields.Confirmations < 1 {
		return ErrInvalidConfirmations
	}

	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if fields.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*fields.Status))
	}
	if fields.Confirmations != nil {
		sets = append(sets, "confirmations = ?")
		args = append(args, *fields.Confirmations)
	}
	if len(sets) == 0 {
		sets = append(sets, "id = id")
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, "UPDATE cases SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("cases: update fields: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cases: update fields: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementConfirmations adds one confirmation in a single UPDATE and returns
// the new total.
func (r *SQLiteRepository) IncrementConfirmations(ctx context.Context, id string) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `UPDATE cases SET confirmations = confirmations + 1 WHERE id = ? RETURNING confirmations`, id).Scan(&total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("cases: increment confirmations: %w", err)
	}
	return total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (Record, error) {
	var (
		rec       Record
		createdAt string
		status    string
		photoURL  sql.NullString
		dates     [4]sql.NullString
	)
	err := row.Scan(
		&rec.ID,
		&rec.Category,
		&rec.Description,
		&rec.Latitude,
		&rec.Longitude,
		&createdAt,
		&rec.Confirmations,
		&status,
		&photoURL,
		&rec.SubmitterHash,
		&dates[0],
		&dates[1],
		&dates[2],
		&dates[3],
	)
	if err != nil {
		return Record{}, err
	}

	rec.Status = Status(status)
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = ts
	}
	if photoURL.Valid && photoURL.String != "" {
		url := photoURL.String
		rec.PhotoURL = &url
	}
	rec.Dates = limitation.Dates{
		TriggeringEvent: limitation.ParseDate(dates[0].String),
		Registration:    limitation.ParseDate(dates[1].String),
		Citation:        limitation.ParseDate(dates[2].String),
		LastMovement:    limitation.ParseDate(dates[3].String),
	}
	return rec, nil
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return limitation.FormatDate(t)
}
