package photo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository stores photos as bytea rows in the photos table.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed photo store.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Put(ctx context.Context, obj Object) error {
	const insertSQL = `
		INSERT INTO photos (name, content_type, data, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.pool.Exec(ctx, insertSQL, obj.Name, obj.ContentType, obj.Data, obj.CreatedAt); err != nil {
		return fmt.Errorf("photo: insert: %w", err)
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, name string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM photos WHERE name = $1`, name); err != nil {
		return fmt.Errorf("photo: delete: %w", err)
	}
	return nil
}

func (r *PGRepository) Get(ctx context.Context, name string) (Object, error) {
	const query = `
		SELECT name, content_type, data, created_at
		FROM photos
		WHERE name = $1
	`

	var obj Object
	err := r.pool.QueryRow(ctx, query, name).Scan(&obj.Name, &obj.ContentType, &obj.Data, &obj.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Object{}, ErrNotFound
		}
		return Object{}, fmt.Errorf("photo: get: %w", err)
	}
	return obj, nil
}
