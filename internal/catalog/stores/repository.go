package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grocerysaver/grocerysaver/internal/platform/db"
	"github.com/grocerysaver/grocerysaver/internal/shared"
)

type Repository interface {
	List(ctx context.Context) ([]Store, error)
	Get(ctx context.Context, id int64) (Store, error)
	Create(ctx context.Context, store Store) (Store, error)
	Update(ctx context.Context, id int64, store Store) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context) ([]Store, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_at FROM stores ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stores []Store
	for rows.Next() {
		var s Store
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Store, error) {
	var s Store
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM stores WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Store{}, shared.ErrNotFound
	}
	return s, err
}

func (r *repository) Create(ctx context.Context, store Store) (Store, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO stores (name, created_at) VALUES ($1, now())
		 RETURNING id, name, created_at`, store.Name,
	).Scan(&store.ID, &store.Name, &store.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Store{}, fmt.Errorf("stores: name %q: %w", store.Name, shared.ErrConflict)
		}
		return Store{}, err
	}
	return store, nil
}

func (r *repository) Update(ctx context.Context, id int64, store Store) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE stores SET name = $1 WHERE id = $2`, store.Name, id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("stores: name %q: %w", store.Name, shared.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM stores WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
