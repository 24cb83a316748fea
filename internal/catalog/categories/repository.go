package categories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grocerysaver/grocerysaver/internal/platform/db"
	"github.com/grocerysaver/grocerysaver/internal/shared"
)

// ErrCategoryInUse indicates a delete attempt on a category that still owns
// products.
var ErrCategoryInUse = errors.New("categories: category has products")

type Repository interface {
	List(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id int64) (Category, error)
	Create(ctx context.Context, category Category) (Category, error)
	Update(ctx context.Context, id int64, category Category) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, image, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Image, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, image, created_at FROM categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Image, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, shared.ErrNotFound
	}
	return c, err
}

func (r *repository) Create(ctx context.Context, category Category) (Category, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO categories (name, image, created_at) VALUES ($1, $2, now())
		 RETURNING id, name, image, created_at`,
		category.Name, category.Image,
	).Scan(&category.ID, &category.Name, &category.Image, &category.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Category{}, fmt.Errorf("categories: name %q: %w", category.Name, shared.ErrConflict)
		}
		return Category{}, err
	}
	return category, nil
}

func (r *repository) Update(ctx context.Context, id int64, category Category) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE categories SET name = $1, image = $2 WHERE id = $3`,
		category.Name, category.Image, id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("categories: name %q: %w", category.Name, shared.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete refuses to remove a category that still owns products.
func (r *repository) Delete(ctx context.Context, id int64) error {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE category_id = $1`, id).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
