package products

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grocerysaver/grocerysaver/internal/platform/db"
	"github.com/grocerysaver/grocerysaver/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]ListEntry, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id int64, product Product) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// List uses a dynamic query due to filter complexity. Each row carries the
// minimum price across stores when one exists.
func (r *repository) List(ctx context.Context, filters ListFilters) ([]ListEntry, int, error) {
	query := `SELECT p.id, p.category_id, c.name, p.name, p.brand, p.description, p.created_at,
	                 MIN(pp.price)::text
	          FROM products p
	          JOIN categories c ON c.id = p.category_id
	          LEFT JOIN product_prices pp ON pp.product_id = p.id
	          WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM products p WHERE 1=1`
	args := []any{}
	countArgs := []any{}

	if filters.CategoryID > 0 {
		args = append(args, filters.CategoryID)
		query += ` AND p.category_id = $` + strconv.Itoa(len(args))
		countArgs = append(countArgs, filters.CategoryID)
		countQuery += ` AND p.category_id = $` + strconv.Itoa(len(countArgs))
	}
	if filters.Search != "" {
		args = append(args, filters.Search)
		query += ` AND p.name ILIKE '%' || $` + strconv.Itoa(len(args)) + ` || '%'`
		countArgs = append(countArgs, filters.Search)
		countQuery += ` AND p.name ILIKE '%' || $` + strconv.Itoa(len(countArgs)) + ` || '%'`
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` GROUP BY p.id, c.name ORDER BY p.name, p.id`

	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []ListEntry
	for rows.Next() {
		var e ListEntry
		err := rows.Scan(&e.ID, &e.CategoryID, &e.CategoryName, &e.Name, &e.Brand,
			&e.Description, &e.CreatedAt, &e.BestPrice)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx,
		`SELECT p.id, p.category_id, c.name, p.name, p.brand, p.description, p.created_at
		 FROM products p JOIN categories c ON c.id = p.category_id
		 WHERE p.id = $1`, id,
	).Scan(&p.ID, &p.CategoryID, &p.CategoryName, &p.Name, &p.Brand, &p.Description, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (category_id, name, brand, description, created_at)
		 VALUES ($1, $2, $3, $4, now())
		 RETURNING id, created_at`,
		product.CategoryID, product.Name, product.Brand, product.Description,
	).Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Product{}, fmt.Errorf("products: (%d, %q, %q): %w",
				product.CategoryID, product.Name, product.Brand, shared.ErrConflict)
		}
		return Product{}, err
	}
	return product, nil
}

func (r *repository) Update(ctx context.Context, id int64, product Product) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET category_id = $1, name = $2, brand = $3, description = $4
		 WHERE id = $5`,
		product.CategoryID, product.Name, product.Brand, product.Description, id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("products: (%d, %q, %q): %w",
				product.CategoryID, product.Name, product.Brand, shared.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
