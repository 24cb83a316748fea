package scan

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grocerysaver/grocerysaver/internal/codes"
	"github.com/grocerysaver/grocerysaver/internal/platform/db"
	"github.com/grocerysaver/grocerysaver/internal/shared"
)

// Repository persists scan flow data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction. A
// commit-time unique violation is reported as shared.ErrConflict so the
// caller can re-resolve.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
	if err != nil && db.IsUniqueViolation(err) {
		return fmt.Errorf("scan: uniqueness race: %w", shared.ErrConflict)
	}
	return err
}

func (r *txRepo) GetCodeByValue(ctx context.Context, code string) (codes.ProductCode, error) {
	var pc codes.ProductCode
	err := r.tx.QueryRow(ctx,
		`SELECT id, product_id, code, code_type, created_at
		 FROM product_codes WHERE code = $1`, code,
	).Scan(&pc.ID, &pc.ProductID, &pc.Code, &pc.CodeType, &pc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return codes.ProductCode{}, shared.ErrNotFound
	}
	if err != nil {
		return codes.ProductCode{}, err
	}
	return pc, nil
}

func (r *txRepo) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *txRepo) StoreExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM stores WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *txRepo) GetOrCreateProduct(ctx context.Context, categoryID int64, name, brand, description string) (int64, bool, error) {
	var id int64
	err := r.tx.QueryRow(ctx,
		`SELECT id FROM products
		 WHERE category_id = $1 AND name = $2 AND brand = $3`,
		categoryID, name, brand).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, err
	}

	err = r.tx.QueryRow(ctx,
		`INSERT INTO products (category_id, name, brand, description, created_at)
		 VALUES ($1, $2, $3, $4, now())
		 RETURNING id`,
		categoryID, name, brand, description).Scan(&id)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (r *txRepo) InsertCode(ctx context.Context, productID int64, code string, codeType codes.CodeType) (codes.ProductCode, error) {
	var pc codes.ProductCode
	err := r.tx.QueryRow(ctx,
		`INSERT INTO product_codes (product_id, code, code_type, created_at)
		 VALUES ($1, $2, $3, now())
		 RETURNING id, product_id, code, code_type, created_at`,
		productID, code, codeType,
	).Scan(&pc.ID, &pc.ProductID, &pc.Code, &pc.CodeType, &pc.CreatedAt)
	if err != nil {
		return codes.ProductCode{}, err
	}
	return pc, nil
}

func (r *txRepo) UpsertPrice(ctx context.Context, productID, storeID int64, price string) error {
	_, err := r.tx.Exec(ctx,
		`INSERT INTO product_prices (product_id, store_id, price, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (product_id, store_id)
		 DO UPDATE SET price = EXCLUDED.price, updated_at = now()`,
		productID, storeID, price)
	return err
}
