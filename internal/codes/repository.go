package codes

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grocerysaver/grocerysaver/internal/platform/db"
	"github.com/grocerysaver/grocerysaver/internal/shared"
)

// PostgresRepository persists product codes in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs PostgresRepository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM product_codes WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("codes: check existence: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("codes: check product: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) InsertCodes(ctx context.Context, productID int64, items []NewCode) ([]ProductCode, error) {
	var inserted []ProductCode
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		inserted = inserted[:0]
		for _, item := range items {
			var row ProductCode
			err := tx.QueryRow(ctx,
				`INSERT INTO product_codes (product_id, code, code_type, created_at)
				 VALUES ($1, $2, $3, now())
				 RETURNING id, product_id, code, code_type, created_at`,
				productID, item.Code, item.CodeType,
			).Scan(&row.ID, &row.ProductID, &row.Code, &row.CodeType, &row.CreatedAt)
			if err != nil {
				return err
			}
			inserted = append(inserted, row)
		}
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("codes: insert batch: %w", shared.ErrConflict)
		}
		return nil, fmt.Errorf("codes: insert batch: %w", err)
	}
	return inserted, nil
}

func (r *PostgresRepository) ListByProduct(ctx context.Context, productID int64) ([]ProductCode, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, code, code_type, created_at
		 FROM product_codes WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, fmt.Errorf("codes: list by product: %w", err)
	}
	defer rows.Close()

	var codes []ProductCode
	for rows.Next() {
		var c ProductCode
		if err := rows.Scan(&c.ID, &c.ProductID, &c.Code, &c.CodeType, &c.CreatedAt); err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}
