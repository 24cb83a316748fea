package pricing

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/grocerysaver/grocerysaver/internal/shared"
)

const productColumns = `p.id, p.name, p.brand, p.description, c.id, c.name`

// PostgresRepository persists pricing data in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs PostgresRepository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) FindProductByID(ctx context.Context, id int64) (ProductSummary, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+`
		 FROM products p JOIN categories c ON c.id = p.category_id
		 WHERE p.id = $1`, id)
	return scanProductSummary(row)
}

func (r *PostgresRepository) FindProductByName(ctx context.Context, name string) (ProductSummary, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+`
		 FROM products p JOIN categories c ON c.id = p.category_id
		 WHERE lower(p.name) = lower($1)
		 ORDER BY p.id LIMIT 1`, name)
	product, err := scanProductSummary(row)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return ProductSummary{}, err
	}

	row = r.pool.QueryRow(ctx,
		`SELECT `+productColumns+`
		 FROM products p JOIN categories c ON c.id = p.category_id
		 WHERE p.name ILIKE '%' || $1 || '%'
		 ORDER BY p.id LIMIT 1`, name)
	return scanProductSummary(row)
}

func (r *PostgresRepository) ListPrices(ctx context.Context, productID int64) ([]PriceEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name, pp.price::text, pp.updated_at
		 FROM product_prices pp JOIN stores s ON s.id = pp.store_id
		 WHERE pp.product_id = $1
		 ORDER BY pp.price, pp.id`, productID)
	if err != nil {
		return nil, fmt.Errorf("pricing: query prices: %w", err)
	}
	defer rows.Close()

	var entries []PriceEntry
	for rows.Next() {
		var (
			entry PriceEntry
			raw   string
		)
		if err := rows.Scan(&entry.Store.ID, &entry.Store.Name, &raw, &entry.UpdatedAt); err != nil {
			return nil, err
		}
		if entry.Price, err = decimal.NewFromString(raw); err != nil {
			return nil, fmt.Errorf("pricing: parse price %q: %w", raw, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *PostgresRepository) UpsertPrice(ctx context.Context, productID, storeID int64, price decimal.Decimal) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO product_prices (product_id, store_id, price, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (product_id, store_id)
		 DO UPDATE SET price = EXCLUDED.price, updated_at = now()`,
		productID, storeID, price.StringFixed(2))
	if err != nil {
		return fmt.Errorf("pricing: upsert price: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeletePrice(ctx context.Context, productID, storeID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM product_prices WHERE product_id = $1 AND store_id = $2`,
		productID, storeID)
	if err != nil {
		return fmt.Errorf("pricing: delete price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pricing: price (%d, %d): %w", productID, storeID, shared.ErrNotFound)
	}
	return nil
}

func (r *PostgresRepository) ListOffers(ctx context.Context, query OfferQuery) ([]Offer, error) {
	sql := `SELECT o.id, o.normal_price::text, o.offer_price::text,
	               o.starts_at, o.ends_at, o.updated_at,
	               s.id, s.name, ` + productColumns + `
	        FROM offers o
	        JOIN stores s ON s.id = o.store_id
	        JOIN products p ON p.id = o.product_id
	        JOIN categories c ON c.id = p.category_id
	        WHERE 1=1`
	args := []any{}

	if query.StoreID > 0 {
		args = append(args, query.StoreID)
		sql += ` AND o.store_id = $` + strconv.Itoa(len(args))
	}
	if query.ProductID > 0 {
		args = append(args, query.ProductID)
		sql += ` AND o.product_id = $` + strconv.Itoa(len(args))
	}
	if query.CategoryID > 0 {
		args = append(args, query.CategoryID)
		sql += ` AND p.category_id = $` + strconv.Itoa(len(args))
	}
	if query.Search != "" {
		args = append(args, query.Search)
		sql += ` AND p.name ILIKE '%' || $` + strconv.Itoa(len(args)) + ` || '%'`
	}
	sql += ` ORDER BY o.starts_at DESC, o.id`

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("pricing: query offers: %w", err)
	}
	defer rows.Close()

	var offers []Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

func (r *PostgresRepository) CreateOffer(ctx context.Context, input NewOffer) (Offer, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO offers (product_id, store_id, normal_price, offer_price, starts_at, ends_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 RETURNING id`,
		input.ProductID, input.StoreID,
		input.NormalPrice.StringFixed(2), input.OfferPrice.StringFixed(2),
		input.StartsAt, input.EndsAt,
	).Scan(&id)
	if err != nil {
		return Offer{}, fmt.Errorf("pricing: insert offer: %w", err)
	}
	return r.getOffer(ctx, id)
}

func (r *PostgresRepository) DeleteOffer(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pricing: delete offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pricing: offer %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *PostgresRepository) getOffer(ctx context.Context, id int64) (Offer, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT o.id, o.normal_price::text, o.offer_price::text,
		        o.starts_at, o.ends_at, o.updated_at,
		        s.id, s.name, `+productColumns+`
		 FROM offers o
		 JOIN stores s ON s.id = o.store_id
		 JOIN products p ON p.id = o.product_id
		 JOIN categories c ON c.id = p.category_id
		 WHERE o.id = $1`, id)
	return scanOffer(row)
}

func scanProductSummary(row pgx.Row) (ProductSummary, error) {
	var p ProductSummary
	err := row.Scan(&p.ID, &p.Name, &p.Brand, &p.Description, &p.Category.ID, &p.Category.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductSummary{}, shared.ErrNotFound
	}
	if err != nil {
		return ProductSummary{}, fmt.Errorf("pricing: scan product: %w", err)
	}
	return p, nil
}

func scanOffer(row pgx.Row) (Offer, error) {
	var (
		o                   Offer
		rawNormal, rawOffer string
	)
	err := row.Scan(
		&o.ID, &rawNormal, &rawOffer,
		&o.StartsAt, &o.EndsAt, &o.UpdatedAt,
		&o.Store.ID, &o.Store.Name,
		&o.Product.ID, &o.Product.Name, &o.Product.Brand, &o.Product.Description,
		&o.Product.Category.ID, &o.Product.Category.Name,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Offer{}, shared.ErrNotFound
	}
	if err != nil {
		return Offer{}, fmt.Errorf("pricing: scan offer: %w", err)
	}
	if o.NormalPrice, err = decimal.NewFromString(rawNormal); err != nil {
		return Offer{}, fmt.Errorf("pricing: parse normal price: %w", err)
	}
	if o.OfferPrice, err = decimal.NewFromString(rawOffer); err != nil {
		return Offer{}, fmt.Errorf("pricing: parse offer price: %w", err)
	}
	return o, nil
}
