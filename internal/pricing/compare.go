package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/grocerysaver/grocerysaver/internal/shared"
)

// Repository abstracts pricing reads and offer persistence.
type Repository interface {
	FindProductByID(ctx context.Context, id int64) (ProductSummary, error)
	// FindProductByName matches the exact name first (case-insensitive),
	// then falls back to the first substring match.
	FindProductByName(ctx context.Context, name string) (ProductSummary, error)
	// ListPrices returns a product's prices sorted ascending by price;
	// equal prices keep insertion order.
	ListPrices(ctx context.Context, productID int64) ([]PriceEntry, error)
	UpsertPrice(ctx context.Context, productID, storeID int64, price decimal.Decimal) error
	DeletePrice(ctx context.Context, productID, storeID int64) error
	ListOffers(ctx context.Context, query OfferQuery) ([]Offer, error)
	CreateOffer(ctx context.Context, offer NewOffer) (Offer, error)
	DeleteOffer(ctx context.Context, id int64) error
}

// CompareRef selects the product to compare, by id or by name.
type CompareRef struct {
	ProductID   int64
	ProductName string
}

// Service implements the price/offer aggregation operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Compare resolves a product reference and ranks its prices across stores.
func (s *Service) Compare(ctx context.Context, ref CompareRef) (Comparison, error) {
	product, err := s.resolveProduct(ctx, ref)
	if err != nil {
		return Comparison{}, err
	}

	entries, err := s.repo.ListPrices(ctx, product.ID)
	if err != nil {
		return Comparison{}, fmt.Errorf("pricing: list prices: %w", err)
	}

	comparison := Comparison{Product: product, Prices: make([]PriceView, 0, len(entries))}
	if len(entries) == 0 {
		return comparison, nil
	}

	ranked := Rank(entries)
	for _, e := range ranked.Entries {
		comparison.Prices = append(comparison.Prices, PriceView{
			Store:     e.Store,
			Price:     e.Price.StringFixed(2),
			UpdatedAt: e.UpdatedAt,
		})
	}
	comparison.BestOption = &PriceOption{
		Store: ranked.Best.Store.Name,
		Price: ranked.Best.Price.StringFixed(2),
	}
	comparison.MostExpensiveOption = &PriceOption{
		Store: ranked.MostExpensive.Store.Name,
		Price: ranked.MostExpensive.Price.StringFixed(2),
	}
	comparison.Savings = ranked.Savings().StringFixed(2)
	return comparison, nil
}

func (s *Service) resolveProduct(ctx context.Context, ref CompareRef) (ProductSummary, error) {
	var (
		product ProductSummary
		err     error
	)
	switch {
	case ref.ProductID > 0:
		product, err = s.repo.FindProductByID(ctx, ref.ProductID)
	case strings.TrimSpace(ref.ProductName) != "":
		product, err = s.repo.FindProductByName(ctx, strings.TrimSpace(ref.ProductName))
	default:
		return ProductSummary{}, fmt.Errorf("%w: product_id or product name required", ErrInvalidFilterValue)
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ProductSummary{}, ErrProductNotFound
		}
		return ProductSummary{}, fmt.Errorf("pricing: resolve product: %w", err)
	}
	return product, nil
}

// Ranking holds a price set sorted ascending with its extremes.
type Ranking struct {
	Entries       []PriceEntry
	Best          PriceEntry
	MostExpensive PriceEntry
}

// Savings is the delta between the most expensive and the cheapest price.
// It is always non-negative.
func (r Ranking) Savings() decimal.Decimal {
	return r.MostExpensive.Price.Sub(r.Best.Price)
}

// Rank sorts entries ascending by price. The sort is stable so equal prices
// keep their incoming order. Entries must be non-empty.
func Rank(entries []PriceEntry) Ranking {
	sorted := make([]PriceEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Price.LessThan(sorted[j].Price)
	})
	return Ranking{
		Entries:       sorted,
		Best:          sorted[0],
		MostExpensive: sorted[len(sorted)-1],
	}
}
