package pricing

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/grocerysaver/grocerysaver/internal/shared"
)

type memoryRepo struct {
	products map[int64]ProductSummary
	prices   map[int64][]PriceEntry
	offers   []Offer
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products: make(map[int64]ProductSummary),
		prices:   make(map[int64][]PriceEntry),
	}
}

func (r *memoryRepo) addProduct(p ProductSummary) {
	r.products[p.ID] = p
}

func (r *memoryRepo) addPrice(productID int64, store StoreRef, price string) {
	r.prices[productID] = append(r.prices[productID], PriceEntry{
		Store: store,
		Price: decimal.RequireFromString(price),
	})
}

func (r *memoryRepo) FindProductByID(ctx context.Context, id int64) (ProductSummary, error) {
	if p, ok := r.products[id]; ok {
		return p, nil
	}
	return ProductSummary{}, shared.ErrNotFound
}

func (r *memoryRepo) FindProductByName(ctx context.Context, name string) (ProductSummary, error) {
	for _, p := range r.products {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	for _, p := range r.products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
			return p, nil
		}
	}
	return ProductSummary{}, shared.ErrNotFound
}

func (r *memoryRepo) ListPrices(ctx context.Context, productID int64) ([]PriceEntry, error) {
	entries := r.prices[productID]
	if len(entries) == 0 {
		return nil, nil
	}
	ranked := Rank(entries)
	return ranked.Entries, nil
}

func (r *memoryRepo) UpsertPrice(ctx context.Context, productID, storeID int64, price decimal.Decimal) error {
	for i, e := range r.prices[productID] {
		if e.Store.ID == storeID {
			r.prices[productID][i].Price = price
			return nil
		}
	}
	r.prices[productID] = append(r.prices[productID], PriceEntry{
		Store: StoreRef{ID: storeID},
		Price: price,
	})
	return nil
}

func (r *memoryRepo) DeletePrice(ctx context.Context, productID, storeID int64) error {
	entries := r.prices[productID]
	for i, e := range entries {
		if e.Store.ID == storeID {
			r.prices[productID] = append(entries[:i], entries[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r *memoryRepo) ListOffers(ctx context.Context, query OfferQuery) ([]Offer, error) {
	var out []Offer
	for _, o := range r.offers {
		if query.StoreID > 0 && o.Store.ID != query.StoreID {
			continue
		}
		if query.ProductID > 0 && o.Product.ID != query.ProductID {
			continue
		}
		if query.CategoryID > 0 && o.Product.Category.ID != query.CategoryID {
			continue
		}
		if query.Search != "" && !strings.Contains(strings.ToLower(o.Product.Name), strings.ToLower(query.Search)) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *memoryRepo) CreateOffer(ctx context.Context, input NewOffer) (Offer, error) {
	r.nextID++
	offer := Offer{
		ID:          r.nextID,
		Product:     r.products[input.ProductID],
		Store:       StoreRef{ID: input.StoreID},
		NormalPrice: input.NormalPrice,
		OfferPrice:  input.OfferPrice,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
	}
	r.offers = append(r.offers, offer)
	return offer, nil
}

func (r *memoryRepo) DeleteOffer(ctx context.Context, id int64) error {
	for i, o := range r.offers {
		if o.ID == id {
			r.offers = append(r.offers[:i], r.offers[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func milkFixture(repo *memoryRepo) {
	repo.addProduct(ProductSummary{ID: 1, Name: "Whole Milk 1L", Brand: "Arla", Category: CategoryRef{ID: 3, Name: "Dairy"}})
	repo.addPrice(1, StoreRef{ID: 10, Name: "Store A"}, "2.25")
	repo.addPrice(1, StoreRef{ID: 11, Name: "Store B"}, "1.05")
	repo.addPrice(1, StoreRef{ID: 12, Name: "Store C"}, "1.80")
}

func TestCompareRanksAscending(t *testing.T) {
	repo := newMemoryRepo()
	milkFixture(repo)
	svc := NewService(repo)

	got, err := svc.Compare(context.Background(), CompareRef{ProductID: 1})
	require.NoError(t, err)

	require.Equal(t, "Whole Milk 1L", got.Product.Name)
	require.Len(t, got.Prices, 3)
	require.Equal(t, "1.05", got.Prices[0].Price)
	require.Equal(t, "1.80", got.Prices[1].Price)
	require.Equal(t, "2.25", got.Prices[2].Price)

	require.NotNil(t, got.BestOption)
	require.Equal(t, "Store B", got.BestOption.Store)
	require.Equal(t, "1.05", got.BestOption.Price)

	require.NotNil(t, got.MostExpensiveOption)
	require.Equal(t, "Store A", got.MostExpensiveOption.Store)
	require.Equal(t, "2.25", got.MostExpensiveOption.Price)

	require.Equal(t, "1.20", got.Savings)
}

func TestCompareByNameFallsBackToSubstring(t *testing.T) {
	repo := newMemoryRepo()
	milkFixture(repo)
	svc := NewService(repo)

	got, err := svc.Compare(context.Background(), CompareRef{ProductName: "whole milk 1l"})
	require.NoError(t, err)
	require.Equal(t, int64(1), got.Product.ID)

	got, err = svc.Compare(context.Background(), CompareRef{ProductName: "milk"})
	require.NoError(t, err)
	require.Equal(t, int64(1), got.Product.ID)
}

func TestCompareNoPrices(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(ProductSummary{ID: 2, Name: "Rye Bread"})
	svc := NewService(repo)

	got, err := svc.Compare(context.Background(), CompareRef{ProductID: 2})
	require.NoError(t, err)
	require.Empty(t, got.Prices)
	require.Nil(t, got.BestOption)
	require.Nil(t, got.MostExpensiveOption)
	require.Empty(t, got.Savings)
}

func TestCompareUnknownProduct(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Compare(context.Background(), CompareRef{ProductID: 99})
	require.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.Compare(context.Background(), CompareRef{ProductName: "nothing"})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestCompareMissingRef(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Compare(context.Background(), CompareRef{})
	require.ErrorIs(t, err, ErrInvalidFilterValue)
}

func TestRankStableOnTies(t *testing.T) {
	entries := []PriceEntry{
		{Store: StoreRef{ID: 1, Name: "First"}, Price: decimal.RequireFromString("1.50")},
		{Store: StoreRef{ID: 2, Name: "Second"}, Price: decimal.RequireFromString("1.50")},
		{Store: StoreRef{ID: 3, Name: "Third"}, Price: decimal.RequireFromString("0.99")},
	}
	ranked := Rank(entries)
	require.Equal(t, "Third", ranked.Best.Store.Name)
	require.Equal(t, "First", ranked.Entries[1].Store.Name)
	require.Equal(t, "Second", ranked.Entries[2].Store.Name)
	require.Equal(t, "Second", ranked.MostExpensive.Store.Name)
	require.Equal(t, "0.51", ranked.Savings().StringFixed(2))
}

func TestRankSingleEntry(t *testing.T) {
	entries := []PriceEntry{{Store: StoreRef{Name: "Only"}, Price: decimal.RequireFromString("3.10")}}
	ranked := Rank(entries)
	require.Equal(t, ranked.Best, ranked.MostExpensive)
	require.True(t, ranked.Savings().IsZero())
}
