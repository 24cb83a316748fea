package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OfferQuery narrows the persisted offer set. Zero values mean "no filter";
// Search is a case-insensitive substring match on the product name. All
// filters are conjunctive.
type OfferQuery struct {
	StoreID    int64
	ProductID  int64
	CategoryID int64
	Search     string
}

// OfferFilter is an OfferQuery plus the tri-state active flag.
type OfferFilter struct {
	OfferQuery
	// ActiveOnly retains only offers whose window contains now.
	ActiveOnly bool
}

// ParseActiveFlag interprets the "active" query parameter. Absence defaults
// to true; anything outside the recognized boolean spellings fails with
// ErrInvalidFilterValue.
func ParseActiveFlag(raw string) (bool, error) {
	switch raw {
	case "", "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: active must be true or false, got %q", ErrInvalidFilterValue, raw)
	}
}

// OfferList is the offer listing payload.
type OfferList struct {
	Count  int         `json:"count"`
	Offers []OfferView `json:"offers"`
}

// ListOffers returns offers matching the filter, newest window first as
// returned by the repository.
func (s *Service) ListOffers(ctx context.Context, filter OfferFilter) (OfferList, error) {
	offers, err := s.repo.ListOffers(ctx, filter.OfferQuery)
	if err != nil {
		return OfferList{}, fmt.Errorf("pricing: list offers: %w", err)
	}

	now := s.now()
	views := make([]OfferView, 0, len(offers))
	for _, o := range offers {
		if filter.ActiveOnly && !o.IsActive(now) {
			continue
		}
		views = append(views, NewOfferView(o, now))
	}
	return OfferList{Count: len(views), Offers: views}, nil
}

// NewOffer is the admin input for offer creation. The window is stored as
// submitted; inverted windows are accepted and simply never become active.
type NewOffer struct {
	ProductID   int64
	StoreID     int64
	NormalPrice decimal.Decimal
	OfferPrice  decimal.Decimal
	StartsAt    time.Time
	EndsAt      time.Time
}

// CreateOffer persists a new offer.
func (s *Service) CreateOffer(ctx context.Context, input NewOffer) (OfferView, error) {
	if input.ProductID <= 0 || input.StoreID <= 0 {
		return OfferView{}, fmt.Errorf("%w: product and store required", ErrInvalidFilterValue)
	}
	if input.NormalPrice.IsNegative() || input.OfferPrice.IsNegative() {
		return OfferView{}, fmt.Errorf("%w: prices must be non-negative", ErrInvalidFilterValue)
	}
	offer, err := s.repo.CreateOffer(ctx, input)
	if err != nil {
		return OfferView{}, fmt.Errorf("pricing: create offer: %w", err)
	}
	return NewOfferView(offer, s.now()), nil
}

// SetPrice upserts a store's price for a product.
func (s *Service) SetPrice(ctx context.Context, productID, storeID int64, price decimal.Decimal) error {
	if productID <= 0 || storeID <= 0 {
		return fmt.Errorf("%w: product and store required", ErrInvalidFilterValue)
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: price must be non-negative", ErrInvalidFilterValue)
	}
	return s.repo.UpsertPrice(ctx, productID, storeID, price)
}

// RemovePrice deletes a store's price for a product.
func (s *Service) RemovePrice(ctx context.Context, productID, storeID int64) error {
	if productID <= 0 || storeID <= 0 {
		return fmt.Errorf("%w: product and store required", ErrInvalidFilterValue)
	}
	return s.repo.DeletePrice(ctx, productID, storeID)
}

// DeleteOffer removes an offer.
func (s *Service) DeleteOffer(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid offer ID", ErrInvalidFilterValue)
	}
	return s.repo.DeleteOffer(ctx, id)
}
