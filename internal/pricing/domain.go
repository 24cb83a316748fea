// Package pricing computes price rankings and offer listings across stores.
package pricing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Errors surfaced to handlers.
var (
	// ErrProductNotFound indicates neither id nor fuzzy name match resolved.
	ErrProductNotFound = errors.New("pricing: product not found")
	// ErrInvalidFilterValue indicates a malformed offer filter flag.
	ErrInvalidFilterValue = errors.New("pricing: invalid filter value")
)

// StoreRef identifies a participating store.
type StoreRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CategoryRef identifies the owning category of a product.
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductSummary is the product view embedded in comparison and offer payloads.
type ProductSummary struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Brand       string      `json:"brand"`
	Description string      `json:"description"`
	Category    CategoryRef `json:"category"`
}

// PriceEntry is one store's price for a product.
type PriceEntry struct {
	Store     StoreRef        `json:"store"`
	Price     decimal.Decimal `json:"-"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PriceView is the wire form of PriceEntry with fixed 2-decimal rendering.
type PriceView struct {
	Store     StoreRef  `json:"store"`
	Price     string    `json:"price"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PriceOption names the store holding a ranked position.
type PriceOption struct {
	Store string `json:"store"`
	Price string `json:"price"`
}

// Comparison is the compare-prices response payload.
type Comparison struct {
	Product             ProductSummary `json:"product"`
	Prices              []PriceView    `json:"prices"`
	BestOption          *PriceOption   `json:"best_option"`
	MostExpensiveOption *PriceOption   `json:"most_expensive_option"`
	Savings             string         `json:"savings_vs_most_expensive,omitempty"`
}

// Offer is a time-windowed promotional price at one store.
type Offer struct {
	ID          int64
	Product     ProductSummary
	Store       StoreRef
	NormalPrice decimal.Decimal
	OfferPrice  decimal.Decimal
	StartsAt    time.Time
	EndsAt      time.Time
	UpdatedAt   time.Time
}

// IsActive reports whether now falls inside the inclusive offer window.
func (o Offer) IsActive(now time.Time) bool {
	return !now.Before(o.StartsAt) && !now.After(o.EndsAt)
}

// Savings is the absolute price delta of the offer.
func (o Offer) Savings() decimal.Decimal {
	return o.NormalPrice.Sub(o.OfferPrice)
}

// DiscountPercent is the relative saving rounded to 2 decimals. A zero
// normal price yields 0% instead of dividing by zero.
func (o Offer) DiscountPercent() decimal.Decimal {
	if o.NormalPrice.IsZero() {
		return decimal.Zero
	}
	return o.Savings().Div(o.NormalPrice).Mul(decimal.NewFromInt(100)).Round(2)
}

// OfferView is the wire form of Offer with derived fields attached.
type OfferView struct {
	ID              int64          `json:"id"`
	Product         ProductSummary `json:"product"`
	Store           StoreRef       `json:"store"`
	NormalPrice     string         `json:"normal_price"`
	OfferPrice      string         `json:"offer_price"`
	Savings         string         `json:"savings"`
	DiscountPercent string         `json:"discount_percent"`
	StartsAt        time.Time      `json:"starts_at"`
	EndsAt          time.Time      `json:"ends_at"`
	IsActive        bool           `json:"is_active"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// NewOfferView renders an offer relative to now.
func NewOfferView(o Offer, now time.Time) OfferView {
	return OfferView{
		ID:              o.ID,
		Product:         o.Product,
		Store:           o.Store,
		NormalPrice:     o.NormalPrice.StringFixed(2),
		OfferPrice:      o.OfferPrice.StringFixed(2),
		Savings:         o.Savings().StringFixed(2),
		DiscountPercent: o.DiscountPercent().StringFixed(2),
		StartsAt:        o.StartsAt,
		EndsAt:          o.EndsAt,
		IsActive:        o.IsActive(now),
		UpdatedAt:       o.UpdatedAt,
	}
}
