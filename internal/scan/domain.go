// Package scan implements the resolve-or-create flow for scanned codes.
package scan

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/grocerysaver/grocerysaver/internal/codes"
	"github.com/grocerysaver/grocerysaver/internal/pricing"
)

// Errors surfaced to handlers.
var (
	// ErrEmptyCode indicates a blank scanned code after trimming.
	ErrEmptyCode = errors.New("scan: code must not be empty")
	// ErrInsufficientData indicates an unknown code without the category and
	// name needed to create a catalog entry.
	ErrInsufficientData = errors.New("scan: unknown code, category and name required to create product")
	// ErrCategoryNotFound indicates an unresolved category reference.
	ErrCategoryNotFound = errors.New("scan: category not found")
	// ErrStoreNotFound indicates an unresolved store reference.
	ErrStoreNotFound = errors.New("scan: store not found")
	// ErrPricePairIncomplete indicates store and price were not supplied together.
	ErrPricePairIncomplete = errors.New("scan: store_id and price must be supplied together")
	// ErrNegativePrice indicates a negative price submission.
	ErrNegativePrice = errors.New("scan: price must be non-negative")
)

// Input carries one scan request. Category, name, brand and description are
// only needed when the code is unknown; store and price must come together.
type Input struct {
	Code        string
	CodeType    codes.CodeType
	CategoryID  int64
	Name        string
	Brand       string
	Description string
	StoreID     int64
	Price       *decimal.Decimal
}

// Result is the scan response payload.
type Result struct {
	Matched        bool               `json:"matched"`
	ProductCreated bool               `json:"product_created"`
	CodeCreated    bool               `json:"code_created"`
	PriceUpdated   bool               `json:"price_updated"`
	ScannedCode    codes.ProductCode  `json:"scanned_code"`
	Product        pricing.Comparison `json:"product"`
}
