// Package codes mints and deduplicates scannable product identifiers.
package codes

import (
	"errors"
	"time"
)

// CodeType classifies a scannable identifier.
type CodeType string

const (
	// TypeBarcode is an EAN-13 checksummed barcode.
	TypeBarcode CodeType = "barcode"
	// TypeQR is a UUID-based QR token.
	TypeQR CodeType = "qr"
)

// Valid reports whether the code type is one of the known kinds.
func (t CodeType) Valid() bool {
	return t == TypeBarcode || t == TypeQR
}

// ProductCode is a persisted scannable identifier bound to a product.
type ProductCode struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Code      string    `json:"code"`
	CodeType  CodeType  `json:"code_type"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrGenerationExhausted indicates no unique code could be minted within the
// retry bound. Callers must abort the enclosing operation.
var ErrGenerationExhausted = errors.New("codes: generation attempts exhausted")
