package codes

import (
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

const (
	ean13Length = 13
	qrPrefix    = "QR-"
)

// Generator produces candidate identifiers. Candidates carry no uniqueness
// guarantee; that is the Deduplicator's job.
type Generator struct {
	randDigit func() int
	newUUID   func() uuid.UUID
}

// NewGenerator builds a Generator backed by the default random sources.
func NewGenerator() *Generator {
	return &Generator{
		randDigit: func() int { return rand.IntN(10) },
		newUUID:   uuid.New,
	}
}

// Candidate returns a single candidate identifier for the given type.
func (g *Generator) Candidate(codeType CodeType) string {
	if codeType == TypeQR {
		return qrPrefix + g.newUUID().String()
	}
	return g.ean13()
}

func (g *Generator) ean13() string {
	var b strings.Builder
	b.Grow(ean13Length)
	digits := make([]int, ean13Length-1)
	for i := range digits {
		digits[i] = g.randDigit()
		b.WriteByte(byte('0' + digits[i]))
	}
	b.WriteByte(byte('0' + checkDigit(digits)))
	return b.String()
}

// checkDigit computes the EAN-13 check digit over the first 12 digits:
// digits at even index weigh 1, odd index weigh 3 (0-indexed from the left).
func checkDigit(digits []int) int {
	sum := 0
	for i, d := range digits {
		if i%2 == 0 {
			sum += d
		} else {
			sum += d * 3
		}
	}
	return (10 - sum%10) % 10
}

// ValidEAN13 reports whether code is 13 decimal digits with a correct checksum.
func ValidEAN13(code string) bool {
	if len(code) != ean13Length {
		return false
	}
	digits := make([]int, 0, ean13Length)
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
		digits = append(digits, int(r-'0'))
	}
	return checkDigit(digits[:ean13Length-1]) == digits[ean13Length-1]
}
