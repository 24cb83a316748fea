package codes

import (
	"context"
	"strings"
)

// DefaultMaxAttempts bounds generation retries before giving up.
const DefaultMaxAttempts = 50

// ExistenceChecker answers whether a code value is already persisted.
type ExistenceChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// ReservationSet holds codes already chosen earlier in the same batch
// operation, before any of them has been committed.
type ReservationSet map[string]struct{}

// NewReservationSet returns an empty reservation set.
func NewReservationSet() ReservationSet {
	return make(ReservationSet)
}

// Reserve marks a code as taken for the remainder of the batch.
func (s ReservationSet) Reserve(code string) {
	s[code] = struct{}{}
}

// Contains reports whether code was already reserved.
func (s ReservationSet) Contains(code string) bool {
	_, ok := s[code]
	return ok
}

// Deduplicator mints codes guaranteed unique against both a reservation set
// and persisted storage.
type Deduplicator struct {
	gen         *Generator
	store       ExistenceChecker
	maxAttempts int
}

// NewDeduplicator builds a Deduplicator with the default retry bound.
func NewDeduplicator(gen *Generator, store ExistenceChecker) *Deduplicator {
	return &Deduplicator{gen: gen, store: store, maxAttempts: DefaultMaxAttempts}
}

// Mint generates a fresh unique code of the given type and reserves it.
// Returns ErrGenerationExhausted when the retry bound is reached.
func (d *Deduplicator) Mint(ctx context.Context, codeType CodeType, reserved ReservationSet) (string, error) {
	for attempt := 0; attempt < d.maxAttempts; attempt++ {
		candidate := d.gen.Candidate(codeType)
		if reserved.Contains(candidate) {
			continue
		}
		exists, err := d.store.CodeExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}
		reserved.Reserve(candidate)
		return candidate, nil
	}
	return "", ErrGenerationExhausted
}

// Resolve accepts a user-supplied code after trimming, provided it is
// non-empty and not already reserved or persisted. A blank or colliding
// submission is silently replaced by a freshly minted code; submissions are
// never rejected for a duplicate. The second return reports whether the
// supplied value was replaced.
func (d *Deduplicator) Resolve(ctx context.Context, supplied string, codeType CodeType, reserved ReservationSet) (string, bool, error) {
	code := strings.TrimSpace(supplied)
	if code != "" && !reserved.Contains(code) {
		exists, err := d.store.CodeExists(ctx, code)
		if err != nil {
			return "", false, err
		}
		if !exists {
			reserved.Reserve(code)
			return code, false, nil
		}
	}
	minted, err := d.Mint(ctx, codeType, reserved)
	if err != nil {
		return "", false, err
	}
	return minted, true, nil
}
