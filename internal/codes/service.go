package codes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/grocerysaver/grocerysaver/internal/shared"
)

// Repository persists product codes.
type Repository interface {
	ExistenceChecker
	ProductExists(ctx context.Context, productID int64) (bool, error)
	// InsertCodes inserts all items in one atomic transaction and returns
	// shared.ErrConflict when any code value lost a uniqueness race.
	InsertCodes(ctx context.Context, productID int64, items []NewCode) ([]ProductCode, error)
	ListByProduct(ctx context.Context, productID int64) ([]ProductCode, error)
}

// NewCode is a code value picked for insertion.
type NewCode struct {
	Code     string
	CodeType CodeType
}

// BatchItem is one entry of an admin batch submission. Code may be blank to
// request generation.
type BatchItem struct {
	Code     string
	CodeType CodeType
}

// AssignedCode is the outcome for one batch item. Regenerated is true when
// the submitted value was blank or collided and was silently replaced.
type AssignedCode struct {
	ProductCode
	Regenerated bool `json:"regenerated"`
}

// Service coordinates batch code assignment.
type Service struct {
	logger *slog.Logger
	repo   Repository
	dedup  *Deduplicator
}

// NewService builds Service.
func NewService(logger *slog.Logger, repo Repository) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger: logger,
		repo:   repo,
		dedup:  NewDeduplicator(NewGenerator(), repo),
	}
}

// ListByProduct returns the codes bound to a product.
func (s *Service) ListByProduct(ctx context.Context, productID int64) ([]ProductCode, error) {
	if productID <= 0 {
		return nil, errors.New("codes: invalid product ID")
	}
	return s.repo.ListByProduct(ctx, productID)
}

// AssignBatch resolves every batch item against a shared reservation set and
// commits the whole batch atomically. A commit-time uniqueness race is
// repaired by regenerating the collided values and committing once more.
func (s *Service) AssignBatch(ctx context.Context, productID int64, items []BatchItem) ([]AssignedCode, error) {
	if productID <= 0 {
		return nil, errors.New("codes: invalid product ID")
	}
	if len(items) == 0 {
		return nil, errors.New("codes: empty batch")
	}
	exists, err := s.repo.ProductExists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("codes: product %d: %w", productID, shared.ErrNotFound)
	}

	assigned, err := s.assignOnce(ctx, productID, items)
	if errors.Is(err, shared.ErrConflict) {
		s.logger.Warn("code batch lost uniqueness race, regenerating",
			slog.Int64("product_id", productID), slog.Int("items", len(items)))
		assigned, err = s.assignOnce(ctx, productID, items)
	}
	return assigned, err
}

func (s *Service) assignOnce(ctx context.Context, productID int64, items []BatchItem) ([]AssignedCode, error) {
	reserved := NewReservationSet()
	picked := make([]NewCode, 0, len(items))
	regenerated := make([]bool, 0, len(items))
	for _, item := range items {
		codeType := item.CodeType
		if codeType == "" {
			codeType = TypeBarcode
		}
		if !codeType.Valid() {
			return nil, fmt.Errorf("codes: unknown code type %q", item.CodeType)
		}
		value, replaced, err := s.dedup.Resolve(ctx, item.Code, codeType, reserved)
		if err != nil {
			return nil, err
		}
		picked = append(picked, NewCode{Code: value, CodeType: codeType})
		regenerated = append(regenerated, replaced)
	}

	rows, err := s.repo.InsertCodes(ctx, productID, picked)
	if err != nil {
		return nil, err
	}
	assigned := make([]AssignedCode, len(rows))
	for i, row := range rows {
		assigned[i] = AssignedCode{ProductCode: row, Regenerated: regenerated[i]}
	}
	return assigned, nil
}
