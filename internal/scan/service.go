package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/grocerysaver/grocerysaver/internal/codes"
	"github.com/grocerysaver/grocerysaver/internal/pricing"
	"github.com/grocerysaver/grocerysaver/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the transactional operations of the scan flow.
type TxRepository interface {
	GetCodeByValue(ctx context.Context, code string) (codes.ProductCode, error)
	CategoryExists(ctx context.Context, id int64) (bool, error)
	StoreExists(ctx context.Context, id int64) (bool, error)
	// GetOrCreateProduct resolves the product keyed by (category, name, brand),
	// creating it when absent.
	GetOrCreateProduct(ctx context.Context, categoryID int64, name, brand, description string) (productID int64, created bool, err error)
	InsertCode(ctx context.Context, productID int64, code string, codeType codes.CodeType) (codes.ProductCode, error)
	UpsertPrice(ctx context.Context, productID, storeID int64, price string) error
}

// ComparePort attaches the ranked price view to scan responses.
type ComparePort interface {
	Compare(ctx context.Context, ref pricing.CompareRef) (pricing.Comparison, error)
}

// CachePort invalidates cached comparison payloads after price writes.
type CachePort interface {
	Bump(ctx context.Context) error
}

// Service coordinates the scan resolve-or-create flow.
type Service struct {
	logger  *slog.Logger
	repo    RepositoryPort
	compare ComparePort
	cache   CachePort
}

// NewService builds Service. cache may be nil.
func NewService(logger *slog.Logger, repo RepositoryPort, compare ComparePort, cache CachePort) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, repo: repo, compare: compare, cache: cache}
}

type outcome struct {
	productID      int64
	matched        bool
	productCreated bool
	codeCreated    bool
	priceUpdated   bool
	scannedCode    codes.ProductCode
}

// Scan resolves the scanned code to a catalog entry, creating product, code
// and price as needed. All writes happen inside one transaction; a
// commit-time uniqueness race on the code column is recovered by re-resolving
// exactly once, as if the code had existed all along.
func (s *Service) Scan(ctx context.Context, input Input) (Result, error) {
	input.Code = strings.TrimSpace(input.Code)
	if input.Code == "" {
		return Result{}, ErrEmptyCode
	}
	if input.CodeType == "" {
		input.CodeType = codes.TypeBarcode
	}
	if !input.CodeType.Valid() {
		return Result{}, fmt.Errorf("scan: unknown code type %q", input.CodeType)
	}
	if (input.StoreID != 0) != (input.Price != nil) {
		return Result{}, ErrPricePairIncomplete
	}
	if input.Price != nil && input.Price.IsNegative() {
		return Result{}, ErrNegativePrice
	}

	out, err := s.resolve(ctx, input)
	if errors.Is(err, shared.ErrConflict) {
		s.logger.Warn("scan lost code uniqueness race, re-resolving",
			slog.String("code", input.Code))
		out, err = s.resolve(ctx, input)
	}
	if err != nil {
		return Result{}, err
	}

	if out.priceUpdated && s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("bump pricing cache", slog.Any("error", err))
		}
	}

	comparison, err := s.compare.Compare(ctx, pricing.CompareRef{ProductID: out.productID})
	if err != nil {
		return Result{}, fmt.Errorf("scan: build product view: %w", err)
	}

	return Result{
		Matched:        out.matched,
		ProductCreated: out.productCreated,
		CodeCreated:    out.codeCreated,
		PriceUpdated:   out.priceUpdated,
		ScannedCode:    out.scannedCode,
		Product:        comparison,
	}, nil
}

func (s *Service) resolve(ctx context.Context, input Input) (outcome, error) {
	var out outcome
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		out = outcome{}

		pc, err := tx.GetCodeByValue(ctx, input.Code)
		switch {
		case err == nil:
			out.matched = true
			out.productID = pc.ProductID
			out.scannedCode = pc
		case errors.Is(err, shared.ErrNotFound):
			if err := s.createEntry(ctx, tx, input, &out); err != nil {
				return err
			}
		default:
			return fmt.Errorf("scan: lookup code: %w", err)
		}

		if input.StoreID != 0 {
			ok, err := tx.StoreExists(ctx, input.StoreID)
			if err != nil {
				return fmt.Errorf("scan: check store: %w", err)
			}
			if !ok {
				return ErrStoreNotFound
			}
			if err := tx.UpsertPrice(ctx, out.productID, input.StoreID, input.Price.StringFixed(2)); err != nil {
				return fmt.Errorf("scan: upsert price: %w", err)
			}
			out.priceUpdated = true
		}
		return nil
	})
	if err != nil {
		return outcome{}, err
	}
	return out, nil
}

func (s *Service) createEntry(ctx context.Context, tx TxRepository, input Input, out *outcome) error {
	name := strings.TrimSpace(input.Name)
	if input.CategoryID == 0 || name == "" {
		return ErrInsufficientData
	}

	ok, err := tx.CategoryExists(ctx, input.CategoryID)
	if err != nil {
		return fmt.Errorf("scan: check category: %w", err)
	}
	if !ok {
		return ErrCategoryNotFound
	}

	productID, created, err := tx.GetOrCreateProduct(ctx, input.CategoryID, name, input.Brand, input.Description)
	if err != nil {
		return fmt.Errorf("scan: get or create product: %w", err)
	}

	pc, err := tx.InsertCode(ctx, productID, input.Code, input.CodeType)
	if err != nil {
		return err
	}

	out.productID = productID
	out.productCreated = created
	out.codeCreated = true
	out.scannedCode = pc
	return nil
}
