package scan

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/grocerysaver/grocerysaver/internal/codes"
	"github.com/grocerysaver/grocerysaver/internal/observability"
	"github.com/grocerysaver/grocerysaver/internal/platform/httpx"
)

// ScanService exposes the business logic required by the handler.
type ScanService interface {
	Scan(ctx context.Context, input Input) (Result, error)
}

// Handler serves the scan endpoint.
type Handler struct {
	logger   *slog.Logger
	service  ScanService
	metrics  *observability.Metrics
	validate *validator.Validate
}

// NewHandler builds Handler. metrics may be nil.
func NewHandler(logger *slog.Logger, service ScanService, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, metrics: metrics, validate: validator.New()}
}

// MountRoutes registers the scan endpoint.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/scan", h.scan)
}

type scanRequest struct {
	Code        string  `json:"code" validate:"required"`
	CodeType    string  `json:"code_type" validate:"omitempty,oneof=barcode qr"`
	CategoryID  int64   `json:"category_id" validate:"omitempty,gt=0"`
	Name        string  `json:"name" validate:"omitempty,max=120"`
	Brand       string  `json:"brand" validate:"omitempty,max=120"`
	Description string  `json:"description"`
	StoreID     int64   `json:"store_id" validate:"omitempty,gt=0"`
	Price       *string `json:"price"`
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input := Input{
		Code:        req.Code,
		CodeType:    codes.CodeType(req.CodeType),
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Brand:       req.Brand,
		Description: req.Description,
		StoreID:     req.StoreID,
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "price must be a decimal")
			return
		}
		input.Price = &price
	}

	result, err := h.service.Scan(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.metrics.RecordScan(result.Matched)

	// A newly created code carries resource-created semantics.
	status := http.StatusOK
	if result.CodeCreated {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, result)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInsufficientData):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrEmptyCode),
		errors.Is(err, ErrPricePairIncomplete),
		errors.Is(err, ErrNegativePrice),
		errors.Is(err, ErrCategoryNotFound),
		errors.Is(err, ErrStoreNotFound):
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, codes.ErrGenerationExhausted):
		httpx.Problem(w, http.StatusServiceUnavailable, "Try Again", err.Error())
	default:
		h.logger.Error("scan failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
