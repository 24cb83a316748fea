package codes

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/grocerysaver/grocerysaver/internal/platform/httpx"
	"github.com/grocerysaver/grocerysaver/internal/shared"
)

// Handler serves the admin batch code endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers the public code endpoints under the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products/{id}/codes", h.list)
}

// MountAdminRoutes registers the batch assignment endpoint.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Post("/products/{id}/codes", h.assignBatch)
}

type batchRequest struct {
	Items []batchItemRequest `json:"items" validate:"required,min=1,dive"`
}

type batchItemRequest struct {
	Code     string `json:"code"`
	CodeType string `json:"code_type" validate:"omitempty,oneof=barcode qr"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || productID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product ID")
		return
	}
	codes, err := h.service.ListByProduct(r.Context(), productID)
	if err != nil {
		h.logger.Error("list product codes failed", slog.Any("error", err), slog.Int64("product_id", productID))
		httpx.RespondError(w, err)
		return
	}
	if codes == nil {
		codes = []ProductCode{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"codes": codes})
}

func (h *Handler) assignBatch(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || productID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product ID")
		return
	}

	var req batchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	items := make([]BatchItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = BatchItem{Code: it.Code, CodeType: CodeType(it.CodeType)}
	}

	assigned, err := h.service.AssignBatch(r.Context(), productID, items)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		case errors.Is(err, ErrGenerationExhausted):
			httpx.Problem(w, http.StatusServiceUnavailable, "Try Again", err.Error())
		default:
			h.logger.Error("assign code batch failed", slog.Any("error", err), slog.Int64("product_id", productID))
			httpx.RespondError(w, err)
		}
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{"codes": assigned})
}
