package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/grocerysaver/grocerysaver/internal/platform/httpx"
	"github.com/grocerysaver/grocerysaver/internal/shared"
)

// Handler serves the comparison and offer endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	cache    *Cache
	validate *validator.Validate
	group    singleflight.Group
}

// NewHandler builds Handler. cache may be nil.
func NewHandler(logger *slog.Logger, service *Service, cache *Cache) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, cache: cache, validate: validator.New()}
}

// MountRoutes registers the public pricing endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/compare-prices", h.comparePrices)
	r.Get("/offers", h.listOffers)
}

// MountAdminRoutes registers the offer and price management endpoints.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Post("/offers", h.createOffer)
	r.Delete("/offers/{id}", h.deleteOffer)
	r.Put("/prices", h.setPrice)
	r.Delete("/prices/{productID}/{storeID}", h.removePrice)
}

func (h *Handler) comparePrices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := CompareRef{ProductName: q.Get("product")}
	if raw := q.Get("product_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "product_id must be an integer")
			return
		}
		ref.ProductID = id
	}
	if ref.ProductID == 0 && ref.ProductName == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "product_id or product query param required")
		return
	}

	key, err := h.cache.BuildKey(r.Context(), "compare", strconv.FormatInt(ref.ProductID, 10), ref.ProductName)
	if err != nil {
		h.logger.Warn("compare cache key", slog.Any("error", err))
		key = fmt.Sprintf("compare:%d:%s", ref.ProductID, ref.ProductName)
	}

	// Concurrent identical lookups collapse into a single load. The load
	// serves every collapsed caller, so it must not die with the first
	// request's context.
	loadCtx := context.WithoutCancel(r.Context())
	result, err, _ := h.group.Do(key, func() (any, error) {
		var comparison Comparison
		err := h.cache.FetchJSON(loadCtx, key, &comparison, func(ctx context.Context) (any, error) {
			return h.service.Compare(ctx, ref)
		})
		return comparison, err
	})
	if err != nil {
		h.respondError(w, err, "compare prices failed")
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) listOffers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	active, err := ParseActiveFlag(q.Get("active"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	filter := OfferFilter{ActiveOnly: active, OfferQuery: OfferQuery{Search: q.Get("search")}}
	for _, param := range []struct {
		name string
		dest *int64
	}{
		{"store_id", &filter.StoreID},
		{"product_id", &filter.ProductID},
		{"category_id", &filter.CategoryID},
	} {
		raw := q.Get(param.name)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", param.name+" must be an integer")
			return
		}
		*param.dest = id
	}

	list, err := h.service.ListOffers(r.Context(), filter)
	if err != nil {
		h.respondError(w, err, "list offers failed")
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

type createOfferRequest struct {
	ProductID   int64     `json:"product_id" validate:"required,gt=0"`
	StoreID     int64     `json:"store_id" validate:"required,gt=0"`
	NormalPrice string    `json:"normal_price" validate:"required"`
	OfferPrice  string    `json:"offer_price" validate:"required"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required"`
}

func (h *Handler) createOffer(w http.ResponseWriter, r *http.Request) {
	var req createOfferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	normal, err := decimal.NewFromString(req.NormalPrice)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "normal_price must be a decimal")
		return
	}
	offerPrice, err := decimal.NewFromString(req.OfferPrice)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "offer_price must be a decimal")
		return
	}

	view, err := h.service.CreateOffer(r.Context(), NewOffer{
		ProductID:   req.ProductID,
		StoreID:     req.StoreID,
		NormalPrice: normal,
		OfferPrice:  offerPrice,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	})
	if err != nil {
		h.respondError(w, err, "create offer failed")
		return
	}
	httpx.JSON(w, http.StatusCreated, view)
}

type setPriceRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	StoreID   int64  `json:"store_id" validate:"required,gt=0"`
	Price     string `json:"price" validate:"required"`
}

func (h *Handler) setPrice(w http.ResponseWriter, r *http.Request) {
	var req setPriceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "price must be a decimal")
		return
	}

	if err := h.service.SetPrice(r.Context(), req.ProductID, req.StoreID, price); err != nil {
		h.respondError(w, err, "set price failed")
		return
	}
	h.bumpCache(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removePrice(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product ID")
		return
	}
	storeID, err := strconv.ParseInt(chi.URLParam(r, "storeID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid store ID")
		return
	}
	if err := h.service.RemovePrice(r.Context(), productID, storeID); err != nil {
		h.respondError(w, err, "remove price failed")
		return
	}
	h.bumpCache(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) bumpCache(ctx context.Context) {
	if err := h.cache.Bump(ctx); err != nil {
		h.logger.Warn("bump pricing cache", slog.Any("error", err))
	}
}

func (h *Handler) deleteOffer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid offer ID")
		return
	}
	if err := h.service.DeleteOffer(r.Context(), id); err != nil {
		h.respondError(w, err, "delete offer failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "product not found")
	case errors.Is(err, ErrInvalidFilterValue):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error(msg, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
