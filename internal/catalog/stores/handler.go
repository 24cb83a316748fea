package stores

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/grocerysaver/grocerysaver/internal/platform/httpx"
	"github.com/grocerysaver/grocerysaver/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the public store endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stores", h.list)
}

// MountAdminRoutes registers the store management endpoints.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Post("/stores", h.create)
	r.Put("/stores/{id}", h.update)
	r.Delete("/stores/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	stores, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list stores failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if stores == nil {
		stores = []Store{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"stores": stores})
}

type storeRequest struct {
	Name string `json:"name"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	created, err := h.service.Create(r.Context(), Store{Name: req.Name})
	if err != nil {
		h.respondError(w, err, "create store failed")
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid store ID")
		return
	}
	var req storeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.service.Update(r.Context(), id, Store{Name: req.Name}); err != nil {
		h.respondError(w, err, "update store failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid store ID")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, err, "delete store failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	default:
		h.logger.Error(msg, slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	}
}
