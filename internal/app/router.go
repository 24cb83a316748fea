package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grocerysaver/grocerysaver/internal/catalog/categories"
	"github.com/grocerysaver/grocerysaver/internal/catalog/products"
	"github.com/grocerysaver/grocerysaver/internal/catalog/stores"
	"github.com/grocerysaver/grocerysaver/internal/codes"
	"github.com/grocerysaver/grocerysaver/internal/observability"
	"github.com/grocerysaver/grocerysaver/internal/pricing"
	"github.com/grocerysaver/grocerysaver/internal/scan"
	"github.com/grocerysaver/grocerysaver/jobs"
)

const healthCheckTimeout = 2 * time.Second

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Pool              *pgxpool.Pool
	ScanHandler       *scan.Handler
	PricingHandler    *pricing.Handler
	CodesHandler      *codes.Handler
	StoresHandler     *stores.Handler
	CategoriesHandler *categories.Handler
	ProductsHandler   *products.Handler
	JobsHandler       *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with GrocerySaver defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()
			if err := params.Pool.Ping(ctx); err != nil {
				params.Logger.Warn("health check database ping failed", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		params.ScanHandler.MountRoutes(r)
		params.PricingHandler.MountRoutes(r)
		params.StoresHandler.MountRoutes(r)
		params.CategoriesHandler.MountRoutes(r)
		params.ProductsHandler.MountRoutes(r)
		params.CodesHandler.MountRoutes(r)

		r.Route("/admin", func(r chi.Router) {
			params.StoresHandler.MountAdminRoutes(r)
			params.CategoriesHandler.MountAdminRoutes(r)
			params.ProductsHandler.MountAdminRoutes(r)
			params.PricingHandler.MountAdminRoutes(r)
			params.CodesHandler.MountAdminRoutes(r)
		})
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
