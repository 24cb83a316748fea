package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/grocerysaver/grocerysaver/internal/jobs"
	"github.com/grocerysaver/grocerysaver/internal/pricing"
)

const (
	defaultWarmupLimit   = 50
	warmupConcurrency    = 4
	warmupProductTimeout = 10 * time.Second
)

// CompareWarmupJob pre-populates the comparison cache for the products
// with the widest store coverage, so the first shopper of the day does
// not pay the aggregation cost.
type CompareWarmupJob struct {
	Pricing *pricing.Service
	Cache   *pricing.Cache
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCompareWarmupJob wires dependencies for the warmup handler.
func NewCompareWarmupJob(pricingSvc *pricing.Service, cache *pricing.Cache, pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *CompareWarmupJob {
	return &CompareWarmupJob{
		Pricing: pricingSvc,
		Cache:   cache,
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
	}
}

// Handle processes comparison warmup tasks.
func (j *CompareWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("compare warmup: handler not configured")
	}
	var payload CompareWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	limit := payload.Limit
	if limit <= 0 {
		limit = defaultWarmupLimit
	}

	tracker := j.metrics().Track(TaskCompareWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("limit", limit))
	logger.Info("starting compare warmup")

	ids, err := j.fetchTopProducts(ctx, limit)
	if err != nil {
		resultErr = err
		logger.Error("load warmup products", slog.Any("error", err))
		return resultErr
	}
	if len(ids) == 0 {
		logger.Info("no products discovered for warmup")
		return resultErr
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmupConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			return j.warmProduct(gctx, id)
		})
	}
	if err := g.Wait(); err != nil {
		resultErr = err
		logger.Error("warm product comparisons", slog.Any("error", err))
		return resultErr
	}

	logger.Info("completed compare warmup", slog.Int("products", len(ids)))
	return resultErr
}

func (j *CompareWarmupJob) warmProduct(ctx context.Context, productID int64) error {
	if j.Pricing == nil {
		return nil
	}
	warmCtx, cancel := context.WithTimeout(ctx, warmupProductTimeout)
	defer cancel()

	if j.Cache == nil {
		_, err := j.Pricing.Compare(warmCtx, pricing.CompareRef{ProductID: productID})
		return err
	}
	// Same key shape the compare endpoint builds for ID lookups.
	key, err := j.Cache.BuildKey(warmCtx, "compare", strconv.FormatInt(productID, 10), "")
	if err != nil {
		return err
	}
	var result pricing.Comparison
	return j.Cache.FetchJSON(warmCtx, key, &result, func(ctx context.Context) (any, error) {
		return j.Pricing.Compare(ctx, pricing.CompareRef{ProductID: productID})
	})
}

func (j *CompareWarmupJob) fetchTopProducts(ctx context.Context, limit int) ([]int64, error) {
	if j.Pool == nil {
		return nil, errors.New("compare warmup: pool not configured")
	}
	rows, err := j.Pool.Query(ctx, `
		SELECT p.id
		FROM products p
		JOIN product_prices pp ON pp.product_id = p.id
		GROUP BY p.id
		ORDER BY COUNT(pp.id) DESC, p.id
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0, limit)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (j *CompareWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCompareWarmup))
	}
	return slog.Default().With(slog.String("job", TaskCompareWarmup))
}

func (j *CompareWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
