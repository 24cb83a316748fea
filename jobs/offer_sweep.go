package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/grocerysaver/grocerysaver/internal/jobs"
	"github.com/grocerysaver/grocerysaver/internal/pricing"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const defaultOfferRetention = 30 * 24 * time.Hour

// OfferSweepJob removes offers whose validity window ended past the
// retention horizon and bumps the pricing cache version afterwards.
type OfferSweepJob struct {
	Pool      *pgxpool.Pool
	Cache     *pricing.Cache
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	Retention time.Duration
	clock     func() time.Time
}

// NewOfferSweepJob wires dependencies for the sweep handler.
func NewOfferSweepJob(pool *pgxpool.Pool, cache *pricing.Cache, logger *slog.Logger, metrics *jobmetrics.Metrics, retention time.Duration) *OfferSweepJob {
	return &OfferSweepJob{
		Pool:      pool,
		Cache:     cache,
		Logger:    logger,
		Metrics:   metrics,
		Retention: retention,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes offer sweep tasks.
func (j *OfferSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("offer sweep: handler not configured")
	}
	var payload OfferSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskOfferSweep)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	retention := j.Retention
	if payload.RetentionHours > 0 {
		retention = time.Duration(payload.RetentionHours) * time.Hour
	}
	if retention <= 0 {
		retention = defaultOfferRetention
	}

	cutoff := j.now().Add(-retention)
	logger := j.logger().With(slog.Time("cutoff", cutoff))
	logger.Info("starting offer sweep")

	removed, err := j.sweep(ctx, cutoff)
	if err != nil {
		resultErr = err
		logger.Error("sweep expired offers", slog.Any("error", err))
		return resultErr
	}
	j.metrics().AddExpiredOffers(removed)

	if removed > 0 && j.Cache != nil {
		if err := j.Cache.Bump(ctx); err != nil {
			logger.Warn("bump pricing cache after sweep", slog.Any("error", err))
		}
	}

	logger.Info("completed offer sweep", slog.Int("removed", removed))
	return resultErr
}

func (j *OfferSweepJob) sweep(ctx context.Context, cutoff time.Time) (int, error) {
	if j.Pool == nil {
		return 0, errors.New("offer sweep: pool not configured")
	}
	tag, err := j.Pool.Exec(ctx, `DELETE FROM offers WHERE ends_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (j *OfferSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskOfferSweep))
	}
	return slog.Default().With(slog.String("job", TaskOfferSweep))
}

func (j *OfferSweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *OfferSweepJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
