package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOfferSweep archives offers whose window ended long ago.
	TaskOfferSweep = "pricing:offer_sweep"
	// TaskCompareWarmup pre-populates the comparison cache for popular products.
	TaskCompareWarmup = "pricing:compare_warmup"
)

// OfferSweepPayload configures a single sweep run.
type OfferSweepPayload struct {
	// RetentionHours keeps ended offers queryable for this many hours
	// before the sweep removes them. Zero falls back to the job default.
	RetentionHours int `json:"retention_hours"`
}

// NewOfferSweepTask constructs an Asynq task for the offer sweep.
func NewOfferSweepTask(payload OfferSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOfferSweep, data), nil
}

// CompareWarmupPayload configures a warmup run.
type CompareWarmupPayload struct {
	// Limit caps how many products get warmed per run. Zero falls back
	// to the job default.
	Limit int `json:"limit"`
}

// NewCompareWarmupTask constructs an Asynq task for the comparison warmup.
func NewCompareWarmupTask(payload CompareWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCompareWarmup, data), nil
}
