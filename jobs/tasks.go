// Package jobs runs the ledger's background work on asynq: today the
// monthly depreciation posting.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/accounting/assets"
	"github.com/meridian-erp/meridian-erp/internal/observability"
)

const (
	QueueDefault = "default"

	// TaskDepreciation posts one month of straight-line depreciation.
	TaskDepreciation = "ledger:depreciate"
)

// DepreciationPayload targets one month. Empty means the current month,
// which is what the scheduler enqueues.
type DepreciationPayload struct {
	MonthKey string `json:"month_key,omitempty"`
}

// NewDepreciationTask builds the task for a given month key.
func NewDepreciationTask(monthKey string) (*asynq.Task, error) {
	payload, err := json.Marshal(DepreciationPayload{MonthKey: monthKey})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDepreciation, payload), nil
}

// DepreciationHandler adapts the assets service to an asynq handler.
type DepreciationHandler struct {
	service *assets.Service
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewDepreciationHandler(service *assets.Service, logger *slog.Logger, metrics *observability.Metrics) *DepreciationHandler {
	return &DepreciationHandler{service: service, logger: logger, metrics: metrics}
}

func (h *DepreciationHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload DepreciationPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("jobs: decode depreciation payload: %w", err)
		}
	}
	asOf, err := resolveMonth(payload.MonthKey, time.Now())
	if err != nil {
		return err
	}

	var tracker *observability.Tracker
	if h.metrics != nil {
		tracker = h.metrics.Track(TaskDepreciation)
	}
	result, err := h.service.RunMonthly(ctx, asOf)
	if tracker != nil {
		tracker.Done(err)
	}
	if err != nil {
		return fmt.Errorf("jobs: depreciation run %s: %w", result.MonthKey, err)
	}
	h.logger.Info("depreciation task finished",
		"month", result.MonthKey, "posted", result.Posted, "skipped", result.Skipped)
	return nil
}

// resolveMonth turns a YYYYMM key into that month's last day, the date
// depreciation entries are posted on. Empty keys resolve to now's month.
func resolveMonth(monthKey string, now time.Time) (time.Time, error) {
	if monthKey == "" {
		monthKey = now.Format("200601")
	}
	parsed, err := time.Parse("200601", monthKey)
	if err != nil {
		return time.Time{}, fmt.Errorf("jobs: invalid month key %q", monthKey)
	}
	return parsed.AddDate(0, 1, -1), nil
}
