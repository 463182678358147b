package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/gymops-erp/gymops/internal/jobs"
	"github.com/gymops-erp/gymops/internal/webhooks"
)

const defaultWebhookRetentionDays = 90

// WebhookCleanupJob prunes old rows from the webhook event log.
type WebhookCleanupJob struct {
	Events  webhooks.EventLog
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewWebhookCleanupJob initialises the cleanup handler.
func NewWebhookCleanupJob(events webhooks.EventLog, logger *slog.Logger, metrics *jobmetrics.Metrics) *WebhookCleanupJob {
	return &WebhookCleanupJob{Events: events, Logger: logger, Metrics: metrics, clock: time.Now}
}

// Handle deletes events older than the retention window.
func (j *WebhookCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Events == nil {
		return errors.New("webhook cleanup: handler not configured")
	}
	var payload WebhookCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionDays <= 0 {
		payload.RetentionDays = defaultWebhookRetentionDays
	}

	tracker := j.Metrics.Track(TaskWebhookCleanup)
	cutoff := j.clock().AddDate(0, 0, -payload.RetentionDays)
	deleted, err := j.Events.Prune(ctx, cutoff)
	if err != nil {
		j.Logger.Error("webhook cleanup failed", slog.Any("error", err))
		return tracker.End(err)
	}
	j.Logger.Info("webhook cleanup done",
		slog.Int64("deleted", deleted),
		slog.Time("cutoff", cutoff))
	return tracker.End(nil)
}
