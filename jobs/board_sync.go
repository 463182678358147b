package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/gymops-erp/gymops/internal/boardsync"
	jobmetrics "github.com/gymops-erp/gymops/internal/jobs"
)

// BoardSyncJob runs the nightly full board reconciliation.
type BoardSyncJob struct {
	Service *boardsync.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewBoardSyncJob initialises the board sync handler.
func NewBoardSyncJob(service *boardsync.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *BoardSyncJob {
	return &BoardSyncJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle executes a full sync. A run already in progress is a skip,
// not a retryable failure.
func (j *BoardSyncJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("board sync: handler not configured")
	}
	var payload BoardFullSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskBoardFullSync)
	reports, err := j.Service.FullSync(ctx)
	if errors.Is(err, boardsync.ErrSyncInProgress) {
		j.Logger.Info("board sync skipped, run already active")
		_ = tracker.End(nil)
		return nil
	}
	if err != nil {
		j.Logger.Error("board sync failed", slog.Any("error", err))
		return tracker.End(err)
	}

	for entity, report := range reports {
		j.Metrics.AddSynced(entity, "push", report.Created+report.Updated)
		j.Metrics.AddSynced(entity, "pull", report.Pulled)
		j.Logger.Info("board sync entity done",
			slog.String("entity", entity),
			slog.Int("created", report.Created),
			slog.Int("updated", report.Updated),
			slog.Int("pulled", report.Pulled),
			slog.Int("failed", report.Failed))
	}
	return tracker.End(nil)
}
