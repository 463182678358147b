package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBoardFullSync runs a full bidirectional board reconciliation.
	TaskBoardFullSync = "board:full_sync"
	// TaskWebhookCleanup prunes old webhook event rows.
	TaskWebhookCleanup = "webhooks:cleanup"
)

// BoardFullSyncPayload configures a board sync run.
type BoardFullSyncPayload struct {
	Trigger string `json:"trigger,omitempty"`
}

// NewBoardFullSyncTask constructs the board sync task.
func NewBoardFullSyncTask(payload BoardFullSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBoardFullSync, data), nil
}

// WebhookCleanupPayload configures webhook event retention.
type WebhookCleanupPayload struct {
	RetentionDays int `json:"retention_days,omitempty"`
}

// NewWebhookCleanupTask constructs the cleanup task.
func NewWebhookCleanupTask(payload WebhookCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWebhookCleanup, data), nil
}
