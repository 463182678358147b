package webhooks

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Event outcomes.
const (
	OutcomeProcessed = "processed"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

// Event is one received webhook, good or bad.
type Event struct {
	Provider     string
	EventType    string
	Signature    string
	Payload      []byte
	Outcome      string
	ErrorMessage string
}

// EventLog is the append-only record of received webhooks.
type EventLog interface {
	Append(ctx context.Context, event Event) error
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

type eventLog struct {
	pool *pgxpool.Pool
}

// NewEventLog constructs a PostgreSQL event log.
func NewEventLog(pool *pgxpool.Pool) EventLog {
	return &eventLog{pool: pool}
}

func (l *eventLog) Append(ctx context.Context, event Event) error {
	payload := event.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	_, err := l.pool.Exec(ctx, `
		INSERT INTO webhook_events (provider, event_type, signature, payload, outcome, error_message, received_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, NULLIF($6, ''), NOW())`,
		event.Provider, event.EventType, event.Signature, string(payload), event.Outcome, event.ErrorMessage,
	)
	return err
}

func (l *eventLog) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := l.pool.Exec(ctx, `DELETE FROM webhook_events WHERE received_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
