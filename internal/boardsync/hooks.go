package boardsync

import (
	"context"
	"log/slog"
	"time"
)

// Hooks adapts the reconciler to the entity services' notifier
// interfaces. Notifications push a single record with a short timeout;
// a failed push only marks the record errored, the local write already
// succeeded.
type Hooks struct {
	service *Service
	logger  *slog.Logger
	timeout time.Duration
}

// NewHooks constructs Hooks.
func NewHooks(service *Service, logger *slog.Logger) *Hooks {
	return &Hooks{service: service, logger: logger, timeout: 10 * time.Second}
}

func (h *Hooks) notify(entity string, id int64) {
	if h == nil || h.service == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()
		if err := h.service.SyncOne(ctx, entity, id); err != nil {
			h.logger.Warn("board push failed",
				slog.String("entity", entity),
				slog.Int64("id", id),
				slog.Any("error", err))
		}
	}()
}

func (h *Hooks) MemberChanged(ctx context.Context, id int64)   { h.notify(EntityMember, id) }
func (h *Hooks) EmployeeChanged(ctx context.Context, id int64) { h.notify(EntityEmployee, id) }
func (h *Hooks) ContractChanged(ctx context.Context, id int64) { h.notify(EntityContract, id) }
func (h *Hooks) PaymentChanged(ctx context.Context, id int64)  { h.notify(EntityPayment, id) }
