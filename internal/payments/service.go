package payments

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SyncNotifier receives fire-and-forget notifications after local
// writes.
type SyncNotifier interface {
	PaymentChanged(ctx context.Context, id int64)
}

// Service holds payment business rules.
type Service struct {
	repo     Repository
	notifier SyncNotifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, notifier SyncNotifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id int64) (*Payment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByReference(ctx context.Context, reference string) (*Payment, error) {
	return s.repo.GetByReference(ctx, reference)
}

func (s *Service) List(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, req CreatePaymentRequest) (*Payment, error) {
	method := req.Method
	if method == "" {
		method = "cash"
	}
	id, err := s.repo.Create(ctx, Payment{
		MemberID:    req.MemberID,
		ContractID:  req.ContractID,
		Reference:   req.Reference,
		ExternalID:  req.ExternalID,
		AmountCents: req.AmountCents,
		Method:      method,
		Status:      StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	if s.notifier != nil {
		s.notifier.PaymentChanged(ctx, id)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdatePaymentRequest) (*Payment, error) {
	updates := make(map[string]any)
	if req.AmountCents != nil {
		updates["amount_cents"] = *req.AmountCents
	}
	if req.Method != nil {
		updates["method"] = *req.Method
	}
	if req.Status != nil {
		// Going through Update (the back-office path) marks paid
		// transitions the same way the webhook path does.
		if *req.Status == StatusPaid {
			return s.markStatus(ctx, id, StatusPaid, nil)
		}
		updates["status"] = *req.Status
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, id)
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.PaymentChanged(ctx, id)
	}
	return s.repo.Get(ctx, id)
}

// MarkStatus applies a status transition idempotently: a payment
// already in the target status is a no-op success, and paid_date is
// only set on the first transition to paid. rawPayload, when present,
// is appended to the payment's metadata trail.
func (s *Service) MarkStatus(ctx context.Context, payment *Payment, status string, rawPayload []byte) (*Payment, error) {
	if payment.Status == status {
		return payment, nil
	}
	return s.markStatus(ctx, payment.ID, status, rawPayload)
}

func (s *Service) markStatus(ctx context.Context, id int64, status string, rawPayload []byte) (*Payment, error) {
	var paidDate *time.Time
	if status == StatusPaid {
		now := s.now()
		paidDate = &now
	}
	if err := s.repo.ApplyStatus(ctx, id, status, paidDate, rawPayload); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.PaymentChanged(ctx, id)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
