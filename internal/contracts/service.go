package contracts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var ErrEndBeforeStart = errors.New("contract end date before start date")

// SyncNotifier receives fire-and-forget notifications after local
// writes.
type SyncNotifier interface {
	ContractChanged(ctx context.Context, id int64)
}

// Service holds contract business rules.
type Service struct {
	repo     Repository
	notifier SyncNotifier
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, notifier SyncNotifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

func (s *Service) Get(ctx context.Context, id int64) (*Contract, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListContractsRequest) ([]Contract, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, req CreateContractRequest) (*Contract, error) {
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, ErrEndBeforeStart
	}
	id, err := s.repo.Create(ctx, Contract{
		MemberID:   req.MemberID,
		PlanName:   req.PlanName,
		PriceCents: req.PriceCents,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Status:     StatusActive,
		Notes:      req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create contract: %w", err)
	}
	if s.notifier != nil {
		s.notifier.ContractChanged(ctx, id)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateContractRequest) (*Contract, error) {
	updates := make(map[string]any)
	if req.PlanName != nil {
		updates["plan_name"] = *req.PlanName
	}
	if req.PriceCents != nil {
		updates["price_cents"] = *req.PriceCents
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, id)
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.ContractChanged(ctx, id)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
