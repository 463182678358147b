package members

import (
	"context"
	"fmt"
	"log/slog"
)

// SyncNotifier receives fire-and-forget notifications after local
// writes. Push failures never surface to the caller.
type SyncNotifier interface {
	MemberChanged(ctx context.Context, id int64)
}

// Service holds member business rules.
type Service struct {
	repo     Repository
	notifier SyncNotifier
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, notifier SyncNotifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

func (s *Service) Get(ctx context.Context, id int64) (*Member, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListMembersRequest) ([]Member, int, error) {
	return s.repo.List(ctx, req)
}

// Create inserts the member and triggers a board push. Creating the
// local record always succeeds independently of sync availability.
func (s *Service) Create(ctx context.Context, req CreateMemberRequest) (*Member, error) {
	status := req.Status
	if status == "" {
		status = StatusActive
	}
	id, err := s.repo.Create(ctx, Member{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		BirthDate: req.BirthDate,
		Status:    status,
		Notes:     req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}
	if s.notifier != nil {
		s.notifier.MemberChanged(ctx, id)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateMemberRequest) (*Member, error) {
	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.BirthDate != nil {
		updates["birth_date"] = *req.BirthDate
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
		s.notifier.MemberChanged(ctx, id)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
