package schedule

import (
	"context"
	"errors"
	"log/slog"
)

var (
	ErrInvalidTimeRange = errors.New("session end must be after start")
	ErrRoomConflict     = errors.New("room already booked for that time")
)

// Service holds scheduling rules.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Get(ctx context.Context, id int64) (*ClassSession, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListSessionsRequest) ([]ClassSession, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, req CreateSessionRequest) (*ClassSession, error) {
	if req.EndMinutes <= req.StartMinutes {
		return nil, ErrInvalidTimeRange
	}
	overlap, err := s.repo.HasOverlap(ctx, req.Room, req.Weekday, req.StartMinutes, req.EndMinutes, 0)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, ErrRoomConflict
	}
	id, err := s.repo.Create(ctx, ClassSession{
		Title:        req.Title,
		TrainerID:    req.TrainerID,
		Room:         req.Room,
		Weekday:      req.Weekday,
		StartMinutes: req.StartMinutes,
		EndMinutes:   req.EndMinutes,
		Capacity:     req.Capacity,
		Active:       true,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateSessionRequest) (*ClassSession, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Apply the request over the stored slot, then re-check the
	// resulting room/time against the rest of the schedule.
	next := *current
	updates := make(map[string]any)
	if req.Title != nil {
		next.Title = *req.Title
		updates["title"] = *req.Title
	}
	if req.TrainerID != nil {
		next.TrainerID = *req.TrainerID
		updates["trainer_id"] = *req.TrainerID
	}
	if req.Room != nil {
		next.Room = *req.Room
		updates["room"] = *req.Room
	}
	if req.Weekday != nil {
		next.Weekday = *req.Weekday
		updates["weekday"] = *req.Weekday
	}
	if req.StartMinutes != nil {
		next.StartMinutes = *req.StartMinutes
		updates["start_minutes"] = *req.StartMinutes
	}
	if req.EndMinutes != nil {
		next.EndMinutes = *req.EndMinutes
		updates["end_minutes"] = *req.EndMinutes
	}
	if req.Capacity != nil {
		next.Capacity = *req.Capacity
		updates["capacity"] = *req.Capacity
	}
	if req.Active != nil {
		next.Active = *req.Active
		updates["active"] = *req.Active
	}
	if len(updates) == 0 {
		return current, nil
	}

	if next.EndMinutes <= next.StartMinutes {
		return nil, ErrInvalidTimeRange
	}
	if next.Active {
		overlap, err := s.repo.HasOverlap(ctx, next.Room, next.Weekday, next.StartMinutes, next.EndMinutes, id)
		if err != nil {
			return nil, err
		}
		if overlap {
			return nil, ErrRoomConflict
		}
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
