package employees

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/gymops-erp/gymops/internal/access"
	"github.com/gymops-erp/gymops/internal/authz"
	"github.com/gymops-erp/gymops/internal/shared"
)

// SyncNotifier receives fire-and-forget notifications after local
// writes.
type SyncNotifier interface {
	EmployeeChanged(ctx context.Context, id int64)
}

// AuditRecorder persists an audit trail of staff mutations.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service holds employee business rules.
type Service struct {
	repo     Repository
	notifier SyncNotifier
	audit    AuditRecorder
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, notifier SyncNotifier, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, audit: audit, logger: logger}
}

// recordAudit writes an audit entry. Audit failures never fail the
// operation they describe.
func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	var actorID int64
	if subject := authz.SubjectFromContext(ctx); subject != nil {
		actorID = subject.EmployeeID
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "employee",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*Employee, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListEmployeesRequest) ([]Employee, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, req CreateEmployeeRequest) (*Employee, error) {
	id, err := s.repo.Create(ctx, Employee{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		AccessLevel: access.NormalizeRole(req.AccessLevel),
		SalaryCents: req.SalaryCents,
		Active:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	if s.notifier != nil {
		s.notifier.EmployeeChanged(ctx, id)
	}
	s.recordAudit(ctx, "employee.create", id, map[string]any{"access_level": string(access.NormalizeRole(req.AccessLevel))})
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateEmployeeRequest) (*Employee, error) {
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
	if req.AccessLevel != nil {
		updates["access_level"] = string(access.NormalizeRole(*req.AccessLevel))
	}
	if req.SalaryCents != nil {
		updates["salary_cents"] = *req.SalaryCents
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, id)
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.EmployeeChanged(ctx, id)
	}
	fields := make([]string, 0, len(updates))
	for field := range updates {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	s.recordAudit(ctx, "employee.update", id, map[string]any{"fields": fields})
	return s.repo.Get(ctx, id)
}

// Delete deactivates the account. Rows stay for payroll history.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, "employee.delete", id, nil)
	return nil
}

// SetCredentials hashes and stores login credentials for the target
// employee. The manage-target authorization check happens in the
// handler before this is called.
func (s *Service) SetCredentials(ctx context.Context, id int64, req SetCredentialsRequest) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.SetCredentials(ctx, id, req.Username, string(hash)); err != nil {
		return err
	}
	s.recordAudit(ctx, "employee.credentials", id, map[string]any{"username": req.Username})
	return nil
}
