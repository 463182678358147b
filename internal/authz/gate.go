// Package authz enforces session-based authorization for HTTP handlers.
package authz

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gymops-erp/gymops/internal/access"
	"github.com/gymops-erp/gymops/internal/platform/httpx"
	"github.com/gymops-erp/gymops/internal/shared"
)

// Account is the directory view of an employee used for authorization.
type Account struct {
	ID          int64
	Email       string
	Name        string
	AccessLevel access.Role
	Active      bool
}

// EmployeeDirectory resolves employee accounts for authorization checks.
type EmployeeDirectory interface {
	GetAccount(ctx context.Context, id int64) (*Account, error)
}

// Subject is the resolved, authorized caller handed to downstream
// handlers.
type Subject struct {
	EmployeeID int64
	Email      string
	Name       string
	Role       access.Role
}

type subjectContextKey struct{}

// ContextWithSubject stores the resolved subject in context.
func ContextWithSubject(ctx context.Context, subject *Subject) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, subject)
}

// SubjectFromContext extracts the resolved subject from context.
func SubjectFromContext(ctx context.Context) *Subject {
	subject, _ := ctx.Value(subjectContextKey{}).(*Subject)
	return subject
}

// Gate resolves sessions and checks permissions. It never mutates
// application state beyond clearing invalid session records.
type Gate struct {
	directory EmployeeDirectory
	logger    *slog.Logger
	now       func() time.Time
}

// NewGate constructs a Gate.
func NewGate(directory EmployeeDirectory, logger *slog.Logger) *Gate {
	return &Gate{directory: directory, logger: logger, now: time.Now}
}

// Resolve authenticates the request's session and confirms the account
// is still active. Expired or invalid sessions are cleared so they are
// treated as absent for the remainder of the request.
func (g *Gate) Resolve(r *http.Request) (*Subject, error) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.Record() == nil {
		return nil, httpx.ErrUnauthorized
	}
	record := sess.Record()
	if record.Expired(g.now()) {
		sess.ClearRecord()
		return nil, fmt.Errorf("%w: session expired", httpx.ErrUnauthorized)
	}

	account, err := g.directory.GetAccount(r.Context(), record.EmployeeID)
	if err != nil || account == nil || !account.Active {
		sess.ClearRecord()
		if err != nil && g.logger != nil {
			g.logger.Warn("authz account lookup", slog.Int64("employee_id", record.EmployeeID), slog.Any("error", err))
		}
		return nil, httpx.ErrUnauthorized
	}

	return &Subject{
		EmployeeID: account.ID,
		Email:      account.Email,
		Name:       account.Name,
		Role:       account.AccessLevel,
	}, nil
}

// RequirePermission allows the request only when the caller's role holds
// the permission.
func (g *Gate) RequirePermission(perm access.Permission) func(http.Handler) http.Handler {
	return g.middleware(func(subject *Subject) bool {
		return access.HasPermission(subject.Role, perm)
	})
}

// RequireAnyPermission allows the request when the caller holds at least
// one of the permissions.
func (g *Gate) RequireAnyPermission(perms ...access.Permission) func(http.Handler) http.Handler {
	return g.middleware(func(subject *Subject) bool {
		for _, perm := range perms {
			if access.HasPermission(subject.Role, perm) {
				return true
			}
		}
		return false
	})
}

// RequireAccessLevel allows the request when the caller's rank is at or
// above the minimum role's rank.
func (g *Gate) RequireAccessLevel(minRole access.Role) func(http.Handler) http.Handler {
	return g.middleware(func(subject *Subject) bool {
		return access.Rank(subject.Role) <= access.Rank(minRole)
	})
}

func (g *Gate) middleware(allowed func(*Subject) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := g.Resolve(r)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			if !allowed(subject) {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), subject)))
		})
	}
}

// CanManageTargetEmployee reports whether the actor may manage the
// target employee's credentials, based on the target's current role.
// Read-only: it performs no writes.
func (g *Gate) CanManageTargetEmployee(ctx context.Context, actor *Subject, targetID int64) (bool, error) {
	if actor == nil {
		return false, httpx.ErrUnauthorized
	}
	target, err := g.directory.GetAccount(ctx, targetID)
	if err != nil {
		return false, err
	}
	if target == nil {
		return false, httpx.ErrNotFound
	}
	return access.CanManage(actor.Role, target.AccessLevel), nil
}
