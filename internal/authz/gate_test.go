package authz_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymops-erp/gymops/internal/access"
	"github.com/gymops-erp/gymops/internal/authz"
	"github.com/gymops-erp/gymops/internal/shared"
	_ "github.com/gymops-erp/gymops/internal/testing/guard"
)

type stubDirectory struct {
	accounts map[int64]*authz.Account
	err      error
}

func (s *stubDirectory) GetAccount(ctx context.Context, id int64) (*authz.Account, error) {
	if s.err != nil {
		return nil, s.err
	}
	account, ok := s.accounts[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return account, nil
}

func newRequestWithSession(record *shared.SessionRecord) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	sess := &shared.Session{ID: "test-session"}
	if record != nil {
		sess.SetRecord(*record)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func activeRecord(id int64, role access.Role) *shared.SessionRecord {
	return &shared.SessionRecord{
		EmployeeID:  id,
		Email:       "staff@gym.local",
		Name:        "Staff",
		AccessLevel: role,
		LoginAt:     time.Now().Add(-time.Hour),
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func TestResolveNoSession(t *testing.T) {
	gate := authz.NewGate(&stubDirectory{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	_, err := gate.Resolve(req)
	require.Error(t, err)
}

func TestResolveExpiredSession(t *testing.T) {
	dir := &stubDirectory{accounts: map[int64]*authz.Account{
		7: {ID: 7, AccessLevel: access.RoleGerente, Active: true},
	}}
	gate := authz.NewGate(dir, nil)

	record := activeRecord(7, access.RoleGerente)
	record.ExpiresAt = time.Now().Add(-time.Minute)
	req := newRequestWithSession(record)

	_, err := gate.Resolve(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session expired")

	// The record is cleared, so a second check sees no session at all.
	sess := shared.SessionFromContext(req.Context())
	assert.Nil(t, sess.Record())
	_, err = gate.Resolve(req)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "session expired")
}

func TestResolveInactiveAccount(t *testing.T) {
	dir := &stubDirectory{accounts: map[int64]*authz.Account{
		3: {ID: 3, AccessLevel: access.RoleVentas, Active: false},
	}}
	gate := authz.NewGate(dir, nil)
	req := newRequestWithSession(activeRecord(3, access.RoleVentas))

	_, err := gate.Resolve(req)
	require.Error(t, err)
	sess := shared.SessionFromContext(req.Context())
	assert.Nil(t, sess.Record())
}

func TestRequirePermissionDenied(t *testing.T) {
	dir := &stubDirectory{accounts: map[int64]*authz.Account{
		4: {ID: 4, AccessLevel: access.RoleVentas, Active: true},
	}}
	gate := authz.NewGate(dir, nil)

	var reached bool
	handler := gate.RequirePermission(access.PermSalariesView)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := newRequestWithSession(activeRecord(4, access.RoleVentas))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequirePermissionAllowedSetsSubject(t *testing.T) {
	dir := &stubDirectory{accounts: map[int64]*authz.Account{
		1: {ID: 1, Email: "boss@gym.local", Name: "Boss", AccessLevel: access.RoleDireccion, Active: true},
	}}
	gate := authz.NewGate(dir, nil)

	var subject *authz.Subject
	handler := gate.RequirePermission(access.PermSalariesView)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = authz.SubjectFromContext(r.Context())
	}))

	req := newRequestWithSession(activeRecord(1, access.RoleDireccion))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	require.NotNil(t, subject)
	assert.Equal(t, int64(1), subject.EmployeeID)
	assert.Equal(t, access.RoleDireccion, subject.Role)
}

func TestRequireAnyPermission(t *testing.T) {
	dir := &stubDirectory{accounts: map[int64]*authz.Account{
		5: {ID: 5, AccessLevel: access.RoleRecepcion, Active: true},
	}}
	gate := authz.NewGate(dir, nil)

	handler := gate.RequireAnyPermission(access.PermAuditView, access.PermMembersView)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := newRequestWithSession(activeRecord(5, access.RoleRecepcion))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	assert.Equal(t, http.StatusNoContent, res.Code)
}

func TestRequireAccessLevel(t *testing.T) {
	dir := &stubDirectory{accounts: map[int64]*authz.Account{
		2: {ID: 2, AccessLevel: access.RoleEntrenador, Active: true},
	}}
	gate := authz.NewGate(dir, nil)

	handler := gate.RequireAccessLevel(access.RoleGerente)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := newRequestWithSession(activeRecord(2, access.RoleEntrenador))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestCanManageTargetEmployee(t *testing.T) {
	dir := &stubDirectory{accounts: map[int64]*authz.Account{
		1: {ID: 1, AccessLevel: access.RoleDireccion, Active: true},
		2: {ID: 2, AccessLevel: access.RoleGerente, Active: true},
	}}
	gate := authz.NewGate(dir, nil)

	gerente := &authz.Subject{EmployeeID: 2, Role: access.RoleGerente}
	ok, err := gate.CanManageTargetEmployee(context.Background(), gerente, 1)
	require.NoError(t, err)
	assert.False(t, ok, "gerente must never manage direccion")

	direccion := &authz.Subject{EmployeeID: 1, Role: access.RoleDireccion}
	ok, err = gate.CanManageTargetEmployee(context.Background(), direccion, 2)
	require.NoError(t, err)
	assert.True(t, ok)
}
