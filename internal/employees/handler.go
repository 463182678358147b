package employees

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gymops-erp/gymops/internal/access"
	"github.com/gymops-erp/gymops/internal/authz"
	"github.com/gymops-erp/gymops/internal/platform/httpx"
	"github.com/gymops-erp/gymops/internal/shared"
)

// employeeView is the API payload for an employee. SalaryCents is only
// populated for callers holding the salary permission.
type employeeView struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone,omitempty"`
	AccessLevel access.Role       `json:"access_level"`
	SalaryCents *int64            `json:"salary_cents,omitempty"`
	Active      bool              `json:"active"`
	HasLogin    bool              `json:"has_login"`
	SyncStatus  shared.SyncStatus `json:"sync_status"`
	SyncError   *string           `json:"sync_error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func viewOf(e *Employee, includeSalary bool) employeeView {
	v := employeeView{
		ID:          e.ID,
		Name:        e.Name,
		Email:       e.Email,
		AccessLevel: e.AccessLevel,
		Active:      e.Active,
		HasLogin:    e.Username != nil && *e.Username != "",
		SyncStatus:  e.SyncStatus,
		SyncError:   e.SyncError,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.Phone != nil {
		v.Phone = *e.Phone
	}
	if includeSalary {
		v.SalaryCents = e.SalaryCents
	}
	return v
}

// Handler wires employee CRUD and credential endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      *authz.Gate
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, gate *authz.Gate) *Handler {
	return &Handler{logger: logger, service: service, gate: gate, validator: validator.New()}
}

// MountRoutes registers employee routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAnyPermission(access.PermEmployeesAll, access.PermEmployeesLower))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/credentials", h.setCredentials)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	req := ListEmployeesRequest{Page: page, PerPage: perPage}
	if v := r.URL.Query().Get("access_level"); v != "" {
		role := string(access.NormalizeRole(v))
		req.AccessLevel = &role
	}
	if v := r.URL.Query().Get("search"); v != "" {
		req.Search = &v
	}
	if v := r.URL.Query().Get("active"); v != "" {
		active := v == "true" || v == "1"
		req.Active = &active
	}

	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list employees", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	includeSalary := h.callerSeesSalaries(r)
	views := make([]employeeView, 0, len(list))
	for i := range list {
		views = append(views, viewOf(&list[i], includeSalary))
	}
	httpx.OKPage(w, views, shared.NewPagination(page, perPage, total))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	emp, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, viewOf(emp, h.callerSeesSalaries(r)))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	subject := authz.SubjectFromContext(r.Context())
	if subject == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	// Nobody creates an account they could not manage afterwards.
	if !access.CanManage(subject.Role, access.NormalizeRole(req.AccessLevel)) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	emp, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, viewOf(emp, h.callerSeesSalaries(r)))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req UpdateEmployeeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if !h.canManageTarget(w, r, id) {
		return
	}
	subject := authz.SubjectFromContext(r.Context())
	if req.AccessLevel != nil && !access.CanManage(subject.Role, access.NormalizeRole(*req.AccessLevel)) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	emp, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, viewOf(emp, h.callerSeesSalaries(r)))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if !h.canManageTarget(w, r, id) {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]int64{"deactivated": id})
}

func (h *Handler) setCredentials(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req SetCredentialsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if !h.canManageTarget(w, r, id) {
		return
	}
	if err := h.service.SetCredentials(r.Context(), id, req); err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]int64{"credentials_set": id})
}

// canManageTarget enforces the role hierarchy against the target
// employee and writes an error response when the check fails.
func (h *Handler) canManageTarget(w http.ResponseWriter, r *http.Request, targetID int64) bool {
	subject := authz.SubjectFromContext(r.Context())
	if subject == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return false
	}
	ok, err := h.gate.CanManageTargetEmployee(r.Context(), subject, targetID)
	if err != nil {
		h.respondServiceError(w, err)
		return false
	}
	if !ok {
		httpx.RespondError(w, httpx.ErrForbidden)
		return false
	}
	return true
}

func (h *Handler) callerSeesSalaries(r *http.Request) bool {
	subject := authz.SubjectFromContext(r.Context())
	return subject != nil && access.HasPermission(subject.Role, access.PermSalariesView)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if errors.Is(err, ErrDuplicate) {
		httpx.RespondError(w, httpx.ErrConflict)
		return
	}
	h.logger.Error("employees handler", slog.Any("error", err))
	httpx.RespondError(w, err)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
