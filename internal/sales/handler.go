package sales

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
	"github.com/gymops-erp/gymops/internal/products"
	"github.com/gymops-erp/gymops/internal/shared"
)

// Handler wires sale endpoints.
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

// MountRoutes registers sale routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequirePermission(access.PermSalesCreate))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/", h.create)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	req := ListSalesRequest{Page: page, PerPage: perPage}
	for key, dst := range map[string]**int64{"member_id": &req.MemberID, "employee_id": &req.EmployeeID} {
		if v := r.URL.Query().Get(key); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				httpx.RespondError(w, httpx.ErrValidation)
				return
			}
			*dst = &id
		}
	}
	for key, dst := range map[string]**time.Time{"from": &req.From, "to": &req.To} {
		if v := r.URL.Query().Get(key); v != "" {
			ts, err := time.Parse("2006-01-02", v)
			if err != nil {
				httpx.RespondError(w, httpx.ErrValidation)
				return
			}
			*dst = &ts
		}
	}

	result, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OKPage(w, result, shared.NewPagination(page, perPage, total))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	sale, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, sale)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
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
	if req.DiscountCents > 0 && !access.HasPermission(subject.Role, access.PermDiscountApply) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	sale, err := h.service.Create(r.Context(), subject.EmployeeID, req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, sale)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, products.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrDiscountTooLarge), errors.Is(err, ErrProductInactive):
		httpx.RespondError(w, httpx.ErrValidation)
	case errors.Is(err, products.ErrInsufficientStock):
		httpx.RespondError(w, httpx.ErrConflict)
	default:
		h.logger.Error("sales handler", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
