package boardsync

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gymops-erp/gymops/internal/access"
	"github.com/gymops-erp/gymops/internal/authz"
	"github.com/gymops-erp/gymops/internal/platform/httpx"
)

// Handler wires sync management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	gate    *authz.Gate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, gate *authz.Gate) *Handler {
	return &Handler{logger: logger, service: service, gate: gate}
}

// MountRoutes registers sync routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequirePermission(access.PermSyncManage))
		r.Post("/", h.trigger)
		r.Get("/status", h.status)
		r.Get("/stats", h.stats)
	})
}

type triggerRequest struct {
	Type   string `json:"type"`
	Entity string `json:"entity,omitempty"`
	ID     string `json:"id,omitempty"`
}

func (h *Handler) trigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	switch req.Type {
	case "full", "":
		reports, err := h.service.FullSync(r.Context())
		h.respondSync(w, reports, err)
	case "to_monday":
		if !validEntity(req.Entity) {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		report, err := h.service.SyncToBoard(r.Context(), req.Entity)
		h.respondSync(w, report, err)
	case "from_monday":
		if !validEntity(req.Entity) {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		report, err := h.service.SyncFromBoard(r.Context(), req.Entity)
		h.respondSync(w, report, err)
	case "bidirectional":
		if !validEntity(req.Entity) {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		report, err := h.service.BidirectionalSync(r.Context(), req.Entity)
		h.respondSync(w, report, err)
	case "single":
		if !validEntity(req.Entity) {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		id, err := strconv.ParseInt(req.ID, 10, 64)
		if err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		if err := h.service.SyncOne(r.Context(), req.Entity, id); err != nil {
			h.respondSyncError(w, err)
			return
		}
		httpx.OK(w, http.StatusOK, map[string]any{"entity": req.Entity, "id": id})
	default:
		httpx.RespondError(w, httpx.ErrValidation)
	}
}

func (h *Handler) respondSync(w http.ResponseWriter, data any, err error) {
	if err != nil {
		h.respondSyncError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, data)
}

func (h *Handler) respondSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSyncInProgress):
		httpx.RespondError(w, httpx.ErrConflict)
	case errors.Is(err, ErrRecordNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrUnknownEntity):
		httpx.RespondError(w, httpx.ErrValidation)
	default:
		h.logger.Error("sync trigger", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrRemoteUnavailable)
	}
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	entity, inProgress := h.service.Run().Current()
	payload := map[string]any{
		"in_progress": inProgress,
		"connected":   h.service.ValidateConnection(r.Context()),
	}
	if inProgress {
		payload["entity"] = entity
		payload["started_at"] = h.service.Run().StartedAt()
	}
	httpx.OK(w, http.StatusOK, payload)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("sync stats", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, stats)
}

func validEntity(entity string) bool {
	_, ok := entityTables[entity]
	return ok
}
