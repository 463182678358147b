package webhooks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gymops-erp/gymops/internal/payments"
	"github.com/gymops-erp/gymops/internal/platform/httpx"
)

// SignatureHeader carries the HMAC signature of the raw request body.
const SignatureHeader = "X-Webhook-Signature"

const maxPayloadBytes = 1 << 20

// BoardWebhook handles board-origin webhooks, echoing challenges.
type BoardWebhook interface {
	HandleBoardWebhook(ctx context.Context, payload []byte) ([]byte, error)
}

// Handler receives provider webhooks. These routes are unauthenticated
// by design: verification happens via signature, not session.
type Handler struct {
	logger   *slog.Logger
	ingestor *Ingestor
	board    BoardWebhook
	events   EventLog
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, ingestor *Ingestor, board BoardWebhook, events EventLog) *Handler {
	return &Handler{logger: logger, ingestor: ingestor, board: board, events: events}
}

// MountRoutes registers webhook routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/payments", h.payments)
	r.Post("/board", h.boardEvent)
}

// logEvent appends to the event log. A failed log write is warned and
// swallowed so it never masks the response to the provider.
func (h *Handler) logEvent(ctx context.Context, event Event) {
	if err := h.events.Append(ctx, event); err != nil {
		h.logger.Warn("webhook event log write failed", slog.Any("error", err))
	}
}

func (h *Handler) payments(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	signature := r.Header.Get(SignatureHeader)
	event := Event{Provider: "payments", EventType: "status_update", Signature: signature, Payload: body}

	if err := h.ingestor.VerifySignature(body, signature); err != nil {
		event.Outcome = OutcomeRejected
		event.ErrorMessage = err.Error()
		h.logEvent(r.Context(), event)
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	update, ok := h.ingestor.ParseStatusUpdate(body)
	if !ok {
		event.Outcome = OutcomeRejected
		event.ErrorMessage = "unrecognized payload"
		h.logEvent(r.Context(), event)
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	if err := h.ingestor.ApplyStatusUpdate(r.Context(), update); err != nil {
		event.Outcome = OutcomeError
		event.ErrorMessage = err.Error()
		h.logEvent(r.Context(), event)
		if errors.Is(err, payments.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("apply webhook status", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	event.Outcome = OutcomeProcessed
	h.logEvent(r.Context(), event)
	httpx.OK(w, http.StatusOK, map[string]string{
		"reference": update.Reference,
		"status":    update.Status,
	})
}

func (h *Handler) boardEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	event := Event{Provider: "board", EventType: "item_update", Payload: body}

	response, err := h.board.HandleBoardWebhook(r.Context(), body)
	if err != nil {
		event.Outcome = OutcomeError
		event.ErrorMessage = err.Error()
		h.logEvent(r.Context(), event)
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	event.Outcome = OutcomeProcessed
	h.logEvent(r.Context(), event)
	if response != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(response)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]bool{"received": true})
}
