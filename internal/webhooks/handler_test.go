package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymops-erp/gymops/internal/payments"
)

type recordingEventLog struct {
	events []Event
}

func (l *recordingEventLog) Append(ctx context.Context, event Event) error {
	l.events = append(l.events, event)
	return nil
}

func (l *recordingEventLog) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

type stubBoard struct {
	response []byte
	err      error
	payloads [][]byte
}

func (b *stubBoard) HandleBoardWebhook(ctx context.Context, payload []byte) ([]byte, error) {
	b.payloads = append(b.payloads, payload)
	return b.response, b.err
}

func serve(t *testing.T, handler *Handler, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	router.Route("/webhooks", handler.MountRoutes)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPaymentsWebhookProcessed(t *testing.T) {
	store := newStubStore(&payments.Payment{ID: 1, Reference: "PAY-1", Status: payments.StatusPending})
	events := &recordingEventLog{}
	handler := NewHandler(discardLogger(), NewIngestor(store, "secret", discardLogger()), &stubBoard{}, events)

	body := []byte(`{"reference":"PAY-1","status":"paid"}`)
	rec := serve(t, handler, "/webhooks/payments", body, map[string]string{
		SignatureHeader: sign("secret", body),
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, events.events, 1)
	assert.Equal(t, OutcomeProcessed, events.events[0].Outcome)
	assert.Equal(t, payments.StatusPaid, store.payments["PAY-1"].Status)
}

func TestPaymentsWebhookBadSignatureRejected(t *testing.T) {
	store := newStubStore(&payments.Payment{ID: 1, Reference: "PAY-1", Status: payments.StatusPending})
	events := &recordingEventLog{}
	handler := NewHandler(discardLogger(), NewIngestor(store, "secret", discardLogger()), &stubBoard{}, events)

	body := []byte(`{"reference":"PAY-1","status":"paid"}`)
	rec := serve(t, handler, "/webhooks/payments", body, map[string]string{
		SignatureHeader: "bogus",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Len(t, events.events, 1)
	assert.Equal(t, OutcomeRejected, events.events[0].Outcome)
	assert.Equal(t, payments.StatusPending, store.payments["PAY-1"].Status)
}

func TestPaymentsWebhookUnparseablePayload(t *testing.T) {
	events := &recordingEventLog{}
	handler := NewHandler(discardLogger(), NewIngestor(newStubStore(), "", discardLogger()), &stubBoard{}, events)

	rec := serve(t, handler, "/webhooks/payments", []byte(`{"unrelated":true}`), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, events.events, 1)
	assert.Equal(t, OutcomeRejected, events.events[0].Outcome)
}

func TestPaymentsWebhookUnknownReference(t *testing.T) {
	events := &recordingEventLog{}
	handler := NewHandler(discardLogger(), NewIngestor(newStubStore(), "", discardLogger()), &stubBoard{}, events)

	rec := serve(t, handler, "/webhooks/payments", []byte(`{"reference":"PAY-404","status":"paid"}`), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.Len(t, events.events, 1)
	assert.Equal(t, OutcomeError, events.events[0].Outcome)
}

func TestBoardWebhookChallengePassthrough(t *testing.T) {
	board := &stubBoard{response: []byte(`{"challenge":"xyz"}`)}
	handler := NewHandler(discardLogger(), NewIngestor(newStubStore(), "", discardLogger()), board, &recordingEventLog{})

	rec := serve(t, handler, "/webhooks/board", []byte(`{"challenge":"xyz"}`), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var echoed map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &echoed))
	assert.Equal(t, "xyz", echoed["challenge"])
}

func TestBoardWebhookEventAccepted(t *testing.T) {
	board := &stubBoard{}
	events := &recordingEventLog{}
	handler := NewHandler(discardLogger(), NewIngestor(newStubStore(), "", discardLogger()), board, events)

	body := []byte(`{"event":{"boardId":101,"pulseId":42,"pulseName":"Ana"}}`)
	rec := serve(t, handler, "/webhooks/board", body, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, board.payloads, 1)
	assert.JSONEq(t, string(body), string(board.payloads[0]))
	require.Len(t, events.events, 1)
	assert.Equal(t, OutcomeProcessed, events.events[0].Outcome)
}
