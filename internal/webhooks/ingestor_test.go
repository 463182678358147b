package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymops-erp/gymops/internal/payments"
)

type stubStore struct {
	payments   map[string]*payments.Payment
	markCalls  int
	lastStatus string
}

func newStubStore(seed ...*payments.Payment) *stubStore {
	store := &stubStore{payments: make(map[string]*payments.Payment)}
	for _, p := range seed {
		store.payments[p.Reference] = p
	}
	return store
}

func (s *stubStore) GetByReference(ctx context.Context, reference string) (*payments.Payment, error) {
	payment, ok := s.payments[reference]
	if !ok {
		return nil, payments.ErrNotFound
	}
	copied := *payment
	return &copied, nil
}

func (s *stubStore) MarkStatus(ctx context.Context, payment *payments.Payment, status string, rawPayload []byte) (*payments.Payment, error) {
	s.markCalls++
	s.lastStatus = status
	stored := s.payments[payment.Reference]
	stored.Status = status
	if status == payments.StatusPaid && stored.PaidDate == nil {
		now := time.Now()
		stored.PaidDate = &now
	}
	copied := *stored
	return &copied, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	ingestor := NewIngestor(newStubStore(), "topsecret", discardLogger())
	body := []byte(`{"reference":"PAY-1","status":"paid"}`)

	assert.NoError(t, ingestor.VerifySignature(body, sign("topsecret", body)))
	assert.ErrorIs(t, ingestor.VerifySignature(body, "deadbeef"), ErrInvalidSignature)
	assert.ErrorIs(t, ingestor.VerifySignature(body, sign("othersecret", body)), ErrInvalidSignature)
}

func TestVerifySignatureNoSecretAccepts(t *testing.T) {
	ingestor := NewIngestor(newStubStore(), "", discardLogger())
	assert.NoError(t, ingestor.VerifySignature([]byte(`{}`), ""))
	assert.NoError(t, ingestor.VerifySignature([]byte(`{}`), "whatever"))
}

func TestParseStatusUpdateAliases(t *testing.T) {
	ingestor := NewIngestor(newStubStore(), "", discardLogger())

	cases := []struct {
		name    string
		body    string
		ref     string
		ext     string
		status  string
	}{
		{"canonical", `{"reference":"PAY-1","payment_id":"ext-1","status":"paid"}`, "PAY-1", "ext-1", payments.StatusPaid},
		{"alternate names", `{"payment_reference":"PAY-2","external_id":"ext-2","payment_status":"failed"}`, "PAY-2", "ext-2", payments.StatusFailed},
		{"short names", `{"ref":"PAY-3","id":"ext-3","state":"refunded"}`, "PAY-3", "ext-3", payments.StatusRefunded},
		{"numeric id", `{"reference":"PAY-4","id":12345,"status":"succeeded"}`, "PAY-4", "12345", payments.StatusPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			update, ok := ingestor.ParseStatusUpdate([]byte(tc.body))
			require.True(t, ok)
			assert.Equal(t, tc.ref, update.Reference)
			assert.Equal(t, tc.ext, update.ExternalID)
			assert.Equal(t, tc.status, update.Status)
		})
	}
}

func TestParseStatusUpdateMissingFields(t *testing.T) {
	ingestor := NewIngestor(newStubStore(), "", discardLogger())

	for _, body := range []string{
		`{"status":"paid"}`,
		`{"reference":"PAY-1"}`,
		`{"reference":"PAY-1","status":"galactic"}`,
		`not json`,
	} {
		_, ok := ingestor.ParseStatusUpdate([]byte(body))
		assert.False(t, ok, body)
	}
}

func TestApplyStatusUpdateIdempotent(t *testing.T) {
	store := newStubStore(&payments.Payment{ID: 1, Reference: "PAY-1", Status: payments.StatusPending})
	ingestor := NewIngestor(store, "", discardLogger())

	update, ok := ingestor.ParseStatusUpdate([]byte(`{"reference":"PAY-1","status":"paid"}`))
	require.True(t, ok)

	require.NoError(t, ingestor.ApplyStatusUpdate(context.Background(), update))
	assert.Equal(t, 1, store.markCalls)
	firstPaid := store.payments["PAY-1"].PaidDate
	require.NotNil(t, firstPaid)

	// Replaying the identical webhook applies nothing.
	require.NoError(t, ingestor.ApplyStatusUpdate(context.Background(), update))
	assert.Equal(t, 1, store.markCalls)
	assert.Equal(t, firstPaid, store.payments["PAY-1"].PaidDate)
}

func TestApplyStatusUpdateUnknownReference(t *testing.T) {
	ingestor := NewIngestor(newStubStore(), "", discardLogger())
	update := &StatusUpdate{Reference: "PAY-404", Status: payments.StatusPaid}
	assert.ErrorIs(t, ingestor.ApplyStatusUpdate(context.Background(), update), payments.ErrNotFound)
}
