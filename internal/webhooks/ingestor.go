// Package webhooks verifies and applies inbound signed provider
// notifications.
package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gymops-erp/gymops/internal/payments"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// StatusUpdate is the normalized result of a provider payload.
type StatusUpdate struct {
	Reference  string
	ExternalID string
	Status     string
	Raw        []byte
}

// PaymentStore is the payment surface the ingestor needs.
type PaymentStore interface {
	GetByReference(ctx context.Context, reference string) (*payments.Payment, error)
	MarkStatus(ctx context.Context, payment *payments.Payment, status string, rawPayload []byte) (*payments.Payment, error)
}

// Ingestor verifies and applies payment provider webhooks.
type Ingestor struct {
	store  PaymentStore
	secret string
	logger *slog.Logger
}

// NewIngestor constructs an Ingestor. An empty secret disables
// signature enforcement (dev mode).
func NewIngestor(store PaymentStore, secret string, logger *slog.Logger) *Ingestor {
	return &Ingestor{store: store, secret: secret, logger: logger}
}

// VerifySignature checks the HMAC-SHA256 hex signature over the raw
// body. With no secret configured every payload is accepted, loudly.
func (i *Ingestor) VerifySignature(rawBody []byte, signature string) error {
	if i.secret == "" {
		i.logger.Warn("webhook secret not configured, accepting unsigned payload")
		return nil
	}
	mac := hmac.New(sha256.New, []byte(i.secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// Field aliases across the provider naming conventions we accept,
// tried in order.
var (
	referenceAliases = []string{"reference", "payment_reference", "ref"}
	externalAliases  = []string{"payment_id", "external_id", "id"}
	statusAliases    = []string{"status", "payment_status", "state"}
)

func firstString(payload map[string]json.RawMessage, aliases []string) string {
	for _, alias := range aliases {
		raw, ok := payload[alias]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err == nil && value != "" {
			return value
		}
		// Some providers send ids as bare numbers.
		var number json.Number
		if err := json.Unmarshal(raw, &number); err == nil && number.String() != "" {
			return number.String()
		}
	}
	return ""
}

// ParseStatusUpdate extracts a status update from a provider payload.
// Missing required fields yield (nil, false) rather than an error.
func (i *Ingestor) ParseStatusUpdate(rawBody []byte) (*StatusUpdate, bool) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, false
	}
	update := StatusUpdate{
		Reference:  firstString(payload, referenceAliases),
		ExternalID: firstString(payload, externalAliases),
		Status:     normalizeStatus(firstString(payload, statusAliases)),
		Raw:        rawBody,
	}
	if update.Reference == "" || update.Status == "" {
		return nil, false
	}
	return &update, true
}

func normalizeStatus(raw string) string {
	switch raw {
	case "paid", "succeeded", "completed", "approved":
		return payments.StatusPaid
	case "failed", "declined", "rejected":
		return payments.StatusFailed
	case "refunded", "reversed":
		return payments.StatusRefunded
	case "pending", "processing":
		return payments.StatusPending
	}
	if payments.KnownStatus(raw) {
		return raw
	}
	return ""
}

// ApplyStatusUpdate resolves the payment by reference and applies the
// transition. Replays of an already-applied status are no-op
// successes; the paid date is only ever set once.
func (i *Ingestor) ApplyStatusUpdate(ctx context.Context, update *StatusUpdate) error {
	payment, err := i.store.GetByReference(ctx, update.Reference)
	if err != nil {
		return err
	}
	if payment.Status == update.Status {
		return nil
	}
	_, err = i.store.MarkStatus(ctx, payment, update.Status, update.Raw)
	return err
}
