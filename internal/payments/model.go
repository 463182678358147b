package payments

import (
	"encoding/json"
	"time"

	"github.com/gymops-erp/gymops/internal/shared"
)

// Payment is a single payment record. Reference is the unique business
// key used by webhook providers; the metadata column is an append-only
// JSON array of raw provider payloads.
type Payment struct {
	ID           int64             `json:"id"`
	MemberID     *int64            `json:"member_id,omitempty"`
	ContractID   *int64            `json:"contract_id,omitempty"`
	Reference    string            `json:"reference"`
	ExternalID   *string           `json:"external_id,omitempty"`
	AmountCents  int64             `json:"amount_cents"`
	Method       string            `json:"method"`
	Status       string            `json:"status"`
	PaidDate     *time.Time        `json:"paid_date,omitempty"`
	Metadata     json.RawMessage   `json:"metadata,omitempty"`
	MondayItemID *string           `json:"monday_item_id,omitempty"`
	SyncStatus   shared.SyncStatus `json:"sync_status"`
	SyncError    *string           `json:"sync_error,omitempty"`
	SyncedAt     *time.Time        `json:"synced_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Payment statuses.
const (
	StatusPending  = "pending"
	StatusPaid     = "paid"
	StatusFailed   = "failed"
	StatusRefunded = "refunded"
)

// KnownStatus reports whether s is one of the recognized payment
// statuses.
func KnownStatus(s string) bool {
	switch s {
	case StatusPending, StatusPaid, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// CreatePaymentRequest is the create payload.
type CreatePaymentRequest struct {
	MemberID    *int64  `json:"member_id,omitempty" validate:"omitempty,gt=0"`
	ContractID  *int64  `json:"contract_id,omitempty" validate:"omitempty,gt=0"`
	Reference   string  `json:"reference" validate:"required,max=100"`
	ExternalID  *string `json:"external_id,omitempty" validate:"omitempty,max=100"`
	AmountCents int64   `json:"amount_cents" validate:"gt=0"`
	Method      string  `json:"method" validate:"omitempty,oneof=cash card transfer online"`
}

// UpdatePaymentRequest is the partial-update payload.
type UpdatePaymentRequest struct {
	AmountCents *int64  `json:"amount_cents,omitempty" validate:"omitempty,gt=0"`
	Method      *string `json:"method,omitempty" validate:"omitempty,oneof=cash card transfer online"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=pending paid failed refunded"`
}

// ListPaymentsRequest carries list filters and pagination.
type ListPaymentsRequest struct {
	MemberID   *int64
	ContractID *int64
	Status     *string
	Page       int
	PerPage    int
}
