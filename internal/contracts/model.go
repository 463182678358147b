package contracts

import (
	"time"

	"github.com/gymops-erp/gymops/internal/shared"
)

// Contract is a membership contract tying a member to a plan.
type Contract struct {
	ID           int64             `json:"id"`
	MemberID     int64             `json:"member_id"`
	PlanName     string            `json:"plan_name"`
	PriceCents   int64             `json:"price_cents"`
	StartDate    time.Time         `json:"start_date"`
	EndDate      *time.Time        `json:"end_date,omitempty"`
	Status       string            `json:"status"`
	Notes        *string           `json:"notes,omitempty"`
	MondayItemID *string           `json:"monday_item_id,omitempty"`
	SyncStatus   shared.SyncStatus `json:"sync_status"`
	SyncError    *string           `json:"sync_error,omitempty"`
	SyncedAt     *time.Time        `json:"synced_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Contract statuses.
const (
	StatusActive    = "active"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// CreateContractRequest is the create payload.
type CreateContractRequest struct {
	MemberID   int64      `json:"member_id" validate:"required,gt=0"`
	PlanName   string     `json:"plan_name" validate:"required,max=200"`
	PriceCents int64      `json:"price_cents" validate:"gte=0"`
	StartDate  time.Time  `json:"start_date" validate:"required"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

// UpdateContractRequest is the partial-update payload.
type UpdateContractRequest struct {
	PlanName   *string    `json:"plan_name,omitempty" validate:"omitempty,max=200"`
	PriceCents *int64     `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	Status     *string    `json:"status,omitempty" validate:"omitempty,oneof=active expired cancelled"`
	Notes      *string    `json:"notes,omitempty"`
}

// ListContractsRequest carries list filters and pagination.
type ListContractsRequest struct {
	MemberID *int64
	Status   *string
	Page     int
	PerPage  int
}
