package members

import (
	"time"

	"github.com/gymops-erp/gymops/internal/shared"
)

// Member is a gym member record.
type Member struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Email        *string           `json:"email,omitempty"`
	Phone        *string           `json:"phone,omitempty"`
	BirthDate    *time.Time        `json:"birth_date,omitempty"`
	Status       string            `json:"status"`
	Notes        *string           `json:"notes,omitempty"`
	MondayItemID *string           `json:"monday_item_id,omitempty"`
	SyncStatus   shared.SyncStatus `json:"sync_status"`
	SyncError    *string           `json:"sync_error,omitempty"`
	SyncedAt     *time.Time        `json:"synced_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Member statuses.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

// CreateMemberRequest is the create payload.
type CreateMemberRequest struct {
	Name      string     `json:"name" validate:"required,max=200"`
	Email     *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string    `json:"phone,omitempty" validate:"omitempty,max=50"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Status    string     `json:"status" validate:"omitempty,oneof=active inactive suspended"`
	Notes     *string    `json:"notes,omitempty"`
}

// UpdateMemberRequest is the partial-update payload.
type UpdateMemberRequest struct {
	Name      *string    `json:"name,omitempty" validate:"omitempty,max=200"`
	Email     *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string    `json:"phone,omitempty" validate:"omitempty,max=50"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Status    *string    `json:"status,omitempty" validate:"omitempty,oneof=active inactive suspended"`
	Notes     *string    `json:"notes,omitempty"`
}

// ListMembersRequest carries list filters and pagination.
type ListMembersRequest struct {
	Status  *string
	Search  *string
	Page    int
	PerPage int
}
