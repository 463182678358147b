package employees

import (
	"time"

	"github.com/gymops-erp/gymops/internal/access"
	"github.com/gymops-erp/gymops/internal/shared"
)

// Employee is a staff account record.
type Employee struct {
	ID           int64
	Name         string
	Email        string
	Phone        *string
	AccessLevel  access.Role
	SalaryCents  *int64
	Username     *string
	PasswordHash *string
	Active       bool
	MondayItemID *string
	SyncStatus   shared.SyncStatus
	SyncError    *string
	SyncedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateEmployeeRequest is the create payload.
type CreateEmployeeRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Email       string  `json:"email" validate:"required,email"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	AccessLevel string  `json:"access_level" validate:"required"`
	SalaryCents *int64  `json:"salary_cents,omitempty" validate:"omitempty,gte=0"`
}

// UpdateEmployeeRequest is the partial-update payload.
type UpdateEmployeeRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	AccessLevel *string `json:"access_level,omitempty"`
	SalaryCents *int64  `json:"salary_cents,omitempty" validate:"omitempty,gte=0"`
	Active      *bool   `json:"active,omitempty"`
}

// SetCredentialsRequest creates or resets another employee's login.
type SetCredentialsRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8"`
}

// ListEmployeesRequest carries list filters and pagination.
type ListEmployeesRequest struct {
	Active      *bool
	AccessLevel *string
	Search      *string
	Page        int
	PerPage     int
}
