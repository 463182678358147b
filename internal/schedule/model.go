package schedule

import "time"

// ClassSession is a recurring weekly class slot. Times are minutes
// from midnight so overlap checks are plain integer comparisons.
type ClassSession struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	TrainerID    int64     `json:"trainer_id"`
	Room         string    `json:"room"`
	Weekday      int       `json:"weekday"`
	StartMinutes int       `json:"start_minutes"`
	EndMinutes   int       `json:"end_minutes"`
	Capacity     int       `json:"capacity"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateSessionRequest is the create payload.
type CreateSessionRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	TrainerID    int64  `json:"trainer_id" validate:"required,gt=0"`
	Room         string `json:"room" validate:"required,max=100"`
	Weekday      int    `json:"weekday" validate:"gte=0,lte=6"`
	StartMinutes int    `json:"start_minutes" validate:"gte=0,lt=1440"`
	EndMinutes   int    `json:"end_minutes" validate:"gt=0,lte=1440"`
	Capacity     int    `json:"capacity" validate:"gt=0"`
}

// UpdateSessionRequest is the partial-update payload.
type UpdateSessionRequest struct {
	Title        *string `json:"title,omitempty" validate:"omitempty,max=200"`
	TrainerID    *int64  `json:"trainer_id,omitempty" validate:"omitempty,gt=0"`
	Room         *string `json:"room,omitempty" validate:"omitempty,max=100"`
	Weekday      *int    `json:"weekday,omitempty" validate:"omitempty,gte=0,lte=6"`
	StartMinutes *int    `json:"start_minutes,omitempty" validate:"omitempty,gte=0,lt=1440"`
	EndMinutes   *int    `json:"end_minutes,omitempty" validate:"omitempty,gt=0,lte=1440"`
	Capacity     *int    `json:"capacity,omitempty" validate:"omitempty,gt=0"`
	Active       *bool   `json:"active,omitempty"`
}

// ListSessionsRequest carries list filters and pagination.
type ListSessionsRequest struct {
	TrainerID *int64
	Weekday   *int
	Room      *string
	Active    *bool
	Page      int
	PerPage   int
}
