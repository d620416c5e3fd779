package event

import "time"

// CreateEventRequest represents event creation data
type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required,min=3,max=200"`
	Description string    `json:"description" validate:"omitempty,max=5000"`
	Location    string    `json:"location" validate:"required,max=300"`
	Points      int64     `json:"points" validate:"gte=0"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required"`
}

// UpdateEventRequest represents event update data
type UpdateEventRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=3,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Location    *string    `json:"location" validate:"omitempty,max=300"`
	Points      *int64     `json:"points" validate:"omitempty,gte=0"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}
