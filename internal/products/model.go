package products

import "time"

// Product is a sellable inventory item. Prices are integer cents.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	Stock       int       `json:"stock"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateProductRequest is the create payload.
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description,omitempty"`
	PriceCents  int64   `json:"price_cents" validate:"gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
}

// UpdateProductRequest is the partial-update payload.
type UpdateProductRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty"`
	PriceCents  *int64  `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
	Stock       *int    `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Active      *bool   `json:"active,omitempty"`
}

// ListProductsRequest carries list filters and pagination.
type ListProductsRequest struct {
	Active  *bool
	Search  *string
	Page    int
	PerPage int
}
