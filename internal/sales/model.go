package sales

import "time"

// Sale is a point-of-sale transaction with its line items.
type Sale struct {
	ID            int64      `json:"id"`
	MemberID      *int64     `json:"member_id,omitempty"`
	EmployeeID    int64      `json:"employee_id"`
	SubtotalCents int64      `json:"subtotal_cents"`
	DiscountCents int64      `json:"discount_cents"`
	TotalCents    int64      `json:"total_cents"`
	Lines         []SaleLine `json:"lines"`
	CreatedAt     time.Time  `json:"created_at"`
}

// SaleLine is one product position of a sale. UnitPriceCents is the
// price at the moment of sale, not the product's current price.
type SaleLine struct {
	ID             int64 `json:"id"`
	SaleID         int64 `json:"sale_id"`
	ProductID      int64 `json:"product_id"`
	Quantity       int   `json:"quantity"`
	UnitPriceCents int64 `json:"unit_price_cents"`
	TotalCents     int64 `json:"total_cents"`
}

// CreateSaleRequest is the create payload.
type CreateSaleRequest struct {
	MemberID      *int64                  `json:"member_id,omitempty" validate:"omitempty,gt=0"`
	DiscountCents int64                   `json:"discount_cents" validate:"gte=0"`
	Lines         []CreateSaleLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// CreateSaleLineRequest is one requested line item.
type CreateSaleLineRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// ListSalesRequest carries list filters and pagination.
type ListSalesRequest struct {
	MemberID   *int64
	EmployeeID *int64
	From       *time.Time
	To         *time.Time
	Page       int
	PerPage    int
}
