package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gymops-erp/gymops/internal/products"
)

var (
	ErrDiscountTooLarge = errors.New("discount exceeds subtotal")
	ErrProductInactive  = errors.New("product not available for sale")
)

// ProductCatalog resolves products at sale time.
type ProductCatalog interface {
	Get(ctx context.Context, id int64) (*products.Product, error)
}

// Service holds sale business rules. Prices are captured from the
// catalog at sale time so later price changes do not rewrite history.
type Service struct {
	repo    Repository
	catalog ProductCatalog
	logger  *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, catalog ProductCatalog, logger *slog.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, logger: logger}
}

func (s *Service) Get(ctx context.Context, id int64) (*Sale, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListSalesRequest) ([]Sale, int, error) {
	return s.repo.List(ctx, req)
}

// Create prices the requested lines from the catalog, applies the
// discount, and persists sale, lines, and stock decrement atomically.
// The discount permission is checked by the handler before this runs.
func (s *Service) Create(ctx context.Context, employeeID int64, req CreateSaleRequest) (*Sale, error) {
	sale := Sale{
		MemberID:      req.MemberID,
		EmployeeID:    employeeID,
		DiscountCents: req.DiscountCents,
	}
	for _, lineReq := range req.Lines {
		product, err := s.catalog.Get(ctx, lineReq.ProductID)
		if err != nil {
			return nil, fmt.Errorf("resolve product %d: %w", lineReq.ProductID, err)
		}
		if !product.Active {
			return nil, ErrProductInactive
		}
		lineTotal := product.PriceCents * int64(lineReq.Quantity)
		sale.Lines = append(sale.Lines, SaleLine{
			ProductID:      product.ID,
			Quantity:       lineReq.Quantity,
			UnitPriceCents: product.PriceCents,
			TotalCents:     lineTotal,
		})
		sale.SubtotalCents += lineTotal
	}
	if sale.DiscountCents > sale.SubtotalCents {
		return nil, ErrDiscountTooLarge
	}
	sale.TotalCents = sale.SubtotalCents - sale.DiscountCents

	id, err := s.repo.Create(ctx, sale)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}
