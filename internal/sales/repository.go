package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gymops-erp/gymops/internal/platform/db"
	"github.com/gymops-erp/gymops/internal/products"
	"github.com/gymops-erp/gymops/internal/shared"
)

var ErrNotFound = errors.New("sale not found")

// Repository defines persistence operations for sales.
type Repository interface {
	Get(ctx context.Context, id int64) (*Sale, error)
	List(ctx context.Context, req ListSalesRequest) ([]Sale, int, error)
	// Create inserts the sale and its lines and decrements product
	// stock, all in one transaction.
	Create(ctx context.Context, sale Sale) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const saleColumns = `id, member_id, employee_id, subtotal_cents, discount_cents, total_cents, created_at`

func (r *repository) Get(ctx context.Context, id int64) (*Sale, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM sales WHERE id = $1`, saleColumns), id)
	sale, err := scanSale(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.loadLines(ctx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

func (r *repository) loadLines(ctx context.Context, sale *Sale) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, sale_id, product_id, quantity, unit_price_cents, total_cents
		FROM sale_lines WHERE sale_id = $1 ORDER BY id`, sale.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var line SaleLine
		if err := rows.Scan(&line.ID, &line.SaleID, &line.ProductID, &line.Quantity, &line.UnitPriceCents, &line.TotalCents); err != nil {
			return err
		}
		sale.Lines = append(sale.Lines, line)
	}
	return rows.Err()
}

func (r *repository) List(ctx context.Context, req ListSalesRequest) ([]Sale, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.MemberID != nil {
		conditions = append(conditions, fmt.Sprintf("member_id = $%d", argPos))
		args = append(args, *req.MemberID)
		argPos++
	}
	if req.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argPos))
		args = append(args, *req.EmployeeID)
		argPos++
	}
	if req.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argPos))
		args = append(args, *req.From)
		argPos++
	}
	if req.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", argPos))
		args = append(args, *req.To)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM sales %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pagination := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM sales %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		saleColumns, whereClause, argPos, argPos+1)
	args = append(args, pagination.PerPage, pagination.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *sale)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range result {
		if err := r.loadLines(ctx, &result[i]); err != nil {
			return nil, 0, err
		}
	}
	return result, total, nil
}

func (r *repository) Create(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO sales (member_id, employee_id, subtotal_cents, discount_cents, total_cents, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			RETURNING id`,
			sale.MemberID, sale.EmployeeID, sale.SubtotalCents, sale.DiscountCents, sale.TotalCents,
		).Scan(&id)
		if err != nil {
			return err
		}
		for _, line := range sale.Lines {
			if _, err := tx.Exec(ctx, `
				INSERT INTO sale_lines (sale_id, product_id, quantity, unit_price_cents, total_cents)
				VALUES ($1, $2, $3, $4, $5)`,
				id, line.ProductID, line.Quantity, line.UnitPriceCents, line.TotalCents,
			); err != nil {
				return err
			}
			if err := products.DecrementStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func scanSale(row pgx.Row) (*Sale, error) {
	var (
		s         Sale
		memberID  pgtype.Int8
		createdAt pgtype.Timestamptz
	)
	err := row.Scan(&s.ID, &memberID, &s.EmployeeID, &s.SubtotalCents, &s.DiscountCents, &s.TotalCents, &createdAt)
	if err != nil {
		return nil, err
	}
	if memberID.Valid {
		s.MemberID = &memberID.Int64
	}
	s.CreatedAt = createdAt.Time
	return &s, nil
}
