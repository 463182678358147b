package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gymops-erp/gymops/internal/shared"
)

var (
	ErrNotFound  = errors.New("payment not found")
	ErrDuplicate = errors.New("duplicate payment reference")
)

// Repository defines persistence operations for payments.
type Repository interface {
	Get(ctx context.Context, id int64) (*Payment, error)
	GetByReference(ctx context.Context, reference string) (*Payment, error)
	List(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error)
	Create(ctx context.Context, payment Payment) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
	// ApplyStatus transitions the payment, sets paid_date when moving
	// to paid, and appends rawPayload to the metadata array.
	ApplyStatus(ctx context.Context, id int64, status string, paidDate *time.Time, rawPayload []byte) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const paymentColumns = `
	id, member_id, contract_id, reference, external_id, amount_cents, method, status,
	paid_date, metadata, monday_item_id, sync_status, sync_error, synced_at, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Payment, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1`, paymentColumns), id)
	return scanOrNotFound(row)
}

func (r *repository) GetByReference(ctx context.Context, reference string) (*Payment, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM payments WHERE reference = $1`, paymentColumns), reference)
	return scanOrNotFound(row)
}

func scanOrNotFound(row pgx.Row) (*Payment, error) {
	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return payment, nil
}

func (r *repository) List(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.MemberID != nil {
		conditions = append(conditions, fmt.Sprintf("member_id = $%d", argPos))
		args = append(args, *req.MemberID)
		argPos++
	}
	if req.ContractID != nil {
		conditions = append(conditions, fmt.Sprintf("contract_id = $%d", argPos))
		args = append(args, *req.ContractID)
		argPos++
	}
	if req.Status != nil && *req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM payments %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pagination := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM payments %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		paymentColumns, whereClause, argPos, argPos+1)
	args = append(args, pagination.PerPage, pagination.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *payment)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, payment Payment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payments (member_id, contract_id, reference, external_id, amount_cents, method, status, metadata, sync_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, '[]'::jsonb, $8, NOW(), NOW())
		RETURNING id`,
		payment.MemberID, payment.ContractID, payment.Reference, payment.ExternalID,
		payment.AmountCents, payment.Method, payment.Status, shared.SyncStatusPending,
	).Scan(&id)
	if err != nil {
		return 0, mapUniqueViolation(err)
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	setters := []string{"updated_at = NOW()", "sync_status = 'pending'", "sync_error = NULL"}
	var args []any
	argPos := 1
	for _, col := range []string{"amount_cents", "method", "status"} {
		if v, ok := updates[col]; ok {
			setters = append(setters, fmt.Sprintf("%s = $%d", col, argPos))
			args = append(args, v)
			argPos++
		}
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE payments SET %s WHERE id = $%d", strings.Join(setters, ", "), argPos)
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ApplyStatus(ctx context.Context, id int64, status string, paidDate *time.Time, rawPayload []byte) error {
	if len(rawPayload) == 0 {
		rawPayload = []byte("{}")
	}
	// paid_date is written at most once: COALESCE keeps the first value.
	tag, err := r.pool.Exec(ctx, `
		UPDATE payments
		SET status = $1,
		    paid_date = COALESCE(paid_date, $2),
		    metadata = metadata || jsonb_build_array($3::jsonb),
		    sync_status = 'pending',
		    sync_error = NULL,
		    updated_at = NOW()
		WHERE id = $4`,
		status, paidDate, string(rawPayload), id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var (
		p                       Payment
		memberID, contractID    pgtype.Int8
		externalID              pgtype.Text
		paidDate                pgtype.Timestamptz
		metadata                []byte
		mondayItemID, syncError pgtype.Text
		syncedAt                pgtype.Timestamptz
		createdAt, updatedAt    pgtype.Timestamptz
		syncStatus              string
	)
	err := row.Scan(
		&p.ID, &memberID, &contractID, &p.Reference, &externalID, &p.AmountCents, &p.Method, &p.Status,
		&paidDate, &metadata, &mondayItemID, &syncStatus, &syncError, &syncedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.SyncStatus = shared.SyncStatus(syncStatus)
	p.Metadata = metadata
	if memberID.Valid {
		p.MemberID = &memberID.Int64
	}
	if contractID.Valid {
		p.ContractID = &contractID.Int64
	}
	if externalID.Valid {
		p.ExternalID = &externalID.String
	}
	if paidDate.Valid {
		pd := paidDate.Time
		p.PaidDate = &pd
	}
	if mondayItemID.Valid {
		p.MondayItemID = &mondayItemID.String
	}
	if syncError.Valid {
		p.SyncError = &syncError.String
	}
	if syncedAt.Valid {
		at := syncedAt.Time
		p.SyncedAt = &at
	}
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time
	return &p, nil
}
