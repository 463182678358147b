package contracts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gymops-erp/gymops/internal/shared"
)

var ErrNotFound = errors.New("contract not found")

// Repository defines persistence operations for contracts.
type Repository interface {
	Get(ctx context.Context, id int64) (*Contract, error)
	List(ctx context.Context, req ListContractsRequest) ([]Contract, int, error)
	Create(ctx context.Context, contract Contract) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const contractColumns = `
	id, member_id, plan_name, price_cents, start_date, end_date, status, notes,
	monday_item_id, sync_status, sync_error, synced_at, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Contract, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM contracts WHERE id = $1`, contractColumns), id)
	contract, err := scanContract(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return contract, nil
}

func (r *repository) List(ctx context.Context, req ListContractsRequest) ([]Contract, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.MemberID != nil {
		conditions = append(conditions, fmt.Sprintf("member_id = $%d", argPos))
		args = append(args, *req.MemberID)
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
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM contracts %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pagination := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM contracts %s ORDER BY start_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		contractColumns, whereClause, argPos, argPos+1)
	args = append(args, pagination.PerPage, pagination.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Contract
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *contract)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, contract Contract) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO contracts (member_id, plan_name, price_cents, start_date, end_date, status, notes, sync_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id`,
		contract.MemberID, contract.PlanName, contract.PriceCents, contract.StartDate,
		contract.EndDate, contract.Status, contract.Notes, shared.SyncStatusPending,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	setters := []string{"updated_at = NOW()", "sync_status = 'pending'", "sync_error = NULL"}
	var args []any
	argPos := 1
	for _, col := range []string{"plan_name", "price_cents", "start_date", "end_date", "status", "notes"} {
		if v, ok := updates[col]; ok {
			setters = append(setters, fmt.Sprintf("%s = $%d", col, argPos))
			args = append(args, v)
			argPos++
		}
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE contracts SET %s WHERE id = $%d", strings.Join(setters, ", "), argPos)
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
	tag, err := r.pool.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanContract(row pgx.Row) (*Contract, error) {
	var (
		c                       Contract
		endDate                 pgtype.Date
		notes                   pgtype.Text
		mondayItemID, syncError pgtype.Text
		syncedAt                pgtype.Timestamptz
		createdAt, updatedAt    pgtype.Timestamptz
		startDate               pgtype.Date
		syncStatus              string
	)
	err := row.Scan(
		&c.ID, &c.MemberID, &c.PlanName, &c.PriceCents, &startDate, &endDate, &c.Status, &notes,
		&mondayItemID, &syncStatus, &syncError, &syncedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.SyncStatus = shared.SyncStatus(syncStatus)
	c.StartDate = startDate.Time
	if endDate.Valid {
		ed := endDate.Time
		c.EndDate = &ed
	}
	if notes.Valid {
		c.Notes = &notes.String
	}
	if mondayItemID.Valid {
		c.MondayItemID = &mondayItemID.String
	}
	if syncError.Valid {
		c.SyncError = &syncError.String
	}
	if syncedAt.Valid {
		at := syncedAt.Time
		c.SyncedAt = &at
	}
	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time
	return &c, nil
}
