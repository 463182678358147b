package members

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

var ErrNotFound = errors.New("member not found")

// Repository defines persistence operations for members.
type Repository interface {
	Get(ctx context.Context, id int64) (*Member, error)
	List(ctx context.Context, req ListMembersRequest) ([]Member, int, error)
	Create(ctx context.Context, member Member) (int64, error)
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

const memberColumns = `
	id, name, email, phone, birth_date, status, notes,
	monday_item_id, sync_status, sync_error, synced_at, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Member, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM members WHERE id = $1`, memberColumns), id)
	member, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return member, nil
}

func (r *repository) List(ctx context.Context, req ListMembersRequest) ([]Member, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.Status != nil && *req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		pattern := "%" + *req.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, pattern)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM members %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pagination := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM members %s ORDER BY name LIMIT $%d OFFSET $%d`,
		memberColumns, whereClause, argPos, argPos+1)
	args = append(args, pagination.PerPage, pagination.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *member)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, member Member) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO members (name, email, phone, birth_date, status, notes, sync_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id`,
		member.Name, member.Email, member.Phone, member.BirthDate, member.Status, member.Notes, shared.SyncStatusPending,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	setters := []string{"updated_at = NOW()", "sync_status = 'pending'", "sync_error = NULL"}
	var args []any
	argPos := 1
	for _, col := range []string{"name", "email", "phone", "birth_date", "status", "notes"} {
		if v, ok := updates[col]; ok {
			setters = append(setters, fmt.Sprintf("%s = $%d", col, argPos))
			args = append(args, v)
			argPos++
		}
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE members SET %s WHERE id = $%d", strings.Join(setters, ", "), argPos)
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
	tag, err := r.pool.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMember(row pgx.Row) (*Member, error) {
	var (
		m                           Member
		email, phone, notes         pgtype.Text
		mondayItemID, syncError     pgtype.Text
		birthDate                   pgtype.Date
		syncedAt                    pgtype.Timestamptz
		createdAt, updatedAt        pgtype.Timestamptz
		syncStatus                  string
	)
	err := row.Scan(
		&m.ID, &m.Name, &email, &phone, &birthDate, &m.Status, &notes,
		&mondayItemID, &syncStatus, &syncError, &syncedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.SyncStatus = shared.SyncStatus(syncStatus)
	if email.Valid {
		m.Email = &email.String
	}
	if phone.Valid {
		m.Phone = &phone.String
	}
	if notes.Valid {
		m.Notes = &notes.String
	}
	if mondayItemID.Valid {
		m.MondayItemID = &mondayItemID.String
	}
	if syncError.Valid {
		m.SyncError = &syncError.String
	}
	if birthDate.Valid {
		bd := birthDate.Time
		m.BirthDate = &bd
	}
	if syncedAt.Valid {
		at := syncedAt.Time
		m.SyncedAt = &at
	}
	m.CreatedAt = createdAt.Time
	m.UpdatedAt = updatedAt.Time
	return &m, nil
}
