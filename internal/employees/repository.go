package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gymops-erp/gymops/internal/access"
	"github.com/gymops-erp/gymops/internal/shared"
)

var (
	ErrNotFound  = errors.New("employee not found")
	ErrDuplicate = errors.New("duplicate email or username")
)

// Repository defines persistence operations for employees.
type Repository interface {
	Get(ctx context.Context, id int64) (*Employee, error)
	List(ctx context.Context, req ListEmployeesRequest) ([]Employee, int, error)
	Create(ctx context.Context, employee Employee) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
	SetCredentials(ctx context.Context, id int64, username, passwordHash string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const employeeColumns = `
	id, name, email, phone, access_level, salary_cents, username, password_hash, active,
	monday_item_id, sync_status, sync_error, synced_at, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Employee, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM employees WHERE id = $1`, employeeColumns), id)
	employee, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return employee, nil
}

func (r *repository) List(ctx context.Context, req ListEmployeesRequest) ([]Employee, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", argPos))
		args = append(args, *req.Active)
		argPos++
	}
	if req.AccessLevel != nil && *req.AccessLevel != "" {
		conditions = append(conditions, fmt.Sprintf("access_level = $%d", argPos))
		args = append(args, string(access.NormalizeRole(*req.AccessLevel)))
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		pattern := "%" + *req.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", argPos, argPos))
		args = append(args, pattern)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM employees %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pagination := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM employees %s ORDER BY name LIMIT $%d OFFSET $%d`,
		employeeColumns, whereClause, argPos, argPos+1)
	args = append(args, pagination.PerPage, pagination.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Employee
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *employee)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, employee Employee) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO employees (name, email, phone, access_level, salary_cents, active, sync_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id`,
		employee.Name, employee.Email, employee.Phone, string(employee.AccessLevel),
		employee.SalaryCents, employee.Active, shared.SyncStatusPending,
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
	for _, col := range []string{"name", "email", "phone", "access_level", "salary_cents", "active"} {
		if v, ok := updates[col]; ok {
			setters = append(setters, fmt.Sprintf("%s = $%d", col, argPos))
			args = append(args, v)
			argPos++
		}
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE employees SET %s WHERE id = $%d", strings.Join(setters, ", "), argPos)
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE employees SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SetCredentials(ctx context.Context, id int64, username, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE employees SET username = $1, password_hash = $2, updated_at = NOW() WHERE id = $3`,
		username, passwordHash, id)
	if err != nil {
		return mapUniqueViolation(err)
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

func scanEmployee(row pgx.Row) (*Employee, error) {
	var (
		e                                             Employee
		phone, username, passwordHash                 pgtype.Text
		mondayItemID, syncError                       pgtype.Text
		salaryCents                                   pgtype.Int8
		syncedAt, createdAt, updatedAt                pgtype.Timestamptz
		accessLevel, syncStatus                       string
	)
	err := row.Scan(
		&e.ID, &e.Name, &e.Email, &phone, &accessLevel, &salaryCents, &username, &passwordHash, &e.Active,
		&mondayItemID, &syncStatus, &syncError, &syncedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.AccessLevel = access.NormalizeRole(accessLevel)
	e.SyncStatus = shared.SyncStatus(syncStatus)
	if phone.Valid {
		e.Phone = &phone.String
	}
	if username.Valid {
		e.Username = &username.String
	}
	if passwordHash.Valid {
		e.PasswordHash = &passwordHash.String
	}
	if salaryCents.Valid {
		v := salaryCents.Int64
		e.SalaryCents = &v
	}
	if mondayItemID.Valid {
		e.MondayItemID = &mondayItemID.String
	}
	if syncError.Valid {
		e.SyncError = &syncError.String
	}
	if syncedAt.Valid {
		at := syncedAt.Time
		e.SyncedAt = &at
	}
	e.CreatedAt = createdAt.Time
	e.UpdatedAt = updatedAt.Time
	return &e, nil
}
