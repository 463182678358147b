package schedule

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

var ErrNotFound = errors.New("class session not found")

// Repository defines persistence operations for class sessions.
type Repository interface {
	Get(ctx context.Context, id int64) (*ClassSession, error)
	List(ctx context.Context, req ListSessionsRequest) ([]ClassSession, int, error)
	Create(ctx context.Context, session ClassSession) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
	// HasOverlap reports whether any active session in the same room
	// and weekday intersects [startMinutes, endMinutes), excluding
	// excludeID (0 to exclude nothing).
	HasOverlap(ctx context.Context, room string, weekday, startMinutes, endMinutes int, excludeID int64) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const sessionColumns = `id, title, trainer_id, room, weekday, start_minutes, end_minutes, capacity, active, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*ClassSession, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM class_sessions WHERE id = $1`, sessionColumns), id)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return session, nil
}

func (r *repository) List(ctx context.Context, req ListSessionsRequest) ([]ClassSession, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.TrainerID != nil {
		conditions = append(conditions, fmt.Sprintf("trainer_id = $%d", argPos))
		args = append(args, *req.TrainerID)
		argPos++
	}
	if req.Weekday != nil {
		conditions = append(conditions, fmt.Sprintf("weekday = $%d", argPos))
		args = append(args, *req.Weekday)
		argPos++
	}
	if req.Room != nil && *req.Room != "" {
		conditions = append(conditions, fmt.Sprintf("room = $%d", argPos))
		args = append(args, *req.Room)
		argPos++
	}
	if req.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", argPos))
		args = append(args, *req.Active)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM class_sessions %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pagination := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM class_sessions %s ORDER BY weekday, start_minutes LIMIT $%d OFFSET $%d`,
		sessionColumns, whereClause, argPos, argPos+1)
	args = append(args, pagination.PerPage, pagination.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []ClassSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *session)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, session ClassSession) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO class_sessions (title, trainer_id, room, weekday, start_minutes, end_minutes, capacity, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id`,
		session.Title, session.TrainerID, session.Room, session.Weekday,
		session.StartMinutes, session.EndMinutes, session.Capacity, session.Active,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	setters := []string{"updated_at = NOW()"}
	var args []any
	argPos := 1
	for _, col := range []string{"title", "trainer_id", "room", "weekday", "start_minutes", "end_minutes", "capacity", "active"} {
		if v, ok := updates[col]; ok {
			setters = append(setters, fmt.Sprintf("%s = $%d", col, argPos))
			args = append(args, v)
			argPos++
		}
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE class_sessions SET %s WHERE id = $%d", strings.Join(setters, ", "), argPos)
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
	tag, err := r.pool.Exec(ctx, `DELETE FROM class_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) HasOverlap(ctx context.Context, room string, weekday, startMinutes, endMinutes int, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM class_sessions
			WHERE room = $1 AND weekday = $2 AND active = TRUE
			  AND id <> $5
			  AND start_minutes < $4 AND end_minutes > $3
		)`,
		room, weekday, startMinutes, endMinutes, excludeID,
	).Scan(&exists)
	return exists, err
}

func scanSession(row pgx.Row) (*ClassSession, error) {
	var (
		s                    ClassSession
		createdAt, updatedAt pgtype.Timestamptz
	)
	err := row.Scan(&s.ID, &s.Title, &s.TrainerID, &s.Room, &s.Weekday,
		&s.StartMinutes, &s.EndMinutes, &s.Capacity, &s.Active, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time
	return &s, nil
}
