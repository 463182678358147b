package boardsync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gymops-erp/gymops/internal/shared"
)

// Entities eligible for board synchronization.
const (
	EntityMember   = "member"
	EntityEmployee = "employee"
	EntityContract = "contract"
	EntityPayment  = "payment"
)

// Entities lists the sync entity types in push order.
func Entities() []string {
	return []string{EntityMember, EntityEmployee, EntityContract, EntityPayment}
}

var (
	ErrUnknownEntity  = errors.New("unknown sync entity")
	ErrRecordNotFound = errors.New("sync record not found")
)

// Record is the board-facing projection of a local row. Column values
// are text keyed by board column id.
type Record struct {
	LocalID      int64
	Name         string
	Columns      map[string]string
	MondayItemID *string
	SyncStatus   shared.SyncStatus
}

// Counts summarizes sync state for one entity type.
type Counts struct {
	Synced  int `json:"synced"`
	Pending int `json:"pending"`
	Error   int `json:"error"`
}

// entityTable describes how one local table maps onto board items.
// pushColumns SELECT-cast every value to text; pullColumns name the
// subset the board is authoritative for (text columns only — money and
// foreign keys never come back from the board).
type entityTable struct {
	table             string
	nameColumn        string
	pushColumns       map[string]string
	pullColumns       map[string]string
	allowRemoteCreate bool
}

var entityTables = map[string]entityTable{
	EntityMember: {
		table:      "members",
		nameColumn: "name",
		pushColumns: map[string]string{
			"email":  "COALESCE(email, '')",
			"phone":  "COALESCE(phone, '')",
			"status": "status",
		},
		pullColumns:       map[string]string{"email": "email", "phone": "phone", "status": "status"},
		allowRemoteCreate: true,
	},
	EntityEmployee: {
		table:      "employees",
		nameColumn: "name",
		pushColumns: map[string]string{
			"email": "email",
			"phone": "COALESCE(phone, '')",
			"role":  "access_level",
		},
		pullColumns:       map[string]string{"phone": "phone"},
		allowRemoteCreate: false,
	},
	EntityContract: {
		table:      "contracts",
		nameColumn: "plan_name",
		pushColumns: map[string]string{
			"status": "status",
			"price":  "price_cents::text",
			"start":  "start_date::text",
		},
		pullColumns:       map[string]string{"status": "status"},
		allowRemoteCreate: false,
	},
	EntityPayment: {
		table:      "payments",
		nameColumn: "reference",
		pushColumns: map[string]string{
			"status": "status",
			"amount": "amount_cents::text",
			"method": "method",
		},
		pullColumns:       map[string]string{"status": "status"},
		allowRemoteCreate: false,
	},
}

// Repository reads and writes sync state across the entity tables.
type Repository interface {
	// ListPending returns records whose sync_status is pending or
	// error; error rows stay eligible so transient failures retry.
	ListPending(ctx context.Context, entity string) ([]Record, error)
	Get(ctx context.Context, entity string, localID int64) (*Record, error)
	FindByItemID(ctx context.Context, entity, itemID string) (*Record, error)
	SetSynced(ctx context.Context, entity string, localID int64, itemID string) error
	SetError(ctx context.Context, entity string, localID int64, message string) error
	// UpsertFromRemote applies a remote snapshot: update when the item
	// id is known locally, create when the entity permits it. Locally
	// owned fields are left untouched.
	UpsertFromRemote(ctx context.Context, entity, itemID, name string, columns map[string]string) error
	Counts(ctx context.Context, entity string) (Counts, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func tableFor(entity string) (entityTable, error) {
	et, ok := entityTables[entity]
	if !ok {
		return entityTable{}, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	return et, nil
}

// selectClause builds "id, <name>, monday_item_id, sync_status, col..."
// with a stable column order so scanning lines up.
func (et entityTable) selectClause() (string, []string) {
	keys := make([]string, 0, len(et.pushColumns))
	for key := range et.pushColumns {
		keys = append(keys, key)
	}
	// map iteration order is random; sort for deterministic SQL
	sort.Strings(keys)
	exprs := make([]string, 0, len(keys))
	for _, key := range keys {
		exprs = append(exprs, et.pushColumns[key])
	}
	clause := fmt.Sprintf("id, %s, monday_item_id, sync_status, %s", et.nameColumn, strings.Join(exprs, ", "))
	return clause, keys
}

func scanRecord(row pgx.Row, keys []string) (*Record, error) {
	record := Record{Columns: make(map[string]string, len(keys))}
	var (
		itemID     pgtype.Text
		syncStatus string
	)
	values := make([]string, len(keys))
	dest := []any{&record.LocalID, &record.Name, &itemID, &syncStatus}
	for i := range values {
		dest = append(dest, &values[i])
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	record.SyncStatus = shared.SyncStatus(syncStatus)
	if itemID.Valid {
		record.MondayItemID = &itemID.String
	}
	for i, key := range keys {
		record.Columns[key] = values[i]
	}
	return &record, nil
}

func (r *repository) ListPending(ctx context.Context, entity string) ([]Record, error) {
	et, err := tableFor(entity)
	if err != nil {
		return nil, err
	}
	clause, keys := et.selectClause()
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE sync_status IN ('pending', 'error') ORDER BY id`, clause, et.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		record, err := scanRecord(rows, keys)
		if err != nil {
			return nil, err
		}
		result = append(result, *record)
	}
	return result, rows.Err()
}

func (r *repository) Get(ctx context.Context, entity string, localID int64) (*Record, error) {
	et, err := tableFor(entity)
	if err != nil {
		return nil, err
	}
	clause, keys := et.selectClause()
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, clause, et.table), localID)
	record, err := scanRecord(row, keys)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	return record, err
}

func (r *repository) FindByItemID(ctx context.Context, entity, itemID string) (*Record, error) {
	et, err := tableFor(entity)
	if err != nil {
		return nil, err
	}
	clause, keys := et.selectClause()
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE monday_item_id = $1`, clause, et.table), itemID)
	record, err := scanRecord(row, keys)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	return record, err
}

func (r *repository) SetSynced(ctx context.Context, entity string, localID int64, itemID string) error {
	et, err := tableFor(entity)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, fmt.Sprintf(`
		UPDATE %s SET monday_item_id = $1, sync_status = 'synced', sync_error = NULL, synced_at = NOW()
		WHERE id = $2`, et.table),
		itemID, localID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *repository) SetError(ctx context.Context, entity string, localID int64, message string) error {
	et, err := tableFor(entity)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET sync_status = 'error', sync_error = $1 WHERE id = $2`, et.table),
		message, localID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *repository) UpsertFromRemote(ctx context.Context, entity, itemID, name string, columns map[string]string) error {
	et, err := tableFor(entity)
	if err != nil {
		return err
	}

	var existingID int64
	err = r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT id FROM %s WHERE monday_item_id = $1`, et.table), itemID).Scan(&existingID)
	switch {
	case err == nil:
		return r.updateFromRemote(ctx, et, existingID, name, columns)
	case errors.Is(err, pgx.ErrNoRows):
		if !et.allowRemoteCreate {
			return nil
		}
		return r.createFromRemote(ctx, et, itemID, name, columns)
	default:
		return err
	}
}

func (r *repository) updateFromRemote(ctx context.Context, et entityTable, id int64, name string, columns map[string]string) error {
	setters := []string{"sync_status = 'synced'", "sync_error = NULL", "synced_at = NOW()", "updated_at = NOW()"}
	var args []any
	argPos := 1
	if name != "" {
		setters = append(setters, fmt.Sprintf("%s = $%d", et.nameColumn, argPos))
		args = append(args, name)
		argPos++
	}
	for key, column := range et.pullColumns {
		value, ok := columns[key]
		if !ok || value == "" {
			continue
		}
		setters = append(setters, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", et.table, strings.Join(setters, ", "), argPos)
	_, err := r.pool.Exec(ctx, query, args...)
	return err
}

func (r *repository) createFromRemote(ctx context.Context, et entityTable, itemID, name string, columns map[string]string) error {
	insertCols := []string{et.nameColumn, "monday_item_id", "sync_status", "synced_at", "created_at", "updated_at"}
	placeholders := []string{"$1", "$2", "'synced'", "NOW()", "NOW()", "NOW()"}
	args := []any{name, itemID}
	argPos := 3
	for key, column := range et.pullColumns {
		value, ok := columns[key]
		if !ok || value == "" {
			continue
		}
		insertCols = append(insertCols, column)
		placeholders = append(placeholders, fmt.Sprintf("$%d", argPos))
		args = append(args, value)
		argPos++
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		et.table, strings.Join(insertCols, ", "), strings.Join(placeholders, ", "))
	_, err := r.pool.Exec(ctx, query, args...)
	return err
}

func (r *repository) Counts(ctx context.Context, entity string) (Counts, error) {
	et, err := tableFor(entity)
	if err != nil {
		return Counts{}, err
	}
	var counts Counts
	err = r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT
			COUNT(*) FILTER (WHERE sync_status = 'synced'),
			COUNT(*) FILTER (WHERE sync_status = 'pending'),
			COUNT(*) FILTER (WHERE sync_status = 'error')
		FROM %s`, et.table),
	).Scan(&counts.Synced, &counts.Pending, &counts.Error)
	return counts, err
}
