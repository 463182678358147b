package boardsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymops-erp/gymops/internal/boardsync/monday"
	"github.com/gymops-erp/gymops/internal/shared"
)

type mockRepo struct {
	records map[string]map[int64]*Record
}

func newMockRepo() *mockRepo {
	records := make(map[string]map[int64]*Record)
	for _, entity := range Entities() {
		records[entity] = make(map[int64]*Record)
	}
	return &mockRepo{records: records}
}

func (m *mockRepo) add(entity string, record Record) {
	m.records[entity][record.LocalID] = &record
}

func (m *mockRepo) ListPending(ctx context.Context, entity string) ([]Record, error) {
	var result []Record
	for _, record := range m.records[entity] {
		if record.SyncStatus == shared.SyncStatusPending || record.SyncStatus == shared.SyncStatusError {
			result = append(result, *record)
		}
	}
	return result, nil
}

func (m *mockRepo) Get(ctx context.Context, entity string, localID int64) (*Record, error) {
	record, ok := m.records[entity][localID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := *record
	return &copied, nil
}

func (m *mockRepo) FindByItemID(ctx context.Context, entity, itemID string) (*Record, error) {
	for _, record := range m.records[entity] {
		if record.MondayItemID != nil && *record.MondayItemID == itemID {
			copied := *record
			return &copied, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (m *mockRepo) SetSynced(ctx context.Context, entity string, localID int64, itemID string) error {
	record, ok := m.records[entity][localID]
	if !ok {
		return ErrRecordNotFound
	}
	record.MondayItemID = &itemID
	record.SyncStatus = shared.SyncStatusSynced
	return nil
}

func (m *mockRepo) SetError(ctx context.Context, entity string, localID int64, message string) error {
	record, ok := m.records[entity][localID]
	if !ok {
		return ErrRecordNotFound
	}
	record.SyncStatus = shared.SyncStatusError
	return nil
}

func (m *mockRepo) UpsertFromRemote(ctx context.Context, entity, itemID, name string, columns map[string]string) error {
	for _, record := range m.records[entity] {
		if record.MondayItemID != nil && *record.MondayItemID == itemID {
			record.Name = name
			record.SyncStatus = shared.SyncStatusSynced
			return nil
		}
	}
	if entity != EntityMember {
		return nil
	}
	id := int64(len(m.records[entity]) + 1000)
	m.records[entity][id] = &Record{
		LocalID:      id,
		Name:         name,
		Columns:      columns,
		MondayItemID: &itemID,
		SyncStatus:   shared.SyncStatusSynced,
	}
	return nil
}

func (m *mockRepo) Counts(ctx context.Context, entity string) (Counts, error) {
	var counts Counts
	for _, record := range m.records[entity] {
		switch record.SyncStatus {
		case shared.SyncStatusSynced:
			counts.Synced++
		case shared.SyncStatusPending:
			counts.Pending++
		case shared.SyncStatusError:
			counts.Error++
		}
	}
	return counts, nil
}

type mockClient struct {
	nextID    int
	created   []string
	updated   []string
	failNames map[string]bool
	items     []monday.Item
	valid     bool
}

func (m *mockClient) Validate(ctx context.Context) bool { return m.valid }

func (m *mockClient) CreateItem(ctx context.Context, boardID, name string, columnValues map[string]string) (string, error) {
	if m.failNames[name] {
		return "", errors.New("board rejected item")
	}
	m.nextID++
	m.created = append(m.created, name)
	return fmt.Sprintf("it-%d", m.nextID), nil
}

func (m *mockClient) UpdateItem(ctx context.Context, boardID, itemID string, columnValues map[string]string) error {
	m.updated = append(m.updated, itemID)
	return nil
}

func (m *mockClient) ListItems(ctx context.Context, boardID string) ([]monday.Item, error) {
	return m.items, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBoards() map[string]string {
	return map[string]string{EntityMember: "101", EntityPayment: "102"}
}

func TestSyncToBoardCreatesAndUpdates(t *testing.T) {
	repo := newMockRepo()
	repo.add(EntityMember, Record{LocalID: 1, Name: "Ana", SyncStatus: shared.SyncStatusPending})
	existing := "it-99"
	repo.add(EntityMember, Record{LocalID: 2, Name: "Luis", MondayItemID: &existing, SyncStatus: shared.SyncStatusPending})

	client := &mockClient{}
	svc := NewService(repo, client, testBoards(), testLogger())

	report, err := svc.SyncToBoard(context.Background(), EntityMember)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Updated)
	assert.Zero(t, report.Failed)

	// The fresh record acquired an item id and turned synced.
	record, err := repo.Get(context.Background(), EntityMember, 1)
	require.NoError(t, err)
	require.NotNil(t, record.MondayItemID)
	assert.Equal(t, shared.SyncStatusSynced, record.SyncStatus)
}

func TestSyncToBoardBatchContinuesPastFailure(t *testing.T) {
	repo := newMockRepo()
	repo.add(EntityMember, Record{LocalID: 1, Name: "bad", SyncStatus: shared.SyncStatusPending})
	repo.add(EntityMember, Record{LocalID: 2, Name: "good", SyncStatus: shared.SyncStatusPending})

	client := &mockClient{failNames: map[string]bool{"bad": true}}
	svc := NewService(repo, client, testBoards(), testLogger())

	report, err := svc.SyncToBoard(context.Background(), EntityMember)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, report.Errors, 1)

	failed, err := repo.Get(context.Background(), EntityMember, 1)
	require.NoError(t, err)
	assert.Equal(t, shared.SyncStatusError, failed.SyncStatus)
}

func TestErrorRecordsRetryOnNextRun(t *testing.T) {
	repo := newMockRepo()
	repo.add(EntityMember, Record{LocalID: 1, Name: "retry me", SyncStatus: shared.SyncStatusError})

	client := &mockClient{}
	svc := NewService(repo, client, testBoards(), testLogger())

	report, err := svc.SyncToBoard(context.Background(), EntityMember)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
}

func TestConcurrentSyncRejected(t *testing.T) {
	repo := newMockRepo()
	client := &mockClient{}
	svc := NewService(repo, client, testBoards(), testLogger())

	require.True(t, svc.Run().TryStart("full"))
	defer svc.Run().Finish()

	_, err := svc.SyncToBoard(context.Background(), EntityMember)
	assert.ErrorIs(t, err, ErrSyncInProgress)
	_, err = svc.FullSync(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)
}

func TestSyncFromBoardUpsertsItems(t *testing.T) {
	repo := newMockRepo()
	known := "it-1"
	repo.add(EntityMember, Record{LocalID: 5, Name: "old name", MondayItemID: &known, SyncStatus: shared.SyncStatusSynced})

	client := &mockClient{items: []monday.Item{
		{ID: "it-1", Name: "new name"},
		{ID: "it-2", Name: "created remotely"},
	}}
	svc := NewService(repo, client, testBoards(), testLogger())

	report, err := svc.SyncFromBoard(context.Background(), EntityMember)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Pulled)

	updated, err := repo.Get(context.Background(), EntityMember, 5)
	require.NoError(t, err)
	assert.Equal(t, "new name", updated.Name)

	created, err := repo.FindByItemID(context.Background(), EntityMember, "it-2")
	require.NoError(t, err)
	assert.Equal(t, "created remotely", created.Name)
}

func TestWebhookChallengeEchoedVerbatim(t *testing.T) {
	svc := NewService(newMockRepo(), &mockClient{}, testBoards(), testLogger())

	response, err := svc.HandleBoardWebhook(context.Background(), []byte(`{"challenge":"abc123"}`))
	require.NoError(t, err)

	var echoed map[string]string
	require.NoError(t, json.Unmarshal(response, &echoed))
	assert.Equal(t, "abc123", echoed["challenge"])
}

func TestWebhookEventPullsItem(t *testing.T) {
	repo := newMockRepo()
	known := "42"
	repo.add(EntityMember, Record{LocalID: 7, Name: "before", MondayItemID: &known, SyncStatus: shared.SyncStatusSynced})

	svc := NewService(repo, &mockClient{}, testBoards(), testLogger())

	payload := []byte(`{"event":{"boardId":101,"pulseId":42,"pulseName":"after"}}`)
	response, err := svc.HandleBoardWebhook(context.Background(), payload)
	require.NoError(t, err)
	assert.Nil(t, response)

	record, err := repo.Get(context.Background(), EntityMember, 7)
	require.NoError(t, err)
	assert.Equal(t, "after", record.Name)
}

func TestFullSyncCoversConfiguredEntities(t *testing.T) {
	repo := newMockRepo()
	repo.add(EntityMember, Record{LocalID: 1, Name: "Ana", SyncStatus: shared.SyncStatusPending})
	repo.add(EntityPayment, Record{LocalID: 1, Name: "PAY-1", SyncStatus: shared.SyncStatusPending})
	// contract board not configured: must be skipped, not failed
	repo.add(EntityContract, Record{LocalID: 1, Name: "plan", SyncStatus: shared.SyncStatusPending})

	client := &mockClient{}
	svc := NewService(repo, client, testBoards(), testLogger())

	reports, err := svc.FullSync(context.Background())
	require.NoError(t, err)
	assert.Len(t, reports, 2)
	assert.Equal(t, 1, reports[EntityMember].Created)
	assert.Equal(t, 1, reports[EntityPayment].Created)
	assert.False(t, svc.Run().InProgress())
}

func TestValidateConnectionNeverErrors(t *testing.T) {
	svc := NewService(newMockRepo(), &mockClient{valid: false}, testBoards(), testLogger())
	assert.False(t, svc.ValidateConnection(context.Background()))

	svc = NewService(newMockRepo(), &mockClient{valid: true}, testBoards(), testLogger())
	assert.True(t, svc.ValidateConnection(context.Background()))
}
