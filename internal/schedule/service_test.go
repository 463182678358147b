package schedule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	sessions map[int64]*ClassSession
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{sessions: make(map[int64]*ClassSession), nextID: 1}
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*ClassSession, error) {
	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context, req ListSessionsRequest) ([]ClassSession, int, error) {
	var result []ClassSession
	for _, session := range m.sessions {
		result = append(result, *session)
	}
	return result, len(result), nil
}

func (m *mockRepository) Create(ctx context.Context, session ClassSession) (int64, error) {
	id := m.nextID
	m.nextID++
	session.ID = id
	m.sessions[id] = &session
	return id, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	session, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["room"]; ok {
		session.Room = v.(string)
	}
	if v, ok := updates["start_minutes"]; ok {
		session.StartMinutes = v.(int)
	}
	if v, ok := updates["end_minutes"]; ok {
		session.EndMinutes = v.(int)
	}
	if v, ok := updates["active"]; ok {
		session.Active = v.(bool)
	}
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *mockRepository) HasOverlap(ctx context.Context, room string, weekday, startMinutes, endMinutes int, excludeID int64) (bool, error) {
	for _, session := range m.sessions {
		if session.ID == excludeID || !session.Active {
			continue
		}
		if session.Room != room || session.Weekday != weekday {
			continue
		}
		if session.StartMinutes < endMinutes && session.EndMinutes > startMinutes {
			return true, nil
		}
	}
	return false, nil
}

func spinning(weekday, start, end int) CreateSessionRequest {
	return CreateSessionRequest{
		Title:        "spinning",
		TrainerID:    3,
		Room:         "sala 1",
		Weekday:      weekday,
		StartMinutes: start,
		EndMinutes:   end,
		Capacity:     20,
	}
}

func TestCreateRejectsRoomOverlap(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	_, err := svc.Create(context.Background(), spinning(1, 600, 660))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), spinning(1, 630, 690))
	assert.ErrorIs(t, err, ErrRoomConflict)
}

func TestCreateAllowsAdjacentSlots(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	_, err := svc.Create(context.Background(), spinning(1, 600, 660))
	require.NoError(t, err)

	// Back-to-back is not an overlap.
	_, err = svc.Create(context.Background(), spinning(1, 660, 720))
	assert.NoError(t, err)
}

func TestCreateAllowsSameTimeOtherRoom(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	_, err := svc.Create(context.Background(), spinning(1, 600, 660))
	require.NoError(t, err)

	other := spinning(1, 600, 660)
	other.Room = "sala 2"
	_, err = svc.Create(context.Background(), other)
	assert.NoError(t, err)
}

func TestCreateRejectsInvertedRange(t *testing.T) {
	svc := NewService(newMockRepository(), nil)
	_, err := svc.Create(context.Background(), spinning(1, 660, 600))
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestUpdateDoesNotConflictWithItself(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), spinning(1, 600, 660))
	require.NoError(t, err)

	// Shifting the same slot by 15 minutes overlaps only itself.
	start, end := 615, 675
	updated, err := svc.Update(context.Background(), created.ID, UpdateSessionRequest{
		StartMinutes: &start,
		EndMinutes:   &end,
	})
	require.NoError(t, err)
	assert.Equal(t, 615, updated.StartMinutes)
}

func TestUpdateIntoOccupiedSlotFails(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	_, err := svc.Create(context.Background(), spinning(1, 600, 660))
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), spinning(1, 700, 760))
	require.NoError(t, err)

	start := 630
	_, err = svc.Update(context.Background(), second.ID, UpdateSessionRequest{StartMinutes: &start})
	assert.ErrorIs(t, err, ErrRoomConflict)
}
