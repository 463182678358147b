package members

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymops-erp/gymops/internal/shared"
)

type mockRepository struct {
	members map[int64]*Member
	nextID  int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{members: make(map[int64]*Member), nextID: 1}
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Member, error) {
	member, ok := m.members[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *member
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context, req ListMembersRequest) ([]Member, int, error) {
	var result []Member
	for _, member := range m.members {
		if req.Status != nil && member.Status != *req.Status {
			continue
		}
		result = append(result, *member)
	}
	return result, len(result), nil
}

func (m *mockRepository) Create(ctx context.Context, member Member) (int64, error) {
	id := m.nextID
	m.nextID++
	member.ID = id
	member.SyncStatus = shared.SyncStatusPending
	m.members[id] = &member
	return id, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	member, ok := m.members[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		member.Name = v.(string)
	}
	if v, ok := updates["status"]; ok {
		member.Status = v.(string)
	}
	member.SyncStatus = shared.SyncStatusPending
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.members[id]; !ok {
		return ErrNotFound
	}
	delete(m.members, id)
	return nil
}

type recordingNotifier struct {
	changed []int64
}

func (n *recordingNotifier) MemberChanged(ctx context.Context, id int64) {
	n.changed = append(n.changed, id)
}

func TestCreateDefaultsToActiveAndNotifies(t *testing.T) {
	repo := newMockRepository()
	notifier := &recordingNotifier{}
	svc := NewService(repo, notifier, nil)

	member, err := svc.Create(context.Background(), CreateMemberRequest{Name: "Ana Torres"})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, member.Status)
	assert.Equal(t, shared.SyncStatusPending, member.SyncStatus)
	assert.Equal(t, []int64{member.ID}, notifier.changed)
}

func TestCreateSucceedsWithoutNotifier(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	member, err := svc.Create(context.Background(), CreateMemberRequest{Name: "Luis", Status: StatusSuspended})
	require.NoError(t, err)
	assert.Equal(t, StatusSuspended, member.Status)
}

func TestUpdateNoFieldsReturnsCurrent(t *testing.T) {
	repo := newMockRepository()
	notifier := &recordingNotifier{}
	svc := NewService(repo, notifier, nil)

	created, err := svc.Create(context.Background(), CreateMemberRequest{Name: "Marta"})
	require.NoError(t, err)
	notifier.changed = nil

	member, err := svc.Update(context.Background(), created.ID, UpdateMemberRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Marta", member.Name)
	assert.Empty(t, notifier.changed, "no-op update must not trigger a push")
}

func TestUpdateMarksPendingAndNotifies(t *testing.T) {
	repo := newMockRepository()
	notifier := &recordingNotifier{}
	svc := NewService(repo, notifier, nil)

	created, err := svc.Create(context.Background(), CreateMemberRequest{Name: "Marta"})
	require.NoError(t, err)
	notifier.changed = nil

	name := "Marta Ruiz"
	member, err := svc.Update(context.Background(), created.ID, UpdateMemberRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Marta Ruiz", member.Name)
	assert.Equal(t, shared.SyncStatusPending, member.SyncStatus)
	assert.Equal(t, []int64{created.ID}, notifier.changed)
}

func TestUpdateMissingMember(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	name := "nobody"
	_, err := svc.Update(context.Background(), 99, UpdateMemberRequest{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}
