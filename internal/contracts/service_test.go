package contracts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymops-erp/gymops/internal/shared"
)

type mockRepository struct {
	contracts map[int64]*Contract
	nextID    int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{contracts: make(map[int64]*Contract), nextID: 1}
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Contract, error) {
	contract, ok := m.contracts[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *contract
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context, req ListContractsRequest) ([]Contract, int, error) {
	var result []Contract
	for _, contract := range m.contracts {
		if req.MemberID != nil && contract.MemberID != *req.MemberID {
			continue
		}
		if req.Status != nil && contract.Status != *req.Status {
			continue
		}
		result = append(result, *contract)
	}
	return result, len(result), nil
}

func (m *mockRepository) Create(ctx context.Context, contract Contract) (int64, error) {
	id := m.nextID
	m.nextID++
	contract.ID = id
	contract.SyncStatus = shared.SyncStatusPending
	m.contracts[id] = &contract
	return id, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	contract, ok := m.contracts[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["status"]; ok {
		contract.Status = v.(string)
	}
	if v, ok := updates["price_cents"]; ok {
		contract.PriceCents = v.(int64)
	}
	contract.SyncStatus = shared.SyncStatusPending
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.contracts[id]; !ok {
		return ErrNotFound
	}
	delete(m.contracts, id)
	return nil
}

type recordingNotifier struct {
	changed []int64
}

func (n *recordingNotifier) ContractChanged(ctx context.Context, id int64) {
	n.changed = append(n.changed, id)
}

func TestCreateStartsActiveAndNotifies(t *testing.T) {
	repo := newMockRepository()
	notifier := &recordingNotifier{}
	svc := NewService(repo, notifier, nil)

	contract, err := svc.Create(context.Background(), CreateContractRequest{
		MemberID:   7,
		PlanName:   "anual completo",
		PriceCents: 4500_00,
		StartDate:  time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, contract.Status)
	assert.Equal(t, shared.SyncStatusPending, contract.SyncStatus)
	assert.Equal(t, []int64{contract.ID}, notifier.changed)
}

func TestCreateRejectsEndBeforeStart(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, -1, 0)
	_, err := svc.Create(context.Background(), CreateContractRequest{
		MemberID:  1,
		PlanName:  "mensual",
		StartDate: start,
		EndDate:   &end,
	})
	assert.ErrorIs(t, err, ErrEndBeforeStart)
}

func TestUpdateMarksPendingAndNotifies(t *testing.T) {
	repo := newMockRepository()
	notifier := &recordingNotifier{}
	svc := NewService(repo, notifier, nil)

	created, err := svc.Create(context.Background(), CreateContractRequest{
		MemberID:  1,
		PlanName:  "mensual",
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	notifier.changed = nil

	status := StatusCancelled
	contract, err := svc.Update(context.Background(), created.ID, UpdateContractRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, contract.Status)
	assert.Equal(t, shared.SyncStatusPending, contract.SyncStatus)
	assert.Equal(t, []int64{created.ID}, notifier.changed)
}

func TestGetMissingContract(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	_, err := svc.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}
