package payments

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymops-erp/gymops/internal/shared"
)

type mockRepository struct {
	payments map[int64]*Payment
	byRef    map[string]int64
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		payments: make(map[int64]*Payment),
		byRef:    make(map[string]int64),
		nextID:   1,
	}
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Payment, error) {
	payment, ok := m.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *payment
	return &copied, nil
}

func (m *mockRepository) GetByReference(ctx context.Context, reference string) (*Payment, error) {
	id, ok := m.byRef[reference]
	if !ok {
		return nil, ErrNotFound
	}
	return m.Get(ctx, id)
}

func (m *mockRepository) List(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error) {
	var result []Payment
	for _, payment := range m.payments {
		if req.Status != nil && payment.Status != *req.Status {
			continue
		}
		result = append(result, *payment)
	}
	return result, len(result), nil
}

func (m *mockRepository) Create(ctx context.Context, payment Payment) (int64, error) {
	if _, taken := m.byRef[payment.Reference]; taken {
		return 0, ErrDuplicate
	}
	id := m.nextID
	m.nextID++
	payment.ID = id
	payment.Metadata = json.RawMessage(`[]`)
	payment.SyncStatus = shared.SyncStatusPending
	m.payments[id] = &payment
	m.byRef[payment.Reference] = id
	return id, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	payment, ok := m.payments[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["status"]; ok {
		payment.Status = v.(string)
	}
	if v, ok := updates["amount_cents"]; ok {
		payment.AmountCents = v.(int64)
	}
	payment.SyncStatus = shared.SyncStatusPending
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	payment, ok := m.payments[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.byRef, payment.Reference)
	delete(m.payments, id)
	return nil
}

func (m *mockRepository) ApplyStatus(ctx context.Context, id int64, status string, paidDate *time.Time, rawPayload []byte) error {
	payment, ok := m.payments[id]
	if !ok {
		return ErrNotFound
	}
	payment.Status = status
	if paidDate != nil && payment.PaidDate == nil {
		payment.PaidDate = paidDate
	}
	var trail []json.RawMessage
	_ = json.Unmarshal(payment.Metadata, &trail)
	if len(rawPayload) == 0 {
		rawPayload = []byte("{}")
	}
	trail = append(trail, rawPayload)
	payment.Metadata, _ = json.Marshal(trail)
	payment.SyncStatus = shared.SyncStatusPending
	return nil
}

type recordingNotifier struct {
	changed []int64
}

func (n *recordingNotifier) PaymentChanged(ctx context.Context, id int64) {
	n.changed = append(n.changed, id)
}

func TestCreateStartsPendingAndNotifies(t *testing.T) {
	repo := newMockRepository()
	notifier := &recordingNotifier{}
	svc := NewService(repo, notifier, nil)

	payment, err := svc.Create(context.Background(), CreatePaymentRequest{
		Reference:   "PAY-2026-0001",
		AmountCents: 4500,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, payment.Status)
	assert.Equal(t, "cash", payment.Method)
	assert.Nil(t, payment.PaidDate)
	assert.Equal(t, []int64{payment.ID}, notifier.changed)
}

func TestCreateDuplicateReference(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)

	_, err := svc.Create(context.Background(), CreatePaymentRequest{Reference: "PAY-1", AmountCents: 100})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreatePaymentRequest{Reference: "PAY-1", AmountCents: 200})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMarkStatusPaidSetsPaidDateOnce(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil)
	first := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }

	created, err := svc.Create(context.Background(), CreatePaymentRequest{Reference: "PAY-2", AmountCents: 100})
	require.NoError(t, err)

	paid, err := svc.MarkStatus(context.Background(), created, StatusPaid, []byte(`{"provider":"stripe"}`))
	require.NoError(t, err)
	require.NotNil(t, paid.PaidDate)
	assert.Equal(t, first, *paid.PaidDate)

	// Replaying the same transition is a no-op.
	svc.now = func() time.Time { return first.Add(48 * time.Hour) }
	again, err := svc.MarkStatus(context.Background(), paid, StatusPaid, []byte(`{"provider":"stripe"}`))
	require.NoError(t, err)
	assert.Equal(t, first, *again.PaidDate)

	var trail []json.RawMessage
	require.NoError(t, json.Unmarshal(again.Metadata, &trail))
	assert.Len(t, trail, 1)
}

func TestMarkStatusAppendsMetadata(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil)

	created, err := svc.Create(context.Background(), CreatePaymentRequest{Reference: "PAY-3", AmountCents: 100})
	require.NoError(t, err)

	failed, err := svc.MarkStatus(context.Background(), created, StatusFailed, []byte(`{"reason":"card declined"}`))
	require.NoError(t, err)
	paid, err := svc.MarkStatus(context.Background(), failed, StatusPaid, []byte(`{"retry":true}`))
	require.NoError(t, err)

	var trail []json.RawMessage
	require.NoError(t, json.Unmarshal(paid.Metadata, &trail))
	assert.Len(t, trail, 2)
}
