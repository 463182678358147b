package products

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	products map[int64]*Product
	writes   int
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{products: make(map[int64]*Product), nextID: 1}
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *product
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context, req ListProductsRequest) ([]Product, int, error) {
	var result []Product
	for _, p := range m.products {
		result = append(result, *p)
	}
	return result, len(result), nil
}

func (m *mockRepository) Create(ctx context.Context, product Product) (int64, error) {
	id := m.nextID
	m.nextID++
	product.ID = id
	m.products[id] = &product
	m.writes++
	return id, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	product, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	for field, value := range updates {
		switch field {
		case "name":
			product.Name = value.(string)
		case "price_cents":
			product.PriceCents = value.(int64)
		case "stock":
			product.Stock = value.(int)
		case "active":
			product.Active = value.(bool)
		}
	}
	m.writes++
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	product, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	product.Active = false
	m.writes++
	return nil
}

func TestCreateStartsActive(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	product, err := svc.Create(context.Background(), CreateProductRequest{
		Name:       "Barrita proteica",
		PriceCents: 250,
		Stock:      40,
	})
	require.NoError(t, err)
	assert.True(t, product.Active)
	assert.Equal(t, 40, product.Stock)
}

func TestUpdateWithoutChangesSkipsWrite(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), CreateProductRequest{Name: "Toalla", PriceCents: 1200})
	require.NoError(t, err)
	writesBefore := repo.writes

	_, err = svc.Update(context.Background(), created.ID, UpdateProductRequest{})
	require.NoError(t, err)
	assert.Equal(t, writesBefore, repo.writes)
}

func TestUpdateAppliesFields(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), CreateProductRequest{Name: "Camiseta", PriceCents: 1800, Stock: 10})
	require.NoError(t, err)

	price := int64(1500)
	stock := 25
	updated, err := svc.Update(context.Background(), created.ID, UpdateProductRequest{PriceCents: &price, Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), updated.PriceCents)
	assert.Equal(t, 25, updated.Stock)
}

func TestDeleteDeactivates(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), CreateProductRequest{Name: "Agua", PriceCents: 150})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	stored, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestGetUnknownProduct(t *testing.T) {
	svc := NewService(newMockRepository(), nil)
	_, err := svc.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}
