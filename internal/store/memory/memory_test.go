package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/fixture"
	"github.com/vanshika/marketplace/internal/store"
)

func TestCollection_CRUD(t *testing.T) {
	ctx := context.Background()
	s := New()
	products := s.Products()

	created, err := products.Create(ctx, domain.Product{ID: "PRD-1", Name: "Rice", Price: decimal.NewFromInt(1000), Stock: 3})
	require.NoError(t, err)
	assert.Equal(t, "Rice", created.Name)

	_, err = products.Create(ctx, domain.Product{ID: "PRD-1"})
	require.ErrorIs(t, err, store.ErrConflict)

	_, err = products.Create(ctx, domain.Product{ID: "PRD-2", Name: "Beans"})
	require.NoError(t, err)

	got, err := products.Get(ctx, "PRD-1")
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(1000)))

	got.Stock = 10
	_, err = products.Update(ctx, got)
	require.NoError(t, err)

	all, err := products.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "PRD-1", all[0].ID)
	assert.Equal(t, 10, all[0].Stock)

	require.NoError(t, products.Delete(ctx, "PRD-1"))
	_, err = products.Get(ctx, "PRD-1")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, products.Delete(ctx, "PRD-1"), store.ErrNotFound)

	_, err = products.Update(ctx, domain.Product{ID: "missing"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCollection_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Categories().Create(ctx, domain.Category{ID: "CAT-1", Name: "Grains", Subcategories: []string{"Rice"}})
	require.NoError(t, err)

	got, err := s.Categories().Get(ctx, "CAT-1")
	require.NoError(t, err)
	got.Subcategories[0] = "Mutated"

	again, err := s.Categories().Get(ctx, "CAT-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Rice"}, again.Subcategories)
}

func TestCollection_CreateRequiresID(t *testing.T) {
	_, err := New().Pages().Create(context.Background(), domain.Page{Slug: "about"})
	require.Error(t, err)
}

func TestNewFromDataset(t *testing.T) {
	s, err := NewFromDataset(fixture.Dataset{
		Users:      []domain.User{{ID: "USR-1", Role: domain.RoleBuyer}},
		Promotions: []domain.Promotion{{ID: "PROMO-1", Code: "SAVE"}},
	})
	require.NoError(t, err)

	users, err := s.Users().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = NewFromDataset(fixture.Dataset{Users: []domain.User{{ID: "dup"}, {ID: "dup"}}})
	require.ErrorIs(t, err, store.ErrConflict)
}

func TestCollection_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Orders().List(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
