// Package memory is the fixture-backed data adapter. It keeps every collection in process memory
// and hands out copies so callers never share state with the store.
package memory

import (
	"context"
	"fmt"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/fixture"
	"github.com/vanshika/marketplace/internal/store"
)

// Store implements store.Store over in-memory collections.
type Store struct {
	users      *collection[domain.User]
	categories *collection[domain.Category]
	products   *collection[domain.Product]
	orders     *collection[domain.Order]
	disputes   *collection[domain.Dispute]
	promotions *collection[domain.Promotion]
	kyc        *collection[domain.KYCSubmission]
	reviews    *collection[domain.Review]
	payouts    *collection[domain.Payout]
	pages      *collection[domain.Page]
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		users:      newCollection[domain.User](store.CollectionUsers),
		categories: newCollection[domain.Category](store.CollectionCategories),
		products:   newCollection[domain.Product](store.CollectionProducts),
		orders:     newCollection[domain.Order](store.CollectionOrders),
		disputes:   newCollection[domain.Dispute](store.CollectionDisputes),
		promotions: newCollection[domain.Promotion](store.CollectionPromotions),
		kyc:        newCollection[domain.KYCSubmission](store.CollectionKYC),
		reviews:    newCollection[domain.Review](store.CollectionReviews),
		payouts:    newCollection[domain.Payout](store.CollectionPayouts),
		pages:      newCollection[domain.Page](store.CollectionPages),
	}
}

// NewFromDataset returns a store seeded with ds.
func NewFromDataset(ds fixture.Dataset) (*Store, error) {
	s := New()
	if err := s.Seed(ds); err != nil {
		return nil, err
	}
	return s, nil
}

// Seed inserts every entity of ds. Duplicate ids are rejected.
func (s *Store) Seed(ds fixture.Dataset) error {
	steps := []func() error{
		func() error { return seed(s.users, ds.Users) },
		func() error { return seed(s.categories, ds.Categories) },
		func() error { return seed(s.products, ds.Products) },
		func() error { return seed(s.promotions, ds.Promotions) },
		func() error { return seed(s.orders, ds.Orders) },
		func() error { return seed(s.disputes, ds.Disputes) },
		func() error { return seed(s.kyc, ds.KYC) },
		func() error { return seed(s.reviews, ds.Reviews) },
		func() error { return seed(s.payouts, ds.Payouts) },
		func() error { return seed(s.pages, ds.Pages) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func seed[T domain.Entity](c *collection[T], items []T) error {
	for _, item := range items {
		if _, err := c.Create(context.Background(), item); err != nil {
			return fmt.Errorf("seed %s %s: %w", c.name, item.EntityID(), err)
		}
	}
	return nil
}

func (s *Store) Users() store.Collection[domain.User]           { return s.users }
func (s *Store) Categories() store.Collection[domain.Category]  { return s.categories }
func (s *Store) Products() store.Collection[domain.Product]     { return s.products }
func (s *Store) Orders() store.Collection[domain.Order]         { return s.orders }
func (s *Store) Disputes() store.Collection[domain.Dispute]     { return s.disputes }
func (s *Store) Promotions() store.Collection[domain.Promotion] { return s.promotions }
func (s *Store) KYC() store.Collection[domain.KYCSubmission]    { return s.kyc }
func (s *Store) Reviews() store.Collection[domain.Review]       { return s.reviews }
func (s *Store) Payouts() store.Collection[domain.Payout]       { return s.payouts }
func (s *Store) Pages() store.Collection[domain.Page]           { return s.pages }
func (s *Store) Ping(context.Context) error                     { return nil }
func (s *Store) Close(context.Context) error                    { return nil }

// collection keeps insertion order so List is deterministic.
type collection[T domain.Entity] struct {
	name  string
	mu    sync.RWMutex
	items map[string][]byte
	order []string
}

func newCollection[T domain.Entity](name string) *collection[T] {
	return &collection[T]{
		name:  name,
		items: make(map[string][]byte),
	}
}

func (c *collection[T]) List(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		v, err := decode[T](c.items[id])
		if err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", c.name, id, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	raw, ok := c.items[id]
	if !ok {
		return zero, fmt.Errorf("%s %s: %w", c.name, id, store.ErrNotFound)
	}
	return decode[T](raw)
}

func (c *collection[T]) Create(ctx context.Context, entity T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	id := entity.EntityID()
	if id == "" {
		return zero, fmt.Errorf("%s: id is required", c.name)
	}
	raw, err := json.Marshal(entity)
	if err != nil {
		return zero, fmt.Errorf("encode %s %s: %w", c.name, id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[id]; exists {
		return zero, fmt.Errorf("%s %s: %w", c.name, id, store.ErrConflict)
	}
	c.items[id] = raw
	c.order = append(c.order, id)
	return decode[T](raw)
}

func (c *collection[T]) Update(ctx context.Context, entity T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	id := entity.EntityID()
	raw, err := json.Marshal(entity)
	if err != nil {
		return zero, fmt.Errorf("encode %s %s: %w", c.name, id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[id]; !exists {
		return zero, fmt.Errorf("%s %s: %w", c.name, id, store.ErrNotFound)
	}
	c.items[id] = raw
	return decode[T](raw)
}

func (c *collection[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[id]; !exists {
		return fmt.Errorf("%s %s: %w", c.name, id, store.ErrNotFound)
	}
	delete(c.items, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func decode[T any](raw []byte) (T, error) {
	var v T
	err := json.Unmarshal(raw, &v)
	return v, err
}
