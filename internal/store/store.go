// Package store defines the data adapter contract shared by the in-memory, graph and HTTP
// implementations: a fixed set of list/get/create/update/delete operations per entity.
package store

import (
	"context"
	"errors"

	"github.com/vanshika/marketplace/internal/domain"
)

var (
	// ErrNotFound is returned when no entity has the requested id.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when creating an entity whose id already exists.
	ErrConflict = errors.New("already exists")
)

// Collection is the CRUD surface for one entity type. There is no pagination or filtering.
type Collection[T domain.Entity] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, entity T) (T, error)
	Update(ctx context.Context, entity T) (T, error)
	Delete(ctx context.Context, id string) error
}

// Store groups one collection per marketplace entity.
type Store interface {
	Users() Collection[domain.User]
	Categories() Collection[domain.Category]
	Products() Collection[domain.Product]
	Orders() Collection[domain.Order]
	Disputes() Collection[domain.Dispute]
	Promotions() Collection[domain.Promotion]
	KYC() Collection[domain.KYCSubmission]
	Reviews() Collection[domain.Review]
	Payouts() Collection[domain.Payout]
	Pages() Collection[domain.Page]

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Names of the collections as used in graph labels and REST paths.
const (
	CollectionUsers      = "users"
	CollectionCategories = "categories"
	CollectionProducts   = "products"
	CollectionOrders     = "orders"
	CollectionDisputes   = "disputes"
	CollectionPromotions = "promotions"
	CollectionKYC        = "kyc"
	CollectionReviews    = "reviews"
	CollectionPayouts    = "payouts"
	CollectionPages      = "pages"
)
