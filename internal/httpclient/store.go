package httpclient

import (
	"context"
	"net/http"

	"github.com/vanshika/marketplace/internal/api"
	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/store"
)

var _ store.Store = (*Client)(nil)

func (c *Client) Users() store.Collection[domain.User] {
	return collection[domain.User]{c, store.CollectionUsers}
}

func (c *Client) Categories() store.Collection[domain.Category] {
	return collection[domain.Category]{c, store.CollectionCategories}
}

func (c *Client) Products() store.Collection[domain.Product] {
	return collection[domain.Product]{c, store.CollectionProducts}
}

func (c *Client) Orders() store.Collection[domain.Order] {
	return collection[domain.Order]{c, store.CollectionOrders}
}

func (c *Client) Disputes() store.Collection[domain.Dispute] {
	return collection[domain.Dispute]{c, store.CollectionDisputes}
}

func (c *Client) Promotions() store.Collection[domain.Promotion] {
	return collection[domain.Promotion]{c, store.CollectionPromotions}
}

func (c *Client) KYC() store.Collection[domain.KYCSubmission] {
	return collection[domain.KYCSubmission]{c, store.CollectionKYC}
}

func (c *Client) Reviews() store.Collection[domain.Review] {
	return collection[domain.Review]{c, store.CollectionReviews}
}

func (c *Client) Payouts() store.Collection[domain.Payout] {
	return collection[domain.Payout]{c, store.CollectionPayouts}
}

func (c *Client) Pages() store.Collection[domain.Page] {
	return collection[domain.Page]{c, store.CollectionPages}
}

// Ping checks the server health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	var resp api.HealthResponse
	return c.get(ctx, "/healthz", &resp)
}

// Close releases idle keep-alive connections.
func (c *Client) Close(context.Context) error {
	c.http.CloseIdleConnections()
	return nil
}

type collection[T domain.Entity] struct {
	client *Client
	name   string
}

func (col collection[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := col.client.get(ctx, "/api/"+col.name, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (col collection[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := col.client.get(ctx, itemPath(col.name, id), &out)
	return out, err
}

func (col collection[T]) Create(ctx context.Context, entity T) (T, error) {
	var out T
	err := col.client.post(ctx, "/api/"+col.name, entity, &out)
	return out, err
}

func (col collection[T]) Update(ctx context.Context, entity T) (T, error) {
	var out T
	err := col.client.do(ctx, http.MethodPut, itemPath(col.name, entity.EntityID()), entity, &out)
	return out, err
}

func (col collection[T]) Delete(ctx context.Context, id string) error {
	return col.client.do(ctx, http.MethodDelete, itemPath(col.name, id), nil, nil)
}
