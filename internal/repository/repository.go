// Package repository is the Neo4j-backed data adapter. Each entity is a labelled node holding
// its JSON document plus a few lookup properties; orders, products and reviews are also linked
// to the users and products they reference so purchase history can be traversed.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/graph"
	"github.com/vanshika/marketplace/internal/store"
)

// Repository implements store.Store over a graph client.
type Repository struct {
	client graph.Client
	nowFn  func() time.Time

	users      *nodeCollection[domain.User]
	categories *nodeCollection[domain.Category]
	products   *nodeCollection[domain.Product]
	orders     *nodeCollection[domain.Order]
	disputes   *nodeCollection[domain.Dispute]
	promotions *nodeCollection[domain.Promotion]
	kyc        *nodeCollection[domain.KYCSubmission]
	reviews    *nodeCollection[domain.Review]
	payouts    *nodeCollection[domain.Payout]
	pages      *nodeCollection[domain.Page]
}

var _ store.Store = (*Repository)(nil)

// Node labels per collection.
const (
	LabelUser      = "User"
	LabelCategory  = "Category"
	LabelProduct   = "Product"
	LabelOrder     = "Order"
	LabelDispute   = "Dispute"
	LabelPromotion = "Promotion"
	LabelKYC       = "KYCSubmission"
	LabelReview    = "Review"
	LabelPayout    = "Payout"
	LabelPage      = "Page"
)

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	r := &Repository{client: client, nowFn: time.Now}

	r.users = newNodeCollection(r, LabelUser, func(u domain.User) map[string]any {
		return map[string]any{"email": strings.ToLower(u.Email), "role": string(u.Role)}
	}, nil)
	r.categories = newNodeCollection(r, LabelCategory, func(c domain.Category) map[string]any {
		return map[string]any{"name": c.Name}
	}, nil)
	r.products = newNodeCollection(r, LabelProduct, func(p domain.Product) map[string]any {
		return map[string]any{"vendorId": p.VendorID, "category": p.Category, "status": string(p.Status)}
	}, func(ctx context.Context, p domain.Product) error {
		return r.link(ctx, linkVendorProductCypher, map[string]any{"vendorId": p.VendorID, "productId": p.ID})
	})
	r.orders = newNodeCollection(r, LabelOrder, func(o domain.Order) map[string]any {
		return map[string]any{"buyerId": o.BuyerID, "status": string(o.Status)}
	}, func(ctx context.Context, o domain.Order) error {
		productIDs := make([]string, 0, len(o.Items))
		for _, item := range o.Items {
			productIDs = append(productIDs, item.ProductID)
		}
		return r.link(ctx, linkOrderCypher, map[string]any{
			"orderId":    o.ID,
			"buyerId":    o.BuyerID,
			"productIds": productIDs,
		})
	})
	r.disputes = newNodeCollection(r, LabelDispute, func(d domain.Dispute) map[string]any {
		return map[string]any{"orderId": d.OrderID, "status": string(d.Status)}
	}, nil)
	r.promotions = newNodeCollection(r, LabelPromotion, func(p domain.Promotion) map[string]any {
		return map[string]any{"code": p.Code}
	}, nil)
	r.kyc = newNodeCollection(r, LabelKYC, func(k domain.KYCSubmission) map[string]any {
		return map[string]any{"userId": k.UserID, "status": string(k.Status)}
	}, nil)
	r.reviews = newNodeCollection(r, LabelReview, func(rv domain.Review) map[string]any {
		return map[string]any{"productId": rv.ProductID, "rating": rv.Rating}
	}, func(ctx context.Context, rv domain.Review) error {
		return r.link(ctx, linkReviewCypher, map[string]any{
			"reviewId":  rv.ID,
			"buyerId":   rv.BuyerID,
			"productId": rv.ProductID,
		})
	})
	r.payouts = newNodeCollection(r, LabelPayout, func(p domain.Payout) map[string]any {
		return map[string]any{"vendorId": p.VendorID, "status": string(p.Status)}
	}, nil)
	r.pages = newNodeCollection(r, LabelPage, func(p domain.Page) map[string]any {
		return map[string]any{"slug": p.Slug}
	}, nil)
	return r
}

// WithClock overrides the time provider used for node timestamps (used primarily in tests).
func (r *Repository) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		r.nowFn = nowFn
	}
}

// Labels lists every node label managed by the repository.
func Labels() []string {
	return []string{
		LabelUser, LabelCategory, LabelProduct, LabelOrder, LabelDispute,
		LabelPromotion, LabelKYC, LabelReview, LabelPayout, LabelPage,
	}
}

// EnsureSchema creates a uniqueness constraint on id for every label.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, label := range Labels() {
		cypher := fmt.Sprintf(constraintCypherTemplate, strings.ToLower(label), label)
		if _, err := r.client.ExecuteWrite(ctx, cypher, nil); err != nil {
			return fmt.Errorf("ensure constraint for %s: %w", label, err)
		}
	}
	return nil
}

func (r *Repository) Users() store.Collection[domain.User]           { return r.users }
func (r *Repository) Categories() store.Collection[domain.Category]  { return r.categories }
func (r *Repository) Products() store.Collection[domain.Product]     { return r.products }
func (r *Repository) Orders() store.Collection[domain.Order]         { return r.orders }
func (r *Repository) Disputes() store.Collection[domain.Dispute]     { return r.disputes }
func (r *Repository) Promotions() store.Collection[domain.Promotion] { return r.promotions }
func (r *Repository) KYC() store.Collection[domain.KYCSubmission]    { return r.kyc }
func (r *Repository) Reviews() store.Collection[domain.Review]       { return r.reviews }
func (r *Repository) Payouts() store.Collection[domain.Payout]       { return r.payouts }
func (r *Repository) Pages() store.Collection[domain.Page]           { return r.pages }

// Ping verifies connectivity to the graph database.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.VerifyConnectivity(ctx)
}

// Close releases the underlying driver.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close(ctx)
}

// PurchasedCategories returns the distinct product categories a buyer has ordered, walking
// PLACED and CONTAINS edges.
func (r *Repository) PurchasedCategories(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	res, err := r.client.ExecuteRead(ctx, purchasedCategoriesCypher, map[string]any{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("fetch purchased categories: %w", err)
	}
	var categories []string
	for _, record := range res.Records {
		if c := record.String("category"); c != "" {
			categories = append(categories, c)
		}
	}
	return categories, nil
}

func (r *Repository) link(ctx context.Context, cypher string, params map[string]any) error {
	if _, err := r.client.ExecuteWrite(ctx, cypher, params); err != nil {
		return fmt.Errorf("link relationships: %w", err)
	}
	return nil
}

type nodeCollection[T domain.Entity] struct {
	repo    *Repository
	label   string
	propsFn func(T) map[string]any
	linkFn  func(context.Context, T) error
}

func newNodeCollection[T domain.Entity](r *Repository, label string, propsFn func(T) map[string]any, linkFn func(context.Context, T) error) *nodeCollection[T] {
	return &nodeCollection[T]{repo: r, label: label, propsFn: propsFn, linkFn: linkFn}
}

func (c *nodeCollection[T]) List(ctx context.Context) ([]T, error) {
	res, err := c.repo.client.ExecuteRead(ctx, fmt.Sprintf(listNodesCypherTemplate, c.label), nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.label, err)
	}
	out := make([]T, 0, len(res.Records))
	for _, record := range res.Records {
		v, err := decodeDoc[T](record)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", c.label, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *nodeCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	res, err := c.repo.client.ExecuteRead(ctx, fmt.Sprintf(getNodeCypherTemplate, c.label), map[string]any{"id": id})
	if err != nil {
		return zero, fmt.Errorf("get %s %s: %w", c.label, id, err)
	}
	if len(res.Records) == 0 {
		return zero, fmt.Errorf("%s %s: %w", c.label, id, store.ErrNotFound)
	}
	return decodeDoc[T](res.Records[0])
}

func (c *nodeCollection[T]) Create(ctx context.Context, entity T) (T, error) {
	var zero T
	id := entity.EntityID()
	if id == "" {
		return zero, fmt.Errorf("%s: id is required", c.label)
	}
	params, err := c.params(entity)
	if err != nil {
		return zero, err
	}

	res, err := c.repo.client.ExecuteWrite(ctx, fmt.Sprintf(createNodeCypherTemplate, c.label, c.label), params)
	if err != nil {
		return zero, fmt.Errorf("create %s %s: %w", c.label, id, err)
	}
	if len(res.Records) == 0 {
		return zero, fmt.Errorf("%s %s: %w", c.label, id, store.ErrConflict)
	}
	if c.linkFn != nil {
		if err := c.linkFn(ctx, entity); err != nil {
			return zero, err
		}
	}
	return entity, nil
}

func (c *nodeCollection[T]) Update(ctx context.Context, entity T) (T, error) {
	var zero T
	id := entity.EntityID()
	params, err := c.params(entity)
	if err != nil {
		return zero, err
	}

	res, err := c.repo.client.ExecuteWrite(ctx, fmt.Sprintf(updateNodeCypherTemplate, c.label), params)
	if err != nil {
		return zero, fmt.Errorf("update %s %s: %w", c.label, id, err)
	}
	if len(res.Records) == 0 {
		return zero, fmt.Errorf("%s %s: %w", c.label, id, store.ErrNotFound)
	}
	if c.linkFn != nil {
		if err := c.linkFn(ctx, entity); err != nil {
			return zero, err
		}
	}
	return entity, nil
}

func (c *nodeCollection[T]) Delete(ctx context.Context, id string) error {
	res, err := c.repo.client.ExecuteWrite(ctx, fmt.Sprintf(deleteNodeCypherTemplate, c.label), map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", c.label, id, err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("%s %s: %w", c.label, id, store.ErrNotFound)
	}
	return nil
}

func (c *nodeCollection[T]) params(entity T) (map[string]any, error) {
	doc, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s: %w", c.label, entity.EntityID(), err)
	}
	props := map[string]any{}
	if c.propsFn != nil {
		props = c.propsFn(entity)
	}
	return map[string]any{
		"id":    entity.EntityID(),
		"doc":   string(doc),
		"now":   c.repo.nowFn().UTC().Format(time.RFC3339Nano),
		"props": props,
	}, nil
}

func decodeDoc[T any](record graph.Record) (T, error) {
	var v T
	doc := record.String("doc")
	if doc == "" {
		return v, errors.New("node has no document")
	}
	err := json.Unmarshal([]byte(doc), &v)
	return v, err
}

const constraintCypherTemplate = `
CREATE CONSTRAINT %s_id_unique IF NOT EXISTS
FOR (n:%s) REQUIRE n.id IS UNIQUE
`

const listNodesCypherTemplate = `
MATCH (n:%s)
RETURN n.doc AS doc
ORDER BY n.createdAt, n.id
`

const getNodeCypherTemplate = `
MATCH (n:%s {id: $id})
RETURN n.doc AS doc
`

const createNodeCypherTemplate = `
OPTIONAL MATCH (existing:%s {id: $id})
WITH existing WHERE existing IS NULL
CREATE (n:%s {id: $id})
SET n += $props, n.doc = $doc, n.createdAt = $now, n.updatedAt = $now
RETURN n.id AS id
`

const updateNodeCypherTemplate = `
MATCH (n:%s {id: $id})
SET n += $props, n.doc = $doc, n.updatedAt = $now
RETURN n.id AS id
`

const deleteNodeCypherTemplate = `
MATCH (n:%s {id: $id})
WITH n, n.id AS id
DETACH DELETE n
RETURN id
`

const linkVendorProductCypher = `
MATCH (v:User {id: $vendorId}), (p:Product {id: $productId})
MERGE (v)-[:SELLS]->(p)
`

const linkOrderCypher = `
MATCH (o:Order {id: $orderId})
OPTIONAL MATCH (u:User {id: $buyerId})
FOREACH (_ IN CASE WHEN u IS NULL THEN [] ELSE [1] END | MERGE (u)-[:PLACED]->(o))
WITH o
UNWIND $productIds AS productId
MATCH (p:Product {id: productId})
MERGE (o)-[:CONTAINS]->(p)
`

const linkReviewCypher = `
MATCH (r:Review {id: $reviewId})
OPTIONAL MATCH (u:User {id: $buyerId})
OPTIONAL MATCH (p:Product {id: $productId})
FOREACH (_ IN CASE WHEN u IS NULL THEN [] ELSE [1] END | MERGE (u)-[:WROTE]->(r))
FOREACH (_ IN CASE WHEN p IS NULL THEN [] ELSE [1] END | MERGE (r)-[:ABOUT]->(p))
`

const purchasedCategoriesCypher = `
MATCH (:User {id: $userId})-[:PLACED]->(:Order)-[:CONTAINS]->(p:Product)
WHERE p.category IS NOT NULL
RETURN DISTINCT p.category AS category
ORDER BY category
`
