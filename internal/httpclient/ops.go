package httpclient

import (
	"context"
	"net/url"

	"github.com/vanshika/marketplace/internal/api"
	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/promotion"
	"github.com/vanshika/marketplace/internal/recommend"
	"github.com/vanshika/marketplace/internal/service"
	"github.com/vanshika/marketplace/internal/store"
	"github.com/vanshika/marketplace/internal/views"
)

func (c *Client) Register(ctx context.Context, in service.RegisterInput) (domain.User, error) {
	var out domain.User
	err := c.post(ctx, "/api/auth/register", in, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, in service.LoginInput) (domain.User, error) {
	var out domain.User
	err := c.query(ctx, "/api/auth/login", in, &out)
	return out, err
}

func (c *Client) SetUserStatus(ctx context.Context, adminID, userID string, status domain.UserStatus) (domain.User, error) {
	var out domain.User
	err := c.post(ctx, itemPath(store.CollectionUsers, userID, "status"), api.UserStatusRequest{ActorID: adminID, Status: status}, &out)
	return out, err
}

func (c *Client) CreateProduct(ctx context.Context, in service.ProductInput) (domain.Product, error) {
	var out domain.Product
	err := c.post(ctx, "/api/products/publish", in, &out)
	return out, err
}

func (c *Client) CreatePromotion(ctx context.Context, actorID string, in service.PromotionInput) (domain.Promotion, error) {
	var out domain.Promotion
	err := c.post(ctx, "/api/promotions/issue", api.PromotionRequest{ActorID: actorID, PromotionInput: in}, &out)
	return out, err
}

func (c *Client) ValidatePromotion(ctx context.Context, code string, lines []promotion.Line) (service.PromotionCheck, error) {
	var out service.PromotionCheck
	err := c.query(ctx, "/api/promotions/validate", api.ValidatePromotionRequest{Code: code, Lines: lines}, &out)
	return out, err
}

func (c *Client) Quote(ctx context.Context, in service.QuoteInput) (service.Quote, error) {
	var out service.Quote
	err := c.query(ctx, "/api/cart/quote", in, &out)
	return out, err
}

func (c *Client) Checkout(ctx context.Context, in service.CheckoutInput) (domain.Order, error) {
	var out domain.Order
	err := c.post(ctx, "/api/orders/checkout", in, &out)
	return out, err
}

// TransitionOrder runs ship, confirm or cancel on an order.
func (c *Client) TransitionOrder(ctx context.Context, action, actorID, orderID string) (domain.Order, error) {
	var out domain.Order
	err := c.post(ctx, itemPath(store.CollectionOrders, orderID, action), api.ActorRequest{ActorID: actorID}, &out)
	return out, err
}

func (c *Client) OrdersForBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	var out []domain.Order
	err := c.get(ctx, itemPath(store.CollectionUsers, buyerID, "orders"), &out)
	return out, err
}

func (c *Client) OpenDispute(ctx context.Context, in service.OpenDisputeInput) (domain.Dispute, error) {
	var out domain.Dispute
	err := c.post(ctx, "/api/disputes/open", in, &out)
	return out, err
}

func (c *Client) AssignDispute(ctx context.Context, staffID, disputeID, assigneeID string) (domain.Dispute, error) {
	var out domain.Dispute
	err := c.post(ctx, itemPath(store.CollectionDisputes, disputeID, "assign"), api.AssignDisputeRequest{ActorID: staffID, AssigneeID: assigneeID}, &out)
	return out, err
}

func (c *Client) ResolveDispute(ctx context.Context, staffID, disputeID string, in service.ResolveDisputeInput) (domain.Dispute, error) {
	var out domain.Dispute
	err := c.post(ctx, itemPath(store.CollectionDisputes, disputeID, "resolve"), api.ResolveDisputeRequest{ActorID: staffID, ResolveDisputeInput: in}, &out)
	return out, err
}

func (c *Client) SupportQueue(ctx context.Context) ([]domain.Dispute, error) {
	var out []domain.Dispute
	err := c.get(ctx, "/api/disputes/queue", &out)
	return out, err
}

func (c *Client) SubmitKYC(ctx context.Context, in service.KYCInput) (domain.KYCSubmission, error) {
	var out domain.KYCSubmission
	err := c.post(ctx, "/api/kyc/submit", in, &out)
	return out, err
}

func (c *Client) ReviewKYC(ctx context.Context, reviewerID, submissionID string, in service.KYCReviewInput) (domain.KYCSubmission, error) {
	var out domain.KYCSubmission
	err := c.post(ctx, itemPath(store.CollectionKYC, submissionID, "review"), api.KYCReviewRequest{ActorID: reviewerID, KYCReviewInput: in}, &out)
	return out, err
}

func (c *Client) PendingKYC(ctx context.Context) ([]domain.KYCSubmission, error) {
	var out []domain.KYCSubmission
	err := c.get(ctx, "/api/kyc/pending", &out)
	return out, err
}

func (c *Client) MarkPayoutPaid(ctx context.Context, adminID, payoutID string) (domain.Payout, error) {
	var out domain.Payout
	err := c.post(ctx, itemPath(store.CollectionPayouts, payoutID, "paid"), api.ActorRequest{ActorID: adminID}, &out)
	return out, err
}

func (c *Client) Recommendations(ctx context.Context, userID string) (recommend.Recommendations, error) {
	var out recommend.Recommendations
	err := c.get(ctx, "/api/recommendations/"+url.PathEscape(userID), &out)
	return out, err
}

func (c *Client) Overview(ctx context.Context) (service.Overview, error) {
	var out service.Overview
	err := c.get(ctx, "/api/admin/overview", &out)
	return out, err
}

func (c *Client) Page(ctx context.Context, slug string) (domain.Page, error) {
	var out domain.Page
	err := c.get(ctx, "/api/content/"+url.PathEscape(slug), &out)
	return out, err
}

func (c *Client) ResolveView(ctx context.Context, path string) (views.Route, error) {
	var out views.Route
	err := c.get(ctx, "/api/views/resolve?path="+url.QueryEscape(path), &out)
	return out, err
}
