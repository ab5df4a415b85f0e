package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/vanshika/marketplace/internal/api"
	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/fixture"
	"github.com/vanshika/marketplace/internal/logging"
	"github.com/vanshika/marketplace/internal/service"
	"github.com/vanshika/marketplace/internal/store/memory"
	"github.com/vanshika/marketplace/internal/views"
)

var fixedNow = time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)

func seedDataset() fixture.Dataset {
	return fixture.Dataset{
		Users: []domain.User{
			{ID: "BUY-1", Name: "Ada", Email: "ada@example.com", Role: domain.RoleBuyer, Location: "Lagos", Status: domain.UserActive},
			{ID: "VND-1", Name: "Farm One", Email: "one@farm.test", Role: domain.RoleVendor, StoreName: "Farm One", KYCStatus: domain.KYCApproved, Status: domain.UserActive},
			{ID: "SUP-1", Name: "Sam", Email: "sam@support.test", Role: domain.RoleSupport, Status: domain.UserActive},
			{ID: "ADM-1", Name: "Root", Email: "root@admin.test", Role: domain.RoleAdmin, Status: domain.UserActive},
		},
		Products: []domain.Product{
			{ID: "PRD-1", VendorID: "VND-1", Name: "Rice 5kg", Category: "Grains", Price: decimal.NewFromInt(1000), Stock: 10, Status: domain.ProductActive},
		},
		Promotions: []domain.Promotion{
			{ID: "PROMO-1", Code: "SAVE10", Type: domain.PromotionPercentage, Value: decimal.NewFromInt(10), ExpiryDate: fixedNow.AddDate(0, 1, 0), Active: true},
		},
		Pages: []domain.Page{
			{ID: "PG-1", Slug: "about", Title: "About", Body: "Fresh produce", Published: true},
			{ID: "PG-2", Slug: "draft", Title: "Draft", Body: "soon"},
		},
	}
}

type stubHealth struct{ err error }

func (s stubHealth) Probe(context.Context) error { return s.err }

func newTestRouter(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	st, err := memory.NewFromDataset(seedDataset())
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	settings := service.DefaultSettings()
	settings.BcryptCost = bcrypt.MinCost
	svc := service.New(st, nil, logging.Discard(), settings)
	svc.WithClock(func() time.Time { return fixedNow })

	router := NewRouter(logging.Discard(), RouterDependencies{
		Health: StoreHealthService{Store: st},
		API:    NewAPIHandlers(logging.Discard(), svc),
	})
	return router, st
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	router := NewRouter(logging.Discard(), RouterDependencies{Health: stubHealth{err: errors.New("bolt: unreachable")}})

	rec := do(t, router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	resp := decodeBody[api.HealthResponse](t, rec)
	if resp.Status != "degraded" || !strings.Contains(resp.Error, "unreachable") {
		t.Fatalf("unexpected health payload %+v", resp)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/auth/register", service.RegisterInput{
		Name:     "Tunde",
		Email:    "Tunde@Example.com",
		Password: "correct-horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "passwordHash") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}

	rec = do(t, router, http.MethodPost, "/api/auth/login", service.LoginInput{Email: "tunde@example.com", Password: "wrong-horse"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/api/auth/login", service.LoginInput{Email: "tunde@example.com", Password: "correct-horse"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if user := decodeBody[domain.User](t, rec); user.Role != domain.RoleBuyer {
		t.Fatalf("expected default buyer role, got %s", user.Role)
	}

	rec = do(t, router, http.MethodGet, "/api/auth/login", nil)
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("expected 405 with Allow header, got %d %q", rec.Code, rec.Header().Get("Allow"))
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/cart/quote", strings.NewReader(`{"items":[],"coupon":"X"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCollectionCRUD(t *testing.T) {
	router, st := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/categories", domain.Category{ID: "CAT-9", Name: "Spices"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, router, http.MethodPost, "/api/categories", domain.Category{ID: "CAT-9", Name: "Spices"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate id, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodPost, "/api/categories", domain.Category{Name: "No id"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without id, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPut, "/api/categories/CAT-9", domain.Category{ID: "CAT-1", Name: "Herbs"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on id mismatch, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodPut, "/api/categories/CAT-9", domain.Category{ID: "CAT-9", Name: "Herbs"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/api/categories", nil)
	if cats := decodeBody[[]domain.Category](t, rec); len(cats) != 1 || cats[0].Name != "Herbs" {
		t.Fatalf("unexpected categories %+v", cats)
	}

	rec = do(t, router, http.MethodDelete, "/api/categories/CAT-9", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if _, err := st.Categories().Get(context.Background(), "CAT-9"); err == nil {
		t.Fatal("expected category to be deleted")
	}

	rec = do(t, router, http.MethodGet, "/api/categories/CAT-9", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodPatch, "/api/categories/CAT-9", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestUserUpdateKeepsPasswordHash(t *testing.T) {
	router, st := newTestRouter(t)
	ctx := context.Background()

	user, _ := st.Users().Get(ctx, "BUY-1")
	user.PasswordHash = "hash"
	if _, err := st.Users().Update(ctx, user); err != nil {
		t.Fatalf("update: %v", err)
	}

	user.PasswordHash = ""
	user.Location = "Ibadan"
	rec := do(t, router, http.MethodPut, "/api/users/BUY-1", user)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "hash") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}

	stored, _ := st.Users().Get(ctx, "BUY-1")
	if stored.PasswordHash != "hash" || stored.Location != "Ibadan" {
		t.Fatalf("unexpected stored user %+v", stored)
	}
}

func TestQuoteAndCheckoutFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	cart := []service.CartItem{{ProductID: "PRD-1", Quantity: 2}}
	rec := do(t, router, http.MethodPost, "/api/cart/quote", service.QuoteInput{Items: cart, PromoCode: "save10"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	quote := decodeBody[service.Quote](t, rec)
	if !quote.Total.Equal(decimal.NewFromInt(6800)) {
		t.Fatalf("expected total 6800, got %s", quote.Total)
	}

	rec = do(t, router, http.MethodPost, "/api/cart/quote", service.QuoteInput{Items: cart, PromoCode: "NOPE"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown code, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/api/orders/checkout", service.CheckoutInput{
		BuyerID:         "BUY-1",
		Items:           cart,
		PromoCode:       "SAVE10",
		ShippingAddress: "12 Marina, Lagos",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	order := decodeBody[domain.Order](t, rec)
	if order.Status != domain.OrderPaid || order.EscrowStatus != domain.EscrowHeld {
		t.Fatalf("unexpected order state %s/%s", order.Status, order.EscrowStatus)
	}

	rec = do(t, router, http.MethodPost, "/api/orders/"+order.ID+"/confirm", api.ActorRequest{ActorID: "BUY-1"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 confirming an unshipped order, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/api/orders/"+order.ID+"/ship", api.ActorRequest{ActorID: "BUY-1"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 when a buyer ships, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/api/orders/"+order.ID+"/ship", api.ActorRequest{ActorID: "VND-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, router, http.MethodPost, "/api/orders/"+order.ID+"/confirm", api.ActorRequest{ActorID: "BUY-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[domain.Order](t, rec); got.Status != domain.OrderCompleted {
		t.Fatalf("expected completed order, got %s", got.Status)
	}

	rec = do(t, router, http.MethodGet, "/api/users/VND-1/payouts", nil)
	payouts := decodeBody[[]domain.Payout](t, rec)
	if len(payouts) != 1 || payouts[0].Status != domain.PayoutPending {
		t.Fatalf("unexpected payouts %+v", payouts)
	}

	rec = do(t, router, http.MethodPost, "/api/payouts/"+payouts[0].ID+"/paid", api.ActorRequest{ActorID: "ADM-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/api/users/BUY-1/orders", nil)
	if orders := decodeBody[[]domain.Order](t, rec); len(orders) != 1 {
		t.Fatalf("expected one buyer order, got %d", len(orders))
	}
}

func TestDisputeFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/orders/checkout", service.CheckoutInput{
		BuyerID:         "BUY-1",
		Items:           []service.CartItem{{ProductID: "PRD-1", Quantity: 1}},
		ShippingAddress: "12 Marina, Lagos",
	})
	order := decodeBody[domain.Order](t, rec)

	rec = do(t, router, http.MethodPost, "/api/disputes/open", service.OpenDisputeInput{OrderID: order.ID, BuyerID: "BUY-1", Reason: "never arrived"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	dispute := decodeBody[domain.Dispute](t, rec)

	rec = do(t, router, http.MethodGet, "/api/disputes/queue", nil)
	if queue := decodeBody[[]domain.Dispute](t, rec); len(queue) != 1 {
		t.Fatalf("expected one queued dispute, got %d", len(queue))
	}

	rec = do(t, router, http.MethodPost, "/api/disputes/"+dispute.ID+"/resolve", api.ResolveDisputeRequest{
		ActorID:             "BUY-1",
		ResolveDisputeInput: service.ResolveDisputeInput{Outcome: domain.OutcomeRefundBuyer, Resolution: "refund"},
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-staff resolver, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/api/disputes/"+dispute.ID+"/resolve", api.ResolveDisputeRequest{
		ActorID:             "SUP-1",
		ResolveDisputeInput: service.ResolveDisputeInput{Outcome: domain.OutcomeRefundBuyer, Resolution: "refund"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/api/orders/"+order.ID, nil)
	if got := decodeBody[domain.Order](t, rec); got.Status != domain.OrderRefunded || got.EscrowStatus != domain.EscrowRefunded {
		t.Fatalf("unexpected order after refund %s/%s", got.Status, got.EscrowStatus)
	}
}

func TestContentAndViews(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/content/about", nil)
	if page := decodeBody[domain.Page](t, rec); page.Title != "About" {
		t.Fatalf("unexpected page %+v", page)
	}
	rec = do(t, router, http.MethodGet, "/api/content/draft", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unpublished page, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodGet, "/api/content/draft?drafts=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected draft preview, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/api/views/resolve?path=/products/PRD-1", nil)
	route := decodeBody[views.Route](t, rec)
	if route.View != views.Product || route.Param != "PRD-1" {
		t.Fatalf("unexpected route %+v", route)
	}
}

func TestRecommendationsAndOverview(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/recommendations/BUY-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, router, http.MethodGet, "/api/recommendations/", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without user, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/api/admin/overview", nil)
	ov := decodeBody[service.Overview](t, rec)
	if ov.Users != 4 || ov.Products != 1 {
		t.Fatalf("unexpected overview %+v", ov)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := NewRouter(logging.Discard(), RouterDependencies{AllowedOrigins: []string{"https://shop.test"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "https://shop.test")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "https://shop.test" {
		t.Fatalf("unexpected preflight response %d %v", rec.Code, rec.Header())
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "https://evil.test")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unknown origin, got %d", rec.Code)
	}
}
