package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vanshika/marketplace/internal/config"
	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/fixture"
	"github.com/vanshika/marketplace/internal/logging"
	"github.com/vanshika/marketplace/internal/server"
	"github.com/vanshika/marketplace/internal/service"
	"github.com/vanshika/marketplace/internal/store"
	"github.com/vanshika/marketplace/internal/store/memory"
)

func testClient(url string) *Client {
	return New(config.ClientConfig{
		BaseURL:     url,
		Timeout:     time.Second,
		MaxAttempts: 3,
		BaseBackoff: time.Millisecond,
	}, logging.Discard())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode([]domain.Category{{ID: "CAT-1", Name: "Grains"}})
	}))
	defer srv.Close()

	cats, err := testClient(srv.URL).Categories().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, cats, 1)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_RetriesTooManyRequestsUntilExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Products().List(context.Background())
	require.ErrorIs(t, err, ErrRetriesExhausted)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"order ORD-9: not found"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Orders().Get(context.Background(), "ORD-9")
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, err.Error(), "order ORD-9: not found")
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_RetriesAttemptTimeout(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		_ = json.NewEncoder(w).Encode(domain.Page{ID: "PG-1", Slug: "about"})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.timeout = 50 * time.Millisecond

	page, err := c.Pages().Get(context.Background(), "PG-1")
	require.NoError(t, err)
	assert.Equal(t, "about", page.Slug)
	assert.EqualValues(t, 2, calls.Load())
}

func TestClient_DoesNotRepeatCheckoutAfterServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Checkout(context.Background(), service.CheckoutInput{BuyerID: "BUY-1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRetriesExhausted)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_RetriesThrottledCheckout(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(domain.Order{ID: "ORD-1"})
	}))
	defer srv.Close()

	order, err := testClient(srv.URL).Checkout(context.Background(), service.CheckoutInput{BuyerID: "BUY-1"})
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", order.ID)
	assert.EqualValues(t, 2, calls.Load())
}

func TestClient_RetriesReadOnlyPost(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(service.Quote{Currency: "NGN"})
	}))
	defer srv.Close()

	q, err := testClient(srv.URL).Quote(context.Background(), service.QuoteInput{})
	require.NoError(t, err)
	assert.Equal(t, "NGN", q.Currency)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_StopsWhenCallerCancels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testClient(srv.URL).Users().List(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStatusError_Unwrap(t *testing.T) {
	cases := map[int]error{
		http.StatusNotFound:     store.ErrNotFound,
		http.StatusConflict:     store.ErrConflict,
		http.StatusForbidden:    service.ErrForbidden,
		http.StatusUnauthorized: service.ErrInvalidCredentials,
	}
	for code, want := range cases {
		err := &StatusError{Method: http.MethodGet, Path: "/x", StatusCode: code}
		assert.True(t, errors.Is(err, want), "status %d", code)
	}
	assert.Nil(t, (&StatusError{StatusCode: http.StatusBadRequest}).Unwrap())
}

func TestClient_AgainstServer(t *testing.T) {
	st, err := memory.NewFromDataset(fixture.Dataset{
		Users: []domain.User{
			{ID: "BUY-1", Name: "Ada", Email: "ada@example.com", Role: domain.RoleBuyer, Status: domain.UserActive},
			{ID: "VND-1", Name: "Farm", Email: "farm@example.com", Role: domain.RoleVendor, StoreName: "Farm", KYCStatus: domain.KYCApproved, Status: domain.UserActive},
		},
		Products: []domain.Product{
			{ID: "PRD-1", VendorID: "VND-1", Name: "Rice", Category: "Grains", Price: decimal.NewFromInt(1000), Stock: 5, Status: domain.ProductActive},
		},
	})
	require.NoError(t, err)

	settings := service.DefaultSettings()
	settings.BcryptCost = bcrypt.MinCost
	svc := service.New(st, nil, logging.Discard(), settings)
	router := server.NewRouter(logging.Discard(), server.RouterDependencies{
		Health: server.StoreHealthService{Store: st},
		API:    server.NewAPIHandlers(logging.Discard(), svc),
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx := context.Background()
	c := testClient(srv.URL)
	require.NoError(t, c.Ping(ctx))

	_, err = c.Register(ctx, service.RegisterInput{Name: "Bisi", Email: "ada@example.com", Password: "long-enough"})
	require.ErrorIs(t, err, store.ErrConflict)

	order, err := c.Checkout(ctx, service.CheckoutInput{
		BuyerID:         "BUY-1",
		Items:           []service.CartItem{{ProductID: "PRD-1", Quantity: 2}},
		ShippingAddress: "1 Broad St",
	})
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(7000)), "total %s", order.Total)

	_, err = c.TransitionOrder(ctx, "ship", "BUY-1", order.ID)
	require.ErrorIs(t, err, service.ErrForbidden)

	shipped, err := c.TransitionOrder(ctx, "ship", "VND-1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderShipped, shipped.Status)

	product, err := c.Products().Get(ctx, "PRD-1")
	require.NoError(t, err)
	assert.Equal(t, 3, product.Stock)

	product.Description = "Long grain"
	_, err = c.Products().Update(ctx, product)
	require.NoError(t, err)

	require.ErrorIs(t, c.Categories().Delete(ctx, "missing"), store.ErrNotFound)

	orders, err := c.OrdersForBuyer(ctx, "BUY-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}
