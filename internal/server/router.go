package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanshika/marketplace/internal/api"
	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/store"
)

// RouterDependencies collects handler dependencies.
type RouterDependencies struct {
	Health           HealthService
	API              *APIHandlers
	AllowedOrigins   []string
	AllowCredentials bool
}

// NewRouter wires the HTTP routes exposed by the marketplace API.
func NewRouter(logger *slog.Logger, deps RouterDependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		payload := api.HealthResponse{Status: "ok"}

		if deps.Health != nil {
			if err := deps.Health.Probe(ctx); err != nil {
				logger.Error("health probe failed", "error", err)
				status = http.StatusServiceUnavailable
				payload.Status = "degraded"
				payload.Error = err.Error()
			}
		}

		respondJSON(w, status, payload)
	})

	if deps.API != nil {
		h := deps.API
		mux.HandleFunc("/api/auth/register", h.handleRegister)
		mux.HandleFunc("/api/auth/login", h.handleLogin)
		mux.HandleFunc("/api/cart/quote", h.handleQuote)
		mux.HandleFunc("/api/recommendations/", h.handleRecommendations)
		mux.HandleFunc("/api/admin/overview", h.handleOverview)
		mux.HandleFunc("/api/views/resolve", h.handleResolveView)
		mux.HandleFunc("/api/content/", h.handleContent)

		for _, res := range h.resources() {
			mux.Handle(res.prefix, res)
			mux.Handle(res.prefix+"/", res)
		}
	}

	handler := http.Handler(loggingMiddleware(logger, mux))
	if len(deps.AllowedOrigins) > 0 {
		handler = corsMiddleware(deps.AllowedOrigins, deps.AllowCredentials)(handler)
	}
	return handler
}

// resources builds one router per store collection with the domain operations layered on top.
func (h *APIHandlers) resources() []*resource {
	st := h.service.Store()

	users := newCollectionHandler(h, store.CollectionUsers, st.Users())
	users.present = domain.User.Public
	users.merge = func(existing, incoming domain.User) domain.User {
		if incoming.PasswordHash == "" {
			incoming.PasswordHash = existing.PasswordHash
		}
		return incoming
	}

	return []*resource{
		newResource(store.CollectionUsers, users).
			itemAction("status", http.MethodPost, h.setUserStatus).
			itemAction("profile", http.MethodPost, h.updateProfile).
			itemAction("orders", http.MethodGet, h.buyerOrders).
			itemAction("sales", http.MethodGet, h.vendorSales).
			itemAction("payouts", http.MethodGet, h.vendorPayouts),
		newResource(store.CollectionProducts, newCollectionHandler(h, store.CollectionProducts, st.Products())).
			action("publish", http.MethodPost, h.publishProduct).
			itemAction("edit", http.MethodPost, h.editProduct).
			itemAction("withdraw", http.MethodPost, h.withdrawProduct),
		newResource(store.CollectionCategories, newCollectionHandler(h, store.CollectionCategories, st.Categories())).
			action("define", http.MethodPost, h.defineCategory),
		newResource(store.CollectionReviews, newCollectionHandler(h, store.CollectionReviews, st.Reviews())).
			action("submit", http.MethodPost, h.submitReview),
		newResource(store.CollectionPromotions, newCollectionHandler(h, store.CollectionPromotions, st.Promotions())).
			action("validate", http.MethodPost, h.validatePromotion).
			action("issue", http.MethodPost, h.issuePromotion).
			itemAction("edit", http.MethodPost, h.editPromotion),
		newResource(store.CollectionPages, newCollectionHandler(h, store.CollectionPages, st.Pages())).
			action("compose", http.MethodPost, h.composePage).
			itemAction("edit", http.MethodPost, h.editPage),
		newResource(store.CollectionOrders, newCollectionHandler(h, store.CollectionOrders, st.Orders())).
			action("checkout", http.MethodPost, h.checkout).
			itemAction("ship", http.MethodPost, h.shipOrder).
			itemAction("confirm", http.MethodPost, h.confirmOrder).
			itemAction("cancel", http.MethodPost, h.cancelOrder),
		newResource(store.CollectionDisputes, newCollectionHandler(h, store.CollectionDisputes, st.Disputes())).
			action("open", http.MethodPost, h.openDispute).
			action("queue", http.MethodGet, h.supportQueue).
			itemAction("assign", http.MethodPost, h.assignDispute).
			itemAction("resolve", http.MethodPost, h.resolveDispute),
		newResource(store.CollectionKYC, newCollectionHandler(h, store.CollectionKYC, st.KYC())).
			action("submit", http.MethodPost, h.submitKYC).
			action("pending", http.MethodGet, h.pendingKYC).
			itemAction("review", http.MethodPost, h.reviewKYC),
		newResource(store.CollectionPayouts, newCollectionHandler(h, store.CollectionPayouts, st.Payouts())).
			itemAction("paid", http.MethodPost, h.markPayoutPaid),
	}
}

func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func corsMiddleware(allowedOrigins []string, allowCredentials bool) func(http.Handler) http.Handler {
	normalized := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		normalized[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || (!containsOrigin(normalized, origin) && !containsOrigin(normalized, "*")) {
				if r.Method == http.MethodOptions {
					// Reject bare pre-flight if origin is not whitelisted.
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			if allowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func containsOrigin(set map[string]struct{}, origin string) bool {
	_, ok := set[origin]
	return ok
}
