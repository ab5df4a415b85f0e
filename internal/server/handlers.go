package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vanshika/marketplace/internal/api"
	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/promotion"
	"github.com/vanshika/marketplace/internal/service"
	"github.com/vanshika/marketplace/internal/store"
	"github.com/vanshika/marketplace/internal/views"
)

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger  *slog.Logger
	service *service.Service
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc *service.Service) *APIHandlers {
	return &APIHandlers{
		logger:  logger,
		service: svc,
	}
}

// --- Accounts ---

func (h *APIHandlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var payload service.RegisterInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.service.Register(r.Context(), payload)
	if err != nil {
		h.writeServiceError(w, err, "failed to register user")
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (h *APIHandlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var payload service.LoginInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.service.Login(r.Context(), payload)
	if err != nil {
		h.writeServiceError(w, err, "failed to log in")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *APIHandlers) setUserStatus(w http.ResponseWriter, r *http.Request, id string) {
	var payload api.UserStatusRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.service.SetUserStatus(r.Context(), payload.ActorID, id, payload.Status)
	if err != nil {
		h.writeServiceError(w, err, "failed to change user status", "userId", id)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *APIHandlers) updateProfile(w http.ResponseWriter, r *http.Request, id string) {
	var payload service.ProfileInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), id, payload)
	if err != nil {
		h.writeServiceError(w, err, "failed to update profile", "userId", id)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *APIHandlers) buyerOrders(w http.ResponseWriter, r *http.Request, id string) {
	orders, err := h.service.OrdersForBuyer(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "failed to list orders", "userId", id)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *APIHandlers) vendorSales(w http.ResponseWriter, r *http.Request, id string) {
	orders, err := h.service.OrdersForVendor(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "failed to list orders", "vendorId", id)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *APIHandlers) vendorPayouts(w http.ResponseWriter, r *http.Request, id string) {
	payouts, err := h.service.PayoutsForVendor(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "failed to list payouts", "vendorId", id)
		return
	}
	respondJSON(w, http.StatusOK, payouts)
}

// --- Catalogue ---

func (h *APIHandlers) publishProduct(w http.ResponseWriter, r *http.Request) {
	var payload service.ProductInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	product, err := h.service.CreateProduct(r.Context(), payload)
	if err != nil {
		h.writeServiceError(w, err, "failed to create product")
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *APIHandlers) editProduct(w http.ResponseWriter, r *http.Request, id string) {
	var payload service.ProductInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), id, payload)
	if err != nil {
		h.writeServiceError(w, err, "failed to update product", "productId", id)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *APIHandlers) withdrawProduct(w http.ResponseWriter, r *http.Request, id string) {
	var payload api.ActorRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.service.DeleteProduct(r.Context(), payload.ActorID, id); err != nil {
		h.writeServiceError(w, err, "failed to delete product", "productId", id)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *APIHandlers) defineCategory(w http.ResponseWriter, r *http.Request) {
	var payload api.CategoryRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	category, err := h.service.CreateCategory(r.Context(), payload.Name, payload.Subcategories)
	if err != nil {
		h.writeServiceError(w, err, "failed to create category")
		return
	}
	respondJSON(w, http.StatusCreated, category)
}

func (h *APIHandlers) submitReview(w http.ResponseWriter, r *http.Request) {
	var payload service.ReviewInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	review, err := h.service.AddReview(r.Context(), payload)
	if err != nil {
		h.writeServiceError(w, err, "failed to add review")
		return
	}
	respondJSON(w, http.StatusCreated, review)
}

// --- Promotions & checkout ---

func (h *APIHandlers) issuePromotion(w http.ResponseWriter, r *http.Request) {
	var payload api.PromotionRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	promo, err := h.service.CreatePromotion(r.Context(), payload.ActorID, payload.PromotionInput)
	if err != nil {
		h.writeServiceError(w, err, "failed to create promotion")
		return
	}
	respondJSON(w, http.StatusCreated, promo)
}

func (h *APIHandlers) editPromotion(w http.ResponseWriter, r *http.Request, id string) {
	var payload api.PromotionRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	promo, err := h.service.UpdatePromotion(r.Context(), payload.ActorID, id, payload.PromotionInput)
	if err != nil {
		h.writeServiceError(w, err, "failed to update promotion", "promotionId", id)
		return
	}
	respondJSON(w, http.StatusOK, promo)
}

func (h *APIHandlers) validatePromotion(w http.ResponseWriter, r *http.Request) {
	var payload api.ValidatePromotionRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	check, err := h.service.ValidatePromotion(r.Context(), payload.Code, payload.Lines)
	if err != nil {
		h.writeServiceError(w, err, "failed to validate promotion")
		return
	}
	respondJSON(w, http.StatusOK, check)
}

func (h *APIHandlers) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var payload service.QuoteInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	quote, err := h.service.Quote(r.Context(), payload)
	if err != nil {
		h.writeServiceError(w, err, "failed to price cart")
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

func (h *APIHandlers) checkout(w http.ResponseWriter, r *http.Request) {
	var payload service.CheckoutInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	order, err := h.service.Checkout(r.Context(), payload)
	if err != nil {
		h.writeServiceError(w, err, "failed to place order", "buyerId", payload.BuyerID)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

// --- Orders, disputes, KYC, payouts ---

func (h *APIHandlers) shipOrder(w http.ResponseWriter, r *http.Request, id string) {
	h.orderTransition(w, r, id, h.service.ShipOrder)
}

func (h *APIHandlers) confirmOrder(w http.ResponseWriter, r *http.Request, id string) {
	h.orderTransition(w, r, id, h.service.ConfirmDelivery)
}

func (h *APIHandlers) cancelOrder(w http.ResponseWriter, r *http.Request, id string) {
	h.orderTransition(w, r, id, h.service.CancelOrder)
}

type orderTransitionFn func(ctx context.Context, actorID, orderID string) (domain.Order, error)

func (h *APIHandlers) orderTransition(w http.ResponseWriter, r *http.Request, id string, fn orderTransitionFn) {
	var payload api.ActorRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	order, err := fn(r.Context(), payload.ActorID, id)
	if err != nil {
		h.writeServiceError(w, err, "failed to update order", "orderId", id)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *APIHandlers) openDispute(w http.ResponseWriter, r *http.Request) {
	var payload service.OpenDisputeInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dispute, err := h.service.OpenDispute(r.Context(), payload)
	if err != nil {
		h.writeServiceError(w, err, "failed to open dispute", "orderId", payload.OrderID)
		return
	}
	respondJSON(w, http.StatusCreated, dispute)
}

func (h *APIHandlers) assignDispute(w http.ResponseWriter, r *http.Request, id string) {
	var payload api.AssignDisputeRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dispute, err := h.service.AssignDispute(r.Context(), payload.ActorID, id, payload.AssigneeID)
	if err != nil {
		h.writeServiceError(w, err, "failed to assign dispute", "disputeId", id)
		return
	}
	respondJSON(w, http.StatusOK, dispute)
}

func (h *APIHandlers) resolveDispute(w http.ResponseWriter, r *http.Request, id string) {
	var payload api.ResolveDisputeRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dispute, err := h.service.ResolveDispute(r.Context(), payload.ActorID, id, payload.ResolveDisputeInput)
	if err != nil {
		h.writeServiceError(w, err, "failed to resolve dispute", "disputeId", id)
		return
	}
	respondJSON(w, http.StatusOK, dispute)
}

func (h *APIHandlers) supportQueue(w http.ResponseWriter, r *http.Request) {
	disputes, err := h.service.SupportQueue(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "failed to list disputes")
		return
	}
	respondJSON(w, http.StatusOK, disputes)
}

func (h *APIHandlers) submitKYC(w http.ResponseWriter, r *http.Request) {
	var payload service.KYCInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	submission, err := h.service.SubmitKYC(r.Context(), payload)
	if err != nil {
		h.writeServiceError(w, err, "failed to submit kyc", "userId", payload.UserID)
		return
	}
	respondJSON(w, http.StatusCreated, submission)
}

func (h *APIHandlers) reviewKYC(w http.ResponseWriter, r *http.Request, id string) {
	var payload api.KYCReviewRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	submission, err := h.service.ReviewKYC(r.Context(), payload.ActorID, id, payload.KYCReviewInput)
	if err != nil {
		h.writeServiceError(w, err, "failed to review kyc", "submissionId", id)
		return
	}
	respondJSON(w, http.StatusOK, submission)
}

func (h *APIHandlers) pendingKYC(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.PendingKYC(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "failed to list kyc submissions")
		return
	}
	respondJSON(w, http.StatusOK, subs)
}

func (h *APIHandlers) markPayoutPaid(w http.ResponseWriter, r *http.Request, id string) {
	var payload api.ActorRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	payout, err := h.service.MarkPayoutPaid(r.Context(), payload.ActorID, id)
	if err != nil {
		h.writeServiceError(w, err, "failed to settle payout", "payoutId", id)
		return
	}
	respondJSON(w, http.StatusOK, payout)
}

// --- Content ---

func (h *APIHandlers) composePage(w http.ResponseWriter, r *http.Request) {
	var payload service.PageInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := h.service.CreatePage(r.Context(), payload)
	if err != nil {
		h.writeServiceError(w, err, "failed to create page")
		return
	}
	respondJSON(w, http.StatusCreated, page)
}

func (h *APIHandlers) editPage(w http.ResponseWriter, r *http.Request, id string) {
	var payload service.PageInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := h.service.UpdatePage(r.Context(), id, payload)
	if err != nil {
		h.writeServiceError(w, err, "failed to update page", "pageId", id)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *APIHandlers) handleContent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	slug := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/content/"), "/")
	if slug == "" {
		writeError(w, http.StatusBadRequest, "slug is required")
		return
	}
	page, err := h.service.PageBySlug(r.Context(), slug, parseBool(r.URL.Query().Get("drafts")))
	if err != nil {
		h.writeServiceError(w, err, "failed to fetch page", "slug", slug)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// --- Dashboards ---

func (h *APIHandlers) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	userID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/recommendations/"), "/")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user ID is required")
		return
	}
	recs, err := h.service.Recommendations(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err, "failed to build recommendations", "userId", userID)
		return
	}
	respondJSON(w, http.StatusOK, recs)
}

func (h *APIHandlers) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	ov, err := h.service.Overview(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "failed to build overview")
		return
	}
	respondJSON(w, http.StatusOK, ov)
}

func (h *APIHandlers) handleResolveView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	respondJSON(w, http.StatusOK, views.Resolve(r.URL.Query().Get("path")))
}

// --- Helpers ---

// writeServiceError maps domain errors onto HTTP statuses. Unexpected errors are logged and
// reported with the generic message.
func (h *APIHandlers) writeServiceError(w http.ResponseWriter, err error, msg string, attrs ...any) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case service.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case promotion.IsRejection(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error(msg, append([]any{"error", err}, attrs...)...)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func parseBool(value string) bool {
	v, err := strconv.ParseBool(value)
	return err == nil && v
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, api.ErrorResponse{Error: msg})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
