package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/events"
	"github.com/vanshika/marketplace/internal/promotion"
)

// CartItem is a product and quantity chosen by the buyer.
type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// QuoteInput asks for the priced breakdown of a cart.
type QuoteInput struct {
	Items     []CartItem `json:"items"`
	PromoCode string     `json:"promoCode"`
}

// CheckoutInput places an order for a cart.
type CheckoutInput struct {
	BuyerID         string     `json:"buyerId"`
	Items           []CartItem `json:"items"`
	PromoCode       string     `json:"promoCode"`
	ShippingAddress string     `json:"shippingAddress"`
}

// Quote is a priced cart.
type Quote struct {
	Items       []domain.OrderItem `json:"items"`
	Subtotal    decimal.Decimal    `json:"subtotal"`
	ShippingFee decimal.Decimal    `json:"shippingFee"`
	Discount    decimal.Decimal    `json:"discount"`
	Total       decimal.Decimal    `json:"total"`
	Currency    string             `json:"currency"`
	PromoCode   string             `json:"promoCode,omitempty"`

	promotionID string
}

// Quote resolves the cart against the catalogue, applies the promotion code if any and computes
// the totals. Nothing is persisted.
func (s *Service) Quote(ctx context.Context, in QuoteInput) (Quote, error) {
	items, err := s.resolveCart(ctx, in.Items)
	if err != nil {
		return Quote{}, err
	}

	lines := promotion.LinesFromItems(items)

	q := Quote{Items: items, Currency: s.settings.Currency}
	discount := decimal.Zero
	if code := promotion.NormalizeCode(in.PromoCode); code != "" {
		promos, err := s.store.Promotions().List(ctx)
		if err != nil {
			return Quote{}, fmt.Errorf("list promotions: %w", err)
		}
		res, err := promotion.Evaluate(lines, code, promos, s.now())
		if err != nil {
			return Quote{}, err
		}
		discount = res.Discount
		promotion.MarkDiscounted(items, res.Eligible)
		q.PromoCode = res.Promotion.Code
		q.promotionID = res.Promotion.ID
	}

	totals := promotion.ComputeTotals(promotion.Subtotal(lines), s.settings.ShippingFee, discount)
	q.Subtotal = totals.Subtotal
	q.ShippingFee = totals.ShippingFee
	q.Discount = totals.Discount
	q.Total = totals.Total
	return q, nil
}

// Checkout places an escrow order: stock is taken, sales and promotion usage are counted and the
// order is created paid with funds held. Writes are not transactional.
func (s *Service) Checkout(ctx context.Context, in CheckoutInput) (domain.Order, error) {
	buyer, err := s.activeUser(ctx, in.BuyerID)
	if err != nil {
		return domain.Order{}, err
	}
	if buyer.Role != domain.RoleBuyer {
		return domain.Order{}, fmt.Errorf("user %s is not a buyer: %w", buyer.ID, ErrForbidden)
	}
	address := sanitizeString(in.ShippingAddress)
	if address == "" {
		return domain.Order{}, invalid("shippingAddress", "is required")
	}

	q, err := s.Quote(ctx, QuoteInput{Items: in.Items, PromoCode: in.PromoCode})
	if err != nil {
		return domain.Order{}, err
	}
	if s.requiresKYC(q.Total) && buyer.KYCStatus != domain.KYCApproved {
		return domain.Order{}, fmt.Errorf("orders above %s %s need approved KYC: %w",
			s.settings.KYCThreshold.StringFixed(2), s.settings.Currency, ErrForbidden)
	}

	taken := make([]domain.OrderItem, 0, len(q.Items))
	for _, item := range q.Items {
		if err := s.adjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			s.restock(ctx, "", taken)
			return domain.Order{}, err
		}
		taken = append(taken, item)
	}
	if q.promotionID != "" {
		if err := s.countPromotionUse(ctx, q.promotionID); err != nil {
			s.restock(ctx, "", taken)
			return domain.Order{}, err
		}
	}

	now := s.now()
	order := domain.Order{
		ID:              s.idFn("ord"),
		BuyerID:         buyer.ID,
		Items:           q.Items,
		Subtotal:        q.Subtotal,
		ShippingFee:     q.ShippingFee,
		Discount:        q.Discount,
		Total:           q.Total,
		Currency:        q.Currency,
		PromoCode:       q.PromoCode,
		Status:          domain.OrderPaid,
		EscrowStatus:    domain.EscrowHeld,
		ShippingAddress: address,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	created, err := s.store.Orders().Create(ctx, order)
	if err != nil {
		s.restock(ctx, "", taken)
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order placed",
		"orderId", created.ID,
		"buyerId", created.BuyerID,
		"total", created.Total.StringFixed(2),
		"promoCode", created.PromoCode,
	)
	s.publish(ctx, events.OrderPlaced, created.ID, map[string]any{
		"buyerId":   created.BuyerID,
		"vendorIds": created.VendorIDs(),
		"total":     created.Total.StringFixed(2),
		"currency":  created.Currency,
	})
	return created, nil
}

func (s *Service) requiresKYC(total decimal.Decimal) bool {
	return s.settings.KYCThreshold.IsPositive() && total.GreaterThan(s.settings.KYCThreshold)
}

// resolveCart merges duplicate products, checks availability and snapshots each line.
func (s *Service) resolveCart(ctx context.Context, cart []CartItem) ([]domain.OrderItem, error) {
	if len(cart) == 0 {
		return nil, invalid("items", "cart is empty")
	}
	quantities := make(map[string]int, len(cart))
	var order []string
	for _, ci := range cart {
		id := strings.TrimSpace(ci.ProductID)
		if id == "" {
			return nil, invalid("items", "productId is required")
		}
		if ci.Quantity <= 0 {
			return nil, invalid("items", fmt.Sprintf("quantity for %s must be positive", id))
		}
		if _, ok := quantities[id]; !ok {
			order = append(order, id)
		}
		quantities[id] += ci.Quantity
	}

	items := make([]domain.OrderItem, 0, len(order))
	for _, id := range order {
		product, err := s.store.Products().Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load product: %w", err)
		}
		qty := quantities[id]
		if product.Status != domain.ProductActive {
			return nil, invalid("items", fmt.Sprintf("%s is not available", product.Name))
		}
		if product.Stock < qty {
			return nil, invalid("items", fmt.Sprintf("only %d of %s in stock", product.Stock, product.Name))
		}
		items = append(items, domain.OrderItem{
			ProductID:   product.ID,
			VendorID:    product.VendorID,
			Name:        product.Name,
			Category:    product.Category,
			Subcategory: product.Subcategory,
			UnitPrice:   product.Price,
			Quantity:    qty,
		})
	}
	return items, nil
}

// adjustStock moves delta units into stock and the opposite amount into sales.
func (s *Service) adjustStock(ctx context.Context, productID string, delta int) error {
	product, err := s.store.Products().Get(ctx, productID)
	if err != nil {
		return fmt.Errorf("load product: %w", err)
	}
	if product.Stock+delta < 0 {
		return invalid("items", fmt.Sprintf("only %d of %s in stock", product.Stock, product.Name))
	}
	product.Stock += delta
	product.Sales -= delta
	if product.Sales < 0 {
		product.Sales = 0
	}
	product.UpdatedAt = s.now()
	if _, err := s.store.Products().Update(ctx, product); err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}
	return nil
}

// restock puts items back on the shelf. It outlives ctx cancellation so a failed checkout does not
// leave stock taken; products it cannot restore are logged.
func (s *Service) restock(ctx context.Context, orderID string, items []domain.OrderItem) {
	ctx = context.WithoutCancel(ctx)
	for _, item := range items {
		if err := s.adjustStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Warn("restock failed",
				"orderId", orderID,
				"productId", item.ProductID,
				"quantity", item.Quantity,
				"error", err,
			)
		}
	}
}

func (s *Service) countPromotionUse(ctx context.Context, promotionID string) error {
	promo, err := s.store.Promotions().Get(ctx, promotionID)
	if err != nil {
		return fmt.Errorf("load promotion: %w", err)
	}
	promo.UsageCount++
	promo.UpdatedAt = s.now()
	if _, err := s.store.Promotions().Update(ctx, promo); err != nil {
		return fmt.Errorf("update promotion usage: %w", err)
	}
	return nil
}
