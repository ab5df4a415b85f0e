package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/events"
)

// ShipOrder marks a paid order as shipped. Any vendor with items in the order may ship it.
func (s *Service) ShipOrder(ctx context.Context, vendorID, orderID string) (domain.Order, error) {
	if _, err := s.vendor(ctx, vendorID); err != nil {
		return domain.Order{}, err
	}
	order, err := s.store.Orders().Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("load order: %w", err)
	}
	if !slices.Contains(order.VendorIDs(), vendorID) {
		return domain.Order{}, fmt.Errorf("vendor %s has no items in order %s: %w", vendorID, orderID, ErrForbidden)
	}
	if order.Status != domain.OrderPaid {
		return domain.Order{}, fmt.Errorf("order %s is %s, want %s: %w", orderID, order.Status, domain.OrderPaid, ErrInvalidState)
	}

	order.Status = domain.OrderShipped
	updated, err := s.saveOrder(ctx, order)
	if err != nil {
		return domain.Order{}, err
	}
	s.publish(ctx, events.OrderShipped, updated.ID, map[string]any{"vendorId": vendorID})
	return updated, nil
}

// ConfirmDelivery completes a shipped order, releases escrow and creates vendor payouts.
func (s *Service) ConfirmDelivery(ctx context.Context, buyerID, orderID string) (domain.Order, error) {
	order, err := s.store.Orders().Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("load order: %w", err)
	}
	if order.BuyerID != buyerID {
		return domain.Order{}, fmt.Errorf("order %s belongs to another buyer: %w", orderID, ErrForbidden)
	}
	if order.Status != domain.OrderShipped {
		return domain.Order{}, fmt.Errorf("order %s is %s, want %s: %w", orderID, order.Status, domain.OrderShipped, ErrInvalidState)
	}

	order.Status = domain.OrderCompleted
	order.EscrowStatus = domain.EscrowReleased
	updated, err := s.saveOrder(ctx, order)
	if err != nil {
		return domain.Order{}, err
	}
	if _, err := s.createPayouts(ctx, updated); err != nil {
		return domain.Order{}, err
	}
	s.publish(ctx, events.OrderCompleted, updated.ID, map[string]any{"buyerId": buyerID})
	return updated, nil
}

// CancelOrder cancels an order that has not shipped, refunds escrow and restocks the items.
// The buyer or an admin may cancel. Promotion usage is not given back.
func (s *Service) CancelOrder(ctx context.Context, actorID, orderID string) (domain.Order, error) {
	actor, err := s.activeUser(ctx, actorID)
	if err != nil {
		return domain.Order{}, err
	}
	order, err := s.store.Orders().Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("load order: %w", err)
	}
	if order.BuyerID != actor.ID && actor.Role != domain.RoleAdmin {
		return domain.Order{}, fmt.Errorf("order %s belongs to another buyer: %w", orderID, ErrForbidden)
	}
	if order.Status != domain.OrderPaid {
		return domain.Order{}, fmt.Errorf("order %s is %s, only paid orders can be cancelled: %w", orderID, order.Status, ErrInvalidState)
	}

	order.Status = domain.OrderCancelled
	order.EscrowStatus = domain.EscrowRefunded
	updated, err := s.saveOrder(ctx, order)
	if err != nil {
		return domain.Order{}, err
	}
	s.restock(ctx, updated.ID, updated.Items)
	s.publish(ctx, events.OrderCancelled, updated.ID, map[string]any{"by": actor.ID})
	return updated, nil
}

// OrdersForBuyer lists the orders placed by buyerID.
func (s *Service) OrdersForBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	return s.filterOrders(ctx, func(o domain.Order) bool { return o.BuyerID == buyerID })
}

// OrdersForVendor lists the orders containing items sold by vendorID.
func (s *Service) OrdersForVendor(ctx context.Context, vendorID string) ([]domain.Order, error) {
	return s.filterOrders(ctx, func(o domain.Order) bool { return slices.Contains(o.VendorIDs(), vendorID) })
}

func (s *Service) filterOrders(ctx context.Context, keep func(domain.Order) bool) ([]domain.Order, error) {
	orders, err := s.store.Orders().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Service) saveOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	order.UpdatedAt = s.now()
	updated, err := s.store.Orders().Update(ctx, order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order: %w", err)
	}
	s.logger.Info("order updated", "orderId", updated.ID, "status", updated.Status, "escrow", updated.EscrowStatus)
	return updated, nil
}

// createPayouts splits the released goods value across vendors. Each vendor bears the part of the
// discount earned by its discounted lines; the platform keeps the shipping fee.
func (s *Service) createPayouts(ctx context.Context, order domain.Order) ([]domain.Payout, error) {
	shares := VendorPayouts(order)
	payouts := make([]domain.Payout, 0, len(shares))
	now := s.now()
	for _, vendorID := range order.VendorIDs() {
		status := domain.PayoutOnHold
		if vendor, err := s.store.Users().Get(ctx, vendorID); err == nil && vendor.KYCStatus == domain.KYCApproved {
			status = domain.PayoutPending
		}
		payout, err := s.store.Payouts().Create(ctx, domain.Payout{
			ID:        s.idFn("pay"),
			VendorID:  vendorID,
			OrderID:   order.ID,
			Amount:    shares[vendorID],
			Status:    status,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return nil, fmt.Errorf("create payout: %w", err)
		}
		payouts = append(payouts, payout)
	}
	return payouts, nil
}

// VendorPayouts returns each vendor's line totals minus its part of order.Discount. The discount
// is split pro rata over the lines marked Discounted at checkout, or over every line for orders
// that carry no marks. Rounding residue goes to the last charged vendor so the shares always sum
// to the discounted subtotal.
func VendorPayouts(order domain.Order) map[string]decimal.Decimal {
	vendors := order.VendorIDs()
	out := make(map[string]decimal.Decimal, len(vendors))

	base := order.VendorShare
	if order.HasDiscountedItems() {
		base = order.DiscountedShare
	}
	baseTotal := decimal.Zero
	last := ""
	for _, vendorID := range vendors {
		if b := base(vendorID); b.IsPositive() {
			baseTotal = baseTotal.Add(b)
			last = vendorID
		}
	}

	discount := decimal.Min(decimal.Max(order.Discount, decimal.Zero), order.Subtotal)
	remaining := discount
	for _, vendorID := range vendors {
		cut := decimal.Zero
		switch b := base(vendorID); {
		case vendorID == last:
			cut = remaining
		case b.IsPositive():
			cut = discount.Mul(b).Div(baseTotal).Round(2)
			remaining = remaining.Sub(cut)
		}
		share := order.VendorShare(vendorID).Sub(cut)
		if share.IsNegative() {
			share = decimal.Zero
		}
		out[vendorID] = share
	}
	return out
}

// MarkPayoutPaid settles a pending payout. Only admins may do this.
func (s *Service) MarkPayoutPaid(ctx context.Context, adminID, payoutID string) (domain.Payout, error) {
	admin, err := s.activeUser(ctx, adminID)
	if err != nil {
		return domain.Payout{}, err
	}
	if admin.Role != domain.RoleAdmin {
		return domain.Payout{}, fmt.Errorf("user %s is not an admin: %w", adminID, ErrForbidden)
	}
	payout, err := s.store.Payouts().Get(ctx, payoutID)
	if err != nil {
		return domain.Payout{}, fmt.Errorf("load payout: %w", err)
	}
	if payout.Status != domain.PayoutPending {
		return domain.Payout{}, fmt.Errorf("payout %s is %s: %w", payoutID, payout.Status, ErrInvalidState)
	}
	payout.Status = domain.PayoutPaid
	payout.UpdatedAt = s.now()
	updated, err := s.store.Payouts().Update(ctx, payout)
	if err != nil {
		return domain.Payout{}, fmt.Errorf("update payout: %w", err)
	}
	s.logger.Info("payout paid", "payoutId", payoutID, "vendorId", updated.VendorID, "amount", updated.Amount.StringFixed(2))
	return updated, nil
}

// PayoutsForVendor lists vendorID's payouts.
func (s *Service) PayoutsForVendor(ctx context.Context, vendorID string) ([]domain.Payout, error) {
	payouts, err := s.store.Payouts().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	out := make([]domain.Payout, 0, len(payouts))
	for _, p := range payouts {
		if p.VendorID == vendorID {
			out = append(out, p)
		}
	}
	return out, nil
}
