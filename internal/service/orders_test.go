package service

import (
	"context"
	"errors"
	"testing"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/events"
)

func placeOrder(t *testing.T, svc *Service, buyerID string, items ...CartItem) domain.Order {
	t.Helper()
	order, err := svc.Checkout(context.Background(), CheckoutInput{
		BuyerID:         buyerID,
		Items:           items,
		ShippingAddress: "5 Broad Street",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	return order
}

func TestEscrowLifecycle_ShipConfirmAndPayout(t *testing.T) {
	svc, st, pub := newTestService(t)
	ctx := context.Background()
	order := placeOrder(t, svc, "BUY-1", CartItem{ProductID: "PRD-1", Quantity: 3})

	if _, err := svc.ConfirmDelivery(ctx, "BUY-1", order.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected confirm before shipping to fail, got %v", err)
	}
	if _, err := svc.ShipOrder(ctx, "VND-2", order.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected foreign vendor to be forbidden, got %v", err)
	}
	shipped, err := svc.ShipOrder(ctx, "VND-1", order.ID)
	if err != nil {
		t.Fatalf("ship: %v", err)
	}
	if shipped.Status != domain.OrderShipped || shipped.EscrowStatus != domain.EscrowHeld {
		t.Fatalf("unexpected state after ship %s/%s", shipped.Status, shipped.EscrowStatus)
	}
	if _, err := svc.ConfirmDelivery(ctx, "BUY-2", order.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected other buyer to be forbidden, got %v", err)
	}

	done, err := svc.ConfirmDelivery(ctx, "BUY-1", order.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if done.Status != domain.OrderCompleted || done.EscrowStatus != domain.EscrowReleased {
		t.Fatalf("unexpected state after confirm %s/%s", done.Status, done.EscrowStatus)
	}

	payouts, err := svc.PayoutsForVendor(ctx, "VND-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(payouts) != 1 {
		t.Fatalf("expected one payout, got %d", len(payouts))
	}
	if payouts[0].Status != domain.PayoutPending || payouts[0].Amount.String() != "3000" {
		t.Errorf("unexpected payout %+v", payouts[0])
	}

	if _, err := svc.MarkPayoutPaid(ctx, "SUP-1", payouts[0].ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected support to be forbidden, got %v", err)
	}
	paid, err := svc.MarkPayoutPaid(ctx, "ADM-1", payouts[0].ID)
	if err != nil || paid.Status != domain.PayoutPaid {
		t.Fatalf("expected paid payout, got %+v, %v", paid, err)
	}
	if _, err := svc.MarkPayoutPaid(ctx, "ADM-1", payouts[0].ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected second settlement to fail, got %v", err)
	}

	all, _ := st.Payouts().List(ctx)
	if len(all) != 1 {
		t.Errorf("expected one stored payout, got %d", len(all))
	}
	want := []string{events.OrderPlaced, events.OrderShipped, events.OrderCompleted}
	got := pub.types()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestConfirmDelivery_HoldsPayoutForUnverifiedVendor(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	order := placeOrder(t, svc, "BUY-1", CartItem{ProductID: "PRD-2", Quantity: 1})

	if _, err := svc.ShipOrder(ctx, "VND-2", order.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ConfirmDelivery(ctx, "BUY-1", order.ID); err != nil {
		t.Fatal(err)
	}
	payouts, _ := svc.PayoutsForVendor(ctx, "VND-2")
	if len(payouts) != 1 || payouts[0].Status != domain.PayoutOnHold {
		t.Fatalf("expected one on_hold payout, got %+v", payouts)
	}
	if _, err := svc.MarkPayoutPaid(ctx, "ADM-1", payouts[0].ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected held payout to be unpayable, got %v", err)
	}
}

func TestCancelOrder_RestocksAndRefunds(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	order := placeOrder(t, svc, "BUY-1", CartItem{ProductID: "PRD-1", Quantity: 4})

	if _, err := svc.CancelOrder(ctx, "BUY-2", order.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected other buyer to be forbidden, got %v", err)
	}
	cancelled, err := svc.CancelOrder(ctx, "BUY-1", order.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != domain.OrderCancelled || cancelled.EscrowStatus != domain.EscrowRefunded {
		t.Fatalf("unexpected state %s/%s", cancelled.Status, cancelled.EscrowStatus)
	}
	product, _ := st.Products().Get(ctx, "PRD-1")
	if product.Stock != 10 || product.Sales != 0 {
		t.Errorf("expected stock restored to 10 and sales 0, got %d/%d", product.Stock, product.Sales)
	}
	if _, err := svc.CancelOrder(ctx, "ADM-1", order.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected double cancel to fail, got %v", err)
	}
}

func TestCancelOrder_NotAfterShipping(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	order := placeOrder(t, svc, "BUY-1", CartItem{ProductID: "PRD-1", Quantity: 1})
	if _, err := svc.ShipOrder(ctx, "VND-1", order.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CancelOrder(ctx, "BUY-1", order.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestVendorPayouts_SplitsDiscountProRata(t *testing.T) {
	order := domain.Order{
		Items: []domain.OrderItem{
			{VendorID: "A", UnitPrice: dec(1000), Quantity: 1},
			{VendorID: "B", UnitPrice: dec(1000), Quantity: 2},
		},
		Subtotal: dec(3000),
		Discount: dec(100),
	}
	got := VendorPayouts(order)
	if got["A"].String() != "966.67" {
		t.Errorf("vendor A: expected 966.67, got %s", got["A"])
	}
	if got["B"].String() != "1933.33" {
		t.Errorf("vendor B: expected 1933.33, got %s", got["B"])
	}
	if sum := got["A"].Add(got["B"]); sum.String() != "2900" {
		t.Errorf("expected shares to sum to 2900, got %s", sum)
	}
}

func TestVendorPayouts_DiscountChargedToDiscountedLinesOnly(t *testing.T) {
	order := domain.Order{
		Items: []domain.OrderItem{
			{VendorID: "VND-1", UnitPrice: dec(1000), Quantity: 1, Discounted: true},
			{VendorID: "VND-2", UnitPrice: dec(3000), Quantity: 1},
		},
		Subtotal: dec(4000),
		Discount: dec(100),
	}
	got := VendorPayouts(order)
	if got["VND-1"].String() != "900" {
		t.Errorf("VND-1: expected 900, got %s", got["VND-1"])
	}
	if got["VND-2"].String() != "3000" {
		t.Errorf("VND-2: expected 3000, got %s", got["VND-2"])
	}
}

func TestConfirmDelivery_VendorPromotionOnlyReducesItsOwnPayout(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	order, err := svc.Checkout(ctx, CheckoutInput{
		BuyerID:         "BUY-1",
		Items:           []CartItem{{ProductID: "PRD-1", Quantity: 1}, {ProductID: "PRD-2", Quantity: 1}},
		PromoCode:       "SAVE10",
		ShippingAddress: "5 Broad Street",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if order.Discount.String() != "100" {
		t.Fatalf("expected discount 100, got %s", order.Discount)
	}
	for _, item := range order.Items {
		if item.Discounted != (item.ProductID == "PRD-1") {
			t.Errorf("item %s: unexpected discounted flag %v", item.ProductID, item.Discounted)
		}
	}

	if _, err := svc.ShipOrder(ctx, "VND-1", order.ID); err != nil {
		t.Fatalf("ship: %v", err)
	}
	if _, err := svc.ConfirmDelivery(ctx, "BUY-1", order.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	want := map[string]string{"VND-1": "900", "VND-2": "3000"}
	for vendorID, amount := range want {
		payouts, err := svc.PayoutsForVendor(ctx, vendorID)
		if err != nil {
			t.Fatal(err)
		}
		if len(payouts) != 1 || payouts[0].Amount.String() != amount {
			t.Errorf("%s: expected one payout of %s, got %+v", vendorID, amount, payouts)
		}
	}
}

func TestOrdersForBuyerAndVendor(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	placeOrder(t, svc, "BUY-1", CartItem{ProductID: "PRD-1", Quantity: 1})
	placeOrder(t, svc, "BUY-2", CartItem{ProductID: "PRD-2", Quantity: 1}, CartItem{ProductID: "PRD-1", Quantity: 1})

	mine, _ := svc.OrdersForBuyer(ctx, "BUY-1")
	if len(mine) != 1 {
		t.Errorf("expected 1 order for BUY-1, got %d", len(mine))
	}
	sold, _ := svc.OrdersForVendor(ctx, "VND-1")
	if len(sold) != 2 {
		t.Errorf("expected 2 orders for VND-1, got %d", len(sold))
	}
	sold, _ = svc.OrdersForVendor(ctx, "VND-2")
	if len(sold) != 1 {
		t.Errorf("expected 1 order for VND-2, got %d", len(sold))
	}
}
