package service

import (
	"context"
	"errors"
	"testing"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/store"
)

func TestDispute_RefundBuyer(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	order := placeOrder(t, svc, "BUY-1", CartItem{ProductID: "PRD-1", Quantity: 1})

	if _, err := svc.OpenDispute(ctx, OpenDisputeInput{OrderID: order.ID, BuyerID: "BUY-1"}); !IsValidation(err) {
		t.Fatalf("expected missing reason to be rejected, got %v", err)
	}
	if _, err := svc.OpenDispute(ctx, OpenDisputeInput{OrderID: order.ID, BuyerID: "BUY-2", Reason: "late"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected other buyer to be forbidden, got %v", err)
	}

	dispute, err := svc.OpenDispute(ctx, OpenDisputeInput{OrderID: order.ID, BuyerID: "BUY-1", Reason: "  never   arrived "})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if dispute.Status != domain.DisputeOpen || dispute.Reason != "never arrived" {
		t.Errorf("unexpected dispute %+v", dispute)
	}
	if len(dispute.VendorIDs) != 1 || dispute.VendorIDs[0] != "VND-1" {
		t.Errorf("expected vendor ids [VND-1], got %v", dispute.VendorIDs)
	}
	frozen, _ := st.Orders().Get(ctx, order.ID)
	if frozen.Status != domain.OrderDisputed || frozen.EscrowStatus != domain.EscrowFrozen {
		t.Fatalf("expected disputed/frozen, got %s/%s", frozen.Status, frozen.EscrowStatus)
	}
	if _, err := svc.CancelOrder(ctx, "BUY-1", order.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected disputed order not to be cancellable, got %v", err)
	}

	if _, err := svc.AssignDispute(ctx, "BUY-1", dispute.ID, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected buyer to be forbidden from assigning, got %v", err)
	}
	assigned, err := svc.AssignDispute(ctx, "ADM-1", dispute.ID, "SUP-1")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.Status != domain.DisputeInReview || assigned.AssignedTo != "SUP-1" {
		t.Errorf("unexpected assignment %+v", assigned)
	}

	if _, err := svc.ResolveDispute(ctx, "SUP-1", dispute.ID, ResolveDisputeInput{Outcome: "split"}); !IsValidation(err) {
		t.Fatalf("expected invalid outcome to be rejected, got %v", err)
	}
	resolved, err := svc.ResolveDispute(ctx, "SUP-1", dispute.ID, ResolveDisputeInput{Outcome: domain.OutcomeRefundBuyer, Resolution: "courier lost parcel"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != domain.DisputeResolved || resolved.Outcome != domain.OutcomeRefundBuyer {
		t.Errorf("unexpected resolution %+v", resolved)
	}
	refunded, _ := st.Orders().Get(ctx, order.ID)
	if refunded.Status != domain.OrderRefunded || refunded.EscrowStatus != domain.EscrowRefunded {
		t.Errorf("expected refunded/refunded, got %s/%s", refunded.Status, refunded.EscrowStatus)
	}
	if payouts, _ := svc.PayoutsForVendor(ctx, "VND-1"); len(payouts) != 0 {
		t.Errorf("refund must not create payouts, got %d", len(payouts))
	}
	if _, err := svc.ResolveDispute(ctx, "SUP-1", dispute.ID, ResolveDisputeInput{Outcome: domain.OutcomeReleaseVendor}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected re-resolution to fail, got %v", err)
	}
}

func TestDispute_ReleaseVendorCreatesPayouts(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	order := placeOrder(t, svc, "BUY-1", CartItem{ProductID: "PRD-1", Quantity: 1}, CartItem{ProductID: "PRD-2", Quantity: 1})
	if _, err := svc.ShipOrder(ctx, "VND-2", order.ID); err != nil {
		t.Fatal(err)
	}

	dispute, err := svc.OpenDispute(ctx, OpenDisputeInput{OrderID: order.ID, BuyerID: "BUY-1", Reason: "damaged"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.OpenDispute(ctx, OpenDisputeInput{OrderID: order.ID, BuyerID: "BUY-1", Reason: "again"}); err == nil {
		t.Fatal("expected second dispute on the same order to fail")
	}

	resolved, err := svc.ResolveDispute(ctx, "SUP-1", dispute.ID, ResolveDisputeInput{Outcome: domain.OutcomeReleaseVendor})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.AssignedTo != "SUP-1" {
		t.Errorf("expected resolver to be recorded as assignee, got %q", resolved.AssignedTo)
	}
	completed, _ := st.Orders().Get(ctx, order.ID)
	if completed.Status != domain.OrderCompleted || completed.EscrowStatus != domain.EscrowReleased {
		t.Errorf("expected completed/released, got %s/%s", completed.Status, completed.EscrowStatus)
	}
	payouts, _ := st.Payouts().List(ctx)
	if len(payouts) != 2 {
		t.Fatalf("expected a payout per vendor, got %d", len(payouts))
	}
	queue, _ := svc.SupportQueue(ctx)
	if len(queue) != 0 {
		t.Errorf("expected empty support queue, got %d", len(queue))
	}
}

func TestOpenDispute_OnlyPaidOrShipped(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	order := placeOrder(t, svc, "BUY-1", CartItem{ProductID: "PRD-1", Quantity: 1})
	if _, err := svc.CancelOrder(ctx, "BUY-1", order.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.OpenDispute(ctx, OpenDisputeInput{OrderID: order.ID, BuyerID: "BUY-1", Reason: "x"}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if _, err := svc.OpenDispute(ctx, OpenDisputeInput{OrderID: "ORD-404", BuyerID: "BUY-1", Reason: "x"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestKYC_ApprovalReleasesHeldPayouts(t *testing.T) {
	svc, st, pub := newTestService(t)
	ctx := context.Background()
	order := placeOrder(t, svc, "BUY-1", CartItem{ProductID: "PRD-2", Quantity: 2})
	if _, err := svc.ShipOrder(ctx, "VND-2", order.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ConfirmDelivery(ctx, "BUY-1", order.ID); err != nil {
		t.Fatal(err)
	}

	sub, err := svc.SubmitKYC(ctx, KYCInput{UserID: "VND-2", DocumentType: "NIN", DocumentNumber: "12345678901"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.DocumentNumber != "*******8901" || sub.Status != domain.KYCPending {
		t.Errorf("unexpected submission %+v", sub)
	}
	vendor, _ := st.Users().Get(ctx, "VND-2")
	if vendor.KYCStatus != domain.KYCPending {
		t.Fatalf("expected pending kyc, got %s", vendor.KYCStatus)
	}
	if _, err := svc.SubmitKYC(ctx, KYCInput{UserID: "VND-2", DocumentType: "NIN", DocumentNumber: "12345678901"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected duplicate submission conflict, got %v", err)
	}

	if _, err := svc.ReviewKYC(ctx, "VND-1", sub.ID, KYCReviewInput{Approve: true}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected vendor reviewer to be forbidden, got %v", err)
	}
	reviewed, err := svc.ReviewKYC(ctx, "SUP-1", sub.ID, KYCReviewInput{Approve: true, Notes: "matches"})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != domain.KYCApproved || reviewed.ReviewerID != "SUP-1" || reviewed.ReviewedAt == nil {
		t.Errorf("unexpected review %+v", reviewed)
	}
	vendor, _ = st.Users().Get(ctx, "VND-2")
	if vendor.KYCStatus != domain.KYCApproved {
		t.Errorf("expected approved kyc, got %s", vendor.KYCStatus)
	}
	payouts, _ := svc.PayoutsForVendor(ctx, "VND-2")
	if len(payouts) != 1 || payouts[0].Status != domain.PayoutPending {
		t.Fatalf("expected held payout to become pending, got %+v", payouts)
	}
	if _, err := svc.ReviewKYC(ctx, "SUP-1", sub.ID, KYCReviewInput{}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected second review to fail, got %v", err)
	}
	if _, err := svc.SubmitKYC(ctx, KYCInput{UserID: "VND-2", DocumentType: "NIN", DocumentNumber: "12345678901"}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected approved user resubmission to fail, got %v", err)
	}

	types := pub.types()
	if types[len(types)-1] != "kyc.reviewed" {
		t.Errorf("expected kyc.reviewed last, got %v", types)
	}
}

func TestKYC_RejectionAllowsResubmission(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	sub, err := svc.SubmitKYC(ctx, KYCInput{UserID: "BUY-1", DocumentType: "Passport", DocumentNumber: "A0001234"})
	if err != nil {
		t.Fatal(err)
	}
	if pending, _ := svc.PendingKYC(ctx); len(pending) != 1 {
		t.Fatalf("expected one pending submission, got %d", len(pending))
	}
	if _, err := svc.ReviewKYC(ctx, "ADM-1", sub.ID, KYCReviewInput{Approve: false, Notes: "blurry"}); err != nil {
		t.Fatal(err)
	}
	u, _ := st.Users().Get(ctx, "BUY-1")
	if u.KYCStatus != domain.KYCRejected {
		t.Fatalf("expected rejected, got %s", u.KYCStatus)
	}
	if _, err := svc.SubmitKYC(ctx, KYCInput{UserID: "BUY-1", DocumentType: "Passport", DocumentNumber: "A0005678"}); err != nil {
		t.Fatalf("expected resubmission after rejection, got %v", err)
	}
	if _, err := svc.SubmitKYC(ctx, KYCInput{UserID: "BUY-2", DocumentNumber: "12345"}); !IsValidation(err) {
		t.Fatalf("expected missing document type to be rejected, got %v", err)
	}
}
