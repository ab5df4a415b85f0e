package service

import (
	"context"
	"fmt"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/events"
	"github.com/vanshika/marketplace/internal/store"
)

// OpenDisputeInput is a buyer's complaint against an order.
type OpenDisputeInput struct {
	OrderID string `json:"orderId"`
	BuyerID string `json:"buyerId"`
	Reason  string `json:"reason"`
}

// ResolveDisputeInput is the support decision on a dispute.
type ResolveDisputeInput struct {
	Outcome    domain.DisputeOutcome `json:"outcome"`
	Resolution string                `json:"resolution"`
}

// OpenDispute freezes escrow on a paid or shipped order and opens a case for support.
func (s *Service) OpenDispute(ctx context.Context, in OpenDisputeInput) (domain.Dispute, error) {
	reason := sanitizeString(in.Reason)
	if reason == "" {
		return domain.Dispute{}, invalid("reason", "is required")
	}
	order, err := s.store.Orders().Get(ctx, in.OrderID)
	if err != nil {
		return domain.Dispute{}, fmt.Errorf("load order: %w", err)
	}
	if order.BuyerID != in.BuyerID {
		return domain.Dispute{}, fmt.Errorf("order %s belongs to another buyer: %w", in.OrderID, ErrForbidden)
	}
	if order.Status != domain.OrderPaid && order.Status != domain.OrderShipped {
		return domain.Dispute{}, fmt.Errorf("order %s is %s: %w", in.OrderID, order.Status, ErrInvalidState)
	}

	disputes, err := s.store.Disputes().List(ctx)
	if err != nil {
		return domain.Dispute{}, fmt.Errorf("list disputes: %w", err)
	}
	for _, d := range disputes {
		if d.OrderID == order.ID && d.Status != domain.DisputeResolved {
			return domain.Dispute{}, fmt.Errorf("order %s already has dispute %s: %w", order.ID, d.ID, store.ErrConflict)
		}
	}

	order.Status = domain.OrderDisputed
	order.EscrowStatus = domain.EscrowFrozen
	if _, err := s.saveOrder(ctx, order); err != nil {
		return domain.Dispute{}, err
	}

	now := s.now()
	dispute, err := s.store.Disputes().Create(ctx, domain.Dispute{
		ID:        s.idFn("dsp"),
		OrderID:   order.ID,
		BuyerID:   order.BuyerID,
		VendorIDs: order.VendorIDs(),
		Reason:    reason,
		Status:    domain.DisputeOpen,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.Dispute{}, fmt.Errorf("create dispute: %w", err)
	}
	s.logger.Info("dispute opened", "disputeId", dispute.ID, "orderId", order.ID)
	s.publish(ctx, events.DisputeOpened, dispute.ID, map[string]any{"orderId": order.ID, "buyerId": order.BuyerID})
	return dispute, nil
}

// AssignDispute puts a dispute in review with a support agent. An empty assigneeID assigns the
// caller.
func (s *Service) AssignDispute(ctx context.Context, staffID, disputeID, assigneeID string) (domain.Dispute, error) {
	if _, err := s.staff(ctx, staffID); err != nil {
		return domain.Dispute{}, err
	}
	if assigneeID == "" {
		assigneeID = staffID
	} else if _, err := s.staff(ctx, assigneeID); err != nil {
		return domain.Dispute{}, err
	}
	dispute, err := s.store.Disputes().Get(ctx, disputeID)
	if err != nil {
		return domain.Dispute{}, fmt.Errorf("load dispute: %w", err)
	}
	if dispute.Status == domain.DisputeResolved {
		return domain.Dispute{}, fmt.Errorf("dispute %s is resolved: %w", disputeID, ErrInvalidState)
	}

	dispute.AssignedTo = assigneeID
	dispute.Status = domain.DisputeInReview
	dispute.UpdatedAt = s.now()
	updated, err := s.store.Disputes().Update(ctx, dispute)
	if err != nil {
		return domain.Dispute{}, fmt.Errorf("update dispute: %w", err)
	}
	return updated, nil
}

// ResolveDispute closes a dispute by refunding the buyer or releasing funds to the vendors.
func (s *Service) ResolveDispute(ctx context.Context, staffID, disputeID string, in ResolveDisputeInput) (domain.Dispute, error) {
	if in.Outcome != domain.OutcomeRefundBuyer && in.Outcome != domain.OutcomeReleaseVendor {
		return domain.Dispute{}, invalid("outcome", "must be refund_buyer or release_vendor")
	}
	if _, err := s.staff(ctx, staffID); err != nil {
		return domain.Dispute{}, err
	}
	dispute, err := s.store.Disputes().Get(ctx, disputeID)
	if err != nil {
		return domain.Dispute{}, fmt.Errorf("load dispute: %w", err)
	}
	if dispute.Status == domain.DisputeResolved {
		return domain.Dispute{}, fmt.Errorf("dispute %s is already resolved: %w", disputeID, ErrInvalidState)
	}
	order, err := s.store.Orders().Get(ctx, dispute.OrderID)
	if err != nil {
		return domain.Dispute{}, fmt.Errorf("load order: %w", err)
	}

	switch in.Outcome {
	case domain.OutcomeRefundBuyer:
		order.Status = domain.OrderRefunded
		order.EscrowStatus = domain.EscrowRefunded
	case domain.OutcomeReleaseVendor:
		order.Status = domain.OrderCompleted
		order.EscrowStatus = domain.EscrowReleased
	}
	order, err = s.saveOrder(ctx, order)
	if err != nil {
		return domain.Dispute{}, err
	}
	if in.Outcome == domain.OutcomeReleaseVendor {
		if _, err := s.createPayouts(ctx, order); err != nil {
			return domain.Dispute{}, err
		}
	}

	dispute.Status = domain.DisputeResolved
	dispute.Outcome = in.Outcome
	dispute.Resolution = sanitizeString(in.Resolution)
	if dispute.AssignedTo == "" {
		dispute.AssignedTo = staffID
	}
	dispute.UpdatedAt = s.now()
	updated, err := s.store.Disputes().Update(ctx, dispute)
	if err != nil {
		return domain.Dispute{}, fmt.Errorf("update dispute: %w", err)
	}
	s.logger.Info("dispute resolved", "disputeId", updated.ID, "outcome", updated.Outcome, "by", staffID)
	s.publish(ctx, events.DisputeResolved, updated.ID, map[string]any{
		"orderId": order.ID,
		"outcome": string(updated.Outcome),
	})
	return updated, nil
}

// SupportQueue lists unresolved disputes, oldest first as stored.
func (s *Service) SupportQueue(ctx context.Context) ([]domain.Dispute, error) {
	disputes, err := s.store.Disputes().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list disputes: %w", err)
	}
	out := make([]domain.Dispute, 0, len(disputes))
	for _, d := range disputes {
		if d.Status != domain.DisputeResolved {
			out = append(out, d)
		}
	}
	return out, nil
}
