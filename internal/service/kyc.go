package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/events"
	"github.com/vanshika/marketplace/internal/store"
)

var errKYCAlreadyApproved = errors.New("kyc already approved")

// KYCInput is an identity document submitted for verification.
type KYCInput struct {
	UserID         string `json:"userId"`
	DocumentType   string `json:"documentType"`
	DocumentNumber string `json:"documentNumber"`
}

// KYCReviewInput is the reviewer's decision.
type KYCReviewInput struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes"`
}

// SubmitKYC records a document for review and marks the user's KYC pending. Only the last four
// characters of the document number are kept.
func (s *Service) SubmitKYC(ctx context.Context, in KYCInput) (domain.KYCSubmission, error) {
	docType := sanitizeString(in.DocumentType)
	number := maskDocumentNumber(in.DocumentNumber)
	switch {
	case docType == "":
		return domain.KYCSubmission{}, invalid("documentType", "is required")
	case len(number) < 4:
		return domain.KYCSubmission{}, invalid("documentNumber", "is too short")
	}
	user, err := s.activeUser(ctx, in.UserID)
	if err != nil {
		return domain.KYCSubmission{}, err
	}
	switch user.KYCStatus {
	case domain.KYCApproved:
		return domain.KYCSubmission{}, fmt.Errorf("user %s: %w: %w", user.ID, errKYCAlreadyApproved, ErrInvalidState)
	case domain.KYCPending:
		return domain.KYCSubmission{}, fmt.Errorf("user %s has a submission under review: %w", user.ID, store.ErrConflict)
	}

	submission, err := s.store.KYC().Create(ctx, domain.KYCSubmission{
		ID:             s.idFn("kyc"),
		UserID:         user.ID,
		DocumentType:   docType,
		DocumentNumber: number,
		Status:         domain.KYCPending,
		SubmittedAt:    s.now(),
	})
	if err != nil {
		return domain.KYCSubmission{}, fmt.Errorf("create kyc submission: %w", err)
	}

	user.KYCStatus = domain.KYCPending
	user.UpdatedAt = s.now()
	if _, err := s.store.Users().Update(ctx, user); err != nil {
		return domain.KYCSubmission{}, fmt.Errorf("update user: %w", err)
	}
	return submission, nil
}

// ReviewKYC approves or rejects a pending submission. Approving a vendor releases their payouts
// that were on hold.
func (s *Service) ReviewKYC(ctx context.Context, reviewerID, submissionID string, in KYCReviewInput) (domain.KYCSubmission, error) {
	if _, err := s.staff(ctx, reviewerID); err != nil {
		return domain.KYCSubmission{}, err
	}
	submission, err := s.store.KYC().Get(ctx, submissionID)
	if err != nil {
		return domain.KYCSubmission{}, fmt.Errorf("load kyc submission: %w", err)
	}
	if submission.Status != domain.KYCPending {
		return domain.KYCSubmission{}, fmt.Errorf("submission %s is %s: %w", submissionID, submission.Status, ErrInvalidState)
	}
	user, err := s.store.Users().Get(ctx, submission.UserID)
	if err != nil {
		return domain.KYCSubmission{}, fmt.Errorf("load user: %w", err)
	}

	status := domain.KYCRejected
	if in.Approve {
		status = domain.KYCApproved
	}
	now := s.now()
	submission.Status = status
	submission.ReviewerID = reviewerID
	submission.Notes = sanitizeString(in.Notes)
	submission.ReviewedAt = &now
	updated, err := s.store.KYC().Update(ctx, submission)
	if err != nil {
		return domain.KYCSubmission{}, fmt.Errorf("update kyc submission: %w", err)
	}

	user.KYCStatus = status
	user.UpdatedAt = now
	if _, err := s.store.Users().Update(ctx, user); err != nil {
		return domain.KYCSubmission{}, fmt.Errorf("update user: %w", err)
	}

	if status == domain.KYCApproved && user.Role == domain.RoleVendor {
		if err := s.releaseHeldPayouts(ctx, user.ID); err != nil {
			return domain.KYCSubmission{}, err
		}
	}
	s.logger.Info("kyc reviewed", "submissionId", updated.ID, "userId", user.ID, "status", status)
	s.publish(ctx, events.KYCReviewed, user.ID, map[string]any{"submissionId": updated.ID, "status": string(status)})
	return updated, nil
}

// PendingKYC lists submissions awaiting review.
func (s *Service) PendingKYC(ctx context.Context) ([]domain.KYCSubmission, error) {
	subs, err := s.store.KYC().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list kyc submissions: %w", err)
	}
	out := make([]domain.KYCSubmission, 0, len(subs))
	for _, sub := range subs {
		if sub.Status == domain.KYCPending {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *Service) releaseHeldPayouts(ctx context.Context, vendorID string) error {
	payouts, err := s.PayoutsForVendor(ctx, vendorID)
	if err != nil {
		return err
	}
	for _, p := range payouts {
		if p.Status != domain.PayoutOnHold {
			continue
		}
		p.Status = domain.PayoutPending
		p.UpdatedAt = s.now()
		if _, err := s.store.Payouts().Update(ctx, p); err != nil {
			return fmt.Errorf("release payout %s: %w", p.ID, err)
		}
	}
	return nil
}
