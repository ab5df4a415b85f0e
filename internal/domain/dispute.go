package domain

import "time"

type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "open"
	DisputeInReview DisputeStatus = "in_review"
	DisputeResolved DisputeStatus = "resolved"
)

type DisputeOutcome string

const (
	OutcomeRefundBuyer   DisputeOutcome = "refund_buyer"
	OutcomeReleaseVendor DisputeOutcome = "release_vendor"
)

// Dispute is raised by a buyer against an escrow order and worked by support.
type Dispute struct {
	ID         string         `json:"id"`
	OrderID    string         `json:"orderId"`
	BuyerID    string         `json:"buyerId"`
	VendorIDs  []string       `json:"vendorIds"`
	Reason     string         `json:"reason"`
	Status     DisputeStatus  `json:"status"`
	AssignedTo string         `json:"assignedTo,omitempty"`
	Outcome    DisputeOutcome `json:"outcome,omitempty"`
	Resolution string         `json:"resolution,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// KYCSubmission is an identity document awaiting or past review.
type KYCSubmission struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	DocumentType   string     `json:"documentType"`
	DocumentNumber string     `json:"documentNumber"`
	Status         KYCStatus  `json:"status"`
	ReviewerID     string     `json:"reviewerId,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	SubmittedAt    time.Time  `json:"submittedAt"`
	ReviewedAt     *time.Time `json:"reviewedAt,omitempty"`
}
