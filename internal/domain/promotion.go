package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PromotionType selects how Value is applied.
type PromotionType string

const (
	PromotionPercentage PromotionType = "percentage"
	PromotionFixed      PromotionType = "fixed"
)

// Promotion is a discount code. Empty Applicable* filters place no restriction on that dimension.
type Promotion struct {
	ID                      string          `json:"id"`
	Code                    string          `json:"code"`
	Description             string          `json:"description,omitempty"`
	VendorID                string          `json:"vendorId,omitempty"`
	Type                    PromotionType   `json:"type"`
	Value                   decimal.Decimal `json:"value"`
	ExpiryDate              time.Time       `json:"expiryDate"`
	UsageLimit              int             `json:"usageLimit"`
	UsageCount              int             `json:"usageCount"`
	Active                  bool            `json:"active"`
	ApplicableCategories    []string        `json:"applicableCategories,omitempty"`
	ApplicableSubcategories []string        `json:"applicableSubcategories,omitempty"`
	ApplicableVendors       []string        `json:"applicableVendors,omitempty"`
	ApplicableProductIDs    []string        `json:"applicableProductIds,omitempty"`
	CreatedAt               time.Time       `json:"createdAt"`
	UpdatedAt               time.Time       `json:"updatedAt"`
}
