package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/promotion"
	"github.com/vanshika/marketplace/internal/store"
)

var hundred = decimal.NewFromInt(100)

// PromotionInput describes a promotion to create or replace.
type PromotionInput struct {
	Code                    string               `json:"code"`
	Description             string               `json:"description"`
	Type                    domain.PromotionType `json:"type"`
	Value                   decimal.Decimal      `json:"value"`
	ExpiryDate              time.Time            `json:"expiryDate"`
	UsageLimit              int                  `json:"usageLimit"`
	Active                  *bool                `json:"active,omitempty"`
	ApplicableCategories    []string             `json:"applicableCategories"`
	ApplicableSubcategories []string             `json:"applicableSubcategories"`
	ApplicableVendors       []string             `json:"applicableVendors"`
	ApplicableProductIDs    []string             `json:"applicableProductIds"`
}

// PromotionCheck is the outcome of validating a code against a cart.
type PromotionCheck struct {
	Code               string          `json:"code"`
	Type               string          `json:"type"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	EligibleAmount     decimal.Decimal `json:"eligibleAmount"`
	Discount           decimal.Decimal `json:"discount"`
	EligibleProductIDs []string        `json:"eligibleProductIds"`
}

func (in PromotionInput) validate() error {
	switch {
	case promotion.NormalizeCode(in.Code) == "":
		return invalid("code", "is required")
	case strings.ContainsAny(promotion.NormalizeCode(in.Code), " \t"):
		return invalid("code", "must not contain spaces")
	case in.Type != domain.PromotionPercentage && in.Type != domain.PromotionFixed:
		return invalid("type", "must be percentage or fixed")
	case !in.Value.IsPositive():
		return invalid("value", "must be greater than zero")
	case in.Type == domain.PromotionPercentage && in.Value.GreaterThan(hundred):
		return invalid("value", "percentage must not exceed 100")
	case in.UsageLimit < 0:
		return invalid("usageLimit", "must not be negative")
	}
	return nil
}

// CreatePromotion adds a discount code. Admins may target anything; a vendor's promotion is owned
// by the vendor and restricted to the vendor's own products.
func (s *Service) CreatePromotion(ctx context.Context, actorID string, in PromotionInput) (domain.Promotion, error) {
	if err := in.validate(); err != nil {
		return domain.Promotion{}, err
	}
	ownerID, vendors, err := s.promotionOwner(ctx, actorID, in.ApplicableVendors)
	if err != nil {
		return domain.Promotion{}, err
	}
	code := promotion.NormalizeCode(in.Code)
	if err := s.ensureCodeAvailable(ctx, code, ""); err != nil {
		return domain.Promotion{}, err
	}

	now := s.now()
	promo := domain.Promotion{
		ID:                      s.idFn("promo"),
		Code:                    code,
		Description:             sanitizeString(in.Description),
		VendorID:                ownerID,
		Type:                    in.Type,
		Value:                   in.Value,
		ExpiryDate:              in.ExpiryDate,
		UsageLimit:              in.UsageLimit,
		Active:                  in.Active == nil || *in.Active,
		ApplicableCategories:    cleanList(in.ApplicableCategories),
		ApplicableSubcategories: cleanList(in.ApplicableSubcategories),
		ApplicableVendors:       vendors,
		ApplicableProductIDs:    cleanList(in.ApplicableProductIDs),
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	created, err := s.store.Promotions().Create(ctx, promo)
	if err != nil {
		return domain.Promotion{}, fmt.Errorf("create promotion: %w", err)
	}
	s.logger.Info("promotion created", "promotionId", created.ID, "code", created.Code)
	return created, nil
}

// UpdatePromotion replaces the definition of a promotion while keeping its usage count.
func (s *Service) UpdatePromotion(ctx context.Context, actorID, promotionID string, in PromotionInput) (domain.Promotion, error) {
	if err := in.validate(); err != nil {
		return domain.Promotion{}, err
	}
	promo, err := s.store.Promotions().Get(ctx, promotionID)
	if err != nil {
		return domain.Promotion{}, fmt.Errorf("load promotion: %w", err)
	}
	ownerID, vendors, err := s.promotionOwner(ctx, actorID, in.ApplicableVendors)
	if err != nil {
		return domain.Promotion{}, err
	}
	if ownerID != "" && promo.VendorID != ownerID {
		return domain.Promotion{}, fmt.Errorf("promotion %s belongs to another vendor: %w", promotionID, ErrForbidden)
	}
	code := promotion.NormalizeCode(in.Code)
	if err := s.ensureCodeAvailable(ctx, code, promo.ID); err != nil {
		return domain.Promotion{}, err
	}

	promo.Code = code
	promo.Description = sanitizeString(in.Description)
	promo.Type = in.Type
	promo.Value = in.Value
	promo.ExpiryDate = in.ExpiryDate
	promo.UsageLimit = in.UsageLimit
	if in.Active != nil {
		promo.Active = *in.Active
	}
	promo.ApplicableCategories = cleanList(in.ApplicableCategories)
	promo.ApplicableSubcategories = cleanList(in.ApplicableSubcategories)
	promo.ApplicableVendors = vendors
	promo.ApplicableProductIDs = cleanList(in.ApplicableProductIDs)
	promo.UpdatedAt = s.now()

	updated, err := s.store.Promotions().Update(ctx, promo)
	if err != nil {
		return domain.Promotion{}, fmt.Errorf("update promotion: %w", err)
	}
	return updated, nil
}

// ValidatePromotion evaluates code against a client-described cart without side effects.
func (s *Service) ValidatePromotion(ctx context.Context, code string, lines []promotion.Line) (PromotionCheck, error) {
	for _, l := range lines {
		if l.Quantity <= 0 {
			return PromotionCheck{}, invalid("lines", fmt.Sprintf("quantity for %s must be positive", l.ProductID))
		}
		if l.UnitPrice.IsNegative() {
			return PromotionCheck{}, invalid("lines", fmt.Sprintf("unitPrice for %s must not be negative", l.ProductID))
		}
	}
	promos, err := s.store.Promotions().List(ctx)
	if err != nil {
		return PromotionCheck{}, fmt.Errorf("list promotions: %w", err)
	}
	res, err := promotion.Evaluate(lines, code, promos, s.now())
	if err != nil {
		return PromotionCheck{}, err
	}
	ids := make([]string, 0, len(res.Eligible))
	for _, l := range res.Eligible {
		ids = append(ids, l.ProductID)
	}
	return PromotionCheck{
		Code:               res.Promotion.Code,
		Type:               string(res.Promotion.Type),
		Subtotal:           res.Subtotal,
		EligibleAmount:     res.EligibleAmount,
		Discount:           res.Discount,
		EligibleProductIDs: ids,
	}, nil
}

// promotionOwner returns the owning vendor id ("" for admin-owned) and the effective vendor filter.
func (s *Service) promotionOwner(ctx context.Context, actorID string, vendors []string) (string, []string, error) {
	actor, err := s.activeUser(ctx, actorID)
	if err != nil {
		return "", nil, err
	}
	vendors = cleanList(vendors)
	switch actor.Role {
	case domain.RoleAdmin:
		return "", vendors, nil
	case domain.RoleVendor:
		for _, v := range vendors {
			if v != actor.ID {
				return "", nil, fmt.Errorf("vendor %s cannot target vendor %s: %w", actor.ID, v, ErrForbidden)
			}
		}
		return actor.ID, []string{actor.ID}, nil
	}
	return "", nil, fmt.Errorf("user %s cannot manage promotions: %w", actorID, ErrForbidden)
}

func (s *Service) ensureCodeAvailable(ctx context.Context, code, selfID string) error {
	promos, err := s.store.Promotions().List(ctx)
	if err != nil {
		return fmt.Errorf("list promotions: %w", err)
	}
	for _, p := range promos {
		if p.ID != selfID && strings.EqualFold(p.Code, code) {
			return fmt.Errorf("promotion code %s: %w", code, store.ErrConflict)
		}
	}
	return nil
}

// cleanList trims entries and drops blanks and duplicates, keeping order.
func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
