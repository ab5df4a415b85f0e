// Package promotion evaluates discount codes against a cart and computes order totals.
// Everything here is pure: no I/O, no clocks, no shared state.
package promotion

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vanshika/marketplace/internal/domain"
)

var (
	ErrCodeNotFound      = errors.New("invalid promo code")
	ErrExpired           = errors.New("promo code has expired")
	ErrUsageLimitReached = errors.New("promo code has reached its usage limit")
	ErrNoEligibleItems   = errors.New("promo code does not apply to any items in cart")
)

// IsRejection reports whether err is one of the promotion rejection reasons.
func IsRejection(err error) bool {
	return errors.Is(err, ErrCodeNotFound) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrUsageLimitReached) ||
		errors.Is(err, ErrNoEligibleItems)
}

var hundred = decimal.NewFromInt(100)

// Line is a single cart entry as seen by the promotion filters.
type Line struct {
	ProductID   string          `json:"productId"`
	Category    string          `json:"categoryName"`
	Subcategory string          `json:"subcategoryName"`
	VendorID    string          `json:"vendorId"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
}

// Amount is UnitPrice times Quantity.
func (l Line) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LinesFromItems views order items as promotion lines.
func LinesFromItems(items []domain.OrderItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, Line{
			ProductID:   item.ProductID,
			Category:    item.Category,
			Subcategory: item.Subcategory,
			VendorID:    item.VendorID,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}
	return lines
}

// MarkDiscounted flags the items whose product is among the eligible lines.
func MarkDiscounted(items []domain.OrderItem, eligible []Line) {
	ids := make(map[string]struct{}, len(eligible))
	for _, line := range eligible {
		ids[line.ProductID] = struct{}{}
	}
	for i := range items {
		_, items[i].Discounted = ids[items[i].ProductID]
	}
}

// Result describes an accepted promotion.
type Result struct {
	Promotion      domain.Promotion
	Eligible       []Line
	EligibleAmount decimal.Decimal
	Subtotal       decimal.Decimal
	Discount       decimal.Decimal
}

// Totals is the priced breakdown of an order.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shippingFee"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
}

// NormalizeCode is the stored form of a promotion code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Find returns the active promotion whose code matches, ignoring case.
func Find(code string, promos []domain.Promotion) (domain.Promotion, error) {
	code = NormalizeCode(code)
	if code == "" {
		return domain.Promotion{}, ErrCodeNotFound
	}
	for _, p := range promos {
		if p.Active && strings.EqualFold(p.Code, code) {
			return p, nil
		}
	}
	return domain.Promotion{}, ErrCodeNotFound
}

// Evaluate looks up code among promos and applies it to lines.
func Evaluate(lines []Line, code string, promos []domain.Promotion, now time.Time) (Result, error) {
	promo, err := Find(code, promos)
	if err != nil {
		return Result{}, err
	}
	return Apply(promo, lines, now)
}

// Apply checks expiry and usage of promo, then computes the discount it grants on lines.
// The discount never exceeds the subtotal of the whole cart.
func Apply(promo domain.Promotion, lines []Line, now time.Time) (Result, error) {
	if !promo.ExpiryDate.IsZero() && now.After(promo.ExpiryDate) {
		return Result{}, ErrExpired
	}
	if promo.UsageLimit > 0 && promo.UsageCount >= promo.UsageLimit {
		return Result{}, ErrUsageLimitReached
	}

	eligible := EligibleLines(promo, lines)
	if len(eligible) == 0 {
		return Result{}, ErrNoEligibleItems
	}

	subtotal := Subtotal(lines)
	eligibleAmount := Subtotal(eligible)

	var discount decimal.Decimal
	switch promo.Type {
	case domain.PromotionPercentage:
		discount = eligibleAmount.Mul(promo.Value).Div(hundred).Round(2)
	case domain.PromotionFixed:
		discount = decimal.Min(promo.Value, eligibleAmount)
	}
	discount = decimal.Min(discount, subtotal)
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	return Result{
		Promotion:      promo,
		Eligible:       eligible,
		EligibleAmount: eligibleAmount,
		Subtotal:       subtotal,
		Discount:       discount,
	}, nil
}

// EligibleLines keeps the lines passing every non-empty filter of promo.
func EligibleLines(promo domain.Promotion, lines []Line) []Line {
	var out []Line
	for _, line := range lines {
		if IsEligible(promo, line) {
			out = append(out, line)
		}
	}
	return out
}

// IsEligible applies the four filter dimensions with AND semantics.
func IsEligible(promo domain.Promotion, line Line) bool {
	return allows(promo.ApplicableCategories, line.Category) &&
		allows(promo.ApplicableSubcategories, line.Subcategory) &&
		allows(promo.ApplicableVendors, line.VendorID) &&
		allows(promo.ApplicableProductIDs, line.ProductID)
}

func allows(filter []string, value string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == value {
			return true
		}
	}
	return false
}

// Subtotal sums the line amounts.
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Amount())
	}
	return total
}

// ComputeTotals adds shipping and subtracts the discount, flooring the total at zero.
func ComputeTotals(subtotal, shippingFee, discount decimal.Decimal) Totals {
	total := subtotal.Add(shippingFee).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Totals{
		Subtotal:    subtotal,
		ShippingFee: shippingFee,
		Discount:    discount,
		Total:       total,
	}
}
