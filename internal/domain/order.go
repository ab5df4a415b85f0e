package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
	OrderDisputed  OrderStatus = "disputed"
	OrderRefunded  OrderStatus = "refunded"
)

// EscrowStatus tracks buyer funds held against an order.
type EscrowStatus string

const (
	EscrowHeld     EscrowStatus = "held"
	EscrowFrozen   EscrowStatus = "frozen"
	EscrowReleased EscrowStatus = "released"
	EscrowRefunded EscrowStatus = "refunded"
)

// OrderItem snapshots a product line at checkout time. Discounted marks the lines the order's
// promotion applied to; the discount is charged to their vendors only.
type OrderItem struct {
	ProductID   string          `json:"productId"`
	VendorID    string          `json:"vendorId"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	Discounted  bool            `json:"discounted,omitempty"`
}

// LineTotal is UnitPrice times Quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is an escrow order placed by a buyer.
type Order struct {
	ID              string          `json:"id"`
	BuyerID         string          `json:"buyerId"`
	Items           []OrderItem     `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingFee     decimal.Decimal `json:"shippingFee"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	PromoCode       string          `json:"promoCode,omitempty"`
	Status          OrderStatus     `json:"status"`
	EscrowStatus    EscrowStatus    `json:"escrowStatus"`
	ShippingAddress string          `json:"shippingAddress,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// VendorIDs returns the distinct vendors of the order in item order.
func (o Order) VendorIDs() []string {
	seen := make(map[string]struct{}, len(o.Items))
	var ids []string
	for _, item := range o.Items {
		if _, ok := seen[item.VendorID]; ok {
			continue
		}
		seen[item.VendorID] = struct{}{}
		ids = append(ids, item.VendorID)
	}
	return ids
}

// VendorShare sums the line totals belonging to vendorID.
func (o Order) VendorShare(vendorID string) decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		if item.VendorID == vendorID {
			total = total.Add(item.LineTotal())
		}
	}
	return total
}

// DiscountedShare sums vendorID's line totals that the promotion applied to.
func (o Order) DiscountedShare(vendorID string) decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		if item.VendorID == vendorID && item.Discounted {
			total = total.Add(item.LineTotal())
		}
	}
	return total
}

// HasDiscountedItems reports whether any line is marked Discounted.
func (o Order) HasDiscountedItems() bool {
	for _, item := range o.Items {
		if item.Discounted {
			return true
		}
	}
	return false
}

// PayoutStatus is the state of a vendor settlement.
type PayoutStatus string

const (
	PayoutPending PayoutStatus = "pending"
	PayoutOnHold  PayoutStatus = "on_hold"
	PayoutPaid    PayoutStatus = "paid"
)

// Payout settles released escrow funds to a vendor.
type Payout struct {
	ID        string          `json:"id"`
	VendorID  string          `json:"vendorId"`
	OrderID   string          `json:"orderId"`
	Amount    decimal.Decimal `json:"amount"`
	Status    PayoutStatus    `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
