package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus controls catalogue visibility.
type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductDraft    ProductStatus = "draft"
	ProductArchived ProductStatus = "archived"
)

// Category groups products and lists its subcategories.
type Category struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories,omitempty"`
}

// Product is a vendor listing.
type Product struct {
	ID          string          `json:"id"`
	VendorID    string          `json:"vendorId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Rating      float64         `json:"rating"`
	Sales       int             `json:"sales"`
	Origin      string          `json:"origin,omitempty"`
	Status      ProductStatus   `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Review is a buyer rating of a product.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	BuyerID   string    `json:"buyerId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
