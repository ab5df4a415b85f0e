package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vanshika/marketplace/internal/domain"
)

// ProductInput is the vendor-editable part of a product.
type ProductInput struct {
	VendorID    string               `json:"vendorId"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Subcategory string               `json:"subcategory"`
	Price       decimal.Decimal      `json:"price"`
	Stock       int                  `json:"stock"`
	Origin      string               `json:"origin"`
	Status      domain.ProductStatus `json:"status"`
}

// ReviewInput is a buyer's rating of a product.
type ReviewInput struct {
	ProductID string `json:"productId"`
	BuyerID   string `json:"buyerId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (in ProductInput) validate() error {
	switch {
	case sanitizeString(in.Name) == "":
		return invalid("name", "is required")
	case sanitizeString(in.Category) == "":
		return invalid("category", "is required")
	case !in.Price.IsPositive():
		return invalid("price", "must be greater than zero")
	case in.Stock < 0:
		return invalid("stock", "must not be negative")
	}
	switch in.Status {
	case "", domain.ProductActive, domain.ProductDraft, domain.ProductArchived:
		return nil
	}
	return invalid("status", "must be active, draft or archived")
}

// CreateProduct lists a new product for an active vendor.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	if err := in.validate(); err != nil {
		return domain.Product{}, err
	}
	if _, err := s.vendor(ctx, in.VendorID); err != nil {
		return domain.Product{}, err
	}
	status := in.Status
	if status == "" {
		status = domain.ProductActive
	}

	now := s.now()
	product := domain.Product{
		ID:          s.idFn("prd"),
		VendorID:    in.VendorID,
		Name:        sanitizeString(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    sanitizeString(in.Category),
		Subcategory: sanitizeString(in.Subcategory),
		Price:       in.Price,
		Stock:       in.Stock,
		Origin:      sanitizeString(in.Origin),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	created, err := s.store.Products().Create(ctx, product)
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info("product created", "productId", created.ID, "vendorId", created.VendorID)
	return created, nil
}

// UpdateProduct replaces the editable fields. Only the owning vendor may edit; rating and sales
// are preserved.
func (s *Service) UpdateProduct(ctx context.Context, productID string, in ProductInput) (domain.Product, error) {
	if err := in.validate(); err != nil {
		return domain.Product{}, err
	}
	product, err := s.store.Products().Get(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("load product: %w", err)
	}
	if in.VendorID != product.VendorID {
		return domain.Product{}, fmt.Errorf("product %s belongs to another vendor: %w", productID, ErrForbidden)
	}

	product.Name = sanitizeString(in.Name)
	product.Description = strings.TrimSpace(in.Description)
	product.Category = sanitizeString(in.Category)
	product.Subcategory = sanitizeString(in.Subcategory)
	product.Price = in.Price
	product.Stock = in.Stock
	product.Origin = sanitizeString(in.Origin)
	if in.Status != "" {
		product.Status = in.Status
	}
	product.UpdatedAt = s.now()

	updated, err := s.store.Products().Update(ctx, product)
	if err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

// DeleteProduct removes a product owned by vendorID.
func (s *Service) DeleteProduct(ctx context.Context, vendorID, productID string) error {
	product, err := s.store.Products().Get(ctx, productID)
	if err != nil {
		return fmt.Errorf("load product: %w", err)
	}
	if product.VendorID != vendorID {
		return fmt.Errorf("product %s belongs to another vendor: %w", productID, ErrForbidden)
	}
	return s.store.Products().Delete(ctx, productID)
}

// CreateCategory adds a category; names are unique ignoring case.
func (s *Service) CreateCategory(ctx context.Context, name string, subcategories []string) (domain.Category, error) {
	name = sanitizeString(name)
	if name == "" {
		return domain.Category{}, invalid("name", "is required")
	}
	existing, err := s.store.Categories().List(ctx)
	if err != nil {
		return domain.Category{}, fmt.Errorf("list categories: %w", err)
	}
	for _, c := range existing {
		if strings.EqualFold(c.Name, name) {
			return domain.Category{}, invalid("name", "category already exists")
		}
	}

	subs := make([]string, 0, len(subcategories))
	seen := make(map[string]struct{}, len(subcategories))
	for _, sub := range subcategories {
		sub = sanitizeString(sub)
		key := strings.ToLower(sub)
		if sub == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		subs = append(subs, sub)
	}

	return s.store.Categories().Create(ctx, domain.Category{
		ID:            s.idFn("cat"),
		Name:          name,
		Subcategories: subs,
	})
}

// AddReview records a rating and recomputes the product's mean rating.
func (s *Service) AddReview(ctx context.Context, in ReviewInput) (domain.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return domain.Review{}, invalid("rating", "must be between 1 and 5")
	}
	if _, err := s.activeUser(ctx, in.BuyerID); err != nil {
		return domain.Review{}, err
	}
	product, err := s.store.Products().Get(ctx, in.ProductID)
	if err != nil {
		return domain.Review{}, fmt.Errorf("load product: %w", err)
	}

	review, err := s.store.Reviews().Create(ctx, domain.Review{
		ID:        s.idFn("rev"),
		ProductID: in.ProductID,
		BuyerID:   in.BuyerID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: s.now(),
	})
	if err != nil {
		return domain.Review{}, fmt.Errorf("create review: %w", err)
	}

	reviews, err := s.store.Reviews().List(ctx)
	if err != nil {
		return domain.Review{}, fmt.Errorf("list reviews: %w", err)
	}
	sum, count := 0, 0
	for _, r := range reviews {
		if r.ProductID == in.ProductID {
			sum += r.Rating
			count++
		}
	}
	if count > 0 {
		product.Rating = float64(sum) / float64(count)
		product.UpdatedAt = s.now()
		if _, err := s.store.Products().Update(ctx, product); err != nil {
			return domain.Review{}, fmt.Errorf("update product rating: %w", err)
		}
	}
	return review, nil
}

func (s *Service) vendor(ctx context.Context, id string) (domain.User, error) {
	u, err := s.activeUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if u.Role != domain.RoleVendor {
		return domain.User{}, fmt.Errorf("user %s is not a vendor: %w", id, ErrForbidden)
	}
	return u, nil
}
