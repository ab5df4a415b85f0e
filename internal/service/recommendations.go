package service

import (
	"context"
	"fmt"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/recommend"
)

// Recommendations ranks the active catalogue for userID. Stores that implement PurchaseHistory
// answer the category history directly; otherwise it is derived from the order list.
func (s *Service) Recommendations(ctx context.Context, userID string) (recommend.Recommendations, error) {
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return recommend.Recommendations{}, fmt.Errorf("load user: %w", err)
	}
	profile, err := s.profile(ctx, user)
	if err != nil {
		return recommend.Recommendations{}, err
	}

	products, err := s.store.Products().List(ctx)
	if err != nil {
		return recommend.Recommendations{}, fmt.Errorf("list products: %w", err)
	}
	active := products[:0]
	for _, p := range products {
		if p.Status == domain.ProductActive {
			active = append(active, p)
		}
	}
	return recommend.Rank(active, profile), nil
}

func (s *Service) profile(ctx context.Context, user domain.User) (recommend.Profile, error) {
	if history, ok := s.store.(PurchaseHistory); ok {
		categories, err := history.PurchasedCategories(ctx, user.ID)
		if err != nil {
			return recommend.Profile{}, fmt.Errorf("purchase history: %w", err)
		}
		profile := recommend.Profile{
			Location:            user.Location,
			PurchasedCategories: make(map[string]struct{}, len(categories)),
		}
		for _, c := range categories {
			profile.PurchasedCategories[c] = struct{}{}
		}
		return profile, nil
	}

	orders, err := s.OrdersForBuyer(ctx, user.ID)
	if err != nil {
		return recommend.Profile{}, err
	}
	return recommend.ProfileFor(user, orders), nil
}
