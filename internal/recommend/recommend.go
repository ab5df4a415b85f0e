// Package recommend orders catalogue products for display on a buyer's home screen.
package recommend

import (
	"math"
	"sort"
	"strings"

	"github.com/vanshika/marketplace/internal/domain"
)

const (
	categoryAffinityWeight = 20
	locationMatchWeight    = 15
	ratingWeight           = 5
	popularityWeight       = 5
	popularityCap          = 20
	outOfStockPenalty      = 50

	// TopPicksSize is how many products make the "Top Picks" row.
	TopPicksSize = 4
)

// Profile is what the scorer knows about the viewer.
type Profile struct {
	Location            string
	PurchasedCategories map[string]struct{}
}

// ProfileFor derives a profile from a user and the orders they placed.
func ProfileFor(user domain.User, orders []domain.Order) Profile {
	p := Profile{
		Location:            user.Location,
		PurchasedCategories: make(map[string]struct{}),
	}
	for _, order := range orders {
		if order.BuyerID != user.ID {
			continue
		}
		for _, item := range order.Items {
			if item.Category != "" {
				p.PurchasedCategories[item.Category] = struct{}{}
			}
		}
	}
	return p
}

// Scored pairs a product with its score.
type Scored struct {
	Product domain.Product `json:"product"`
	Score   float64        `json:"score"`
	Nearby  bool           `json:"nearby"`
}

// Recommendations is the ranked catalogue split into display rows.
type Recommendations struct {
	TopPicks []Scored `json:"topPicks"`
	NearYou  []Scored `json:"nearYou"`
	Ranked   []Scored `json:"ranked"`
}

// Score computes the display score of a single product.
func Score(p domain.Product, profile Profile) float64 {
	score := 0.0
	if _, ok := profile.PurchasedCategories[p.Category]; ok {
		score += categoryAffinityWeight
	}
	if isNearby(p, profile) {
		score += locationMatchWeight
	}
	score += ratingWeight * p.Rating
	sales := p.Sales
	if sales < 0 {
		sales = 0
	}
	score += math.Min(popularityCap, popularityWeight*math.Log10(float64(sales)+1))
	if p.Stock == 0 {
		score -= outOfStockPenalty
	}
	return score
}

// Rank scores products, sorts them best first and splits out the display rows.
// Ties keep catalogue order.
func Rank(products []domain.Product, profile Profile) Recommendations {
	ranked := make([]Scored, 0, len(products))
	for _, p := range products {
		ranked = append(ranked, Scored{
			Product: p,
			Score:   Score(p, profile),
			Nearby:  isNearby(p, profile),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	recs := Recommendations{
		Ranked:  ranked,
		NearYou: []Scored{},
	}
	n := TopPicksSize
	if len(ranked) < n {
		n = len(ranked)
	}
	recs.TopPicks = append([]Scored{}, ranked[:n]...)
	for _, s := range ranked {
		if s.Nearby {
			recs.NearYou = append(recs.NearYou, s)
		}
	}
	return recs
}

func isNearby(p domain.Product, profile Profile) bool {
	if p.Origin == "" || profile.Location == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(p.Origin), strings.TrimSpace(profile.Location))
}
