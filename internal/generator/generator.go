package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/fixture"
	"github.com/vanshika/marketplace/internal/promotion"
	"github.com/vanshika/marketplace/internal/service"
)

// Generator produces a consistent synthetic marketplace: order totals, stock, escrow states and
// payouts agree with what the service would have produced.
type Generator struct {
	cfg           Config
	rand          *rand.Rand
	nameFragments nameFragments
	pools         attributePools
	now           time.Time
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumBuyers <= 0 {
		cfg.NumBuyers = def.NumBuyers
	}
	if cfg.NumVendors <= 0 {
		cfg.NumVendors = def.NumVendors
	}
	if cfg.NumProducts <= 0 {
		cfg.NumProducts = def.NumProducts
	}
	if cfg.NumOrders < 0 {
		cfg.NumOrders = def.NumOrders
	}
	if cfg.NumPromotions < 0 {
		cfg.NumPromotions = def.NumPromotions
	}
	if cfg.SharedLocationChance <= 0 {
		cfg.SharedLocationChance = def.SharedLocationChance
	}
	if cfg.ShippingFee.IsZero() {
		cfg.ShippingFee = def.ShippingFee
	}
	if cfg.Currency == "" {
		cfg.Currency = def.Currency
	}
	if cfg.Password == "" {
		cfg.Password = def.Password
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:           cfg,
		rand:          rand.New(rand.NewSource(cfg.Seed)),
		nameFragments: defaultNameFragments(),
		now:           time.Now().UTC().Truncate(time.Second),
	}
}

// WithClock pins the reference time used for timestamps and expiry dates.
func (g *Generator) WithClock(now time.Time) *Generator {
	g.now = now.UTC()
	return g
}

// Generate synthesises a dataset. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (fixture.Dataset, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(g.cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return fixture.Dataset{}, fmt.Errorf("hash password: %w", err)
	}

	var ds fixture.Dataset
	ds.Categories = g.categories()
	ds.Users = g.staff(string(hash))
	ds.Pages = g.pages()

	vendors := make([]domain.User, g.cfg.NumVendors)
	for i := range vendors {
		if err := ctx.Err(); err != nil {
			return fixture.Dataset{}, err
		}
		vendors[i] = g.vendor(i, string(hash))
		if sub, ok := g.kycFor(vendors[i], i); ok {
			ds.KYC = append(ds.KYC, sub)
		}
	}
	ds.Users = append(ds.Users, vendors...)

	buyers := make([]domain.User, g.cfg.NumBuyers)
	for i := range buyers {
		if err := ctx.Err(); err != nil {
			return fixture.Dataset{}, err
		}
		buyers[i] = g.buyer(i, string(hash))
	}
	ds.Users = append(ds.Users, buyers...)

	products := make([]domain.Product, g.cfg.NumProducts)
	for i := range products {
		if err := ctx.Err(); err != nil {
			return fixture.Dataset{}, err
		}
		products[i] = g.product(i, vendors, ds.Categories)
	}

	promos := make([]domain.Promotion, g.cfg.NumPromotions)
	for i := range promos {
		promos[i] = g.promotion(i, vendors, ds.Categories)
	}

	kycByVendor := make(map[string]domain.KYCStatus, len(vendors))
	for _, v := range vendors {
		kycByVendor[v.ID] = v.KYCStatus
	}

	for i := 0; i < g.cfg.NumOrders; i++ {
		if err := ctx.Err(); err != nil {
			return fixture.Dataset{}, err
		}
		order, ok := g.order(i, buyers, products, promos)
		if !ok {
			continue
		}
		ds.Orders = append(ds.Orders, order)

		switch order.Status {
		case domain.OrderCompleted:
			ds.Payouts = append(ds.Payouts, g.payouts(order, kycByVendor)...)
			if g.rand.Float64() < 0.5 {
				ds.Reviews = append(ds.Reviews, g.review(len(ds.Reviews), order))
			}
		case domain.OrderDisputed, domain.OrderRefunded:
			ds.Disputes = append(ds.Disputes, g.dispute(len(ds.Disputes), order))
		}
	}

	applyRatings(products, ds.Reviews)
	ds.Products = products
	ds.Promotions = promos
	return ds, nil
}

type attributePools struct {
	locations []string
}

func (g *Generator) maybeSharedLocation() string {
	if len(g.pools.locations) > 0 && g.rand.Float64() < g.cfg.SharedLocationChance {
		return g.pools.locations[g.rand.Intn(len(g.pools.locations))]
	}
	return g.randomCity()
}

func (g *Generator) staff(hash string) []domain.User {
	created := g.now.AddDate(-1, 0, 0)
	return []domain.User{
		{ID: "ADM-0001", Name: "Platform Admin", Email: "admin@marketplace.ng", PasswordHash: hash, Role: domain.RoleAdmin,
			KYCStatus: domain.KYCApproved, Status: domain.UserActive, CreatedAt: created, UpdatedAt: created},
		{ID: "SUP-0001", Name: "Support Desk", Email: "support@marketplace.ng", PasswordHash: hash, Role: domain.RoleSupport,
			KYCStatus: domain.KYCApproved, Status: domain.UserActive, CreatedAt: created, UpdatedAt: created},
	}
}

func (g *Generator) vendor(i int, hash string) domain.User {
	id := fmt.Sprintf("VND-%04d", i+1)
	city := g.randomCity()
	g.pools.locations = append(g.pools.locations, city)
	created := g.pastTime(365 * 24)
	kyc := []domain.KYCStatus{domain.KYCApproved, domain.KYCApproved, domain.KYCPending, domain.KYCNone}[g.rand.Intn(4)]
	store := fmt.Sprintf("%s %s", city, g.nameFragments.storeSuffix[g.rand.Intn(len(g.nameFragments.storeSuffix))])
	return domain.User{
		ID:           id,
		Name:         g.randomFullName(),
		Email:        fmt.Sprintf("vendor%04d@%s", i+1, g.randomDomain()),
		PasswordHash: hash,
		Role:         domain.RoleVendor,
		Location:     city,
		StoreName:    store,
		KYCStatus:    kyc,
		Status:       domain.UserActive,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func (g *Generator) buyer(i int, hash string) domain.User {
	created := g.pastTime(365 * 24)
	status := domain.UserActive
	if g.rand.Float64() < 0.02 {
		status = domain.UserSuspended
	}
	kyc := domain.KYCNone
	if g.rand.Float64() < 0.3 {
		kyc = domain.KYCApproved
	}
	return domain.User{
		ID:           fmt.Sprintf("BUY-%05d", i+1),
		Name:         g.randomFullName(),
		Email:        fmt.Sprintf("buyer%05d@%s", i+1, g.randomDomain()),
		PasswordHash: hash,
		Role:         domain.RoleBuyer,
		Location:     g.maybeSharedLocation(),
		KYCStatus:    kyc,
		Status:       status,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func (g *Generator) kycFor(vendor domain.User, i int) (domain.KYCSubmission, bool) {
	if vendor.KYCStatus == domain.KYCNone {
		return domain.KYCSubmission{}, false
	}
	sub := domain.KYCSubmission{
		ID:             fmt.Sprintf("KYC-%04d", i+1),
		UserID:         vendor.ID,
		DocumentType:   g.nameFragments.documents[g.rand.Intn(len(g.nameFragments.documents))],
		DocumentNumber: fmt.Sprintf("*******%04d", g.rand.Intn(10000)),
		Status:         vendor.KYCStatus,
		SubmittedAt:    vendor.CreatedAt.Add(time.Hour),
	}
	if vendor.KYCStatus == domain.KYCApproved {
		reviewed := sub.SubmittedAt.Add(24 * time.Hour)
		sub.ReviewerID = "SUP-0001"
		sub.ReviewedAt = &reviewed
	}
	return sub, true
}

func (g *Generator) categories() []domain.Category {
	cats := make([]domain.Category, 0, len(g.nameFragments.categories))
	for i, c := range g.nameFragments.categories {
		cats = append(cats, domain.Category{
			ID:            fmt.Sprintf("CAT-%02d", i+1),
			Name:          c.name,
			Subcategories: c.subcategories,
		})
	}
	return cats
}

func (g *Generator) product(i int, vendors []domain.User, cats []domain.Category) domain.Product {
	vendor := vendors[g.rand.Intn(len(vendors))]
	cat := cats[g.rand.Intn(len(cats))]
	sub := ""
	if len(cat.Subcategories) > 0 {
		sub = cat.Subcategories[g.rand.Intn(len(cat.Subcategories))]
	}
	status := domain.ProductActive
	if g.rand.Float64() < 0.05 {
		status = domain.ProductDraft
	}
	created := vendor.CreatedAt.Add(time.Duration(g.rand.Intn(30*24)) * time.Hour)
	name := sub
	if name == "" {
		name = cat.Name
	}
	return domain.Product{
		ID:          fmt.Sprintf("PRD-%05d", i+1),
		VendorID:    vendor.ID,
		Name:        fmt.Sprintf("%s %s", g.nameFragments.adjectives[g.rand.Intn(len(g.nameFragments.adjectives))], name),
		Description: fmt.Sprintf("Sourced from %s by %s.", vendor.Location, vendor.StoreName),
		Category:    cat.Name,
		Subcategory: sub,
		Price:       decimal.NewFromInt(int64(500 + g.rand.Intn(400)*250)),
		Stock:       g.rand.Intn(200),
		Origin:      vendor.Location,
		Status:      status,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func (g *Generator) promotion(i int, vendors []domain.User, cats []domain.Category) domain.Promotion {
	p := domain.Promotion{
		ID:         fmt.Sprintf("PROMO-%03d", i+1),
		Active:     g.rand.Float64() < 0.85,
		UsageLimit: []int{0, 50, 100, 500}[g.rand.Intn(4)],
		CreatedAt:  g.pastTime(90 * 24),
	}
	p.UpdatedAt = p.CreatedAt
	p.ExpiryDate = g.now.AddDate(0, 0, g.rand.Intn(120)-20)

	if g.rand.Float64() < 0.5 {
		p.Type = domain.PromotionPercentage
		p.Value = decimal.NewFromInt(int64(5 + 5*g.rand.Intn(6)))
		p.Code = fmt.Sprintf("SAVE%s%02d", p.Value.String(), i+1)
	} else {
		p.Type = domain.PromotionFixed
		p.Value = decimal.NewFromInt(int64(500 * (1 + g.rand.Intn(10))))
		p.Code = fmt.Sprintf("OFF%s%02d", p.Value.String(), i+1)
	}

	switch g.rand.Intn(3) {
	case 0:
		cat := cats[g.rand.Intn(len(cats))]
		p.ApplicableCategories = []string{cat.Name}
		p.Description = fmt.Sprintf("%s%s off %s", p.Value.String(), unit(p.Type), cat.Name)
	case 1:
		v := vendors[g.rand.Intn(len(vendors))]
		p.VendorID = v.ID
		p.ApplicableVendors = []string{v.ID}
		p.Description = fmt.Sprintf("%s%s off at %s", p.Value.String(), unit(p.Type), v.StoreName)
	default:
		p.Description = fmt.Sprintf("%s%s off everything", p.Value.String(), unit(p.Type))
	}
	return p
}

func unit(t domain.PromotionType) string {
	if t == domain.PromotionPercentage {
		return "%"
	}
	return " NGN"
}

// order builds one order from available stock. It reports false when no active product could be
// put in the cart.
func (g *Generator) order(i int, buyers []domain.User, products []domain.Product, promos []domain.Promotion) (domain.Order, bool) {
	buyer := buyers[g.rand.Intn(len(buyers))]
	lines := 1 + g.rand.Intn(3)

	order := domain.Order{
		ID:              fmt.Sprintf("ORD-%06d", i+1),
		BuyerID:         buyer.ID,
		Currency:        g.cfg.Currency,
		ShippingAddress: fmt.Sprintf("%d %s, %s", g.rand.Intn(200)+1, g.randomStreet(), buyer.Location),
		CreatedAt:       g.pastTime(180 * 24),
	}
	picked := map[int]bool{}
	for n := 0; n < lines; n++ {
		idx := g.rand.Intn(len(products))
		p := &products[idx]
		if picked[idx] || p.Status != domain.ProductActive || p.Stock == 0 {
			continue
		}
		picked[idx] = true
		qty := 1 + g.rand.Intn(min(3, p.Stock))
		p.Stock -= qty
		p.Sales += qty
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:   p.ID,
			VendorID:    p.VendorID,
			Name:        p.Name,
			Category:    p.Category,
			Subcategory: p.Subcategory,
			UnitPrice:   p.Price,
			Quantity:    qty,
		})
	}
	if len(order.Items) == 0 {
		return domain.Order{}, false
	}

	cart := promotion.LinesFromItems(order.Items)
	subtotal := promotion.Subtotal(cart)
	discount := decimal.Zero
	if len(promos) > 0 && g.rand.Float64() < 0.3 {
		promo := &promos[g.rand.Intn(len(promos))]
		if res, err := promotion.Apply(*promo, cart, order.CreatedAt); promo.Active && err == nil {
			discount = res.Discount
			promotion.MarkDiscounted(order.Items, res.Eligible)
			order.PromoCode = promo.Code
			promo.UsageCount++
		}
	}
	totals := promotion.ComputeTotals(subtotal, g.cfg.ShippingFee, discount)
	order.Subtotal = totals.Subtotal
	order.ShippingFee = totals.ShippingFee
	order.Discount = totals.Discount
	order.Total = totals.Total

	order.Status, order.EscrowStatus = g.orderState()
	order.UpdatedAt = order.CreatedAt.Add(time.Duration(g.rand.Intn(96)) * time.Hour)
	return order, true
}

func (g *Generator) orderState() (domain.OrderStatus, domain.EscrowStatus) {
	switch roll := g.rand.Float64(); {
	case roll < 0.15:
		return domain.OrderPaid, domain.EscrowHeld
	case roll < 0.30:
		return domain.OrderShipped, domain.EscrowHeld
	case roll < 0.85:
		return domain.OrderCompleted, domain.EscrowReleased
	case roll < 0.90:
		return domain.OrderCancelled, domain.EscrowRefunded
	case roll < 0.95:
		return domain.OrderDisputed, domain.EscrowFrozen
	default:
		return domain.OrderRefunded, domain.EscrowRefunded
	}
}

func (g *Generator) payouts(order domain.Order, kyc map[string]domain.KYCStatus) []domain.Payout {
	shares := service.VendorPayouts(order)
	out := make([]domain.Payout, 0, len(shares))
	for _, vendorID := range order.VendorIDs() {
		status := domain.PayoutOnHold
		if kyc[vendorID] == domain.KYCApproved {
			status = domain.PayoutPending
			if g.rand.Float64() < 0.6 {
				status = domain.PayoutPaid
			}
		}
		out = append(out, domain.Payout{
			ID:        fmt.Sprintf("PAY-%s-%s", order.ID, vendorID),
			VendorID:  vendorID,
			OrderID:   order.ID,
			Amount:    shares[vendorID],
			Status:    status,
			CreatedAt: order.UpdatedAt,
			UpdatedAt: order.UpdatedAt,
		})
	}
	return out
}

func (g *Generator) review(i int, order domain.Order) domain.Review {
	item := order.Items[g.rand.Intn(len(order.Items))]
	rating := 3 + g.rand.Intn(3)
	if g.rand.Float64() < 0.15 {
		rating = 1 + g.rand.Intn(2)
	}
	return domain.Review{
		ID:        fmt.Sprintf("REV-%06d", i+1),
		ProductID: item.ProductID,
		BuyerID:   order.BuyerID,
		Rating:    rating,
		Comment:   g.nameFragments.comments[g.rand.Intn(len(g.nameFragments.comments))],
		CreatedAt: order.UpdatedAt.Add(24 * time.Hour),
	}
}

func (g *Generator) dispute(i int, order domain.Order) domain.Dispute {
	d := domain.Dispute{
		ID:        fmt.Sprintf("DSP-%05d", i+1),
		OrderID:   order.ID,
		BuyerID:   order.BuyerID,
		VendorIDs: order.VendorIDs(),
		Reason:    g.nameFragments.disputeReasons[g.rand.Intn(len(g.nameFragments.disputeReasons))],
		Status:    domain.DisputeOpen,
		CreatedAt: order.UpdatedAt,
		UpdatedAt: order.UpdatedAt,
	}
	if order.Status == domain.OrderRefunded {
		d.Status = domain.DisputeResolved
		d.AssignedTo = "SUP-0001"
		d.Outcome = domain.OutcomeRefundBuyer
		d.Resolution = "Refund issued to buyer"
	} else if g.rand.Float64() < 0.5 {
		d.Status = domain.DisputeInReview
		d.AssignedTo = "SUP-0001"
	}
	return d
}

func (g *Generator) pages() []domain.Page {
	created := g.now.AddDate(0, -6, 0)
	return []domain.Page{
		{ID: "PG-001", Slug: "about", Title: "About us", Body: "Farm produce straight from vendors across Nigeria.", Published: true, CreatedAt: created, UpdatedAt: created},
		{ID: "PG-002", Slug: "escrow", Title: "How escrow works", Body: "Payments are held until you confirm delivery.", Published: true, CreatedAt: created, UpdatedAt: created},
		{ID: "PG-003", Slug: "vendor-terms", Title: "Vendor terms", Body: "Payouts require approved KYC.", Published: false, CreatedAt: created, UpdatedAt: created},
	}
}

// applyRatings sets each product's rating to the mean of its reviews.
func applyRatings(products []domain.Product, reviews []domain.Review) {
	sums := map[string][2]int{}
	for _, r := range reviews {
		s := sums[r.ProductID]
		sums[r.ProductID] = [2]int{s[0] + r.Rating, s[1] + 1}
	}
	for i := range products {
		if s, ok := sums[products[i].ID]; ok {
			products[i].Rating = float64(s[0]) / float64(s[1])
		}
	}
}

func (g *Generator) pastTime(maxHours int) time.Time {
	return g.now.Add(-time.Duration(g.rand.Intn(maxHours)+1) * time.Hour)
}

func (g *Generator) randomFullName() string {
	return fmt.Sprintf("%s %s", g.nameFragments.first[g.rand.Intn(len(g.nameFragments.first))],
		g.nameFragments.last[g.rand.Intn(len(g.nameFragments.last))])
}

func (g *Generator) randomDomain() string {
	return g.nameFragments.domains[g.rand.Intn(len(g.nameFragments.domains))]
}

func (g *Generator) randomStreet() string {
	return fmt.Sprintf("%s %s",
		g.nameFragments.streetNames[g.rand.Intn(len(g.nameFragments.streetNames))],
		g.nameFragments.streetSuffix[g.rand.Intn(len(g.nameFragments.streetSuffix))])
}

func (g *Generator) randomCity() string {
	return g.nameFragments.cities[g.rand.Intn(len(g.nameFragments.cities))]
}

type categoryFragment struct {
	name          string
	subcategories []string
}

type nameFragments struct {
	first          []string
	last           []string
	domains        []string
	streetNames    []string
	streetSuffix   []string
	cities         []string
	storeSuffix    []string
	adjectives     []string
	documents      []string
	comments       []string
	disputeReasons []string
	categories     []categoryFragment
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first:          []string{"Ada", "Chinedu", "Bola", "Tunde", "Ngozi", "Emeka", "Funmi", "Ibrahim", "Aisha", "Segun", "Kemi", "Musa", "Zainab", "Obi", "Yetunde"},
		last:           []string{"Okafor", "Adeyemi", "Bello", "Eze", "Ogunleye", "Abubakar", "Nwosu", "Balogun", "Okoro", "Lawal", "Umeh", "Danjuma"},
		domains:        []string{"example.com", "mail.ng", "farmhub.ng", "agromail.com"},
		streetNames:    []string{"Marina", "Broad", "Allen", "Awolowo", "Herbert Macaulay", "Ahmadu Bello", "Ogui", "Zik"},
		streetSuffix:   []string{"Street", "Road", "Avenue", "Way", "Close", "Crescent"},
		cities:         []string{"Lagos", "Abuja", "Kano", "Ibadan", "Enugu", "Port Harcourt", "Kaduna", "Jos", "Benin City", "Abeokuta"},
		storeSuffix:    []string{"Farms", "Produce", "Agro", "Harvest", "Growers", "Market"},
		adjectives:     []string{"Fresh", "Organic", "Premium", "Local", "Sun-dried", "Hand-picked"},
		documents:      []string{"nin", "passport", "drivers_license", "cac_certificate"},
		comments:       []string{"Arrived quickly", "Great quality", "As described", "Packaging could be better", "Will buy again"},
		disputeReasons: []string{"Item never arrived", "Wrong quantity delivered", "Produce spoiled on arrival", "Item not as described"},
		categories: []categoryFragment{
			{"Grains", []string{"Rice", "Maize", "Millet", "Sorghum"}},
			{"Tubers", []string{"Yam", "Cassava", "Cocoyam"}},
			{"Oils", []string{"Palm oil", "Groundnut oil"}},
			{"Vegetables", []string{"Tomatoes", "Peppers", "Leafy greens"}},
			{"Livestock", []string{"Poultry", "Goats", "Fish"}},
			{"Services", []string{"Tractor hire", "Storage", "Logistics"}},
		},
	}
}
