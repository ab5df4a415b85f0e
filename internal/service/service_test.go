package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/events"
	"github.com/vanshika/marketplace/internal/fixture"
	"github.com/vanshika/marketplace/internal/logging"
	"github.com/vanshika/marketplace/internal/store"
	"github.com/vanshika/marketplace/internal/store/memory"
)

var fixedNow = time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func testDataset() fixture.Dataset {
	return fixture.Dataset{
		Users: []domain.User{
			{ID: "BUY-1", Name: "Ada", Email: "ada@example.com", Role: domain.RoleBuyer, Location: "Lagos", KYCStatus: domain.KYCNone, Status: domain.UserActive},
			{ID: "BUY-2", Name: "Bola", Email: "bola@example.com", Role: domain.RoleBuyer, Location: "Abuja", KYCStatus: domain.KYCApproved, Status: domain.UserActive},
			{ID: "BUY-3", Name: "Chi", Email: "chi@example.com", Role: domain.RoleBuyer, KYCStatus: domain.KYCNone, Status: domain.UserSuspended},
			{ID: "VND-1", Name: "Farm One", Email: "one@farm.test", Role: domain.RoleVendor, StoreName: "Farm One", KYCStatus: domain.KYCApproved, Status: domain.UserActive},
			{ID: "VND-2", Name: "Farm Two", Email: "two@farm.test", Role: domain.RoleVendor, StoreName: "Farm Two", KYCStatus: domain.KYCNone, Status: domain.UserActive},
			{ID: "SUP-1", Name: "Sam", Email: "sam@support.test", Role: domain.RoleSupport, Status: domain.UserActive},
			{ID: "ADM-1", Name: "Root", Email: "root@admin.test", Role: domain.RoleAdmin, Status: domain.UserActive},
		},
		Products: []domain.Product{
			{ID: "PRD-1", VendorID: "VND-1", Name: "Rice 5kg", Category: "Grains", Subcategory: "Rice", Price: dec(1000), Stock: 10, Origin: "Lagos", Status: domain.ProductActive},
			{ID: "PRD-2", VendorID: "VND-2", Name: "Palm oil", Category: "Oils", Price: dec(3000), Stock: 2, Origin: "Enugu", Status: domain.ProductActive},
			{ID: "PRD-3", VendorID: "VND-1", Name: "Old stock", Category: "Grains", Price: dec(500), Stock: 5, Status: domain.ProductDraft},
			{ID: "PRD-4", VendorID: "VND-1", Name: "Tractor hire", Category: "Services", Price: dec(200000), Stock: 3, Status: domain.ProductActive},
		},
		Promotions: []domain.Promotion{
			{ID: "PROMO-1", Code: "SAVE10", Type: domain.PromotionPercentage, Value: dec(10), ExpiryDate: fixedNow.AddDate(0, 1, 0), UsageLimit: 2, Active: true, ApplicableCategories: []string{"Grains"}},
		},
	}
}

func newTestService(t *testing.T) (*Service, *memory.Store, *recordingPublisher) {
	t.Helper()
	st, err := memory.NewFromDataset(testDataset())
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	pub := &recordingPublisher{}
	svc := New(st, pub, logging.Discard(), Settings{
		ShippingFee:  dec(5000),
		Currency:     "NGN",
		KYCThreshold: dec(100000),
		BcryptCost:   bcrypt.MinCost,
	})
	svc.WithClock(func() time.Time { return fixedNow })
	var n int
	var mu sync.Mutex
	svc.idFn = func(prefix string) string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
	return svc, st, pub
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Name:     "  Kemi   Adeyemi ",
		Email:    " Kemi@Example.com ",
		Password: "correct horse",
		Location: "Ibadan",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Name != "Kemi Adeyemi" || user.Email != "kemi@example.com" {
		t.Errorf("expected normalised name and email, got %q %q", user.Name, user.Email)
	}
	if user.Role != domain.RoleBuyer || user.KYCStatus != domain.KYCNone || user.Status != domain.UserActive {
		t.Errorf("unexpected defaults %+v", user)
	}
	if user.PasswordHash != "" {
		t.Error("password hash must not be returned")
	}

	if _, err := svc.Login(ctx, LoginInput{Email: "KEMI@example.com", Password: "correct horse"}); err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "kemi@example.com", Password: "wrong horse"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "whatever1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	_, err = svc.Register(ctx, RegisterInput{Name: "Dup", Email: "kemi@EXAMPLE.com", Password: "another pass"})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	cases := map[string]RegisterInput{
		"name":      {Email: "a@b.co", Password: "password1"},
		"email":     {Name: "A", Email: "not-an-email", Password: "password1"},
		"password":  {Name: "A", Email: "a@b.co", Password: "short"},
		"role":      {Name: "A", Email: "a@b.co", Password: "password1", Role: "owner"},
		"storeName": {Name: "A", Email: "a@b.co", Password: "password1", Role: domain.RoleVendor},
	}
	for field, in := range cases {
		t.Run(field, func(t *testing.T) {
			_, err := svc.Register(context.Background(), in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Field != field {
				t.Errorf("expected field %s, got %s", field, verr.Field)
			}
		})
	}
}

func TestSetUserStatus(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SetUserStatus(ctx, "SUP-1", "BUY-1", domain.UserSuspended); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected support agent to be forbidden, got %v", err)
	}
	if _, err := svc.SetUserStatus(ctx, "ADM-1", "BUY-1", domain.UserSuspended); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	u, _ := st.Users().Get(ctx, "BUY-1")
	if u.Status != domain.UserSuspended {
		t.Fatalf("expected suspended, got %s", u.Status)
	}
	if _, err := svc.Checkout(ctx, CheckoutInput{BuyerID: "BUY-1", Items: []CartItem{{ProductID: "PRD-1", Quantity: 1}}, ShippingAddress: "1 Marina"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected suspended buyer to be blocked, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newTestService(t)
	u, err := svc.UpdateProfile(context.Background(), "BUY-1", ProfileInput{Location: " Port  Harcourt "})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if u.Location != "Port Harcourt" || u.Name != "Ada" {
		t.Errorf("unexpected profile %+v", u)
	}
	if !u.UpdatedAt.Equal(fixedNow) {
		t.Errorf("expected updatedAt %s, got %s", fixedNow, u.UpdatedAt)
	}
}

func TestUsers_HidePasswordHashes(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.Register(context.Background(), RegisterInput{Name: "Z", Email: "z@z.io", Password: "zzzzzzzz"}); err != nil {
		t.Fatal(err)
	}
	users, err := svc.Users(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range users {
		if u.PasswordHash != "" {
			t.Fatalf("user %s leaked a password hash", u.ID)
		}
	}
}

func TestNormalizers(t *testing.T) {
	if got := slugify("  About   Us & FAQ!! "); got != "about-us-faq" {
		t.Errorf("slugify: got %q", got)
	}
	if got := maskDocumentNumber("A1234 5678"); got != "*****5678" {
		t.Errorf("maskDocumentNumber: got %q", got)
	}
	if got := sanitizeString("\tfoo \n bar "); got != "foo bar" {
		t.Errorf("sanitizeString: got %q", got)
	}
}
