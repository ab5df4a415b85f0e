// Package service holds the marketplace use cases: accounts, catalogue, promotions, checkout,
// escrow, disputes, KYC, payouts and content. Persistence goes through a store.Store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/events"
	"github.com/vanshika/marketplace/internal/store"
)

var (
	// ErrForbidden means the actor may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState means the entity is not in a state that allows the operation.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidCredentials is returned by Login for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Settings are the business constants the service applies.
type Settings struct {
	ShippingFee  decimal.Decimal
	Currency     string
	KYCThreshold decimal.Decimal
	BcryptCost   int
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		ShippingFee:  decimal.NewFromInt(5000),
		Currency:     "NGN",
		KYCThreshold: decimal.NewFromInt(500000),
		BcryptCost:   10,
	}
}

// PurchaseHistory is implemented by stores that can answer purchase-category queries natively.
type PurchaseHistory interface {
	PurchasedCategories(ctx context.Context, userID string) ([]string, error)
}

// Service orchestrates marketplace operations over a store.
type Service struct {
	store    store.Store
	events   events.Publisher
	logger   *slog.Logger
	settings Settings
	nowFn    func() time.Time
	idFn     func(prefix string) string
}

// New constructs a Service. A nil publisher discards events.
func New(st store.Store, pub events.Publisher, logger *slog.Logger, settings Settings) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if settings.Currency == "" {
		settings.Currency = DefaultSettings().Currency
	}
	if settings.BcryptCost <= 0 {
		settings.BcryptCost = DefaultSettings().BcryptCost
	}
	return &Service{
		store:    st,
		events:   pub,
		logger:   logger,
		settings: settings,
		nowFn:    time.Now,
		idFn:     newID,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *Service) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Store exposes the underlying data adapter for plain CRUD routes.
func (s *Service) Store() store.Store {
	return s.store
}

// Settings returns the business constants in effect.
func (s *Service) Settings() Settings {
	return s.settings
}

// AssignID returns id, or a new prefixed id when id is empty.
func (s *Service) AssignID(prefix, id string) string {
	if id != "" {
		return id
	}
	return s.idFn(prefix)
}

func (s *Service) now() time.Time {
	return s.nowFn().UTC()
}

func (s *Service) publish(ctx context.Context, eventType, aggregateID string, data map[string]any) {
	s.events.Publish(ctx, events.New(eventType, aggregateID, data))
}

func newID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// user loads a user and checks it is active.
func (s *Service) activeUser(ctx context.Context, id string) (domain.User, error) {
	if id == "" {
		return domain.User{}, invalid("userId", "is required")
	}
	u, err := s.store.Users().Get(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if u.Status == domain.UserSuspended {
		return domain.User{}, fmt.Errorf("user %s is suspended: %w", id, ErrForbidden)
	}
	return u, nil
}

// staff loads a user and checks it is a support agent or admin.
func (s *Service) staff(ctx context.Context, id string) (domain.User, error) {
	u, err := s.activeUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if u.Role != domain.RoleSupport && u.Role != domain.RoleAdmin {
		return domain.User{}, fmt.Errorf("user %s is not staff: %w", id, ErrForbidden)
	}
	return u, nil
}

// Upsert creates entity or, when the id already exists, overwrites it.
func Upsert[T domain.Entity](ctx context.Context, coll store.Collection[T], entity T) (T, error) {
	out, err := coll.Create(ctx, entity)
	if errors.Is(err, store.ErrConflict) {
		return coll.Update(ctx, entity)
	}
	return out, err
}
