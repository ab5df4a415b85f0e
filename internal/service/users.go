package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/store"
)

const minPasswordLength = 8

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	Role      domain.Role `json:"role"`
	Location  string      `json:"location"`
	StoreName string      `json:"storeName"`
}

// LoginInput carries credentials.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileInput holds the user-editable profile fields. Empty fields are left unchanged.
type ProfileInput struct {
	Name      string `json:"name"`
	Location  string `json:"location"`
	StoreName string `json:"storeName"`
}

// Register creates an account with a bcrypt password hash. Emails are unique.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	name := sanitizeString(in.Name)
	email := normalizeEmail(in.Email)
	role := domain.Role(strings.ToLower(strings.TrimSpace(string(in.Role))))
	if role == "" {
		role = domain.RoleBuyer
	}

	switch {
	case name == "":
		return domain.User{}, invalid("name", "is required")
	case !validEmail(email):
		return domain.User{}, invalid("email", "is not a valid address")
	case len(in.Password) < minPasswordLength:
		return domain.User{}, invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	case !role.Valid():
		return domain.User{}, invalid("role", "must be buyer, vendor, support or admin")
	}
	storeName := sanitizeString(in.StoreName)
	if role == domain.RoleVendor && storeName == "" {
		return domain.User{}, invalid("storeName", "is required for vendors")
	}

	if _, err := s.userByEmail(ctx, email); err == nil {
		return domain.User{}, fmt.Errorf("email %s: %w", email, store.ErrConflict)
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.settings.BcryptCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := domain.User{
		ID:           s.idFn("usr"),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Location:     sanitizeString(in.Location),
		StoreName:    storeName,
		KYCStatus:    domain.KYCNone,
		Status:       domain.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.store.Users().Create(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user registered", "userId", created.ID, "role", created.Role)
	return created.Public(), nil
}

// Login checks credentials and returns the public view of the user.
func (s *Service) Login(ctx context.Context, in LoginInput) (domain.User, error) {
	user, err := s.userByEmail(ctx, normalizeEmail(in.Email))
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}
	if user.PasswordHash == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	if user.Status == domain.UserSuspended {
		return domain.User{}, fmt.Errorf("user %s is suspended: %w", user.ID, ErrForbidden)
	}
	return user.Public(), nil
}

// UpdateProfile applies the non-empty fields of in to the user.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (domain.User, error) {
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if v := sanitizeString(in.Name); v != "" {
		user.Name = v
	}
	if v := sanitizeString(in.Location); v != "" {
		user.Location = v
	}
	if v := sanitizeString(in.StoreName); v != "" {
		user.StoreName = v
	}
	user.UpdatedAt = s.now()
	updated, err := s.store.Users().Update(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	return updated.Public(), nil
}

// SetUserStatus suspends or reactivates an account. Only admins may do this.
func (s *Service) SetUserStatus(ctx context.Context, adminID, userID string, status domain.UserStatus) (domain.User, error) {
	if status != domain.UserActive && status != domain.UserSuspended {
		return domain.User{}, invalid("status", "must be active or suspended")
	}
	admin, err := s.activeUser(ctx, adminID)
	if err != nil {
		return domain.User{}, err
	}
	if admin.Role != domain.RoleAdmin {
		return domain.User{}, fmt.Errorf("user %s is not an admin: %w", adminID, ErrForbidden)
	}
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	user.Status = status
	user.UpdatedAt = s.now()
	updated, err := s.store.Users().Update(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	s.logger.Info("user status changed", "userId", userID, "status", status, "by", adminID)
	return updated.Public(), nil
}

// Users lists accounts without password hashes.
func (s *Service) Users(ctx context.Context) ([]domain.User, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = users[i].Public()
	}
	return users, nil
}

func (s *Service) userByEmail(ctx context.Context, email string) (domain.User, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("list users: %w", err)
	}
	for _, u := range users {
		if normalizeEmail(u.Email) == email {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("email %s: %w", email, store.ErrNotFound)
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
