package domain

import "time"

// Role is the marketplace persona a user acts as.
type Role string

const (
	RoleBuyer   Role = "buyer"
	RoleVendor  Role = "vendor"
	RoleSupport Role = "support"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleVendor, RoleSupport, RoleAdmin:
		return true
	}
	return false
}

// KYCStatus tracks identity verification of a user.
type KYCStatus string

const (
	KYCNone     KYCStatus = "none"
	KYCPending  KYCStatus = "pending"
	KYCApproved KYCStatus = "approved"
	KYCRejected KYCStatus = "rejected"
)

// UserStatus marks whether an account may transact.
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
)

// User aggregates buyer, vendor, support and admin accounts.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"passwordHash,omitempty"`
	Role         Role       `json:"role"`
	Location     string     `json:"location,omitempty"`
	StoreName    string     `json:"storeName,omitempty"`
	KYCStatus    KYCStatus  `json:"kycStatus"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Public returns a copy safe to hand to API clients.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}
