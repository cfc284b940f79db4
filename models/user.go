package models

import (
	"time"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// AuthProvider tags how an identity was created.
type AuthProvider string

const (
	ProviderCredentials AuthProvider = "credentials"
	ProviderGoogle      AuthProvider = "google"
)

func (p AuthProvider) Valid() bool {
	return p == ProviderCredentials || p == ProviderGoogle
}

type User struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	Name          string       `json:"name" gorm:"not null"`
	Email         string       `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash  string       `json:"-"`
	Phone         *string      `json:"phone,omitempty" gorm:"uniqueIndex"`
	Provider      AuthProvider `json:"provider" gorm:"not null;default:'credentials'"`
	Role          UserRole     `json:"role" gorm:"not null;default:'user'"`
	IsApproved    bool         `json:"isApproved" gorm:"default:false"`
	ApprovedBy    *uint        `json:"approvedBy,omitempty"`
	ApprovedAt    *time.Time   `json:"approvedAt,omitempty"`
	PhoneVerified bool         `json:"phoneVerified" gorm:"default:false"`
	OTPCode       string       `json:"-"`
	OTPExpiresAt  *time.Time   `json:"-"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// IsAdmin is true for the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicProfile is the subset of a user embedded in other resources.
type PublicProfile struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{ID: u.ID, Name: u.Name, Email: u.Email}
}
