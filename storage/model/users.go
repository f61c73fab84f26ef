package model

import (
	"time"
)

// User represents an account owner. Owners mint UPIs for their
// organizations; the master UPI (payment index 0) identifies the owner
// itself. The internal numeric ID never leaves the server; identifiers
// only carry a namespace derived from it.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Email is the unique login identifier
	Email string `gorm:"uniqueIndex" json:"email"`
	// PasswordHash stores a PHC-formatted argon2id hash of the user's password
	PasswordHash string `json:"-"`

	// MasterUPI is the owner-level identifier issued at registration
	MasterUPI string `gorm:"uniqueIndex" json:"master_upi"`

	// Public profile data returned on lookups
	CompanyName     string `json:"company_name"`
	Summary         string `json:"summary"`
	EstablishedYear int    `json:"established_year,omitempty"`
	State           string `json:"state,omitempty"`
	Country         string `json:"country,omitempty"`

	// VerificationStatus gates both minting and being resolved
	VerificationStatus VerificationStatus `json:"verification_status"`
	// Admin grants access to the admin API
	Admin bool `json:"admin"`
	// Disabled allows soft-disable of a user without deletion
	Disabled bool `json:"disabled"`
}

// Verified reports whether the user may be resolved against.
func (u *User) Verified() bool {
	return u != nil && !u.Disabled && u.VerificationStatus == VerificationVerified
}

// UsersStore abstracts CRUD and authentication helpers for owner accounts.
type UsersStore interface {
	// Count returns the number of users present in the store
	Count() (int64, error)
	// List returns all users (without password hashes)
	List() ([]User, error)
	// Get returns a user by email
	Get(email string) (*User, error)
	// ByID returns a user by internal ID; (nil, nil) if absent
	ByID(id uint) (*User, error)
	// ByMasterUPI returns a user by master UPI; (nil, nil) if absent
	ByMasterUPI(upi string) (*User, error)
	// Create creates a user; the implementation must hash the password
	Create(email, password string, profile UserProfile) (*User, error)
	// SetMasterUPI stores the issued master UPI for a user
	SetMasterUPI(id uint, upi string) error
	// SetVerificationStatus updates the verification status
	SetVerificationStatus(id uint, status VerificationStatus) error
	// Update updates profile data and optionally password/disabled/admin
	Update(email string, profile *UserProfile, newPassword *string, disabled *bool, admin *bool) (*User, error)
	// Delete deletes a user by email
	Delete(email string) error
	// Authenticate checks an email/password combo and returns the user
	Authenticate(email, password string) (*User, error)
}

// UserProfile carries the mutable public profile fields of a User.
type UserProfile struct {
	CompanyName     string `json:"company_name"`
	Summary         string `json:"summary"`
	EstablishedYear int    `json:"established_year,omitempty"`
	State           string `json:"state,omitempty"`
	Country         string `json:"country,omitempty"`
}
