package model

import (
	"time"

	"gorm.io/datatypes"
)

// Organization is a business entity owned by a User. Every organization
// carries its own UPI (payment index >= 1) plus the randomly generated
// core entity tag the UPI's core segment was derived from.
type Organization struct {
	// ID is an external UUID; internal joins use it directly.
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"index" json:"user_id"`

	// UPI is the issued identifier; immutable after issuance.
	UPI string `gorm:"uniqueIndex" json:"upi"`
	// ParentUPI is the owner's master UPI at issuance time.
	ParentUPI string `json:"parent_upi"`
	// CoreEntityTag is the full random tag (e.g. CORE-AB12) the core
	// segment was derived from.
	CoreEntityTag string `json:"core_entity_tag"`

	LegalName    string `json:"legal_name"`
	DBA          string `json:"dba,omitempty"`
	EIN          string `gorm:"index" json:"ein"`
	BusinessType string `json:"business_type"`
	Industry     string `json:"industry,omitempty"`
	Website      string `json:"website,omitempty"`
	Description  string `json:"description,omitempty"`
	Country      string `json:"country"`

	// Address holds the structured address blob (street1/street2/city/state/country).
	Address datatypes.JSON `json:"address,omitempty"`

	VerificationStatus VerificationStatus `json:"verification_status"`
	Status             Status             `json:"status"`
}

// Resolvable reports whether the organization passes the fail-closed
// resolution gates: it must be verified and not deactivated.
func (o *Organization) Resolvable() bool {
	return o != nil && o.Status != StatusDeactivated && o.VerificationStatus == VerificationVerified
}

// OrgAddress is the decoded form of Organization.Address.
type OrgAddress struct {
	Street1 string `json:"street1,omitempty"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// OrganizationsStore abstracts persistence for organizations.
type OrganizationsStore interface {
	// Create persists a new organization
	Create(org *Organization) error
	// ByUPI returns the organization holding the given UPI; (nil, nil) if absent
	ByUPI(upi string) (*Organization, error)
	// ByID returns an organization by UUID; (nil, nil) if absent
	ByID(id string) (*Organization, error)
	// ByUserAndEIN returns the user's organization with the given EIN; (nil, nil) if absent
	ByUserAndEIN(userID uint, ein string) (*Organization, error)
	// ForUser lists the organizations of a user in creation order
	ForUser(userID uint) ([]Organization, error)
	// SetStatus updates the lifecycle status
	SetStatus(id string, status Status) error
	// SetVerificationStatus updates the verification status
	SetVerificationStatus(id string, status VerificationStatus) error
	// UPIExists reports whether any organization or child binding already
	// holds the given identifier string
	UPIExists(upi string) (bool, error)
}
