package model

import (
	"time"
)

// ChildUPI is an indirect binding: it maps one identifier string directly
// to one payment account row, independent of payment-index matching.
// Several child UPIs may share one account, each disable-able on its own.
type ChildUPI struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UPI is the bound identifier string; unique across all bindings.
	UPI string `gorm:"uniqueIndex" json:"upi"`

	OrganizationID   string `gorm:"index;size:36" json:"organization_id"`
	PaymentAccountID uint   `gorm:"index" json:"payment_account_id"`

	// Label is an optional operator-facing note on what this binding is for.
	Label string `json:"label,omitempty"`

	Status Status `json:"status"`
}

// ChildUPIStore abstracts persistence for child bindings.
type ChildUPIStore interface {
	// Create persists a new binding; insert-if-absent on the UPI string
	Create(binding *ChildUPI) error
	// ByUPI returns the binding for an identifier string; (nil, nil) if absent
	ByUPI(upi string) (*ChildUPI, error)
	// ForOrganization lists bindings of an organization
	ForOrganization(orgID string) ([]ChildUPI, error)
	// SetStatus updates the lifecycle status of a binding
	SetStatus(upi string, status Status) error
}
