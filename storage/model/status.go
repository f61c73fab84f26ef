package model

import (
	"fmt"
)

// Status is a type for holding a lifecycle status for something that is
// stored in the database; this type describes the state of the entity,
// e.g. "active" or "disabled"
type Status int

// Constants for Status
const (
	StatusActive Status = iota
	StatusDisabled
	StatusPending
	StatusDeactivated
)

// String returns the canonical string representation for the status.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusDisabled:
		return "disabled"
	case StatusPending:
		return "pending"
	case StatusDeactivated:
		return "deactivated"
	default:
		return "unknown"
	}
}

// Valid reports whether the status is one of the defined constants.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusDisabled, StatusPending, StatusDeactivated:
		return true
	default:
		return false
	}
}

// MarshalJSON encodes the status as a JSON string.
func (s Status) MarshalJSON() ([]byte, error) {
	// Unknown maps to "unknown" to avoid failing marshaling; consumers should validate.
	return []byte("\"" + s.String() + "\""), nil
}

// UnmarshalJSON decodes the status from a JSON string.
func (s *Status) UnmarshalJSON(b []byte) error {
	// Expect a quoted string
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("status must be a JSON string")
	}
	val := string(b[1 : len(b)-1])
	ps, err := ParseStatus(val)
	if err != nil {
		return err
	}
	*s = ps
	return nil
}

// ParseStatus converts a string to a Status, returning an error for invalid values.
func ParseStatus(v string) (Status, error) {
	switch v {
	case "active":
		return StatusActive, nil
	case "disabled":
		return StatusDisabled, nil
	case "pending":
		return StatusPending, nil
	case "deactivated":
		return StatusDeactivated, nil
	}
	return 0, fmt.Errorf("invalid status: %s", v)
}

// VerificationStatus describes how far an owner or organization has come
// through identity verification. Only verified entities are resolvable.
type VerificationStatus int

// Constants for VerificationStatus
const (
	VerificationPending VerificationStatus = iota
	VerificationVerified
	VerificationRejected
)

// String returns the canonical string representation.
func (v VerificationStatus) String() string {
	switch v {
	case VerificationPending:
		return "pending"
	case VerificationVerified:
		return "verified"
	case VerificationRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the verification status as a JSON string.
func (v VerificationStatus) MarshalJSON() ([]byte, error) {
	return []byte("\"" + v.String() + "\""), nil
}

// UnmarshalJSON decodes the verification status from a JSON string.
func (v *VerificationStatus) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("verification status must be a JSON string")
	}
	pv, err := ParseVerificationStatus(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*v = pv
	return nil
}

// ParseVerificationStatus converts a string to a VerificationStatus.
func ParseVerificationStatus(s string) (VerificationStatus, error) {
	switch s {
	case "pending":
		return VerificationPending, nil
	case "verified":
		return VerificationVerified, nil
	case "rejected":
		return VerificationRejected, nil
	}
	return 0, fmt.Errorf("invalid verification status: %s", s)
}
