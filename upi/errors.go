package upi

import (
	"fmt"
)

// FormatError signals an identifier string that fails length or alphabet
// validation or carries a non-decimal payment index. It is not
// attributable to any party.
type FormatError string

// Error implements the error interface
func (e FormatError) Error() string {
	return string(e)
}

// NotFoundError signals that no matching, verified, active target exists.
// It deliberately covers genuine absence as well as ownership and
// verification mismatches so callers cannot tell the cases apart.
type NotFoundError string

// Error implements the error interface
func (e NotFoundError) Error() string {
	return string(e)
}

// SignatureError signals a structurally valid identifier whose signature
// does not match the recomputed value; it indicates tampering rather than
// a stale or absent record.
type SignatureError string

// Error implements the error interface
func (e SignatureError) Error() string {
	return string(e)
}

// GoneError signals a target that exists but is administratively disabled.
type GoneError string

// Error implements the error interface
func (e GoneError) Error() string {
	return string(e)
}

// CollisionError signals that issuance exhausted its retry budget without
// finding an unused identifier string.
type CollisionError string

// Error implements the error interface
func (e CollisionError) Error() string {
	return string(e)
}

// ConfigurationError signals a missing or invalid secret. It is fatal and
// surfaced at process start, never per request.
type ConfigurationError string

// Error implements the error interface
func (e ConfigurationError) Error() string {
	return string(e)
}

// ConfigurationErrorFmt returns a ConfigurationError from the passed format string and parameters
func ConfigurationErrorFmt(format string, params ...any) ConfigurationError {
	return ConfigurationError(fmt.Sprintf(format, params...))
}
