package upi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"strconv"
)

// Authority derives namespaces and signatures from a single server-held
// secret using HMAC-SHA256. It is immutable after construction and safe
// for concurrent use; the derivations are pure CPU work.
//
// Namespaces and signatures are truncated base32 output (2 and 6 chars
// over a 36-symbol alphabet), a deliberate collision trade-off favoring
// short, user-typable identifiers. Namespace collisions across owners are
// expected and grant nothing: the signature binds the full
// (namespace, core segment, payment index) tuple, and resolution
// additionally recomputes the namespace for the claimed owner.
type Authority struct {
	secret []byte
}

// NewAuthority creates an Authority from the raw signing secret.
func NewAuthority(secret []byte) (*Authority, error) {
	if len(secret) == 0 {
		return nil, ConfigurationError("signing secret is not set")
	}
	return &Authority{secret: secret}, nil
}

// AuthorityFromConfigValue creates an Authority from a configured secret
// value, which may be base64 or raw bytes.
func AuthorityFromConfigValue(value string) (*Authority, error) {
	if value == "" {
		return nil, ConfigurationError("signing secret is not set")
	}
	if decoded, err := base64.StdEncoding.DecodeString(value); err == nil {
		return NewAuthority(decoded)
	}
	return NewAuthority([]byte(value))
}

// NamespaceFor derives the owner's 2-char namespace from the internal
// owner ID. The namespace is a one-way function of the ID: all of an
// owner's identifiers share it, but it cannot be reversed to the ID.
func (a *Authority) NamespaceFor(ownerID uint) string {
	return a.encode(strconv.FormatUint(uint64(ownerID), 10))[:NamespaceLength]
}

// Sign derives the 6-char signature over the canonical encoding of
// (namespace, core segment, payment index).
func (a *Authority) Sign(namespace, coreSegment string, paymentIndex int) string {
	return a.encode(fmt.Sprintf("%s%s%02d", namespace, coreSegment, paymentIndex))[:SignatureLength]
}

// VerifySignature recomputes the signature for the decoded parts and
// compares in constant time.
func (a *Authority) VerifySignature(p Parts) bool {
	expected := a.Sign(p.Namespace, p.CoreSegment, p.PaymentIndex)
	return hmac.Equal([]byte(expected), []byte(p.Signature))
}

func (a *Authority) encode(payload string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(payload))
	// Standard base32 output (A-Z2-7) is a subset of the UPI alphabet.
	return base32.StdEncoding.EncodeToString(mac.Sum(nil))
}
