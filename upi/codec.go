// Package upi implements the issuance and resolution engine for UPIs:
// short, fixed-width payment identifiers that bind to an owner through an
// HMAC-derived namespace and signature without embedding the owner's
// internal ID or any banking coordinates.
//
// Layout (14 chars): Namespace(2) + PaymentIndex(2) + CoreSegment(4) + Signature(6)
// over the alphabet A-Z0-9. The format is purely positional; no segment
// boundary is ever inferred from separators.
package upi

import (
	"fmt"
	"strconv"
	"strings"
)

// Alphabet is the 36-character set every UPI is drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Segment widths and total length.
const (
	NamespaceLength    = 2
	PaymentIndexLength = 2
	CoreSegmentLength  = 4
	SignatureLength    = 6
	Length             = NamespaceLength + PaymentIndexLength + CoreSegmentLength + SignatureLength
)

// CoreTagPrefix prefixes generated core entity tags, e.g. CORE-AB12.
const CoreTagPrefix = "CORE-"

// Parts is the decoded structure of an identifier.
type Parts struct {
	Namespace    string
	PaymentIndex int
	CoreSegment  string
	Signature    string
}

// Normalize prepares caller input for decoding: trims surrounding
// whitespace and uppercases.
func Normalize(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// ValidFormat reports whether the string has the exact UPI length and
// consists only of alphabet characters. This check is cheap and runs
// before any semantic validation so garbage input is rejected early.
func ValidFormat(value string) bool {
	if len(value) != Length {
		return false
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// Decode splits an identifier into its segments. Length and alphabet are
// checked first; only then is the payment index window parsed as a
// two-digit decimal.
func Decode(value string) (Parts, error) {
	if !ValidFormat(value) {
		return Parts{}, FormatError("invalid UPI format")
	}
	index, err := strconv.Atoi(value[NamespaceLength : NamespaceLength+PaymentIndexLength])
	if err != nil {
		return Parts{}, FormatError("invalid UPI format")
	}
	coreStart := NamespaceLength + PaymentIndexLength
	coreEnd := coreStart + CoreSegmentLength
	return Parts{
		Namespace:    value[:NamespaceLength],
		PaymentIndex: index,
		CoreSegment:  value[coreStart:coreEnd],
		Signature:    value[coreEnd:],
	}, nil
}

// Encode assembles the printable identifier from its segments. Inputs are
// assumed to have the correct widths; Issue is the validated entry point.
func Encode(p Parts) string {
	return fmt.Sprintf("%s%02d%s%s", p.Namespace, p.PaymentIndex, p.CoreSegment, p.Signature)
}

// CoreSegment derives the fixed-width core segment from a core entity tag:
// the prefix up to the first '-' is stripped, the remainder uppercased and
// filtered to the alphabet, then left-padded with '0' or truncated to the
// segment width. The derivation is deterministic so it yields the same
// segment at issuance and verification time.
func CoreSegment(coreTag string) string {
	tag := coreTag
	if i := strings.Index(tag, "-"); i >= 0 {
		tag = tag[i+1:]
	}
	tag = strings.ToUpper(tag)
	var b strings.Builder
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	segment := b.String()
	if len(segment) < CoreSegmentLength {
		segment = strings.Repeat("0", CoreSegmentLength-len(segment)) + segment
	} else if len(segment) > CoreSegmentLength {
		segment = segment[:CoreSegmentLength]
	}
	return segment
}
