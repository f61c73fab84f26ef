package upi

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"
)

// MaxIssueAttempts bounds the collision retry loop of IssueUnique.
const MaxIssueAttempts = 3

// ExistenceProbe reports whether an identifier string is already taken,
// across both direct organization UPIs and child bindings. The backing
// store must provide insert-if-absent semantics so concurrent issuance
// cannot slip past this probe.
type ExistenceProbe interface {
	UPIExists(upi string) (bool, error)
}

// Issuer mints identifiers for owners. Issuance is deterministic given
// (owner, core entity tag, payment index) and the signing secret; the only
// randomness is in the core entity tag generated once per entity.
type Issuer struct {
	Authority *Authority
	Probe     ExistenceProbe
}

// GenerateCoreEntityTag returns a fresh random core entity tag,
// e.g. CORE-7QX2.
func GenerateCoreEntityTag() (string, error) {
	segment := make([]byte, CoreSegmentLength)
	max := big.NewInt(int64(len(Alphabet)))
	for i := range segment {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", errors.Wrap(err, "failed to generate core entity tag")
		}
		segment[i] = Alphabet[n.Int64()]
	}
	return CoreTagPrefix + string(segment), nil
}

// Issue derives the identifier string for the given owner, core entity tag
// and payment index. It performs no storage access; callers needing
// string-level uniqueness should use IssueUnique.
func (i *Issuer) Issue(ownerID uint, coreTag string, paymentIndex int) (string, error) {
	if paymentIndex < 0 || paymentIndex > 99 {
		return "", errors.Errorf("payment index %d out of range 0-99", paymentIndex)
	}
	namespace := i.Authority.NamespaceFor(ownerID)
	coreSegment := CoreSegment(coreTag)
	return Encode(
		Parts{
			Namespace:    namespace,
			PaymentIndex: paymentIndex,
			CoreSegment:  coreSegment,
			Signature:    i.Authority.Sign(namespace, coreSegment, paymentIndex),
		},
	), nil
}

// IssueUnique mints an identifier that is not yet present in storage,
// regenerating the random core entity tag on collision. Distinct core
// entity tags can derive the same core segment, so uniqueness is checked
// at the identifier-string level, not the tuple level. After
// MaxIssueAttempts collisions it fails with a CollisionError.
func (i *Issuer) IssueUnique(ownerID uint, paymentIndex int) (identifier, coreTag string, err error) {
	for attempt := 0; attempt < MaxIssueAttempts; attempt++ {
		coreTag, err = GenerateCoreEntityTag()
		if err != nil {
			return "", "", err
		}
		identifier, err = i.Issue(ownerID, coreTag, paymentIndex)
		if err != nil {
			return "", "", err
		}
		taken, err := i.Probe.UPIExists(identifier)
		if err != nil {
			return "", "", errors.Wrap(err, "failed to check UPI uniqueness")
		}
		if !taken {
			return identifier, coreTag, nil
		}
	}
	return "", "", CollisionError("could not find an unused UPI after retries")
}
