package upi

import (
	log "github.com/sirupsen/logrus"

	"github.com/railpoint/railpoint/fieldcipher"
	"github.com/railpoint/railpoint/storage/model"
)

// Directory is the storage view the resolver needs. Lookups return
// (nil, nil) when nothing matches; errors are reserved for store failures.
type Directory interface {
	OrganizationByUPI(upi string) (*model.Organization, error)
	OrganizationByID(id string) (*model.Organization, error)
	ChildBindingByUPI(upi string) (*model.ChildUPI, error)
	OwnerByID(id uint) (*model.User, error)
	AccountByOrgIndexRail(orgID string, paymentIndex int, rail model.Rail) (*model.PaymentAccount, error)
	AccountByID(id uint) (*model.PaymentAccount, error)
}

// Coordinates is the rail-specific payout record assembled from a
// resolved payment account. Only the fields relevant to the requested
// rail are ever decrypted and populated.
type Coordinates struct {
	RoutingNumber string `json:"routing_number,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	SwiftBIC      string `json:"swift_bic,omitempty"`
	IBAN          string `json:"iban,omitempty"`
	BankName      string `json:"bank_name"`
	BankAddress   string `json:"bank_address,omitempty"`
	BankCountry   string `json:"bank_country,omitempty"`
	BankCity      string `json:"bank_city,omitempty"`
}

// Resolution is the successful outcome of resolving an identifier.
type Resolution struct {
	UPI          string
	Rail         model.Rail
	Parts        Parts
	Organization *model.Organization
	Owner        *model.User
	Coordinates  Coordinates
}

// Resolver turns a candidate identifier string plus a requested rail into
// payout coordinates, enforcing format, signature, ownership,
// verification and lifecycle gates. It is stateless per call; the
// authority and cipher are loaded once at startup.
//
// Negative outcomes are typed: FormatError, NotFoundError, SignatureError
// and GoneError. Ownership and verification mismatches map to
// NotFoundError on purpose, indistinguishable from genuine absence.
type Resolver struct {
	Authority *Authority
	Cipher    *fieldcipher.Cipher
	Directory Directory
}

// Resolve runs the resolution state machine. The caller's own verified
// status must already have been enforced by the surrounding policy layer.
func (r *Resolver) Resolve(value string, rail model.Rail) (*Resolution, error) {
	identifier := Normalize(value)
	parts, err := Decode(identifier)
	if err != nil {
		return nil, err
	}

	// Child bindings take precedence: they map the exact string to one
	// account row, so no payment-index cross-check applies.
	child, err := r.Directory.ChildBindingByUPI(identifier)
	if err != nil {
		return nil, err
	}
	if child != nil {
		return r.resolveChild(identifier, parts, child, rail)
	}
	return r.resolvePrimary(identifier, parts, rail)
}

func (r *Resolver) resolveChild(identifier string, parts Parts, child *model.ChildUPI, rail model.Rail) (
	*Resolution, error,
) {
	if child.Status != model.StatusActive {
		return nil, GoneError("UPI is disabled")
	}
	org, err := r.Directory.OrganizationByID(child.OrganizationID)
	if err != nil {
		return nil, err
	}
	owner, err := r.verifyChain(identifier, parts, org)
	if err != nil {
		return nil, err
	}
	account, err := r.Directory.AccountByID(child.PaymentAccountID)
	if err != nil {
		return nil, err
	}
	if account == nil || account.Rail != rail {
		return nil, NotFoundError("payment details not found for this rail")
	}
	if account.Status == model.StatusDisabled {
		return nil, GoneError("payment account is disabled")
	}
	return r.assemble(identifier, parts, rail, org, owner, account)
}

func (r *Resolver) resolvePrimary(identifier string, parts Parts, rail model.Rail) (*Resolution, error) {
	org, err := r.Directory.OrganizationByUPI(identifier)
	if err != nil {
		return nil, err
	}
	owner, err := r.verifyChain(identifier, parts, org)
	if err != nil {
		return nil, err
	}
	account, err := r.Directory.AccountByOrgIndexRail(org.ID, parts.PaymentIndex, rail)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, NotFoundError("payment details not found for this rail")
	}
	if account.Status == model.StatusDisabled {
		return nil, GoneError("payment account is disabled")
	}
	return r.assemble(identifier, parts, rail, org, owner, account)
}

// verifyChain walks the ownership chain and re-derives the cryptographic
// bindings. A namespace that does not match the claimed owner means the
// identifier belongs to someone else and resolves as not found; only a
// bad signature on a correctly-namespaced identifier counts as tampering.
func (r *Resolver) verifyChain(identifier string, parts Parts, org *model.Organization) (*model.User, error) {
	if !org.Resolvable() {
		return nil, NotFoundError("UPI not found")
	}
	owner, err := r.Directory.OwnerByID(org.UserID)
	if err != nil {
		return nil, err
	}
	// A past-verified, now-revoked owner resolves as not found rather
	// than leaking prior state.
	if !owner.Verified() {
		return nil, NotFoundError("UPI not found")
	}
	if parts.Namespace != r.Authority.NamespaceFor(owner.ID) {
		log.WithFields(
			log.Fields{
				"upi":       identifier,
				"namespace": parts.Namespace,
			},
		).Warn("UPI namespace does not match owning user")
		return nil, NotFoundError("UPI not found")
	}
	if !r.Authority.VerifySignature(parts) {
		log.WithFields(
			log.Fields{
				"upi":       identifier,
				"namespace": parts.Namespace,
			},
		).Warn("UPI signature mismatch, possible tampering")
		return nil, SignatureError("UPI signature mismatch")
	}
	return owner, nil
}

// assemble decrypts only the rail-relevant fields and builds the payout
// record. A field that fails to decrypt is omitted; the remaining fields
// still resolve.
func (r *Resolver) assemble(
	identifier string, parts Parts, rail model.Rail,
	org *model.Organization, owner *model.User, account *model.PaymentAccount,
) (*Resolution, error) {
	enc, err := account.EncryptedFields()
	if err != nil {
		return nil, err
	}
	decrypted := make(map[string]string, len(model.RailFields(rail)))
	for _, field := range model.RailFields(rail) {
		blob, ok := enc[field]
		if !ok {
			continue
		}
		plaintext, err := r.Cipher.Decrypt(blob.Nonce, blob.Ciphertext)
		if err != nil {
			log.WithFields(
				log.Fields{
					"account": account.ID,
					"field":   field,
				},
			).WithError(err).Warn("could not decrypt payment account field")
			continue
		}
		decrypted[field] = plaintext
	}

	coords := Coordinates{BankName: account.BankName}
	switch rail {
	case model.RailACH:
		coords.RoutingNumber = decrypted[model.FieldACHRouting]
		coords.AccountNumber = decrypted[model.FieldACHAccount]
	case model.RailWireDomestic:
		coords.RoutingNumber = decrypted[model.FieldWireRouting]
		coords.AccountNumber = decrypted[model.FieldWireAccount]
		coords.BankAddress = decrypted[model.FieldBankAddress]
	case model.RailSWIFT:
		coords.SwiftBIC = decrypted[model.FieldSwiftBIC]
		coords.IBAN = decrypted[model.FieldIBAN]
		coords.BankAddress = decrypted[model.FieldBankAddress]
		coords.BankCountry = decrypted[model.FieldBankCountry]
		coords.BankCity = decrypted[model.FieldBankCity]
	}

	return &Resolution{
		UPI:          identifier,
		Rail:         rail,
		Parts:        parts,
		Organization: org,
		Owner:        owner,
		Coordinates:  coords,
	}, nil
}
