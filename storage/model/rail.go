package model

import (
	"fmt"
)

// Rail identifies the settlement network a payment account belongs to.
// Coordinates differ per rail: ACH and domestic wire use routing/account
// numbers, SWIFT uses BIC/IBAN.
type Rail string

// Constants for Rail
const (
	RailACH          Rail = "ACH"
	RailWireDomestic Rail = "WIRE_DOM"
	RailSWIFT        Rail = "SWIFT"
)

// Valid reports whether the rail is one of the supported networks.
func (r Rail) Valid() bool {
	switch r {
	case RailACH, RailWireDomestic, RailSWIFT:
		return true
	default:
		return false
	}
}

// ParseRail converts a string to a Rail, returning an error for unknown values.
func ParseRail(v string) (Rail, error) {
	r := Rail(v)
	if !r.Valid() {
		return "", fmt.Errorf("invalid rail: %s", v)
	}
	return r, nil
}

// Names of the encrypted coordinate fields on a payment account row.
// Which of them get decrypted during resolution depends on the rail.
const (
	FieldACHRouting  = "ach_routing"
	FieldACHAccount  = "ach_account"
	FieldWireRouting = "wire_routing"
	FieldWireAccount = "wire_account"
	FieldBankAddress = "bank_address"
	FieldSwiftBIC    = "swift_bic"
	FieldIBAN        = "iban"
	FieldBankCountry = "bank_country"
	FieldBankCity    = "bank_city"
)

// SensitiveFields lists every coordinate field that is stored encrypted.
var SensitiveFields = []string{
	FieldACHRouting,
	FieldACHAccount,
	FieldWireRouting,
	FieldWireAccount,
	FieldBankAddress,
	FieldSwiftBIC,
	FieldIBAN,
	FieldBankCountry,
	FieldBankCity,
}

// RailFields returns the encrypted field names relevant to the given rail.
// Fields outside this list are never decrypted for a resolution on r.
func RailFields(r Rail) []string {
	switch r {
	case RailACH:
		return []string{FieldACHRouting, FieldACHAccount}
	case RailWireDomestic:
		return []string{FieldWireRouting, FieldWireAccount, FieldBankAddress}
	case RailSWIFT:
		return []string{FieldSwiftBIC, FieldIBAN, FieldBankAddress, FieldBankCountry, FieldBankCity}
	default:
		return nil
	}
}
