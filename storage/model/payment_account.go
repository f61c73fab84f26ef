package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// EncryptedField is one ciphertext+nonce pair as stored at rest.
// Keys are short on purpose; the blob is stored per row for many fields.
type EncryptedField struct {
	Nonce      string `json:"n"`
	Ciphertext string `json:"c"`
}

// PaymentAccount is the sensitive record a resolved UPI points to: one
// settlement rail and its coordinates. All rail coordinates are stored
// only inside the Enc blob; BankName and AccountName are plaintext.
type PaymentAccount struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID         uint   `gorm:"index" json:"user_id"`
	OrganizationID string `gorm:"index;size:36" json:"organization_id"`

	// PaymentIndex matches the index segment of directly bound UPIs.
	// Allocation per user is monotonic and never reused.
	PaymentIndex int  `gorm:"index" json:"payment_index"`
	Rail         Rail `gorm:"index" json:"rail"`

	BankName    string `json:"bank_name"`
	AccountName string `json:"account_name,omitempty"`

	// Enc maps field name -> {n, c}; see EncryptedField.
	Enc datatypes.JSON `json:"-"`

	Status Status `json:"status"`
}

// EncryptedFields decodes the Enc blob. A nil map is returned when no
// encrypted fields are present.
func (a *PaymentAccount) EncryptedFields() (map[string]EncryptedField, error) {
	if len(a.Enc) == 0 {
		return nil, nil
	}
	var m map[string]EncryptedField
	if err := json.Unmarshal(a.Enc, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// SetEncryptedFields encodes the field map into the Enc blob.
func (a *PaymentAccount) SetEncryptedFields(m map[string]EncryptedField) error {
	if len(m) == 0 {
		a.Enc = nil
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	a.Enc = b
	return nil
}

// PaymentAccountsStore abstracts persistence for payment accounts.
// Implementations seal the passed sensitive coordinates field by field;
// plaintext never reaches the database.
type PaymentAccountsStore interface {
	// Create seals the sensitive coordinates and persists the account
	Create(acc *PaymentAccount, sensitive map[string]string) error
	// ByID returns an account by ID; (nil, nil) if absent
	ByID(id uint) (*PaymentAccount, error)
	// ByOrgIndexRail returns the account bound to (organization, payment index, rail); (nil, nil) if absent
	ByOrgIndexRail(orgID string, paymentIndex int, rail Rail) (*PaymentAccount, error)
	// ForUser lists a user's accounts ordered by payment index
	ForUser(userID uint) ([]PaymentAccount, error)
	// NextPaymentIndex returns max(payment_index)+1 for the user scope
	NextPaymentIndex(userID uint) (int, error)
	// SetStatus updates the lifecycle status
	SetStatus(id uint, status Status) error
}
