package storage

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/railpoint/railpoint/fieldcipher"
	"github.com/railpoint/railpoint/storage/model"
	"github.com/railpoint/railpoint/upi"
)

// models holds everything that is auto-migrated on startup.
var models = []any{
	&model.User{},
	&model.Organization{},
	&model.PaymentAccount{},
	&model.ChildUPI{},
	&model.KeyValue{},
}

// Storage is the warehouse backing all persistent state. Sub-storages
// share its *gorm.DB and are obtained through the accessor methods.
type Storage struct {
	db         *gorm.DB
	userParams Argon2idParams
	cipher     *fieldcipher.Cipher
}

// New connects to the configured database, runs migrations, and returns
// the warehouse. The cipher is used to seal rail coordinates at rest.
func New(cfg Config, cipher *fieldcipher.Cipher) (*Storage, error) {
	db, err := Connect(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err = db.AutoMigrate(models...); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}
	params := cfg.UsersHash
	if params.Time == 0 {
		params = defaultArgon2idParams
	}
	return &Storage{db: db, userParams: params, cipher: cipher}, nil
}

// Users returns the sub-storage for owner accounts.
func (s *Storage) Users() *UsersStorage {
	return &UsersStorage{db: s.db, params: s.userParams}
}

// Organizations returns the sub-storage for organizations.
func (s *Storage) Organizations() *OrganizationsStorage {
	return &OrganizationsStorage{db: s.db}
}

// PaymentAccounts returns the sub-storage for payment accounts.
func (s *Storage) PaymentAccounts() *PaymentAccountsStorage {
	return &PaymentAccountsStorage{db: s.db, cipher: s.cipher}
}

// ChildUPIs returns the sub-storage for child identifier bindings.
func (s *Storage) ChildUPIs() *ChildUPIStorage {
	return &ChildUPIStorage{db: s.db}
}

// KV returns the sub-storage for key-value settings.
func (s *Storage) KV() *KeyValueStorage {
	return &KeyValueStorage{db: s.db}
}

// Backends bundles the sub-storages behind their interfaces.
func (s *Storage) Backends() model.Backends {
	return model.Backends{
		Users:           s.Users(),
		Organizations:   s.Organizations(),
		PaymentAccounts: s.PaymentAccounts(),
		ChildUPIs:       s.ChildUPIs(),
		KV:              s.KV(),
	}
}

// Directory returns a read view of the warehouse satisfying upi.Directory.
func (s *Storage) Directory() *Directory {
	return &Directory{storage: s}
}

// OrganizationsStorage manages organizations in the database
type OrganizationsStorage struct {
	db *gorm.DB
}

// Create stores a new organization. The ID is assigned here.
func (s *OrganizationsStorage) Create(org *model.Organization) error {
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	if err := s.db.Create(org).Error; err != nil {
		if isUniqueConstraintError(err) {
			return model.AlreadyExistsErrorFmt("organization with UPI '%s' already exists", org.UPI)
		}
		return errors.Wrap(err, "failed to create organization")
	}
	return nil
}

// ByUPI retrieves an organization by its identifier, returning (nil, nil)
// when no row matches.
func (s *OrganizationsStorage) ByUPI(u string) (*model.Organization, error) {
	var org model.Organization
	if err := s.db.Where("upi = ?", u).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get organization")
	}
	return &org, nil
}

// ByID retrieves an organization by its primary key, returning (nil, nil)
// when no row matches.
func (s *OrganizationsStorage) ByID(id string) (*model.Organization, error) {
	var org model.Organization
	if err := s.db.Where("id = ?", id).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get organization")
	}
	return &org, nil
}

// ByUserAndEIN checks for a duplicate registration under the same owner.
func (s *OrganizationsStorage) ByUserAndEIN(userID uint, ein string) (*model.Organization, error) {
	var org model.Organization
	if err := s.db.Where("user_id = ? AND ein = ?", userID, ein).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get organization")
	}
	return &org, nil
}

// ForUser lists all organizations registered by an owner.
func (s *OrganizationsStorage) ForUser(userID uint) ([]model.Organization, error) {
	var orgs []model.Organization
	if err := s.db.Where("user_id = ?", userID).Order("created_at").Find(&orgs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list organizations")
	}
	return orgs, nil
}

// SetStatus updates the lifecycle status of an organization.
func (s *OrganizationsStorage) SetStatus(id string, status model.Status) error {
	result := s.db.Model(&model.Organization{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update organization status")
	}
	if result.RowsAffected == 0 {
		return model.NotFoundErrorFmt("organization with id '%s' not found", id)
	}
	return nil
}

// SetVerificationStatus updates the verification state of an organization.
func (s *OrganizationsStorage) SetVerificationStatus(id string, status model.VerificationStatus) error {
	result := s.db.Model(&model.Organization{}).Where("id = ?", id).Update("verification_status", status)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update organization verification status")
	}
	if result.RowsAffected == 0 {
		return model.NotFoundErrorFmt("organization with id '%s' not found", id)
	}
	return nil
}

// UPIExists reports whether the identifier is already bound, to either an
// organization or a child binding or an owner master identifier.
func (s *OrganizationsStorage) UPIExists(u string) (bool, error) {
	var count int64
	if err := s.db.Model(&model.Organization{}).Where("upi = ?", u).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to check UPI")
	}
	if count > 0 {
		return true, nil
	}
	if err := s.db.Model(&model.ChildUPI{}).Where("upi = ?", u).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to check UPI")
	}
	if count > 0 {
		return true, nil
	}
	if err := s.db.Model(&model.User{}).Where("master_upi = ?", u).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to check UPI")
	}
	return count > 0, nil
}

// PaymentAccountsStorage manages payment accounts in the database
type PaymentAccountsStorage struct {
	db     *gorm.DB
	cipher *fieldcipher.Cipher
}

// Create seals the sensitive fields and stores the account. Plaintext
// coordinates never reach the database.
func (s *PaymentAccountsStorage) Create(account *model.PaymentAccount, sensitive map[string]string) error {
	sealed := make(map[string]model.EncryptedField, len(sensitive))
	for name, value := range sensitive {
		nonce, ct, err := s.cipher.Encrypt(value)
		if err != nil {
			return errors.Wrapf(err, "failed to seal field '%s'", name)
		}
		sealed[name] = model.EncryptedField{Nonce: nonce, Ciphertext: ct}
	}
	if err := account.SetEncryptedFields(sealed); err != nil {
		return err
	}
	if err := s.db.Create(account).Error; err != nil {
		if isUniqueConstraintError(err) {
			return model.AlreadyExistsErrorFmt(
				"payment account for rail '%s' at index %d already exists", account.Rail, account.PaymentIndex,
			)
		}
		return errors.Wrap(err, "failed to create payment account")
	}
	return nil
}

// ByID retrieves a payment account by its primary key, returning (nil, nil)
// when no row matches.
func (s *PaymentAccountsStorage) ByID(id uint) (*model.PaymentAccount, error) {
	var account model.PaymentAccount
	if err := s.db.Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get payment account")
	}
	return &account, nil
}

// ByOrgIndexRail retrieves the account bound to an organization at a payment
// index for a rail, returning (nil, nil) when no row matches.
func (s *PaymentAccountsStorage) ByOrgIndexRail(orgID string, index int, rail model.Rail) (
	*model.PaymentAccount, error,
) {
	var account model.PaymentAccount
	err := s.db.Where(
		"organization_id = ? AND payment_index = ? AND rail = ?", orgID, index, rail,
	).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get payment account")
	}
	return &account, nil
}

// ForUser lists all payment accounts belonging to an owner.
func (s *PaymentAccountsStorage) ForUser(userID uint) ([]model.PaymentAccount, error) {
	var accounts []model.PaymentAccount
	if err := s.db.Where("user_id = ?", userID).Order("payment_index").Find(&accounts).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list payment accounts")
	}
	return accounts, nil
}

// NextPaymentIndex returns the smallest unused payment index for an owner.
// Index 0 is reserved for the master identifier, so the first organization
// account gets 1.
func (s *PaymentAccountsStorage) NextPaymentIndex(userID uint) (int, error) {
	var max *int
	err := s.db.Model(&model.PaymentAccount{}).Where("user_id = ?", userID).
		Select("MAX(payment_index)").Scan(&max).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to compute next payment index")
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

// SetStatus updates the lifecycle status of a payment account.
func (s *PaymentAccountsStorage) SetStatus(id uint, status model.Status) error {
	result := s.db.Model(&model.PaymentAccount{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update payment account status")
	}
	if result.RowsAffected == 0 {
		return model.NotFoundErrorFmt("payment account with id %d not found", id)
	}
	return nil
}

// ChildUPIStorage manages child identifier bindings in the database
type ChildUPIStorage struct {
	db *gorm.DB
}

// Create stores a new child binding.
func (s *ChildUPIStorage) Create(child *model.ChildUPI) error {
	if err := s.db.Create(child).Error; err != nil {
		if isUniqueConstraintError(err) {
			return model.AlreadyExistsErrorFmt("child UPI '%s' already exists", child.UPI)
		}
		return errors.Wrap(err, "failed to create child UPI")
	}
	return nil
}

// ByUPI retrieves a child binding by its identifier, returning (nil, nil)
// when no row matches.
func (s *ChildUPIStorage) ByUPI(u string) (*model.ChildUPI, error) {
	var child model.ChildUPI
	if err := s.db.Where("upi = ?", u).First(&child).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get child UPI")
	}
	return &child, nil
}

// ForOrganization lists all child bindings of an organization.
func (s *ChildUPIStorage) ForOrganization(orgID string) ([]model.ChildUPI, error) {
	var children []model.ChildUPI
	if err := s.db.Where("organization_id = ?", orgID).Order("created_at").Find(&children).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list child UPIs")
	}
	return children, nil
}

// SetStatus updates the lifecycle status of a child binding.
func (s *ChildUPIStorage) SetStatus(u string, status model.Status) error {
	result := s.db.Model(&model.ChildUPI{}).Where("upi = ?", u).Update("status", status)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update child UPI status")
	}
	if result.RowsAffected == 0 {
		return model.NotFoundErrorFmt("child UPI '%s' not found", u)
	}
	return nil
}

// Directory adapts the warehouse to the read interface the resolution
// engine consumes. All lookups return (nil, nil) for absent rows.
type Directory struct {
	storage *Storage
}

func (d *Directory) OrganizationByUPI(u string) (*model.Organization, error) {
	return d.storage.Organizations().ByUPI(u)
}

func (d *Directory) OrganizationByID(id string) (*model.Organization, error) {
	return d.storage.Organizations().ByID(id)
}

func (d *Directory) ChildBindingByUPI(u string) (*model.ChildUPI, error) {
	return d.storage.ChildUPIs().ByUPI(u)
}

func (d *Directory) OwnerByID(id uint) (*model.User, error) {
	return d.storage.Users().ByID(id)
}

func (d *Directory) AccountByOrgIndexRail(orgID string, index int, rail model.Rail) (*model.PaymentAccount, error) {
	return d.storage.PaymentAccounts().ByOrgIndexRail(orgID, index, rail)
}

func (d *Directory) AccountByID(id uint) (*model.PaymentAccount, error) {
	return d.storage.PaymentAccounts().ByID(id)
}

var _ upi.Directory = (*Directory)(nil)
var _ upi.ExistenceProbe = (*OrganizationsStorage)(nil)

// isUniqueConstraintError checks if the error is a unique constraint violation
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// SQLite
	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return true
	}
	// MySQL
	if strings.Contains(errStr, "Duplicate entry") || strings.Contains(errStr, "Error 1062") {
		return true
	}
	// PostgreSQL
	if strings.Contains(errStr, "duplicate key value") || strings.Contains(errStr, "violates unique constraint") {
		return true
	}
	return false
}
