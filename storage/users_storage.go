package storage

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"gorm.io/gorm"

	"github.com/railpoint/railpoint/storage/model"
)

// UsersStorage manages owner accounts in the database
type UsersStorage struct {
	db     *gorm.DB
	params Argon2idParams
}

// Count returns the number of users present in the store
func (s *UsersStorage) Count() (int64, error) {
	var count int64
	if err := s.db.Model(&model.User{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count users")
	}
	return count, nil
}

// List returns all users ordered by creation time.
func (s *UsersStorage) List() ([]model.User, error) {
	var users []model.User
	if err := s.db.Order("created_at").Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	return users, nil
}

// Get returns a user by email. Returns a model.NotFoundError if no user
// with that email exists.
func (s *UsersStorage) Get(email string) (*model.User, error) {
	var user model.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("user with email '%s' not found", email)
		}
		return nil, errors.Wrap(err, "failed to get user")
	}
	return &user, nil
}

// ByID returns a user by internal ID, (nil, nil) when absent.
func (s *UsersStorage) ByID(id uint) (*model.User, error) {
	var user model.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get user")
	}
	return &user, nil
}

// ByMasterUPI returns a user by master identifier, (nil, nil) when absent.
func (s *UsersStorage) ByMasterUPI(u string) (*model.User, error) {
	var user model.User
	if err := s.db.Where("master_upi = ?", u).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get user")
	}
	return &user, nil
}

// Create stores a new user with the password hashed with argon2id.
func (s *UsersStorage) Create(email, password string, profile model.UserProfile) (*model.User, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password must not be empty")
	}
	hash, err := hashPasswordArgon2id(password, s.params)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:           email,
		PasswordHash:    hash,
		CompanyName:     profile.CompanyName,
		Summary:         profile.Summary,
		EstablishedYear: profile.EstablishedYear,
		State:           profile.State,
		Country:         profile.Country,
	}
	if err = s.db.Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, model.AlreadyExistsErrorFmt("user with email '%s' already exists", email)
		}
		return nil, errors.Wrap(err, "failed to create user")
	}
	return user, nil
}

// SetMasterUPI stores the issued master identifier for a user.
func (s *UsersStorage) SetMasterUPI(id uint, u string) error {
	result := s.db.Model(&model.User{}).Where("id = ?", id).Update("master_upi", u)
	if result.Error != nil {
		if isUniqueConstraintError(result.Error) {
			return model.AlreadyExistsErrorFmt("master UPI '%s' already bound", u)
		}
		return errors.Wrap(result.Error, "failed to set master UPI")
	}
	if result.RowsAffected == 0 {
		return model.NotFoundErrorFmt("user with id %d not found", id)
	}
	return nil
}

// SetVerificationStatus updates the verification state of a user.
func (s *UsersStorage) SetVerificationStatus(id uint, status model.VerificationStatus) error {
	result := s.db.Model(&model.User{}).Where("id = ?", id).Update("verification_status", status)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update verification status")
	}
	if result.RowsAffected == 0 {
		return model.NotFoundErrorFmt("user with id %d not found", id)
	}
	return nil
}

// Update updates a user's profile and optionally password, disabled flag,
// and admin flag. nil pointers leave the corresponding field untouched.
func (s *UsersStorage) Update(
	email string, profile *model.UserProfile, newPassword *string, disabled *bool, admin *bool,
) (*model.User, error) {
	user, err := s.Get(email)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		user.CompanyName = profile.CompanyName
		user.Summary = profile.Summary
		user.EstablishedYear = profile.EstablishedYear
		user.State = profile.State
		user.Country = profile.Country
	}
	if newPassword != nil {
		if *newPassword == "" {
			return nil, errors.New("password must not be empty")
		}
		hash, err := hashPasswordArgon2id(*newPassword, s.params)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if disabled != nil {
		user.Disabled = *disabled
	}
	if admin != nil {
		user.Admin = *admin
	}
	if err = s.db.Save(user).Error; err != nil {
		return nil, errors.Wrap(err, "failed to update user")
	}
	return user, nil
}

// Delete deletes a user by email.
func (s *UsersStorage) Delete(email string) error {
	result := s.db.Where("email = ?", email).Delete(&model.User{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete user")
	}
	if result.RowsAffected == 0 {
		return model.NotFoundErrorFmt("user with email '%s' not found", email)
	}
	return nil
}

// Authenticate verifies an email/password combination and returns the
// user on success. Disabled users cannot authenticate. If the stored hash
// uses older parameters than the configured ones, it is rehashed.
func (s *UsersStorage) Authenticate(email, password string) (*model.User, error) {
	user, err := s.Get(email)
	if err != nil {
		return nil, err
	}
	if user.Disabled {
		return nil, errors.New("user is disabled")
	}
	ok, err := verifyPasswordArgon2id(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, errors.New("invalid credentials")
	}
	stored, err := extractArgon2idParams(user.PasswordHash)
	if err == nil && !argon2idParamsEqual(stored, s.params) {
		if hash, herr := hashPasswordArgon2id(password, s.params); herr == nil {
			s.db.Model(user).Update("password_hash", hash)
		}
	}
	return user, nil
}

var _ model.UsersStore = (*UsersStorage)(nil)

var defaultArgon2idParams = Argon2idParams{
	Time:        1,
	MemoryKiB:   64 * 1024,
	Parallelism: 4,
	KeyLen:      32,
	SaltLen:     16,
}

// hashPasswordArgon2id hashes a password with argon2id and encodes it in
// PHC string format.
func hashPasswordArgon2id(password string, p Argon2idParams) (string, error) {
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "failed to generate salt")
	}
	hash := argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Parallelism, p.KeyLen)
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.MemoryKiB, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// verifyPasswordArgon2id checks a password against a PHC-formatted
// argon2id hash in constant time.
func verifyPasswordArgon2id(password, encoded string) (bool, error) {
	p, salt, hash, err := parseArgon2id(encoded)
	if err != nil {
		return false, err
	}
	computed := argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Parallelism, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, computed) == 1, nil
}

// parseArgon2id parses a PHC-formatted argon2id hash string.
func parseArgon2id(encoded string) (p Argon2idParams, salt, hash []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		err = errors.New("invalid argon2id hash format")
		return
	}
	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		err = errors.Wrap(err, "invalid argon2id version")
		return
	}
	if version != argon2.Version {
		err = errors.Errorf("unsupported argon2 version %d", version)
		return
	}
	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Time, &p.Parallelism); err != nil {
		err = errors.Wrap(err, "invalid argon2id parameters")
		return
	}
	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		err = errors.Wrap(err, "invalid argon2id salt encoding")
		return
	}
	if hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		err = errors.Wrap(err, "invalid argon2id hash encoding")
		return
	}
	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(hash))
	return
}

// extractArgon2idParams returns the hashing parameters stored in a
// PHC-formatted argon2id hash.
func extractArgon2idParams(encoded string) (Argon2idParams, error) {
	p, _, _, err := parseArgon2id(encoded)
	return p, err
}

func argon2idParamsEqual(a, b Argon2idParams) bool {
	return a.Time == b.Time && a.MemoryKiB == b.MemoryKiB && a.Parallelism == b.Parallelism &&
		a.KeyLen == b.KeyLen && a.SaltLen == b.SaltLen
}
