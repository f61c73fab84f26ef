package storage

import (
	"encoding/json"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/railpoint/railpoint/storage/model"
)

// KeyValueStorage manages key-value settings in the database
type KeyValueStorage struct {
	db *gorm.DB
}

// Get retrieves the value for a (scope, key), (nil, nil) when absent.
func (s *KeyValueStorage) Get(scope, key string) (datatypes.JSON, error) {
	var kv model.KeyValue
	if err := s.db.Where("scope = ? AND key = ?", scope, key).First(&kv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get key-value entry")
	}
	return kv.Value, nil
}

// Set stores or replaces the value for a (scope, key).
func (s *KeyValueStorage) Set(scope, key string, value datatypes.JSON) error {
	kv := model.KeyValue{Scope: scope, Key: key, Value: value}
	err := s.db.Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "scope"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		},
	).Create(&kv).Error
	return errors.Wrap(err, "failed to set key-value entry")
}

// Delete removes the entry for a (scope, key). Missing entries are not an
// error.
func (s *KeyValueStorage) Delete(scope, key string) error {
	err := s.db.Where("scope = ? AND key = ?", scope, key).Delete(&model.KeyValue{}).Error
	return errors.Wrap(err, "failed to delete key-value entry")
}

// GetAs retrieves and unmarshals the value into out, returning false when
// the entry is absent.
func (s *KeyValueStorage) GetAs(scope, key string, out any) (bool, error) {
	value, err := s.Get(scope, key)
	if err != nil {
		return false, err
	}
	if value == nil {
		return false, nil
	}
	if err = json.Unmarshal(value, out); err != nil {
		return false, errors.Wrap(err, "failed to unmarshal key-value entry")
	}
	return true, nil
}

// SetAny marshals v to JSON and stores it at (scope, key).
func (s *KeyValueStorage) SetAny(scope, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal key-value entry")
	}
	return s.Set(scope, key, data)
}

var _ model.KeyValueStore = (*KeyValueStorage)(nil)
