// Package fieldcipher provides authenticated encryption for individual
// sensitive string values (bank coordinates, address fragments) stored at
// rest. Each value is encrypted with AES-GCM under a process-wide key and
// a fresh random nonce, and stored as a base64 (nonce, ciphertext) pair.
package fieldcipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"

	"github.com/pkg/errors"
)

// NonceSize is the GCM nonce length drawn per encryption.
const NonceSize = 12

// Cipher encrypts and decrypts single field values. It is immutable after
// construction and safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// New creates a Cipher from a raw key. The key must be 16, 24 or 32 bytes
// (AES-128/192/256).
func New(key []byte) (*Cipher, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, errors.Errorf("field cipher key must be 16, 24 or 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init field cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init field cipher")
	}
	return &Cipher{aead: aead}, nil
}

// FromConfigValue creates a Cipher from a configured secret value, which
// may be the base64 encoding of the key or the raw key bytes themselves.
func FromConfigValue(value string) (*Cipher, error) {
	if value == "" {
		return nil, errors.New("field cipher key is not set")
	}
	return New(DecodeKey(value))
}

// DecodeKey interprets a configured secret as base64 if possible,
// otherwise as raw bytes.
func DecodeKey(value string) []byte {
	if decoded, err := base64.StdEncoding.DecodeString(value); err == nil {
		return decoded
	}
	return []byte(value)
}

// Encrypt encrypts a plaintext value and returns the base64-encoded nonce
// and ciphertext. A fresh random nonce is drawn on every call.
func (c *Cipher) Encrypt(plaintext string) (nonce, ciphertext string, err error) {
	raw := make([]byte, NonceSize)
	if _, err = rand.Read(raw); err != nil {
		return "", "", errors.Wrap(err, "failed to draw nonce")
	}
	sealed := c.aead.Seal(nil, raw, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(raw), base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. It fails on corrupt input, a wrong key, or a
// nonce/ciphertext mismatch; callers decrypting multi-field records should
// skip failing fields rather than abort.
func (c *Cipher) Decrypt(nonce, ciphertext string) (string, error) {
	rawNonce, err := base64.StdEncoding.DecodeString(nonce)
	if err != nil {
		return "", errors.Wrap(err, "invalid nonce encoding")
	}
	if len(rawNonce) != c.aead.NonceSize() {
		return "", errors.Errorf("invalid nonce length %d", len(rawNonce))
	}
	rawCiphertext, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Wrap(err, "invalid ciphertext encoding")
	}
	plaintext, err := c.aead.Open(nil, rawNonce, rawCiphertext, nil)
	if err != nil {
		return "", errors.Wrap(err, "decryption failed")
	}
	return string(plaintext), nil
}
