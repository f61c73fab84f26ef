package fieldcipher

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
)

func testCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := New(bytes.Repeat([]byte{0x42}, 32))
	if err != nil {
		t.Fatalf("Failed to create cipher: %v", err)
	}
	return c
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := testCipher(t)
	values := []string{
		"",
		"021000021",
		"DE89370400440532013000",
		"123 Market St, Suite 400",
		strings.Repeat("x", 512),
		"ünïcode ✓",
	}
	for _, v := range values {
		nonce, ct, err := c.Encrypt(v)
		if err != nil {
			t.Fatalf("Encrypt(%q) failed: %v", v, err)
		}
		got, err := c.Decrypt(nonce, ct)
		if err != nil {
			t.Fatalf("Decrypt failed for %q: %v", v, err)
		}
		if got != v {
			t.Errorf("round trip mismatch: got %q, want %q", got, v)
		}
	}
}

func TestEncryptDrawsFreshNonces(t *testing.T) {
	c := testCipher(t)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		nonce, _, err := c.Encrypt("same plaintext")
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}
		if seen[nonce] {
			t.Fatalf("nonce repeated after %d encryptions", i)
		}
		seen[nonce] = true
	}
}

func TestDecryptWrongKeyFails(t *testing.T) {
	c := testCipher(t)
	nonce, ct, err := c.Encrypt("routing 021000021")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	other, err := New(bytes.Repeat([]byte{0x43}, 32))
	if err != nil {
		t.Fatalf("Failed to create cipher: %v", err)
	}
	if got, err := other.Decrypt(nonce, ct); err == nil {
		t.Fatalf("Decrypt with wrong key succeeded: %q", got)
	}
}

func TestDecryptCorruptCiphertextFails(t *testing.T) {
	c := testCipher(t)
	nonce, ct, err := c.Encrypt("account 12345678")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(ct)
	raw[0] ^= 0xff
	if _, err := c.Decrypt(nonce, base64.StdEncoding.EncodeToString(raw)); err == nil {
		t.Fatal("Decrypt of corrupted ciphertext succeeded")
	}
	if _, err := c.Decrypt("!!!", ct); err == nil {
		t.Fatal("Decrypt with invalid nonce encoding succeeded")
	}
	if _, err := c.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")), ct); err == nil {
		t.Fatal("Decrypt with short nonce succeeded")
	}
}

func TestKeyLengths(t *testing.T) {
	for _, n := range []int{16, 24, 32} {
		if _, err := New(bytes.Repeat([]byte{1}, n)); err != nil {
			t.Errorf("New with %d-byte key failed: %v", n, err)
		}
	}
	for _, n := range []int{0, 15, 33, 64} {
		if _, err := New(bytes.Repeat([]byte{1}, n)); err == nil {
			t.Errorf("New with %d-byte key succeeded", n)
		}
	}
}

func TestFromConfigValue(t *testing.T) {
	rawKey := bytes.Repeat([]byte{0x07}, 32)
	c, err := FromConfigValue(base64.StdEncoding.EncodeToString(rawKey))
	if err != nil {
		t.Fatalf("FromConfigValue with base64 key failed: %v", err)
	}
	nonce, ct, err := c.Encrypt("value")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	direct, err := New(rawKey)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got, err := direct.Decrypt(nonce, ct); err != nil || got != "value" {
		t.Fatalf("base64 and raw key construction disagree: %q, %v", got, err)
	}

	// 32 raw characters that do not decode as base64
	if _, err := FromConfigValue("this-is-a-32-byte-raw-key-value!"); err != nil {
		t.Fatalf("FromConfigValue with raw key failed: %v", err)
	}
	if _, err := FromConfigValue(""); err == nil {
		t.Fatal("FromConfigValue with empty value succeeded")
	}
}
