package upi

import (
	"encoding/base64"
	"strings"
	"testing"
)

func testAuthority(t *testing.T) *Authority {
	t.Helper()
	a, err := NewAuthority([]byte("railpoint-test-signing-secret"))
	if err != nil {
		t.Fatalf("NewAuthority failed: %v", err)
	}
	return a
}

func TestNamespaceFor(t *testing.T) {
	a := testAuthority(t)
	ns := a.NamespaceFor(42)
	if len(ns) != NamespaceLength {
		t.Fatalf("namespace length = %d", len(ns))
	}
	if !ValidFormat(ns + "00" + "AAAA" + "AAAAAA") {
		t.Errorf("namespace %q not in UPI alphabet", ns)
	}
	if a.NamespaceFor(42) != ns {
		t.Error("NamespaceFor is not deterministic")
	}
	// Same owner, different identifiers: namespace stays constant.
	if a.NamespaceFor(43) == ns && a.NamespaceFor(44) == ns && a.NamespaceFor(45) == ns {
		t.Error("suspicious: namespaces identical for four consecutive owners")
	}
}

func TestSignDeterministicAndBound(t *testing.T) {
	a := testAuthority(t)
	sig := a.Sign("AB", "CD12", 1)
	if len(sig) != SignatureLength {
		t.Fatalf("signature length = %d", len(sig))
	}
	if a.Sign("AB", "CD12", 1) != sig {
		t.Error("Sign is not deterministic")
	}
	if a.Sign("AB", "CD12", 2) == sig {
		t.Error("signature does not bind the payment index")
	}
	if a.Sign("AB", "CD13", 1) == sig {
		t.Error("signature does not bind the core segment")
	}
	if a.Sign("AC", "CD12", 1) == sig {
		t.Error("signature does not bind the namespace")
	}
}

func TestSignDiffersAcrossSecrets(t *testing.T) {
	a := testAuthority(t)
	b, err := NewAuthority([]byte("a-different-secret"))
	if err != nil {
		t.Fatalf("NewAuthority failed: %v", err)
	}
	if a.Sign("AB", "CD12", 1) == b.Sign("AB", "CD12", 1) {
		t.Error("signatures identical under different secrets")
	}
}

func TestVerifySignature(t *testing.T) {
	a := testAuthority(t)
	p := Parts{Namespace: "AB", PaymentIndex: 5, CoreSegment: "WXYZ"}
	p.Signature = a.Sign(p.Namespace, p.CoreSegment, p.PaymentIndex)
	if !a.VerifySignature(p) {
		t.Fatal("valid signature rejected")
	}
	corrupted := p
	corrupted.Signature = flipLastChar(p.Signature)
	if a.VerifySignature(corrupted) {
		t.Fatal("corrupted signature accepted")
	}
}

func TestAuthorityFromConfigValue(t *testing.T) {
	raw := []byte("0123456789abcdef0123456789abcdef")
	fromB64, err := AuthorityFromConfigValue(base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("AuthorityFromConfigValue(base64) failed: %v", err)
	}
	fromRaw, err := NewAuthority(raw)
	if err != nil {
		t.Fatalf("NewAuthority failed: %v", err)
	}
	if fromB64.Sign("AB", "CD12", 1) != fromRaw.Sign("AB", "CD12", 1) {
		t.Error("base64 decoding of the secret is not applied")
	}
	_, err = AuthorityFromConfigValue("")
	if err == nil {
		t.Fatal("empty secret accepted")
	}
	if _, ok := err.(ConfigurationError); !ok {
		t.Fatalf("want ConfigurationError, got %T", err)
	}
}

func flipLastChar(s string) string {
	last := s[len(s)-1]
	replacement := byte('9')
	if last == '9' {
		replacement = '8'
	}
	return s[:len(s)-1] + string(replacement)
}

func TestEncodedOutputAlphabet(t *testing.T) {
	a := testAuthority(t)
	for id := uint(1); id < 50; id++ {
		ns := a.NamespaceFor(id)
		sig := a.Sign(ns, "AB12", 1)
		for _, c := range ns + sig {
			if !strings.ContainsRune(Alphabet, c) {
				t.Fatalf("derived char %q outside alphabet", c)
			}
		}
	}
}
