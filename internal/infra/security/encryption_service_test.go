//go:build !integration

package security

import (
	"errors"
	"strings"
	"testing"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestEncryptionService_RoundTrip(t *testing.T) {
	svc, err := NewEncryptionService(testKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, err := svc.Encrypt("salt-key-123")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	b, _ := svc.Encrypt("salt-key-123")
	if a == b {
		t.Error("expected distinct ciphertexts for the same plaintext")
	}
	got, err := svc.Decrypt(a)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if got != "salt-key-123" {
		t.Errorf("expected round trip, got %q", got)
	}
}

func TestEncryptionService_RejectsTampering(t *testing.T) {
	svc, _ := NewEncryptionService(testKey)
	other, _ := NewEncryptionService(strings.Repeat("k", 32))
	ct, _ := svc.Encrypt("secret")

	cases := map[string]string{
		"not base64":  "%%%",
		"too short":   "AAAA",
		"wrong key":   mustEncrypt(t, other, "secret"),
		"bit flipped": flipByte(ct),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Decrypt(in); !errors.Is(err, ErrCiphertextInvalid) {
				t.Errorf("expected ErrCiphertextInvalid, got %v", err)
			}
		})
	}
}

func TestNewEncryptionService_KeyLength(t *testing.T) {
	for _, k := range []string{"", "short", strings.Repeat("x", 31)} {
		if _, err := NewEncryptionService(k); err == nil {
			t.Errorf("expected error for key length %d", len(k))
		}
	}
}

func mustEncrypt(t *testing.T, s *EncryptionService, pt string) string {
	t.Helper()
	ct, err := s.Encrypt(pt)
	if err != nil {
		t.Fatal(err)
	}
	return ct
}

func flipByte(b64 string) string {
	b := []byte(b64)
	// a character well inside the payload, away from padding bits
	i := 20
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}
