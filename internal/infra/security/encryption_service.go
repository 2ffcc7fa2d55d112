// File: internal/infra/security/encryption_service.go
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"learnpay/internal/domain/ports/adapter"
)

// ErrCiphertextInvalid is returned for input Decrypt cannot authenticate.
var ErrCiphertextInvalid = errors.New("ciphertext invalid")

var _ adapter.SecretCipher = (*EncryptionService)(nil)

// EncryptionService seals gateway secrets at rest with AES-GCM and a random
// nonce per message. Output format: base64(nonce || ciphertext || tag).
type EncryptionService struct {
	gcm cipher.AEAD
}

// NewEncryptionService constructs an AES-GCM service.
// Key must be 16, 24, or 32 bytes (AES-128/192/256).
func NewEncryptionService(key string) (*EncryptionService, error) {
	k := []byte(key)
	switch len(k) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("encryption key must be 16, 24, or 32 bytes; got %d", len(k))
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &EncryptionService{gcm: gcm}, nil
}

func (e *EncryptionService) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}
	sealed := e.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (e *EncryptionService) Decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: base64: %v", ErrCiphertextInvalid, err)
	}
	ns := e.gcm.NonceSize()
	if len(data) < ns+e.gcm.Overhead() {
		return "", fmt.Errorf("%w: too short", ErrCiphertextInvalid)
	}
	pt, err := e.gcm.Open(nil, data[:ns], data[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCiphertextInvalid, err)
	}
	return string(pt), nil
}
