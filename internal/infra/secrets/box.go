// Package secrets provides at-rest encryption for access credentials.
// Encrypted values carry an "enc:" prefix so stored data can be told apart
// from plaintext left over from before a key was configured.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/kanlogic/readiness-engine-go/internal/domain"
)

const prefix = "enc:"

// Box encrypts and decrypts short secrets with a process-wide symmetric
// key. A Box built without a key reports Configured() == false and refuses
// to encrypt rather than storing plaintext.
type Box struct {
	aead interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	}
}

// New builds a Box from a base64-encoded 32-byte key. An empty key yields
// an unconfigured Box, which is a valid state: credential storage is
// refused with ErrConfiguration instead of degrading to plaintext.
func New(encodedKey string) (*Box, error) {
	encodedKey = strings.TrimSpace(encodedKey)
	if encodedKey == "" {
		return &Box{}, nil
	}

	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		key, err = base64.RawURLEncoding.DecodeString(encodedKey)
	}
	if err != nil {
		return nil, &domain.ErrConfiguration{
			Setting: "DATA_ENCRYPTION_KEY",
			Message: "key must be base64-encoded",
		}
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, &domain.ErrConfiguration{
			Setting: "DATA_ENCRYPTION_KEY",
			Message: fmt.Sprintf("key must decode to %d bytes, got %d", chacha20poly1305.KeySize, len(key)),
		}
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, &domain.ErrConfiguration{Setting: "DATA_ENCRYPTION_KEY", Message: err.Error()}
	}
	return &Box{aead: aead}, nil
}

// Configured reports whether an encryption key is available.
func (b *Box) Configured() bool {
	return b.aead != nil
}

// IsEncrypted reports whether a stored value was produced by Encrypt.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, prefix)
}

// Encrypt seals plaintext and returns "enc:" + base64(nonce || ciphertext).
// Already-encrypted values pass through unchanged.
func (b *Box) Encrypt(plaintext string) (string, error) {
	if !b.Configured() {
		return "", &domain.ErrConfiguration{
			Setting: "DATA_ENCRYPTION_KEY",
			Message: "encryption key not configured; refusing to store secret",
		}
	}
	if plaintext == "" || IsEncrypted(plaintext) {
		return plaintext, nil
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return prefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Values without the prefix are returned as-is.
func (b *Box) Decrypt(value string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}
	if !b.Configured() {
		return "", &domain.ErrConfiguration{
			Setting: "DATA_ENCRYPTION_KEY",
			Message: "encryption key not configured; cannot decrypt stored secret",
		}
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, prefix))
	if err != nil {
		return "", fmt.Errorf("decode secret: %w", err)
	}
	if len(raw) < chacha20poly1305.NonceSizeX {
		return "", fmt.Errorf("decode secret: ciphertext too short")
	}

	nonce, ciphertext := raw[:chacha20poly1305.NonceSizeX], raw[chacha20poly1305.NonceSizeX:]
	plain, err := b.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt secret: wrong key or corrupted value")
	}
	return string(plain), nil
}
