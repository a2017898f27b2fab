package secrets_test

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/kanlogic/readiness-engine-go/internal/domain"
	"github.com/kanlogic/readiness-engine-go/internal/infra/secrets"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	box, err := secrets.New(testKey())
	if err != nil {
		t.Fatalf("failed to build box: %v", err)
	}

	sealed, err := box.Encrypt("whatsapp-token-xyz")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if !strings.HasPrefix(sealed, "enc:") {
		t.Errorf("expected enc: prefix, got %q", sealed)
	}
	if strings.Contains(sealed, "whatsapp-token-xyz") {
		t.Error("plaintext leaked into ciphertext")
	}

	plain, err := box.Decrypt(sealed)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if plain != "whatsapp-token-xyz" {
		t.Errorf("round trip mismatch: %q", plain)
	}
}

func TestEncrypt_NonDeterministicNonce(t *testing.T) {
	box, _ := secrets.New(testKey())

	a, _ := box.Encrypt("same-secret")
	b, _ := box.Encrypt("same-secret")
	if a == b {
		t.Error("expected distinct ciphertexts for the same plaintext")
	}
}

func TestUnconfiguredBoxRefusesEncrypt(t *testing.T) {
	box, err := secrets.New("")
	if err != nil {
		t.Fatalf("empty key must be a valid unconfigured state: %v", err)
	}
	if box.Configured() {
		t.Error("expected unconfigured box")
	}

	_, err = box.Encrypt("secret")
	var cfgErr *domain.ErrConfiguration
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestDecrypt_PlaintextPassthrough(t *testing.T) {
	box, _ := secrets.New("")

	got, err := box.Decrypt("legacy-plaintext")
	if err != nil || got != "legacy-plaintext" {
		t.Errorf("expected unprefixed values to pass through, got %q (%v)", got, err)
	}
}

func TestNew_RejectsBadKeys(t *testing.T) {
	if _, err := secrets.New("not base64!!!"); err == nil {
		t.Error("expected error for non-base64 key")
	}
	short := base64.StdEncoding.EncodeToString([]byte("too short"))
	if _, err := secrets.New(short); err == nil {
		t.Error("expected error for wrong-length key")
	}
}

func TestDecrypt_WrongKeyFails(t *testing.T) {
	box1, _ := secrets.New(testKey())
	otherKey := base64.StdEncoding.EncodeToString([]byte("ffffffffffffffffffffffffffffffff"))
	box2, _ := secrets.New(otherKey)

	sealed, _ := box1.Encrypt("secret")
	if _, err := box2.Decrypt(sealed); err == nil {
		t.Error("expected decryption with the wrong key to fail")
	}
}
