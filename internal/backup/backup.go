// Package backup encodes a user's records as a password encrypted snapshot.
//
// The envelope is base64(salt | nonce | ciphertext). The key is derived from
// the password with PBKDF2-SHA256 and the payload is sealed with AES-256-GCM.
package backup

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"financas/internal/core"

	"golang.org/x/crypto/pbkdf2"
)

const (
	Version    = 1
	saltSize   = 16
	keySize    = 32
	iterations = 100_000
)

// ErrDecrypt is returned for a wrong password or a corrupt envelope.
var ErrDecrypt = errors.New("backup cannot be decrypted")

// Snapshot is everything a user owns except the user record itself.
type Snapshot struct {
	Version    int                 `json:"version"`
	ExportedAt time.Time           `json:"exportedAt"`
	Incomes    []core.IncomeRecord `json:"incomes"`
	Expenses   []core.Expense      `json:"expenses"`
	Savings    []core.Savings      `json:"savings"`
	Accounts   []core.Account      `json:"accounts"`
}

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, keySize, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return gcm, nil
}

// Encrypt serializes s and seals it with password.
func Encrypt(password string, s Snapshot) (string, error) {
	if password == "" {
		return "", core.NewValidationError("password", "is required")
	}
	plaintext, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}
	gcm, err := newGCM(deriveKey(password, salt))
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}

	out := make([]byte, 0, saltSize+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens an envelope produced by Encrypt.
func Decrypt(password, envelope string) (Snapshot, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(envelope))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: not base64", ErrDecrypt)
	}
	if len(raw) < saltSize {
		return Snapshot{}, fmt.Errorf("%w: too short", ErrDecrypt)
	}
	salt, rest := raw[:saltSize], raw[saltSize:]
	gcm, err := newGCM(deriveKey(password, salt))
	if err != nil {
		return Snapshot{}, err
	}
	ns := gcm.NonceSize()
	if len(rest) < ns {
		return Snapshot{}, fmt.Errorf("%w: too short", ErrDecrypt)
	}
	plaintext, err := gcm.Open(nil, rest[:ns], rest[ns:], nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: wrong password or corrupt data", ErrDecrypt)
	}

	var s Snapshot
	if err := json.Unmarshal(plaintext, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: invalid payload: %v", ErrDecrypt, err)
	}
	if s.Version != Version {
		return Snapshot{}, fmt.Errorf("%w: unsupported version %d", ErrDecrypt, s.Version)
	}
	return s, nil
}
