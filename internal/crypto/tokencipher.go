// Package crypto encrypts and decrypts access tokens at rest.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// nonceSize is the GCM nonce length in bytes. 16 rather than the Go default
// of 12 to stay compatible with envelopes written by the Node crypto module.
const nonceSize = 16

var (
	// ErrInvalidEnvelope is returned when a stored value does not have the
	// nonce:tag:ciphertext hex envelope shape.
	ErrInvalidEnvelope = errors.New("invalid encrypted envelope format")

	// ErrDecryptionFailed is returned when the authentication tag does not
	// verify: the envelope was tampered with or encrypted under another key.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// TokenCipher performs AES-256-GCM encryption of token strings. The key is
// fixed for the process lifetime; there is no rotation support, and changing
// the configured key invalidates every previously written envelope.
type TokenCipher struct {
	gcm cipher.AEAD
}

// NewTokenCipher creates a TokenCipher from a 32-byte AES-256 key.
func NewTokenCipher(key []byte) (*TokenCipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}

	return &TokenCipher{gcm: gcm}, nil
}

// Encrypt encrypts plaintext under a fresh random nonce and returns the
// self-contained envelope "<nonce-hex>:<tag-hex>:<ciphertext-hex>".
func (c *TokenCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the tag to the ciphertext; split it back out so the
	// envelope carries nonce, tag and ciphertext as separate segments.
	sealed := c.gcm.Seal(nil, nonce, []byte(plaintext), nil)
	tagStart := len(sealed) - c.gcm.Overhead()
	ciphertext, tag := sealed[:tagStart], sealed[tagStart:]

	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt splits an envelope into its three segments and decrypts. It
// returns ErrInvalidEnvelope for malformed envelopes and ErrDecryptionFailed
// when the integrity tag does not verify.
func (c *TokenCipher) Decrypt(envelope string) (string, error) {
	parts := strings.Split(envelope, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: expected 3 parts, got %d", ErrInvalidEnvelope, len(parts))
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: nonce is not hex", ErrInvalidEnvelope)
	}
	if len(nonce) != nonceSize {
		return "", fmt.Errorf("%w: nonce is %d bytes, want %d", ErrInvalidEnvelope, len(nonce), nonceSize)
	}

	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: tag is not hex", ErrInvalidEnvelope)
	}

	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext is not hex", ErrInvalidEnvelope)
	}

	plaintext, err := c.gcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}
