package crypto

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := hex.DecodeString("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	require.NoError(t, err)
	return key
}

func TestNewTokenCipher_RejectsShortKey(t *testing.T) {
	_, err := NewTokenCipher([]byte("too-short"))
	require.Error(t, err)
}

func TestTokenCipher_RoundTrip(t *testing.T) {
	c, err := NewTokenCipher(testKey(t))
	require.NoError(t, err)

	plaintexts := []string{
		"ghp_abc123",
		"a",
		"token with spaces and unicode: héllo wörld",
		strings.Repeat("x", 4096),
	}

	for _, plaintext := range plaintexts {
		envelope, err := c.Encrypt(plaintext)
		require.NoError(t, err)

		decrypted, err := c.Decrypt(envelope)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestTokenCipher_EnvelopeFormat(t *testing.T) {
	c, err := NewTokenCipher(testKey(t))
	require.NoError(t, err)

	envelope, err := c.Encrypt("ghp_abc123")
	require.NoError(t, err)

	parts := strings.Split(envelope, ":")
	require.Len(t, parts, 3)

	// 16-byte nonce and 16-byte tag, lowercase hex.
	assert.Len(t, parts[0], 32)
	assert.Len(t, parts[1], 32)
	for _, part := range parts {
		assert.Equal(t, strings.ToLower(part), part)
		_, err := hex.DecodeString(part)
		assert.NoError(t, err)
	}
}

func TestTokenCipher_NonceUniqueness(t *testing.T) {
	c, err := NewTokenCipher(testKey(t))
	require.NoError(t, err)

	first, err := c.Encrypt("same plaintext")
	require.NoError(t, err)
	second, err := c.Encrypt("same plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, strings.Split(first, ":")[0], strings.Split(second, ":")[0])
}

func TestTokenCipher_TamperDetection(t *testing.T) {
	c, err := NewTokenCipher(testKey(t))
	require.NoError(t, err)

	envelope, err := c.Encrypt("ghp_abc123")
	require.NoError(t, err)

	// Flip one hex character in every position of the tag and ciphertext
	// segments; each mutation must fail closed.
	parts := strings.Split(envelope, ":")
	for segment := 1; segment <= 2; segment++ {
		for i := range parts[segment] {
			mutated := make([]string, 3)
			copy(mutated, parts)
			mutated[segment] = flipHexChar(parts[segment], i)

			_, err := c.Decrypt(strings.Join(mutated, ":"))
			require.ErrorIs(t, err, ErrDecryptionFailed,
				"segment %d offset %d should fail integrity check", segment, i)
		}
	}
}

func TestTokenCipher_FormatRejection(t *testing.T) {
	c, err := NewTokenCipher(testKey(t))
	require.NoError(t, err)

	envelope, err := c.Encrypt("ghp_abc123")
	require.NoError(t, err)

	cases := []string{
		"",
		"nodelimiters",
		"one:delimiter",
		envelope + ":extra",
		"zz:" + strings.Split(envelope, ":")[1] + ":" + strings.Split(envelope, ":")[2],
		"00:0000:00", // nonce too short
	}

	for _, malformed := range cases {
		_, err := c.Decrypt(malformed)
		assert.ErrorIs(t, err, ErrInvalidEnvelope, "input %q", malformed)
	}
}

func TestTokenCipher_WrongKey(t *testing.T) {
	c1, err := NewTokenCipher(testKey(t))
	require.NoError(t, err)

	otherKey := testKey(t)
	otherKey[0] ^= 0xff
	c2, err := NewTokenCipher(otherKey)
	require.NoError(t, err)

	envelope, err := c1.Encrypt("ghp_abc123")
	require.NoError(t, err)

	_, err = c2.Decrypt(envelope)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

// flipHexChar replaces the hex character at offset i with a different one.
func flipHexChar(s string, i int) string {
	b := []byte(s)
	if b[i] == '0' {
		b[i] = '1'
	} else {
		b[i] = '0'
	}
	return string(b)
}
