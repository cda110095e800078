package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEncryption(t *testing.T) *encryptor {
	t.Setenv("REMINDD_ENABLE_ENCRYPTION", "true")
	t.Setenv("REMINDD_ENCRYPTION_SECRET", "this-is-a-very-long-test-secret-key-for-testing")

	enc, err := NewEncryptor()
	require.NoError(t, err)
	return enc
}

func TestEncryptDecrypt(t *testing.T) {
	enc := setupEncryption(t)

	plaintext := "remind me to water the plants"
	ciphertext, err := enc.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decrypted, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncrypt_Nondeterministic(t *testing.T) {
	enc := setupEncryption(t)

	first, err := enc.Encrypt("same input")
	require.NoError(t, err)
	second, err := enc.Encrypt("same input")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestEncryptForLookup_Deterministic(t *testing.T) {
	enc := setupEncryption(t)

	first, err := enc.EncryptForLookup("user-123")
	require.NoError(t, err)
	second, err := enc.EncryptForLookup("user-123")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := enc.EncryptForLookup("user-456")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestDecrypt_InvalidCiphertext(t *testing.T) {
	enc := setupEncryption(t)

	_, err := enc.Decrypt("not-valid-ciphertext")
	assert.Error(t, err)
}

func TestEncryptIfEnabled_PassThroughWhenDisabled(t *testing.T) {
	t.Setenv("REMINDD_ENABLE_ENCRYPTION", "false")

	enc, err := NewEncryptor()
	require.NoError(t, err)

	out, err := enc.EncryptIfEnabled("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", out)

	back, err := enc.DecryptIfEnabled("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", back)
}

func TestNewEncryptor_ShortSecret(t *testing.T) {
	t.Setenv("REMINDD_ENABLE_ENCRYPTION", "true")
	t.Setenv("REMINDD_ENCRYPTION_SECRET", "too-short")

	_, err := NewEncryptor()
	assert.Error(t, err)
}

func TestIsRetryableDBError(t *testing.T) {
	assert.True(t, isRetryableDBError(fmt.Errorf("database is locked")))
	assert.True(t, isRetryableDBError(fmt.Errorf("disk I/O error")))

	assert.False(t, isRetryableDBError(nil))
	assert.False(t, isRetryableDBError(fmt.Errorf("UNIQUE constraint failed")))
	assert.False(t, isRetryableDBError(fmt.Errorf("no such table: reminders")))
}
