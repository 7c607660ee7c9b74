package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEncryptedStore(t *testing.T) (*EncryptedFileStore, string) {
	t.Helper()

	t.Setenv("TWEETRELAY_PASSPHRASE", "test-passphrase")
	path := filepath.Join(t.TempDir(), "credentials.enc")
	s, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	return s, path
}

func TestEncryptedStoreRoundTrip(t *testing.T) {
	s, path := newTestEncryptedStore(t)

	require.NoError(t, s.Store(testCredentials()))

	creds, err := s.Retrieve(DefaultProfile)
	require.NoError(t, err)
	assert.Equal(t, "bearer-token", creds.TwitterBearer)
	assert.Equal(t, "bot-token", creds.TelegramBotToken)
	assert.Equal(t, "-100200300", creds.TelegramChatID)

	// Tokens never appear in cleartext on disk
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "bearer-token")
	assert.NotContains(t, string(raw), "bot-token")
}

func TestEncryptedStoreMultipleProfiles(t *testing.T) {
	s, _ := newTestEncryptedStore(t)

	first := testCredentials()
	second := testCredentials()
	second.Profile = "backup"
	second.TwitterBearer = "other-bearer"

	require.NoError(t, s.Store(first))
	require.NoError(t, s.Store(second))

	got, err := s.Retrieve("backup")
	require.NoError(t, err)
	assert.Equal(t, "other-bearer", got.TwitterBearer)

	got, err = s.Retrieve(DefaultProfile)
	require.NoError(t, err)
	assert.Equal(t, "bearer-token", got.TwitterBearer)
}

func TestEncryptedStoreDelete(t *testing.T) {
	s, _ := newTestEncryptedStore(t)

	require.NoError(t, s.Store(testCredentials()))
	require.True(t, s.Exists(DefaultProfile))

	require.NoError(t, s.Delete(DefaultProfile))
	assert.False(t, s.Exists(DefaultProfile))

	_, err := s.Retrieve(DefaultProfile)
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.ErrorIs(t, s.Delete(DefaultProfile), ErrCredentialsNotFound)
}

func TestEncryptedStoreMissingFile(t *testing.T) {
	s, _ := newTestEncryptedStore(t)

	_, err := s.Retrieve(DefaultProfile)
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.False(t, s.Exists(DefaultProfile))
}

func TestEncryptedStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	t.Setenv("TWEETRELAY_PASSPHRASE", "first-passphrase")
	s, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Store(testCredentials()))

	t.Setenv("TWEETRELAY_PASSPHRASE", "other-passphrase")
	s2, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	_, err = s2.Retrieve(DefaultProfile)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)
}

func TestGeneratedPassphrasePersists(t *testing.T) {
	t.Setenv("TWEETRELAY_PASSPHRASE", "")
	dir := t.TempDir()

	first, err := getPassphrase(dir)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := getPassphrase(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEncryptDecrypt(t *testing.T) {
	key := make([]byte, keySize)
	for i := range key {
		key[i] = byte(i)
	}

	ciphertext, err := encrypt([]byte("secret payload"), key)
	require.NoError(t, err)
	assert.NotContains(t, string(ciphertext), "secret payload")

	plaintext, err := decrypt(ciphertext, key)
	require.NoError(t, err)
	assert.Equal(t, "secret payload", string(plaintext))

	// Truncated ciphertext is rejected, not sliced out of range
	_, err = decrypt(ciphertext[:4], key)
	assert.Error(t, err)
}
