package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000
)

// EncryptedFileStore keeps credentials in an AES-GCM encrypted file for
// hosts without a keychain. The key is derived from a passphrase via
// PBKDF2.
type EncryptedFileStore struct {
	path       string
	passphrase string
}

// encryptedFile is the on-disk layout: a cleartext salt plus the
// encrypted profile map
type encryptedFile struct {
	Version  int       `json:"version"`
	Salt     string    `json:"salt"`
	Data     string    `json:"data"`
	Modified time.Time `json:"modified"`
}

// NewEncryptedFileStore creates a store backed by the file at path
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	passphrase, err := getPassphrase(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}

	return &EncryptedFileStore{
		path:       path,
		passphrase: passphrase,
	}, nil
}

// Store saves credentials under their profile name
func (s *EncryptedFileStore) Store(creds *Credentials) error {
	if creds == nil || creds.Profile == "" {
		return ErrInvalidCredentials
	}

	profiles, _, err := s.loadData()
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if profiles == nil {
		profiles = make(map[string]*Credentials)
	}

	profiles[creds.Profile] = creds
	return s.saveData(profiles)
}

// Retrieve gets credentials for a profile
func (s *EncryptedFileStore) Retrieve(profile string) (*Credentials, error) {
	profiles, _, err := s.loadData()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCredentialsNotFound
		}
		return nil, err
	}

	creds, ok := profiles[profile]
	if !ok {
		return nil, ErrCredentialsNotFound
	}

	return creds, nil
}

// Delete removes credentials for a profile
func (s *EncryptedFileStore) Delete(profile string) error {
	profiles, _, err := s.loadData()
	if err != nil {
		if os.IsNotExist(err) {
			return ErrCredentialsNotFound
		}
		return err
	}

	if _, ok := profiles[profile]; !ok {
		return ErrCredentialsNotFound
	}

	delete(profiles, profile)
	return s.saveData(profiles)
}

// Exists checks whether credentials exist for a profile
func (s *EncryptedFileStore) Exists(profile string) bool {
	profiles, _, err := s.loadData()
	if err != nil {
		return false
	}
	_, ok := profiles[profile]
	return ok
}

// loadData reads and decrypts the profile map, returning the salt so a
// rewrite can reuse it
func (s *EncryptedFileStore) loadData() (map[string]*Credentials, []byte, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil, err
	}

	var file encryptedFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	encrypted, err := base64.StdEncoding.DecodeString(file.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode data: %w", err)
	}

	key := pbkdf2.Key([]byte(s.passphrase), salt, iterations, keySize, sha256.New)
	plaintext, err := decrypt(encrypted, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	var profiles map[string]*Credentials
	if err := json.Unmarshal(plaintext, &profiles); err != nil {
		return nil, nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	return profiles, salt, nil
}

// saveData encrypts and writes the profile map via a temp file so a
// crash mid-write cannot corrupt the store
func (s *EncryptedFileStore) saveData(profiles map[string]*Credentials) error {
	plaintext, err := json.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(s.passphrase), salt, iterations, keySize, sha256.New)
	encrypted, err := encrypt(plaintext, key)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	file := encryptedFile{
		Version:  1,
		Salt:     base64.StdEncoding.EncodeToString(salt),
		Data:     base64.StdEncoding.EncodeToString(encrypted),
		Modified: time.Now(),
	}

	raw, err := json.MarshalIndent(&file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}

	return nil
}

// encrypt seals plaintext with AES-GCM, prepending the nonce
func encrypt(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// decrypt opens data sealed by encrypt
func decrypt(data, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(data) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// getPassphrase resolves the encryption passphrase: the
// TWEETRELAY_PASSPHRASE environment variable wins, then a passphrase
// file next to the store, generated on first use
func getPassphrase(configDir string) (string, error) {
	if passphrase := os.Getenv("TWEETRELAY_PASSPHRASE"); passphrase != "" {
		return passphrase, nil
	}

	passphrasePath := filepath.Join(configDir, ".passphrase")
	if data, err := os.ReadFile(passphrasePath); err == nil && len(data) > 0 {
		return string(data), nil
	}

	random := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, random); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := base64.StdEncoding.EncodeToString(random)

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(passphrasePath, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}

	return passphrase, nil
}
