// Package auth stores and resolves the relay's two API credentials (the
// upstream bearer token and the bot token) outside the configuration
// file: system keychain when available, encrypted file as fallback, and
// plain environment variables for container deployments.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Credentials bundles everything the relay needs to talk to both APIs
type Credentials struct {
	Profile          string    `json:"profile"`
	TwitterBearer    string    `json:"twitter_bearer"`
	TelegramBotToken string    `json:"telegram_bot_token"`
	TelegramChatID   string    `json:"telegram_chat_id,omitempty"`
	LastModified     time.Time `json:"last_modified"`
}

// DefaultProfile is the profile used when none is named
const DefaultProfile = "default"

// Sentinel errors shared by all stores
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves credentials under their profile name
	Store(creds *Credentials) error

	// Retrieve gets credentials for a profile
	Retrieve(profile string) (*Credentials, error)

	// Delete removes credentials for a profile
	Delete(profile string) error

	// Exists checks whether credentials exist for a profile
	Exists(profile string) bool
}

// Manager resolves credentials through a chain of stores, first hit wins
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a manager with the standard store chain: keyring
// when the platform offers one, encrypted file always, environment last
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over an explicit chain (tests)
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(creds *Credentials) error {
	if creds == nil || creds.TwitterBearer == "" || creds.TelegramBotToken == "" {
		return ErrInvalidCredentials
	}
	if creds.Profile == "" {
		creds.Profile = DefaultProfile
	}
	creds.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(creds); err == nil {
			return nil
		} else if !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve returns credentials for a profile from the first store that
// has them
func (m *Manager) Retrieve(profile string) (*Credentials, error) {
	if profile == "" {
		profile = DefaultProfile
	}

	for _, store := range m.stores {
		creds, err := store.Retrieve(profile)
		if err == nil && creds != nil {
			return creds, nil
		}
	}

	return nil, ErrCredentialsNotFound
}

// Delete removes a profile from every store that has it
func (m *Manager) Delete(profile string) error {
	if profile == "" {
		profile = DefaultProfile
	}

	deleted := false
	var lastErr error
	for _, store := range m.stores {
		if err := store.Delete(profile); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrStoreUnavailable) && !errors.Is(err, ErrCredentialsNotFound) {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return lastErr
	}
	if !deleted {
		return ErrCredentialsNotFound
	}
	return nil
}

// getConfigDir returns (and creates) the per-user config directory
func getConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(base, "tweetrelay")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return dir, nil
}
