package auth

import (
	"encoding/json"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "tweetrelay"

// KeyringStore keeps credentials in the OS keychain (macOS Keychain,
// Windows Credential Manager, Secret Service on Linux)
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a keyring-backed store, probing the backend
// first so headless hosts fall through to the encrypted file store
func NewKeyringStore() (*KeyringStore, error) {
	s := &KeyringStore{service: keyringService}

	probe := "tweetrelay-probe"
	if err := keyring.Set(s.service, probe, "probe"); err != nil {
		return nil, fmt.Errorf("%w: keyring backend: %v", ErrStoreUnavailable, err)
	}
	_ = keyring.Delete(s.service, probe)

	return s, nil
}

// Store saves credentials as a JSON blob under the profile name
func (s *KeyringStore) Store(creds *Credentials) error {
	if creds == nil || creds.Profile == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := keyring.Set(s.service, creds.Profile, string(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// Retrieve gets credentials for a profile
func (s *KeyringStore) Retrieve(profile string) (*Credentials, error) {
	data, err := keyring.Get(s.service, profile)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}

	return &creds, nil
}

// Delete removes credentials for a profile
func (s *KeyringStore) Delete(profile string) error {
	if err := keyring.Delete(s.service, profile); err != nil {
		if err == keyring.ErrNotFound {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Exists checks whether credentials exist for a profile
func (s *KeyringStore) Exists(profile string) bool {
	_, err := keyring.Get(s.service, profile)
	return err == nil
}
