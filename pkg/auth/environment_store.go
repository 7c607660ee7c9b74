package auth

import (
	"os"
)

// EnvironmentStore reads credentials from environment variables. It is
// read-only and profile-blind: containers set one set of variables for
// the whole process.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-backed store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (s *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve reads credentials from TWEETRELAY_BEARER_TOKEN and
// TWEETRELAY_BOT_TOKEN; both must be set
func (s *EnvironmentStore) Retrieve(profile string) (*Credentials, error) {
	bearer := os.Getenv("TWEETRELAY_BEARER_TOKEN")
	botToken := os.Getenv("TWEETRELAY_BOT_TOKEN")

	if bearer == "" || botToken == "" {
		return nil, ErrCredentialsNotFound
	}

	return &Credentials{
		Profile:          profile,
		TwitterBearer:    bearer,
		TelegramBotToken: botToken,
		TelegramChatID:   os.Getenv("TWEETRELAY_CHAT_ID"),
	}, nil
}

// Delete is not supported for environment variables
func (s *EnvironmentStore) Delete(profile string) error {
	return ErrStoreUnavailable
}

// Exists checks whether both environment variables are set
func (s *EnvironmentStore) Exists(profile string) bool {
	return os.Getenv("TWEETRELAY_BEARER_TOKEN") != "" && os.Getenv("TWEETRELAY_BOT_TOKEN") != ""
}
