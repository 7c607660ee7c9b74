package auth

import "sync"

// MockStore is an in-memory CredentialStore for tests
type MockStore struct {
	mu          sync.Mutex
	profiles    map[string]*Credentials
	Unavailable bool
	StoreCalls  int
}

// NewMockStore creates an empty in-memory store
func NewMockStore() *MockStore {
	return &MockStore{profiles: make(map[string]*Credentials)}
}

func (s *MockStore) Store(creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.StoreCalls++
	if s.Unavailable {
		return ErrStoreUnavailable
	}
	if creds == nil || creds.Profile == "" {
		return ErrInvalidCredentials
	}

	copied := *creds
	s.profiles[creds.Profile] = &copied
	return nil
}

func (s *MockStore) Retrieve(profile string) (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Unavailable {
		return nil, ErrStoreUnavailable
	}
	creds, ok := s.profiles[profile]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	copied := *creds
	return &copied, nil
}

func (s *MockStore) Delete(profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Unavailable {
		return ErrStoreUnavailable
	}
	if _, ok := s.profiles[profile]; !ok {
		return ErrCredentialsNotFound
	}
	delete(s.profiles, profile)
	return nil
}

func (s *MockStore) Exists(profile string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Unavailable {
		return false
	}
	_, ok := s.profiles[profile]
	return ok
}
