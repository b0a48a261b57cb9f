package auth

import "sync"

// mockStore is an in-memory CredentialStore with error injection
type mockStore struct {
	mu       sync.RWMutex
	profiles map[string]Credentials

	storeErr  error
	deleteErr error
}

func newMockStore() *mockStore {
	return &mockStore{profiles: make(map[string]Credentials)}
}

func (m *mockStore) Store(creds *Credentials) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	if creds == nil || creds.Profile == "" {
		return ErrInvalidCredentials
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[creds.Profile] = *creds
	return nil
}

func (m *mockStore) Retrieve(profile string) (*Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	creds, ok := m.profiles[profile]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &creds, nil
}

func (m *mockStore) List() ([]*Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var list []*Credentials
	for _, creds := range m.profiles {
		c := creds
		list = append(list, &c)
	}
	return list, nil
}

func (m *mockStore) Delete(profile string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[profile]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.profiles, profile)
	return nil
}

func (m *mockStore) Exists(profile string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.profiles[profile]
	return ok
}

func (m *mockStore) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles)
}
