package auth

import (
	"os"
	"time"
)

// EnvironmentStore is a read-only store over the token environment
// variables. It always reports a single profile.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func envToken(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func (e *EnvironmentStore) tokens() (string, string) {
	return envToken("VKBACKUP_VK_TOKEN", "VK_TOKEN"), envToken("VKBACKUP_YANDEX_TOKEN", "YANDEX_TOKEN")
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment tokens under any profile name
func (e *EnvironmentStore) Retrieve(profile string) (*Credentials, error) {
	vkToken, yandexToken := e.tokens()
	if vkToken == "" || yandexToken == "" {
		return nil, ErrCredentialsNotFound
	}
	if profile == "" {
		profile = DefaultProfile
	}
	return &Credentials{
		Profile:      profile,
		VKToken:      vkToken,
		YandexToken:  yandexToken,
		LastModified: time.Now(),
	}, nil
}

// List returns the environment profile when both tokens are set
func (e *EnvironmentStore) List() ([]*Credentials, error) {
	creds, err := e.Retrieve("env")
	if err != nil {
		return []*Credentials{}, nil
	}
	return []*Credentials{creds}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(profile string) error {
	return ErrStoreUnavailable
}

// Exists checks if both environment tokens are set
func (e *EnvironmentStore) Exists(profile string) bool {
	vkToken, yandexToken := e.tokens()
	return vkToken != "" && yandexToken != ""
}
