package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	EnvCookie    = "WBSCRAPER_COOKIE"
	EnvUserAgent = "WBSCRAPER_USER_AGENT"
)

// EnvironmentStore reads a credential from the environment. It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-backed store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Name() string { return "environment" }

// Store is not supported
func (e *EnvironmentStore) Store(*Credential) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment credential under whatever profile was asked for
func (e *EnvironmentStore) Retrieve(profile string) (*Credential, error) {
	cookie := os.Getenv(EnvCookie)
	if cookie == "" {
		return nil, ErrCredentialsNotFound
	}
	if profile == "" {
		profile = "default"
	}
	return &Credential{
		Profile:   profile,
		Cookie:    cookie,
		UserAgent: os.Getenv(EnvUserAgent),
		SavedAt:   time.Now(),
	}, nil
}

// Delete is not supported
func (e *EnvironmentStore) Delete(string) error {
	return ErrStoreUnavailable
}
