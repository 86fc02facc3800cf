package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Credential is the opaque request identity for one profile.
// The cookie is sent as-is; nothing here parses or refreshes it.
type Credential struct {
	Profile   string    `json:"profile"`
	Cookie    string    `json:"cookie"`
	UserAgent string    `json:"user_agent,omitempty"`
	SavedAt   time.Time `json:"saved_at"`
}

// CredentialStore is a backend that can hold credentials
type CredentialStore interface {
	Name() string
	Store(cred *Credential) error
	Retrieve(profile string) (*Credential, error)
	Delete(profile string) error
}

// Manager resolves credentials across stores in priority order
type Manager struct {
	stores []CredentialStore
}

// NewManager uses the system keychain when available, then the environment
func NewManager() *Manager {
	var stores []CredentialStore
	if ks, err := NewKeyringStore(); err == nil {
		stores = append(stores, ks)
	}
	stores = append(stores, NewEnvironmentStore())
	return &Manager{stores: stores}
}

// NewManagerWithStores builds a manager over explicit stores
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the credential in the first store that accepts it
func (m *Manager) Store(cred *Credential) error {
	if cred == nil || cred.Profile == "" {
		return ErrInvalidCredentials
	}
	if strings.TrimSpace(cred.Cookie) == "" {
		return fmt.Errorf("%w: cookie is empty", ErrInvalidCredentials)
	}
	cred.Cookie = strings.TrimSpace(cred.Cookie)
	cred.SavedAt = time.Now()

	var errs []error
	for _, store := range m.stores {
		err := store.Store(cred)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
	}
	if len(errs) == 0 {
		return ErrStoreUnavailable
	}
	return fmt.Errorf("failed to store credentials: %w", errors.Join(errs...))
}

// Resolve returns the first credential found for profile
func (m *Manager) Resolve(profile string) (*Credential, string, error) {
	for _, store := range m.stores {
		cred, err := store.Retrieve(profile)
		if err == nil && cred != nil {
			return cred, store.Name(), nil
		}
	}
	return nil, "", fmt.Errorf("%w for profile %q", ErrCredentialsNotFound, profile)
}

// Delete removes the profile from every store that supports deletion
func (m *Manager) Delete(profile string) error {
	deleted := false
	for _, store := range m.stores {
		if err := store.Delete(profile); err == nil {
			deleted = true
		}
	}
	if !deleted {
		return fmt.Errorf("%w for profile %q", ErrCredentialsNotFound, profile)
	}
	return nil
}

// MaskCookie keeps the first and last four characters
func MaskCookie(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
