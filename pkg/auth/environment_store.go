package auth

import (
	"os"
	"strings"
)

// EnvironmentStore reads credentials from ZHEXPORT_* environment
// variables. It is read-only and never persists anything.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment variable store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables. The name argument
// is ignored; the environment holds at most one account.
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	cookie := os.Getenv("ZHEXPORT_COOKIE")
	if strings.TrimSpace(cookie) == "" {
		return nil, ErrCredentialsNotFound
	}

	accountName := os.Getenv("ZHEXPORT_ACCOUNT")
	if accountName == "" {
		accountName = "environment"
	}

	return &Account{
		Name:      accountName,
		Cookie:    cookie,
		UserAgent: os.Getenv("ZHEXPORT_USER_AGENT"),
	}, nil
}

// List returns the environment account if configured
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return nil, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials are configured
func (e *EnvironmentStore) Exists(name string) bool {
	return strings.TrimSpace(os.Getenv("ZHEXPORT_COOKIE")) != ""
}
