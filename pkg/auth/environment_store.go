package auth

import (
	"os"
	"time"
)

const (
	// TokenEnvVar holds an API token that overrides stored accounts
	TokenEnvVar = "WEBSCRAPER_API_TOKEN"
	// BaseURLEnvVar optionally points the environment token at another endpoint
	BaseURLEnvVar = "WEBSCRAPER_API_BASE_URI"
	// environmentAccountName names the account built from the environment
	environmentAccountName = "env"
)

// EnvironmentStore is a read-only CredentialStore backed by environment variables
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment token under the requested name, or
// "env" when name is empty
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	token := os.Getenv(TokenEnvVar)
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = environmentAccountName
	}

	return &Account{
		Name:         name,
		Token:        token,
		BaseURL:      os.Getenv(BaseURLEnvVar),
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if the token variable is set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if an environment token is set
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv(TokenEnvVar) != ""
}
