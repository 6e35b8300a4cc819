package repomanager

import (
	"github.com/panayot-marinov/password-vault/internal/server/accounts"
	"github.com/panayot-marinov/password-vault/internal/server/credentials"
)

// InMemoryRepositoryManager backs the server with map-based repositories.
// Nothing survives a restart; meant for development and tests.
type InMemoryRepositoryManager struct {
	accounts    accounts.Repository
	credentials credentials.Repository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		accounts:    accounts.NewInMemoryRepository(),
		credentials: credentials.NewInMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) Accounts() accounts.Repository {
	return m.accounts
}

func (m *InMemoryRepositoryManager) Credentials() credentials.Repository {
	return m.credentials
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}
