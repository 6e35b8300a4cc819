// Package repomanager wires together the concrete repository implementations
// behind a single construction point, so the application picks a storage
// backend once and the rest of the server sees only the interfaces.
package repomanager

import (
	"github.com/panayot-marinov/password-vault/internal/server/accounts"
	"github.com/panayot-marinov/password-vault/internal/server/credentials"
)

// RepositoryManager hands out the repositories of one storage backend.
type RepositoryManager interface {
	Accounts() accounts.Repository
	Credentials() credentials.Repository
	Close() error
}
