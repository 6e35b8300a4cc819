// Package accounts defines the account aggregate and its repositories.
package accounts

import (
	"time"

	"github.com/panayot-marinov/password-vault/internal/cryptox"
)

// Account is a registered vault user. PasswordHashes holds the triple
// authentication digest of the (pre-hashed) master password; Iterations and
// Salt are the key-derivation parameters the client needs to rebuild its
// symmetric key. The derived key itself is never stored.
type Account struct {
	ID             string
	Username       string
	PasswordHashes cryptox.TripleHash
	Iterations     int
	Salt           []byte
	CreatedAt      time.Time
}
