// Package credentials defines the per-application credential aggregate and
// its repositories.
package credentials

import "time"

// Credential is one stored application login, scoped to an account and
// keyed by (ApplicationName, CredentialsUsername). Ciphertext is the
// client-side AES encryption of the real application password; the server
// stores and returns it verbatim and can never decrypt it.
type Credential struct {
	AccountID           string
	ApplicationName     string
	CredentialsUsername string
	Ciphertext          string
	CreatedAt           time.Time
}

// Key identifies a credential inside one account.
type Key struct {
	ApplicationName     string
	CredentialsUsername string
}
