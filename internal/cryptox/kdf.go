package cryptox

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/panayot-marinov/password-vault/internal/common"
)

const (
	// DefaultSaltLength is the number of random salt bytes generated when
	// the caller does not supply a salt.
	DefaultSaltLength = 16

	// DefaultIterations is the PBKDF2 round count used by clients that have
	// no stored parameters yet.
	DefaultIterations = 65536

	// KeyLength is the derived symmetric key size in bytes (AES-256).
	KeyLength = 32
)

// KeyParams are the public key-derivation parameters stored per account and
// returned to the client on login. The derived key itself is never stored
// or transmitted.
type KeyParams struct {
	Iterations int
	Salt       []byte
}

// DerivedKey couples a symmetric key with the parameters it was derived
// under, so the caller can persist the parameters alongside the account.
type DerivedKey struct {
	Params KeyParams
	Key    []byte
}

// DeriveKey runs PBKDF2-HMAC-SHA256 over password for iterations rounds and
// returns a KeyLength-byte symmetric key.
//
// A nil salt means "generate one": DefaultSaltLength random bytes are drawn.
// An explicitly supplied empty salt is a caller bug and fails with
// ErrorKeyDerivation. Non-positive iterations fall back to DefaultIterations.
func DeriveKey(password []byte, salt []byte, iterations int) (*DerivedKey, error) {
	if salt == nil {
		salt = common.GenerateRandByteArray(DefaultSaltLength)
	} else if len(salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", common.ErrorKeyDerivation)
	}

	if iterations <= 0 {
		iterations = DefaultIterations
	}

	key := pbkdf2.Key(password, salt, iterations, KeyLength, sha256.New)

	return &DerivedKey{
		Params: KeyParams{Iterations: iterations, Salt: salt},
		Key:    key,
	}, nil
}
