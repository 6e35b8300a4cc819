// Package cryptox implements the cryptographic primitives of the vault:
// authentication hashing, password-based key derivation, and symmetric
// encryption of credential payloads.
//
// Two independent kinds of secret are derived from the master password and
// must never be confused: the authentication hashes, which travel to the
// server and only prove identity, and the symmetric key, which never leaves
// the client and protects stored credentials.
package cryptox

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/panayot-marinov/password-vault/internal/common"
)

// Algorithm identifies one of the supported digest algorithms.
type Algorithm string

const (
	MD5    Algorithm = "MD5"
	SHA1   Algorithm = "SHA-1"
	SHA256 Algorithm = "SHA-256"
	SHA512 Algorithm = "SHA-512"
)

// HashPassword returns the lowercase hex digest of password under the given
// algorithm. The digest is used only for authentication comparison, never
// for confidentiality.
func HashPassword(password string, algorithm Algorithm) (string, error) {
	switch algorithm {
	case MD5:
		sum := md5.Sum([]byte(password))
		return hex.EncodeToString(sum[:]), nil
	case SHA1:
		sum := sha1.Sum([]byte(password))
		return hex.EncodeToString(sum[:]), nil
	case SHA256:
		sum := sha256.Sum256([]byte(password))
		return hex.EncodeToString(sum[:]), nil
	case SHA512:
		sum := sha512.Sum512([]byte(password))
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("%w: unsupported algorithm %q", common.ErrorCrypto, algorithm)
	}
}

// TripleHash holds the three independent digests of an authentication
// password. Keeping all three lets the server survive hash strength
// upgrades without forcing re-registration.
type TripleHash struct {
	MD5    string `json:"md5"`
	SHA1   string `json:"sha1"`
	SHA256 string `json:"sha256"`
}

// TripleHashPassword computes all three digests of password.
func TripleHashPassword(password string) TripleHash {
	md5Hash, _ := HashPassword(password, MD5)
	sha1Hash, _ := HashPassword(password, SHA1)
	sha256Hash, _ := HashPassword(password, SHA256)
	return TripleHash{MD5: md5Hash, SHA1: sha1Hash, SHA256: sha256Hash}
}

// Matches reports whether candidate matches h. The comparison is
// conjunctive: all three digests must match. Constant-time per digest.
func (h TripleHash) Matches(candidate TripleHash) bool {
	md5OK := subtle.ConstantTimeCompare([]byte(h.MD5), []byte(candidate.MD5))
	sha1OK := subtle.ConstantTimeCompare([]byte(h.SHA1), []byte(candidate.SHA1))
	sha256OK := subtle.ConstantTimeCompare([]byte(h.SHA256), []byte(candidate.SHA256))
	return md5OK&sha1OK&sha256OK == 1
}
