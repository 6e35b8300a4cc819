// Package breach abstracts the external password breach-check service.
package breach

import "context"

// Oracle answers whether a password, identified by the SHA-1 hex digest of
// its plaintext, appears in a known breach corpus. Implementations may fail
// transiently; callers are expected to fail open (treat an error as "not
// compromised") so an outage cannot deny service.
type Oracle interface {
	IsCompromised(ctx context.Context, sha1Hex string) (bool, error)
}

// Static is a fixed-answer Oracle for tests and for running with breach
// checking disabled.
type Static struct {
	Compromised bool
	Err         error
}

func (s *Static) IsCompromised(context.Context, string) (bool, error) {
	return s.Compromised, s.Err
}
