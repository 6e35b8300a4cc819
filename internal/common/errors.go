// Package common defines shared constants and sentinel errors used across
// the client and server layers of the vault. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Account state machine errors.
	ErrorUserNotFound            = errors.New("user not found")
	ErrorUsernameAlreadyExists   = errors.New("username already exists")
	ErrorInvalidCredentials      = errors.New("invalid username or password")
	ErrorPasswordsDoNotMatch     = errors.New("passwords do not match")
	ErrorEqualOldAndNewPasswords = errors.New("old and new passwords are equal")
	ErrorUserNotLoggedIn         = errors.New("user not logged in")
	ErrorUserAlreadyLoggedIn     = errors.New("user already logged in")

	// Credential errors.
	ErrorCredentialNotFound      = errors.New("credential not found")
	ErrorCredentialAlreadyExists = errors.New("credential already exists")
	ErrorPasswordCompromised     = errors.New("password appears in a breach")

	// Crypto errors.
	ErrorKeyDerivation = errors.New("key derivation error")
	ErrorCrypto        = errors.New("crypto error")

	// Protocol errors.
	ErrorRequestNotSupported = errors.New("request not supported")
	ErrorMissingField        = errors.New("missing required field")

	// Client session errors. ErrorIllegalState marks a programming error
	// (e.g. arming the auto-logout timer with no active session).
	ErrorIllegalState = errors.New("illegal state")
)
