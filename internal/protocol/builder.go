package protocol

import (
	"encoding/hex"
	"fmt"

	"github.com/panayot-marinov/password-vault/internal/common"
)

// Request constructors. Each validates its kind's required fields at build
// time, so an under-specified request is a local error and never reaches
// the wire.

func requireFields(fields map[string]string) error {
	for name, value := range fields {
		if value == "" {
			return fmt.Errorf("%w: %s", common.ErrorMissingField, name)
		}
	}
	return nil
}

// NewEncryptionData packs raw KDF parameters into their wire shape.
func NewEncryptionData(iterations int, salt []byte) *EncryptionData {
	return &EncryptionData{Iterations: iterations, Salt: hex.EncodeToString(salt)}
}

// SaltBytes decodes the hex salt back into raw bytes.
func (e *EncryptionData) SaltBytes() ([]byte, error) {
	salt, err := hex.DecodeString(e.Salt)
	if err != nil {
		return nil, fmt.Errorf("decoding salt: %w", err)
	}
	return salt, nil
}

func NewRegisterRequest(username, passwordHash, passwordRepeatedHash string, enc *EncryptionData) (*Request, error) {
	if err := requireFields(map[string]string{
		"username":          username,
		"password":          passwordHash,
		"password_repeated": passwordRepeatedHash,
	}); err != nil {
		return nil, err
	}
	if enc == nil || enc.Salt == "" || enc.Iterations <= 0 {
		return nil, fmt.Errorf("%w: encryption_data", common.ErrorMissingField)
	}
	return &Request{
		Kind:             RequestRegister,
		Username:         username,
		Password:         passwordHash,
		PasswordRepeated: passwordRepeatedHash,
		EncryptionData:   enc,
	}, nil
}

func NewLoginRequest(username, passwordHash string) (*Request, error) {
	if err := requireFields(map[string]string{"username": username, "password": passwordHash}); err != nil {
		return nil, err
	}
	return &Request{Kind: RequestLogin, Username: username, Password: passwordHash}, nil
}

func NewLogoutRequest(username string) (*Request, error) {
	if err := requireFields(map[string]string{"username": username}); err != nil {
		return nil, err
	}
	return &Request{Kind: RequestLogout, Username: username}, nil
}

func NewChangeAccountPasswordRequest(username, oldPasswordHash, newPasswordHash, newPasswordRepeatedHash string) (*Request, error) {
	if err := requireFields(map[string]string{
		"username":          username,
		"old_password":      oldPasswordHash,
		"password":          newPasswordHash,
		"password_repeated": newPasswordRepeatedHash,
	}); err != nil {
		return nil, err
	}
	return &Request{
		Kind:             RequestChangeAccountPassword,
		Username:         username,
		OldPassword:      oldPasswordHash,
		Password:         newPasswordHash,
		PasswordRepeated: newPasswordRepeatedHash,
	}, nil
}

func NewDeleteAccountRequest(username, passwordHash, passwordRepeatedHash string) (*Request, error) {
	if err := requireFields(map[string]string{
		"username":          username,
		"password":          passwordHash,
		"password_repeated": passwordRepeatedHash,
	}); err != nil {
		return nil, err
	}
	return &Request{
		Kind:             RequestDeleteAccount,
		Username:         username,
		Password:         passwordHash,
		PasswordRepeated: passwordRepeatedHash,
	}, nil
}

func NewStorePasswordRequest(username, applicationName, credentialsUsername, ciphertext, plaintextSHA1 string) (*Request, error) {
	if err := requireFields(map[string]string{
		"username":             username,
		"application_name":     applicationName,
		"credentials_username": credentialsUsername,
		"password":             ciphertext,
		"password_hash":        plaintextSHA1,
	}); err != nil {
		return nil, err
	}
	return &Request{
		Kind:                RequestStorePassword,
		Username:            username,
		ApplicationName:     applicationName,
		CredentialsUsername: credentialsUsername,
		Password:            ciphertext,
		PasswordHash:        plaintextSHA1,
	}, nil
}

func NewUpdatePasswordRequest(username, applicationName, credentialsUsername, ciphertext, plaintextSHA1 string) (*Request, error) {
	req, err := NewStorePasswordRequest(username, applicationName, credentialsUsername, ciphertext, plaintextSHA1)
	if err != nil {
		return nil, err
	}
	req.Kind = RequestUpdatePassword
	return req, nil
}

func NewGetPasswordRequest(username, applicationName, credentialsUsername string) (*Request, error) {
	if err := requireFields(map[string]string{
		"username":             username,
		"application_name":     applicationName,
		"credentials_username": credentialsUsername,
	}); err != nil {
		return nil, err
	}
	return &Request{
		Kind:                RequestGetPassword,
		Username:            username,
		ApplicationName:     applicationName,
		CredentialsUsername: credentialsUsername,
	}, nil
}

func NewRemovePasswordRequest(username, applicationName, credentialsUsername string) (*Request, error) {
	req, err := NewGetPasswordRequest(username, applicationName, credentialsUsername)
	if err != nil {
		return nil, err
	}
	req.Kind = RequestRemovePassword
	return req, nil
}
