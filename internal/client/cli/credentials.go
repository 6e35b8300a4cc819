package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/panayot-marinov/password-vault/internal/common"
	"github.com/panayot-marinov/password-vault/internal/cryptox"
	"github.com/panayot-marinov/password-vault/internal/protocol"
)

// credentialKey prompts for the (application, username) pair that identifies
// a stored credential.
func (a *App) credentialKey() (appName string, credUser string, err error) {
	appName, err = getSimpleText(a.reader, "Enter application name", os.Stdout)
	if err != nil {
		return "", "", err
	}
	credUser, err = getSimpleText(a.reader, "Enter username for the application", os.Stdout)
	if err != nil {
		return "", "", err
	}
	return appName, credUser, nil
}

// sealPassword encrypts a credential password under the session key and
// produces the plaintext digest the server's breach check needs. The
// ciphertext is what gets stored; the digest never identifies the password
// on its own.
func (a *App) sealPassword(password []byte) (ciphertext string, plaintextSHA1 string, err error) {
	ciphertext, err = cryptox.Encrypt(password, a.session.Key())
	if err != nil {
		return "", "", err
	}
	plaintextSHA1, err = cryptox.HashPassword(string(password), cryptox.SHA1)
	if err != nil {
		return "", "", err
	}
	return ciphertext, plaintextSHA1, nil
}

// storePassword encrypts and sends one credential, via either the store or
// the update request builder.
func (a *App) storePassword(ctx context.Context, appName, credUser string, password []byte,
	build func(username, applicationName, credentialsUsername, ciphertext, plaintextSHA1 string) (*protocol.Request, error),
	successMsg string) error {

	ciphertext, plaintextSHA1, err := a.sealPassword(password)
	if err != nil {
		return err
	}

	req, err := build(a.session.Username(), appName, credUser, ciphertext, plaintextSHA1)
	if err != nil {
		return err
	}

	resp, err := a.roundtrip(ctx, req)
	if err != nil {
		return err
	}

	printOutcome(resp, successMsg)
	return nil
}

// Add stores a new credential. The password is typed by the user and
// encrypted locally before it leaves the machine.
func (a *App) Add(ctx context.Context) error {
	if !a.session.IsLoggedIn() {
		printlnFn("Not logged in")
		return common.ErrorUserNotLoggedIn
	}

	appName, credUser, err := a.credentialKey()
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password to store: ", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	return a.storePassword(ctx, appName, credUser, password, protocol.NewStorePasswordRequest, "Password stored")
}

// Generate creates a random password locally, stores it like Add, and shows
// it to the user once the server confirms.
func (a *App) Generate(ctx context.Context) error {
	if !a.session.IsLoggedIn() {
		printlnFn("Not logged in")
		return common.ErrorUserNotLoggedIn
	}

	appName, credUser, err := a.credentialKey()
	if err != nil {
		return err
	}

	password, err := cryptox.GeneratePassword(a.config.PasswordLength)
	if err != nil {
		return err
	}

	ciphertext, plaintextSHA1, err := a.sealPassword([]byte(password))
	if err != nil {
		return err
	}

	req, err := protocol.NewStorePasswordRequest(a.session.Username(), appName, credUser, ciphertext, plaintextSHA1)
	if err != nil {
		return err
	}

	resp, err := a.roundtrip(ctx, req)
	if err != nil {
		return err
	}

	if resp.IsSuccess() {
		printlnFn(fmt.Sprintf("Generated password for %s: %s", appName, password))
		return nil
	}
	printOutcome(resp, "")
	return nil
}

// Get fetches a credential's ciphertext and decrypts it with the session key.
func (a *App) Get(ctx context.Context) error {
	if !a.session.IsLoggedIn() {
		printlnFn("Not logged in")
		return common.ErrorUserNotLoggedIn
	}

	appName, credUser, err := a.credentialKey()
	if err != nil {
		return err
	}

	req, err := protocol.NewGetPasswordRequest(a.session.Username(), appName, credUser)
	if err != nil {
		return err
	}

	resp, err := a.roundtrip(ctx, req)
	if err != nil {
		return err
	}

	if !resp.IsSuccess() {
		printOutcome(resp, "")
		return nil
	}

	plaintext, err := cryptox.Decrypt(resp.Body, a.session.Key())
	if err != nil {
		return err
	}
	defer common.WipeByteArray(plaintext)

	printlnFn(fmt.Sprintf("Password for %s @ %s: %s", credUser, appName, plaintext))
	return nil
}

// Update replaces the password of an existing credential.
func (a *App) Update(ctx context.Context) error {
	if !a.session.IsLoggedIn() {
		printlnFn("Not logged in")
		return common.ErrorUserNotLoggedIn
	}

	appName, credUser, err := a.credentialKey()
	if err != nil {
		return err
	}

	password, err := getPassword("Enter new password: ", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	return a.storePassword(ctx, appName, credUser, password, protocol.NewUpdatePasswordRequest, "Password updated")
}

// Remove deletes a stored credential.
func (a *App) Remove(ctx context.Context) error {
	if !a.session.IsLoggedIn() {
		printlnFn("Not logged in")
		return common.ErrorUserNotLoggedIn
	}

	appName, credUser, err := a.credentialKey()
	if err != nil {
		return err
	}

	req, err := protocol.NewRemovePasswordRequest(a.session.Username(), appName, credUser)
	if err != nil {
		return err
	}

	resp, err := a.roundtrip(ctx, req)
	if err != nil {
		return err
	}

	printOutcome(resp, "Password removed")
	return nil
}
