package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/panayot-marinov/password-vault/internal/common"
	"github.com/panayot-marinov/password-vault/internal/cryptox"
	"github.com/panayot-marinov/password-vault/internal/protocol"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// hashMaster pre-hashes a master password before it goes anywhere near the
// wire. The server stores digests of this value, never the password itself.
func hashMaster(password []byte) (string, error) {
	return cryptox.HashPassword(string(password), cryptox.SHA512)
}

// Register prompts for a username and a master password (typed twice),
// generates fresh key-derivation parameters, and asks the server to create
// the account. Only the SHA-512 of the password leaves the machine.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter master password: ", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	repeated, err := getPassword("Repeat master password: ", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(repeated)

	hash, err := hashMaster(password)
	if err != nil {
		return err
	}
	repeatedHash, err := hashMaster(repeated)
	if err != nil {
		return err
	}

	salt := common.GenerateRandByteArray(cryptox.DefaultSaltLength)
	enc := protocol.NewEncryptionData(a.config.KDFIterations, salt)

	req, err := protocol.NewRegisterRequest(username, hash, repeatedHash, enc)
	if err != nil {
		return err
	}

	resp, err := a.roundtrip(ctx, req)
	if err != nil {
		return err
	}

	printOutcome(resp, "Account created, you can log in now")
	return nil
}

// Login authenticates against the server, then reconstructs the symmetric
// key locally from the typed password and the key-derivation parameters the
// server returns. The key itself is never received over the wire.
//
// A login attempt while a session is active is rejected locally; the server
// session table holds one slot per username and expects the client to
// pre-filter this case.
func (a *App) Login(ctx context.Context) error {
	if a.session.IsLoggedIn() {
		printlnFn("Already logged in, log out first")
		return common.ErrorUserAlreadyLoggedIn
	}

	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter master password: ", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	hash, err := hashMaster(password)
	if err != nil {
		return err
	}

	req, err := protocol.NewLoginRequest(username, hash)
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

	enc, err := protocol.DecodeEncryptionData(resp.Body)
	if err != nil {
		return err
	}
	salt, err := enc.SaltBytes()
	if err != nil {
		return err
	}

	key, err := cryptox.DeriveKey(password, salt, enc.Iterations)
	if err != nil {
		return err
	}

	if err := a.session.Begin(username, key, a.logoutSender(username)); err != nil {
		return err
	}

	log.Println("Login successful")
	return nil
}

// Logout ends the session explicitly. The session guarantees that either
// this call or the auto-logout timer sends the request, never both.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(); err != nil {
		printlnFn("Not logged in")
		return err
	}
	printlnFn("Logged out")
	return nil
}

// ChangeAccountPassword replaces the account's stored authentication hashes.
// Stored credentials keep their original key-derivation parameters, so the
// session and its key remain valid.
func (a *App) ChangeAccountPassword(ctx context.Context) error {
	if !a.session.IsLoggedIn() {
		printlnFn("Not logged in")
		return common.ErrorUserNotLoggedIn
	}

	oldPassword, err := getPassword("Enter current master password: ", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(oldPassword)

	newPassword, err := getPassword("Enter new master password: ", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPassword)

	repeated, err := getPassword("Repeat new master password: ", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(repeated)

	oldHash, err := hashMaster(oldPassword)
	if err != nil {
		return err
	}
	newHash, err := hashMaster(newPassword)
	if err != nil {
		return err
	}
	repeatedHash, err := hashMaster(repeated)
	if err != nil {
		return err
	}

	req, err := protocol.NewChangeAccountPasswordRequest(a.session.Username(), oldHash, newHash, repeatedHash)
	if err != nil {
		return err
	}

	resp, err := a.roundtrip(ctx, req)
	if err != nil {
		return err
	}

	printOutcome(resp, "Master password changed")
	return nil
}

// DeleteAccount removes the account and every credential stored under it.
// The server drops the session as part of the deletion, so the local session
// is abandoned without sending a logout.
func (a *App) DeleteAccount(ctx context.Context) error {
	if !a.session.IsLoggedIn() {
		printlnFn("Not logged in")
		return common.ErrorUserNotLoggedIn
	}

	password, err := getPassword("Enter master password: ", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	repeated, err := getPassword("Repeat master password: ", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(repeated)

	hash, err := hashMaster(password)
	if err != nil {
		return err
	}
	repeatedHash, err := hashMaster(repeated)
	if err != nil {
		return err
	}

	req, err := protocol.NewDeleteAccountRequest(a.session.Username(), hash, repeatedHash)
	if err != nil {
		return err
	}

	resp, err := a.roundtrip(ctx, req)
	if err != nil {
		return err
	}

	if resp.IsSuccess() {
		a.session.Abandon()
	}
	printOutcome(resp, "Account deleted")
	return nil
}

// printOutcome reports a response to the user: the success message when the
// operation went through, the server's failure kind otherwise.
func printOutcome(resp *protocol.Response, successMsg string) {
	if resp.IsSuccess() {
		if successMsg != "" {
			printlnFn(successMsg)
		}
		return
	}
	printlnFn(fmt.Sprintf("Failed: %s", resp.Kind))
}
