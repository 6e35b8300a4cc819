package vault

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panayot-marinov/password-vault/internal/common"
	"github.com/panayot-marinov/password-vault/internal/cryptox"
	"github.com/panayot-marinov/password-vault/internal/logging"
	"github.com/panayot-marinov/password-vault/internal/protocol"
	"github.com/panayot-marinov/password-vault/internal/server/accounts"
	"github.com/panayot-marinov/password-vault/internal/server/credentials"
)

// recordingOracle counts calls so tests can assert the breach check ran.
type recordingOracle struct {
	compromised bool
	err         error
	calls       int
	lastDigest  string
}

func (o *recordingOracle) IsCompromised(_ context.Context, sha1Hex string) (bool, error) {
	o.calls++
	o.lastDigest = sha1Hex
	return o.compromised, o.err
}

func newTestService(t *testing.T) (*Service, *recordingOracle) {
	t.Helper()
	oracle := &recordingOracle{}
	s := NewService(
		accounts.NewInMemoryRepository(),
		credentials.NewInMemoryRepository(),
		oracle,
		logging.NewNopLogger(),
	)
	return s, oracle
}

func registerRequest(username, password string) *protocol.Request {
	enc := protocol.NewEncryptionData(1000, []byte("salt"))
	req, _ := protocol.NewRegisterRequest(username, password, password, enc)
	return req
}

func mustRegister(t *testing.T, s *Service, username, password string) {
	t.Helper()
	resp := s.Handle(context.Background(), "conn-1", registerRequest(username, password))
	require.Equal(t, protocol.ResponseRegisterSuccess, resp.Kind)
}

func mustLogin(t *testing.T, s *Service, connID, username, password string) *protocol.Response {
	t.Helper()
	req, _ := protocol.NewLoginRequest(username, password)
	resp := s.Handle(context.Background(), connID, req)
	require.Equal(t, protocol.ResponseLoginSuccess, resp.Kind)
	return resp
}

func storeRequest(username, app, credUser, ct string) *protocol.Request {
	req, _ := protocol.NewStorePasswordRequest(username, app, credUser, ct, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	return req
}

func TestRegister(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	resp := s.Handle(ctx, "c1", registerRequest("alice", "h1"))
	assert.Equal(t, protocol.ResponseRegisterSuccess, resp.Kind)

	// Duplicate username.
	resp = s.Handle(ctx, "c1", registerRequest("alice", "h2"))
	assert.Equal(t, protocol.ResponseUsernameAlreadyExists, resp.Kind)
}

func TestRegister_PasswordsDoNotMatch(t *testing.T) {
	s, _ := newTestService(t)

	req := registerRequest("bob", "p1")
	req.PasswordRepeated = "p2"

	resp := s.Handle(context.Background(), "c1", req)
	assert.Equal(t, protocol.ResponsePasswordsDoNotMatch, resp.Kind)

	// No account may have been created.
	exists, err := s.accounts.Contains(context.Background(), "bob")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLogin(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	mustRegister(t, s, "alice", "h1")

	req, _ := protocol.NewLoginRequest("ghost", "h1")
	assert.Equal(t, protocol.ResponseUserNotFound, s.Handle(ctx, "c1", req).Kind)

	req, _ = protocol.NewLoginRequest("alice", "wrong")
	assert.Equal(t, protocol.ResponseInvalidUsernameOrPassword, s.Handle(ctx, "c1", req).Kind)

	resp := mustLogin(t, s, "c1", "alice", "h1")

	// The body carries the account's KDF parameters.
	enc, err := protocol.DecodeEncryptionData(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 1000, enc.Iterations)
	salt, err := enc.SaltBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("salt"), salt)

	assert.True(t, s.IsLoggedIn("alice"))
}

func TestLogin_SingleSlotPerUsername(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	mustRegister(t, s, "alice", "h1")
	mustLogin(t, s, "c1", "alice", "h1")

	req, _ := protocol.NewLoginRequest("alice", "h1")
	resp := s.Handle(ctx, "c2", req)
	assert.Equal(t, protocol.ResponseUserAlreadyLoggedIn, resp.Kind)
}

func TestLogout(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	mustRegister(t, s, "alice", "h1")

	req, _ := protocol.NewLogoutRequest("alice")
	assert.Equal(t, protocol.ResponseUserNotLoggedIn, s.Handle(ctx, "c1", req).Kind)

	mustLogin(t, s, "c1", "alice", "h1")
	assert.Equal(t, protocol.ResponseLogoutSuccess, s.Handle(ctx, "c1", req).Kind)
	assert.False(t, s.IsLoggedIn("alice"))
}

func TestHandleDisconnect(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	mustRegister(t, s, "alice", "h1")
	mustLogin(t, s, "c1", "alice", "h1")

	s.HandleDisconnect(ctx, "c1")
	assert.False(t, s.IsLoggedIn("alice"))
}

func TestChangeAccountPassword(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	mustRegister(t, s, "alice", "p1")

	change := func(username, old, new_, repeated string) protocol.ResponseKind {
		req, err := protocol.NewChangeAccountPasswordRequest(username, old, new_, repeated)
		require.NoError(t, err)
		return s.Handle(ctx, "c1", req).Kind
	}

	assert.Equal(t, protocol.ResponseUserNotFound, change("ghost", "p1", "p2", "p2"))
	assert.Equal(t, protocol.ResponseInvalidUsernameOrPassword, change("alice", "wrong", "p2", "p2"))
	assert.Equal(t, protocol.ResponseEqualOldAndNewPasswords, change("alice", "p1", "p1", "p1"))
	assert.Equal(t, protocol.ResponsePasswordsDoNotMatch, change("alice", "p1", "p2", "p3"))
	assert.Equal(t, protocol.ResponseChangeAccountPasswordSuccess, change("alice", "p1", "p2", "p2"))

	// Old password no longer authenticates, new one does.
	req, _ := protocol.NewLoginRequest("alice", "p1")
	assert.Equal(t, protocol.ResponseInvalidUsernameOrPassword, s.Handle(ctx, "c1", req).Kind)
	mustLogin(t, s, "c1", "alice", "p2")
}

func TestDeleteAccount(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	mustRegister(t, s, "alice", "p1")
	mustLogin(t, s, "c1", "alice", "p1")

	resp := s.Handle(ctx, "c1", storeRequest("alice", "app1", "alice2", "ct"))
	require.Equal(t, protocol.ResponseStorePasswordSuccess, resp.Kind)

	del, _ := protocol.NewDeleteAccountRequest("alice", "wrong", "wrong")
	assert.Equal(t, protocol.ResponseInvalidUsernameOrPassword, s.Handle(ctx, "c1", del).Kind)

	del, _ = protocol.NewDeleteAccountRequest("alice", "p1", "p2")
	assert.Equal(t, protocol.ResponsePasswordsDoNotMatch, s.Handle(ctx, "c1", del).Kind)

	del, _ = protocol.NewDeleteAccountRequest("alice", "p1", "p1")
	assert.Equal(t, protocol.ResponseDeleteAccountSuccess, s.Handle(ctx, "c1", del).Kind)

	// Account, session and credentials are all gone.
	assert.False(t, s.IsLoggedIn("alice"))
	exists, err := s.accounts.Contains(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, exists)

	login, _ := protocol.NewLoginRequest("alice", "p1")
	assert.Equal(t, protocol.ResponseUserNotFound, s.Handle(ctx, "c1", login).Kind)
}

func TestStoreAndGetPassword(t *testing.T) {
	s, oracle := newTestService(t)
	ctx := context.Background()
	mustRegister(t, s, "alice", "p1")

	assert.Equal(t, protocol.ResponseUserNotFound, s.Handle(ctx, "c1", storeRequest("ghost", "app1", "u", "ct")).Kind)

	resp := s.Handle(ctx, "c1", storeRequest("alice", "app1", "alice2", "ct"))
	assert.Equal(t, protocol.ResponseStorePasswordSuccess, resp.Kind)
	assert.Equal(t, 1, oracle.calls)
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", oracle.lastDigest)

	// Same key again is a conflict.
	assert.Equal(t, protocol.ResponseCredentialAlreadyExists, s.Handle(ctx, "c1", storeRequest("alice", "app1", "alice2", "ct")).Kind)

	get, _ := protocol.NewGetPasswordRequest("alice", "app1", "alice2")
	resp = s.Handle(ctx, "c1", get)
	require.Equal(t, protocol.ResponseGetPasswordSuccess, resp.Kind)
	assert.Equal(t, "ct", resp.Body)

	get, _ = protocol.NewGetPasswordRequest("alice", "app1", "other")
	assert.Equal(t, protocol.ResponseCredentialNotFound, s.Handle(ctx, "c1", get).Kind)
}

func TestStorePassword_Compromised(t *testing.T) {
	s, oracle := newTestService(t)
	ctx := context.Background()
	mustRegister(t, s, "alice", "p1")

	oracle.compromised = true
	resp := s.Handle(ctx, "c1", storeRequest("alice", "app1", "alice2", "ct"))
	assert.Equal(t, protocol.ResponsePasswordCompromised, resp.Kind)

	// The write must have been short-circuited.
	get, _ := protocol.NewGetPasswordRequest("alice", "app1", "alice2")
	assert.Equal(t, protocol.ResponseCredentialNotFound, s.Handle(ctx, "c1", get).Kind)
}

func TestStorePassword_OracleFailsOpen(t *testing.T) {
	s, oracle := newTestService(t)
	ctx := context.Background()
	mustRegister(t, s, "alice", "p1")

	oracle.err = errors.New("oracle down")
	resp := s.Handle(ctx, "c1", storeRequest("alice", "app1", "alice2", "ct"))
	assert.Equal(t, protocol.ResponseStorePasswordSuccess, resp.Kind)
}

func TestUpdatePassword(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	mustRegister(t, s, "alice", "p1")

	update, _ := protocol.NewUpdatePasswordRequest("alice", "app1", "alice2", "ct2", "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	assert.Equal(t, protocol.ResponseCredentialNotFound, s.Handle(ctx, "c1", update).Kind)

	require.Equal(t, protocol.ResponseStorePasswordSuccess, s.Handle(ctx, "c1", storeRequest("alice", "app1", "alice2", "ct")).Kind)
	assert.Equal(t, protocol.ResponseUpdatePasswordSuccess, s.Handle(ctx, "c1", update).Kind)

	get, _ := protocol.NewGetPasswordRequest("alice", "app1", "alice2")
	resp := s.Handle(ctx, "c1", get)
	require.Equal(t, protocol.ResponseGetPasswordSuccess, resp.Kind)
	assert.Equal(t, "ct2", resp.Body)
}

func TestRemovePassword(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	mustRegister(t, s, "alice", "p1")

	remove, _ := protocol.NewRemovePasswordRequest("alice", "app1", "alice2")
	assert.Equal(t, protocol.ResponseCredentialNotFound, s.Handle(ctx, "c1", remove).Kind)

	require.Equal(t, protocol.ResponseStorePasswordSuccess, s.Handle(ctx, "c1", storeRequest("alice", "app1", "alice2", "ct")).Kind)
	assert.Equal(t, protocol.ResponseRemovePasswordSuccess, s.Handle(ctx, "c1", remove).Kind)
}

func TestHandle_UnknownKind(t *testing.T) {
	s, _ := newTestService(t)

	resp := s.Handle(context.Background(), "c1", &protocol.Request{Kind: protocol.RequestUnknown, Username: "alice"})
	assert.Equal(t, protocol.ResponseRequestNotSupported, resp.Kind)
}

func TestEndToEndScenario(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	// Register and log in.
	mustRegister(t, s, "alice", "p1")
	resp := mustLogin(t, s, "c1", "alice", "p1")

	enc, err := protocol.DecodeEncryptionData(resp.Body)
	require.NoError(t, err)
	salt, err := enc.SaltBytes()
	require.NoError(t, err)

	// Derive the symmetric key the way the client would and store a secret.
	derived, err := cryptox.DeriveKey([]byte("master"), salt, enc.Iterations)
	require.NoError(t, err)
	ciphertext, err := cryptox.Encrypt([]byte("secret"), derived.Key)
	require.NoError(t, err)

	store := storeRequest("alice", "app1", "alice2", ciphertext)
	require.Equal(t, protocol.ResponseStorePasswordSuccess, s.Handle(ctx, "c1", store).Kind)

	// Retrieve it and decrypt locally.
	get, _ := protocol.NewGetPasswordRequest("alice", "app1", "alice2")
	got := s.Handle(ctx, "c1", get)
	require.Equal(t, protocol.ResponseGetPasswordSuccess, got.Kind)

	plaintext, err := cryptox.Decrypt(got.Body, derived.Key)
	require.NoError(t, err)
	assert.Equal(t, "secret", string(plaintext))

	// Change the master password; the old one stops working.
	change, _ := protocol.NewChangeAccountPasswordRequest("alice", "p1", "p2", "p2")
	require.Equal(t, protocol.ResponseChangeAccountPasswordSuccess, s.Handle(ctx, "c1", change).Kind)

	logout, _ := protocol.NewLogoutRequest("alice")
	require.Equal(t, protocol.ResponseLogoutSuccess, s.Handle(ctx, "c1", logout).Kind)

	login, _ := protocol.NewLoginRequest("alice", "p1")
	assert.Equal(t, protocol.ResponseInvalidUsernameOrPassword, s.Handle(ctx, "c1", login).Kind)
}

// failingAccounts returns an infrastructure error from every method so tests
// can drive the internal-error path.
type failingAccounts struct {
	err error
}

func (f *failingAccounts) Get(context.Context, string) (*accounts.Account, error) { return nil, f.err }
func (f *failingAccounts) Contains(context.Context, string) (bool, error)         { return false, f.err }
func (f *failingAccounts) Create(context.Context, *accounts.Account) (*accounts.Account, error) {
	return nil, f.err
}
func (f *failingAccounts) Update(context.Context, *accounts.Account) error { return f.err }
func (f *failingAccounts) Remove(context.Context, string) error            { return f.err }
func (f *failingAccounts) GetAll(context.Context) ([]*accounts.Account, error) {
	return nil, f.err
}

func TestFailureResponse_SentinelMapping(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	req := &protocol.Request{Kind: protocol.RequestLogin}

	cases := []struct {
		err  error
		kind protocol.ResponseKind
	}{
		{common.ErrorUserNotFound, protocol.ResponseUserNotFound},
		{common.ErrorInvalidCredentials, protocol.ResponseInvalidUsernameOrPassword},
		{common.ErrorUserNotLoggedIn, protocol.ResponseUserNotLoggedIn},
		{common.ErrorUserAlreadyLoggedIn, protocol.ResponseUserAlreadyLoggedIn},
		{common.ErrorPasswordsDoNotMatch, protocol.ResponsePasswordsDoNotMatch},
		{common.ErrorEqualOldAndNewPasswords, protocol.ResponseEqualOldAndNewPasswords},
		{common.ErrorUsernameAlreadyExists, protocol.ResponseUsernameAlreadyExists},
		{common.ErrorCredentialNotFound, protocol.ResponseCredentialNotFound},
		{common.ErrorCredentialAlreadyExists, protocol.ResponseCredentialAlreadyExists},
		{common.ErrorPasswordCompromised, protocol.ResponsePasswordCompromised},
		{common.ErrorRequestNotSupported, protocol.ResponseRequestNotSupported},
	}

	for _, tc := range cases {
		resp := s.failureResponse(ctx, req, tc.err)
		assert.Equal(t, tc.kind, resp.Kind, "sentinel %v", tc.err)

		// Wrapped sentinels map the same way.
		resp = s.failureResponse(ctx, req, fmt.Errorf("login: %w", tc.err))
		assert.Equal(t, tc.kind, resp.Kind, "wrapped sentinel %v", tc.err)
	}
}

func TestFailureResponse_InternalError(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	req := &protocol.Request{Kind: protocol.RequestGetPassword}

	resp := s.failureResponse(ctx, req, internalErr("get password", errors.New("db down")))
	assert.Equal(t, protocol.ResponseInternalServerError, resp.Kind)

	// Errors matching no sentinel also report as internal.
	resp = s.failureResponse(ctx, req, errors.New("unexpected"))
	assert.Equal(t, protocol.ResponseInternalServerError, resp.Kind)
}

func TestHandle_RepositoryFailureReportsInternalError(t *testing.T) {
	oracle := &recordingOracle{}
	s := NewService(
		&failingAccounts{err: errors.New("connection refused")},
		credentials.NewInMemoryRepository(),
		oracle,
		logging.NewNopLogger(),
	)

	req, _ := protocol.NewLoginRequest("alice", "h1")
	resp := s.Handle(context.Background(), "c1", req)
	assert.Equal(t, protocol.ResponseInternalServerError, resp.Kind)
}
