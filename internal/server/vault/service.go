// Package vault implements the authentication and credential state machine
// of the server. Handlers speak in sentinel errors from internal/common;
// the dispatch boundary maps each sentinel to its wire response kind, so
// every request yields exactly one response and partial success is never
// signaled.
//
// The Service carries no locks: the connection server feeds it from a single
// dispatch goroutine, so request handling for different connections is
// strictly interleaved, never parallel.
package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/panayot-marinov/password-vault/internal/common"
	"github.com/panayot-marinov/password-vault/internal/cryptox"
	"github.com/panayot-marinov/password-vault/internal/logging"
	"github.com/panayot-marinov/password-vault/internal/protocol"
	"github.com/panayot-marinov/password-vault/internal/server/accounts"
	"github.com/panayot-marinov/password-vault/internal/server/breach"
	"github.com/panayot-marinov/password-vault/internal/server/credentials"
)

// handlerFunc runs one operation and returns the response body. Failures are
// sentinel errors; anything wrapping common.ErrorInternal (or unrecognized)
// becomes INTERNAL_SERVER_ERROR at the boundary.
type handlerFunc func(ctx context.Context, connID string, req *protocol.Request) (string, error)

// successKinds names the response kind reported when a handler returns nil.
var successKinds = map[protocol.RequestKind]protocol.ResponseKind{
	protocol.RequestRegister:              protocol.ResponseRegisterSuccess,
	protocol.RequestLogin:                 protocol.ResponseLoginSuccess,
	protocol.RequestLogout:                protocol.ResponseLogoutSuccess,
	protocol.RequestChangeAccountPassword: protocol.ResponseChangeAccountPasswordSuccess,
	protocol.RequestDeleteAccount:         protocol.ResponseDeleteAccountSuccess,
	protocol.RequestStorePassword:         protocol.ResponseStorePasswordSuccess,
	protocol.RequestUpdatePassword:        protocol.ResponseUpdatePasswordSuccess,
	protocol.RequestGetPassword:           protocol.ResponseGetPasswordSuccess,
	protocol.RequestRemovePassword:        protocol.ResponseRemovePasswordSuccess,
}

// failureKinds maps handler sentinels to wire response kinds. Checked in
// order with errors.Is; errors matching none of the entries are
// infrastructure failures.
var failureKinds = []struct {
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

// internalErr marks an infrastructure failure. The underlying error text is
// preserved for the boundary log.
func internalErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", common.ErrorInternal, op, err)
}

type Service struct {
	accounts    accounts.Repository
	credentials credentials.Repository
	oracle      breach.Oracle
	logger      logging.Logger
	sessions    *sessionTable
	handlers    map[protocol.RequestKind]handlerFunc
}

func NewService(accountRepo accounts.Repository, credentialRepo credentials.Repository, oracle breach.Oracle, logger logging.Logger) *Service {
	s := &Service{
		accounts:    accountRepo,
		credentials: credentialRepo,
		oracle:      oracle,
		logger:      logger.With("module", "vault"),
		sessions:    newSessionTable(),
	}

	// One handler per request kind, resolved through a table built at
	// startup; an unregistered kind falls through to REQUEST_NOT_SUPPORTED.
	s.handlers = map[protocol.RequestKind]handlerFunc{
		protocol.RequestRegister:              s.handleRegister,
		protocol.RequestLogin:                 s.handleLogin,
		protocol.RequestLogout:                s.handleLogout,
		protocol.RequestChangeAccountPassword: s.handleChangeAccountPassword,
		protocol.RequestDeleteAccount:         s.handleDeleteAccount,
		protocol.RequestStorePassword:         s.handleStorePassword,
		protocol.RequestUpdatePassword:        s.handleUpdatePassword,
		protocol.RequestGetPassword:           s.handleGetPassword,
		protocol.RequestRemovePassword:        s.handleRemovePassword,
	}

	return s
}

// Handle executes one request and returns its single response. connID names
// the transport connection the request arrived on, so sessions can be torn
// down when that connection goes away.
func (s *Service) Handle(ctx context.Context, connID string, req *protocol.Request) *protocol.Response {
	handler, ok := s.handlers[req.Kind]
	if !ok {
		return &protocol.Response{Kind: protocol.ResponseRequestNotSupported}
	}

	body, err := handler(ctx, connID, req)
	if err != nil {
		return s.failureResponse(ctx, req, err)
	}
	return &protocol.Response{Kind: successKinds[req.Kind], Body: body}
}

// failureResponse translates a handler error into the response sent back on
// the wire. Sentinels map through failureKinds; everything else is logged
// and reported as INTERNAL_SERVER_ERROR.
func (s *Service) failureResponse(ctx context.Context, req *protocol.Request, err error) *protocol.Response {
	for _, f := range failureKinds {
		if errors.Is(err, f.err) {
			return &protocol.Response{Kind: f.kind}
		}
	}
	s.logger.Error(ctx, "internal error", "kind", req.Kind, "error", err)
	return &protocol.Response{Kind: protocol.ResponseInternalServerError}
}

// HandleDisconnect logs out every session bound to a closed connection.
func (s *Service) HandleDisconnect(ctx context.Context, connID string) {
	for _, username := range s.sessions.dropConnection(connID) {
		s.logger.Info(ctx, "session closed with connection", "username", username)
	}
}

// IsLoggedIn reports whether username holds the single login slot.
func (s *Service) IsLoggedIn(username string) bool {
	return s.sessions.isLoggedIn(username)
}

func (s *Service) handleRegister(ctx context.Context, _ string, req *protocol.Request) (string, error) {
	if req.Password == "" || req.PasswordRepeated == "" || req.EncryptionData == nil {
		return "", common.ErrorRequestNotSupported
	}
	if req.Password != req.PasswordRepeated {
		return "", common.ErrorPasswordsDoNotMatch
	}

	exists, err := s.accounts.Contains(ctx, req.Username)
	if err != nil {
		return "", internalErr("register", err)
	}
	if exists {
		return "", common.ErrorUsernameAlreadyExists
	}

	salt, err := req.EncryptionData.SaltBytes()
	if err != nil {
		return "", common.ErrorRequestNotSupported
	}

	account := &accounts.Account{
		Username:       req.Username,
		PasswordHashes: cryptox.TripleHashPassword(req.Password),
		Iterations:     req.EncryptionData.Iterations,
		Salt:           salt,
	}

	if _, err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return "", common.ErrorUsernameAlreadyExists
		}
		return "", internalErr("register", err)
	}

	s.logger.Info(ctx, "account registered", "username", req.Username)
	return "", nil
}

// authenticate fetches the account and verifies the triple-hash match of
// password.
func (s *Service) authenticate(ctx context.Context, op, username, password string) (*accounts.Account, error) {
	account, err := s.accounts.Get(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUserNotFound
		}
		return nil, internalErr(op, err)
	}

	if !account.PasswordHashes.Matches(cryptox.TripleHashPassword(password)) {
		return nil, common.ErrorInvalidCredentials
	}

	return account, nil
}

func (s *Service) handleLogin(ctx context.Context, connID string, req *protocol.Request) (string, error) {
	account, err := s.authenticate(ctx, "login", req.Username, req.Password)
	if err != nil {
		return "", err
	}

	if !s.sessions.loginIfAbsent(req.Username, connID) {
		return "", common.ErrorUserAlreadyLoggedIn
	}

	body, err := protocol.EncodeEncryptionData(protocol.NewEncryptionData(account.Iterations, account.Salt))
	if err != nil {
		s.sessions.logout(req.Username)
		return "", internalErr("login", err)
	}

	s.logger.Info(ctx, "user logged in", "username", req.Username)
	return body, nil
}

func (s *Service) handleLogout(ctx context.Context, _ string, req *protocol.Request) (string, error) {
	if !s.sessions.logout(req.Username) {
		return "", common.ErrorUserNotLoggedIn
	}
	s.logger.Info(ctx, "user logged out", "username", req.Username)
	return "", nil
}

func (s *Service) handleChangeAccountPassword(ctx context.Context, _ string, req *protocol.Request) (string, error) {
	account, err := s.authenticate(ctx, "change password", req.Username, req.OldPassword)
	if err != nil {
		return "", err
	}

	newHashes := cryptox.TripleHashPassword(req.Password)
	if account.PasswordHashes.Matches(newHashes) {
		return "", common.ErrorEqualOldAndNewPasswords
	}
	if req.Password != req.PasswordRepeated {
		return "", common.ErrorPasswordsDoNotMatch
	}

	account.PasswordHashes = newHashes
	if err := s.accounts.Update(ctx, account); err != nil {
		return "", internalErr("change password", err)
	}

	s.logger.Info(ctx, "account password changed", "username", req.Username)
	return "", nil
}

func (s *Service) handleDeleteAccount(ctx context.Context, _ string, req *protocol.Request) (string, error) {
	account, err := s.authenticate(ctx, "delete account", req.Username, req.Password)
	if err != nil {
		return "", err
	}
	if req.Password != req.PasswordRepeated {
		return "", common.ErrorPasswordsDoNotMatch
	}

	// Cascade: credentials first, then the account, then the login slot.
	if err := s.credentials.RemoveAllForAccount(ctx, account.ID); err != nil {
		return "", internalErr("delete account", err)
	}
	if err := s.accounts.Remove(ctx, req.Username); err != nil {
		return "", internalErr("delete account", err)
	}
	s.sessions.logout(req.Username)

	s.logger.Info(ctx, "account deleted", "username", req.Username)
	return "", nil
}

// checkBreach consults the oracle with the SHA-1 digest of the plaintext
// credential password. Oracle failures are logged and treated as "not
// compromised" so a third-party outage cannot deny service.
func (s *Service) checkBreach(ctx context.Context, sha1Hex string) bool {
	compromised, err := s.oracle.IsCompromised(ctx, sha1Hex)
	if err != nil {
		s.logger.Warn(ctx, "breach check failed, failing open", "error", err)
		return false
	}
	return compromised
}

func (s *Service) getAccount(ctx context.Context, op, username string) (*accounts.Account, error) {
	account, err := s.accounts.Get(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUserNotFound
		}
		return nil, internalErr(op, err)
	}
	return account, nil
}

func (s *Service) handleStorePassword(ctx context.Context, _ string, req *protocol.Request) (string, error) {
	account, err := s.getAccount(ctx, "store password", req.Username)
	if err != nil {
		return "", err
	}

	key := credentials.Key{ApplicationName: req.ApplicationName, CredentialsUsername: req.CredentialsUsername}
	exists, err := s.credentials.Contains(ctx, account.ID, key)
	if err != nil {
		return "", internalErr("store password", err)
	}
	if exists {
		return "", common.ErrorCredentialAlreadyExists
	}

	if s.checkBreach(ctx, req.PasswordHash) {
		return "", common.ErrorPasswordCompromised
	}

	credential := &credentials.Credential{
		AccountID:           account.ID,
		ApplicationName:     req.ApplicationName,
		CredentialsUsername: req.CredentialsUsername,
		Ciphertext:          req.Password,
	}
	if err := s.credentials.Create(ctx, credential); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return "", common.ErrorCredentialAlreadyExists
		}
		return "", internalErr("store password", err)
	}

	return "", nil
}

func (s *Service) handleUpdatePassword(ctx context.Context, _ string, req *protocol.Request) (string, error) {
	account, err := s.getAccount(ctx, "update password", req.Username)
	if err != nil {
		return "", err
	}

	key := credentials.Key{ApplicationName: req.ApplicationName, CredentialsUsername: req.CredentialsUsername}
	exists, err := s.credentials.Contains(ctx, account.ID, key)
	if err != nil {
		return "", internalErr("update password", err)
	}
	if !exists {
		return "", common.ErrorCredentialNotFound
	}

	if s.checkBreach(ctx, req.PasswordHash) {
		return "", common.ErrorPasswordCompromised
	}

	credential := &credentials.Credential{
		AccountID:           account.ID,
		ApplicationName:     req.ApplicationName,
		CredentialsUsername: req.CredentialsUsername,
		Ciphertext:          req.Password,
	}
	if err := s.credentials.Update(ctx, credential); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorCredentialNotFound
		}
		return "", internalErr("update password", err)
	}

	return "", nil
}

func (s *Service) handleGetPassword(ctx context.Context, _ string, req *protocol.Request) (string, error) {
	account, err := s.getAccount(ctx, "get password", req.Username)
	if err != nil {
		return "", err
	}

	key := credentials.Key{ApplicationName: req.ApplicationName, CredentialsUsername: req.CredentialsUsername}
	credential, err := s.credentials.Get(ctx, account.ID, key)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorCredentialNotFound
		}
		return "", internalErr("get password", err)
	}

	// Ciphertext goes back verbatim; only the client can decrypt it.
	return credential.Ciphertext, nil
}

func (s *Service) handleRemovePassword(ctx context.Context, _ string, req *protocol.Request) (string, error) {
	account, err := s.getAccount(ctx, "remove password", req.Username)
	if err != nil {
		return "", err
	}

	key := credentials.Key{ApplicationName: req.ApplicationName, CredentialsUsername: req.CredentialsUsername}
	if err := s.credentials.Remove(ctx, account.ID, key); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorCredentialNotFound
		}
		return "", internalErr("remove password", err)
	}

	return "", nil
}
