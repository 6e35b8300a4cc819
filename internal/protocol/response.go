package protocol

// ResponseKind enumerates the closed set of server outcomes. Each request
// kind has exactly one success response; failures are shared across kinds.
type ResponseKind string

const (
	ResponseRegisterSuccess              ResponseKind = "REGISTER_SUCCESS"
	ResponseLoginSuccess                 ResponseKind = "LOGIN_SUCCESS"
	ResponseLogoutSuccess                ResponseKind = "LOGOUT_SUCCESS"
	ResponseChangeAccountPasswordSuccess ResponseKind = "CHANGE_ACCOUNT_PASSWORD_SUCCESS"
	ResponseDeleteAccountSuccess         ResponseKind = "DELETE_ACCOUNT_SUCCESS"
	ResponseStorePasswordSuccess         ResponseKind = "STORE_PASSWORD_SUCCESS"
	ResponseUpdatePasswordSuccess        ResponseKind = "UPDATE_PASSWORD_SUCCESS"
	ResponseGetPasswordSuccess           ResponseKind = "GET_PASSWORD_SUCCESS"
	ResponseRemovePasswordSuccess        ResponseKind = "REMOVE_PASSWORD_SUCCESS"

	ResponseUserNotFound              ResponseKind = "USER_NOT_FOUND"
	ResponseInvalidUsernameOrPassword ResponseKind = "INVALID_USERNAME_OR_PASSWORD"
	ResponseUserNotLoggedIn           ResponseKind = "USER_NOT_LOGGED_IN"
	ResponseUserAlreadyLoggedIn       ResponseKind = "USER_ALREADY_LOGGED_IN"
	ResponsePasswordsDoNotMatch       ResponseKind = "PASSWORDS_DO_NOT_MATCH"
	ResponseEqualOldAndNewPasswords   ResponseKind = "EQUAL_OLD_AND_NEW_PASSWORDS"
	ResponseUsernameAlreadyExists     ResponseKind = "USERNAME_ALREADY_EXISTS"
	ResponseCredentialNotFound        ResponseKind = "CREDENTIAL_NOT_FOUND"
	ResponseCredentialAlreadyExists   ResponseKind = "CREDENTIAL_ALREADY_EXISTS"
	ResponsePasswordCompromised       ResponseKind = "PASSWORD_COMPROMISED"
	ResponseRequestNotSupported       ResponseKind = "REQUEST_NOT_SUPPORTED"
	ResponseInternalServerError       ResponseKind = "INTERNAL_SERVER_ERROR"
)

var supportedResponseKinds = map[ResponseKind]struct{}{
	ResponseRegisterSuccess:              {},
	ResponseLoginSuccess:                 {},
	ResponseLogoutSuccess:                {},
	ResponseChangeAccountPasswordSuccess: {},
	ResponseDeleteAccountSuccess:         {},
	ResponseStorePasswordSuccess:         {},
	ResponseUpdatePasswordSuccess:        {},
	ResponseGetPasswordSuccess:           {},
	ResponseRemovePasswordSuccess:        {},
	ResponseUserNotFound:                 {},
	ResponseInvalidUsernameOrPassword:    {},
	ResponseUserNotLoggedIn:              {},
	ResponseUserAlreadyLoggedIn:          {},
	ResponsePasswordsDoNotMatch:          {},
	ResponseEqualOldAndNewPasswords:      {},
	ResponseUsernameAlreadyExists:        {},
	ResponseCredentialNotFound:           {},
	ResponseCredentialAlreadyExists:      {},
	ResponsePasswordCompromised:          {},
	ResponseRequestNotSupported:          {},
	ResponseInternalServerError:          {},
}

// Response is the server-to-client envelope. Body is an optional payload,
// itself sometimes JSON-encoded (e.g. EncryptionData on LOGIN_SUCCESS, or a
// ciphertext string on GET_PASSWORD_SUCCESS).
type Response struct {
	Kind ResponseKind `json:"kind"`
	Body string       `json:"body,omitempty"`
}

// IsSuccess reports whether the response kind signals a successful outcome.
func (r *Response) IsSuccess() bool {
	switch r.Kind {
	case ResponseRegisterSuccess, ResponseLoginSuccess, ResponseLogoutSuccess,
		ResponseChangeAccountPasswordSuccess, ResponseDeleteAccountSuccess,
		ResponseStorePasswordSuccess, ResponseUpdatePasswordSuccess,
		ResponseGetPasswordSuccess, ResponseRemovePasswordSuccess:
		return true
	}
	return false
}
