// Package protocol defines the wire model of the vault: typed request and
// response envelopes and their newline-delimited JSON codec. One JSON object
// per line travels in each direction; every response answers exactly one
// request.
package protocol

// RequestKind enumerates the closed set of request types a client may send.
type RequestKind string

const (
	RequestRegister              RequestKind = "REGISTER"
	RequestLogin                 RequestKind = "LOGIN"
	RequestLogout                RequestKind = "LOGOUT"
	RequestChangeAccountPassword RequestKind = "CHANGE_ACCOUNT_PASSWORD"
	RequestDeleteAccount         RequestKind = "DELETE_ACCOUNT"
	RequestStorePassword         RequestKind = "STORE_PASSWORD"
	RequestUpdatePassword        RequestKind = "UPDATE_PASSWORD"
	RequestGetPassword           RequestKind = "GET_PASSWORD"
	RequestRemovePassword        RequestKind = "REMOVE_PASSWORD"

	// RequestUnknown is the sentinel a decoder yields for a recognized
	// envelope whose kind is outside the supported set. It never crosses
	// the wire in encoded form.
	RequestUnknown RequestKind = "UNKNOWN"
)

// supportedRequestKinds is the lookup table the decoder consults; built once
// at package init so decoding stays a map hit rather than a switch.
var supportedRequestKinds = map[RequestKind]struct{}{
	RequestRegister:              {},
	RequestLogin:                 {},
	RequestLogout:                {},
	RequestChangeAccountPassword: {},
	RequestDeleteAccount:         {},
	RequestStorePassword:         {},
	RequestUpdatePassword:        {},
	RequestGetPassword:           {},
	RequestRemovePassword:        {},
}

// EncryptionData carries the public key-derivation parameters: the PBKDF2
// iteration count and the hex-encoded salt. It rides in REGISTER requests
// (client picks the parameters) and in LOGIN success response bodies
// (server returns them so the client can re-derive its key).
type EncryptionData struct {
	Iterations int    `json:"iterations"`
	Salt       string `json:"salt"`
}

// Request is the client-to-server envelope. Username is required on every
// kind; the remaining fields are a kind-specific subset.
//
// Password fields never carry the plaintext master password: account
// passwords arrive pre-hashed (SHA-512 hex) and credential passwords arrive
// as client-side AES ciphertext. PasswordHash is the SHA-1 hex of the
// plaintext credential password; STORE_PASSWORD and UPDATE_PASSWORD carry it
// so the server can consult the breach oracle without ever seeing either
// the plaintext or hashing the ciphertext.
type Request struct {
	Kind                RequestKind     `json:"kind"`
	Username            string          `json:"username"`
	CredentialsUsername string          `json:"credentials_username,omitempty"`
	ApplicationName     string          `json:"application_name,omitempty"`
	Password            string          `json:"password,omitempty"`
	PasswordRepeated    string          `json:"password_repeated,omitempty"`
	OldPassword         string          `json:"old_password,omitempty"`
	PasswordHash        string          `json:"password_hash,omitempty"`
	EncryptionData      *EncryptionData `json:"encryption_data,omitempty"`
}
