package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/panayot-marinov/password-vault/internal/common"
)

// Codec rules:
//
//   - Encoding never fails for a valid in-memory envelope and always appends
//     the terminating newline.
//   - Decoding is total at the dispatch boundary: malformed JSON is rejected
//     with an error before dispatch, and a well-formed envelope with an
//     unrecognized kind decodes to the UNKNOWN sentinel instead of failing.

// EncodeRequest serializes req as one newline-terminated JSON line.
func EncodeRequest(req *Request) ([]byte, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return append(b, '\n'), nil
}

// DecodeRequest parses one wire line into a Request. A recognized envelope
// with an unsupported kind yields Kind == RequestUnknown and a nil error.
func DecodeRequest(line []byte) (*Request, error) {
	req := &Request{}
	if err := json.Unmarshal(trimLine(line), req); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if _, ok := supportedRequestKinds[req.Kind]; !ok {
		req.Kind = RequestUnknown
	}
	return req, nil
}

// EncodeResponse serializes resp as one newline-terminated JSON line.
func EncodeResponse(resp *Response) ([]byte, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	return append(b, '\n'), nil
}

// DecodeResponse parses one wire line into a Response. Unlike requests,
// a response with an unrecognized kind is a protocol violation and fails.
func DecodeResponse(line []byte) (*Response, error) {
	resp := &Response{}
	if err := json.Unmarshal(trimLine(line), resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if _, ok := supportedResponseKinds[resp.Kind]; !ok {
		return nil, fmt.Errorf("%w: response kind %q", common.ErrorRequestNotSupported, resp.Kind)
	}
	return resp, nil
}

// EncodeEncryptionData serializes KDF parameters for a response body.
func EncodeEncryptionData(e *EncryptionData) (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encoding encryption data: %w", err)
	}
	return string(b), nil
}

// DecodeEncryptionData parses KDF parameters out of a response body.
func DecodeEncryptionData(body string) (*EncryptionData, error) {
	e := &EncryptionData{}
	if err := json.Unmarshal([]byte(body), e); err != nil {
		return nil, fmt.Errorf("decoding encryption data: %w", err)
	}
	return e, nil
}

func trimLine(line []byte) []byte {
	return []byte(strings.TrimRight(string(line), "\r\n"))
}
