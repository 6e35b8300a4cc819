package cryptox

import (
	"crypto/aes"
	"encoding/base64"
	"fmt"

	"github.com/panayot-marinov/password-vault/internal/common"
)

// Encrypt encrypts plaintext with key and returns base64 ciphertext.
//
// The cipher runs AES block by block in ECB fashion with PKCS#7 padding, so
// encryption is deterministic and needs no IV. Equal plaintexts under the
// same key produce equal ciphertexts; a weakness the stored-credential
// format currently depends on (the client must be able to decrypt with the
// key alone).
func Encrypt(plaintext []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorCrypto, err)
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())

	ciphertext := make([]byte, len(padded))
	for i := 0; i < len(padded); i += block.BlockSize() {
		block.Encrypt(ciphertext[i:i+block.BlockSize()], padded[i:i+block.BlockSize()])
	}

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. It fails with an ErrorCrypto-wrapped error on a
// malformed key, invalid base64, a ciphertext that is not a whole number of
// blocks, or corrupt padding.
func Decrypt(ciphertextB64 string, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorCrypto, err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", common.ErrorCrypto, err)
	}

	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a multiple of the block size", common.ErrorCrypto, len(ciphertext))
	}

	plaintext := make([]byte, len(ciphertext))
	for i := 0; i < len(ciphertext); i += block.BlockSize() {
		block.Decrypt(plaintext[i:i+block.BlockSize()], ciphertext[i:i+block.BlockSize()])
	}

	return pkcs7Unpad(plaintext, block.BlockSize())
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, fmt.Errorf("%w: corrupt padding", common.ErrorCrypto)
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("%w: corrupt padding", common.ErrorCrypto)
		}
	}
	return data[:len(data)-padLen], nil
}
