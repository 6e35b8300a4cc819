package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/panayot-marinov/password-vault/internal/common"
)

// passwordCharset covers the characters used by generated passwords.
const passwordCharset = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789" +
	"!@#$%^&*()-_=+[]{};:,.<>?"

// GeneratePassword returns a random password of the given length drawn
// uniformly from letters, digits and punctuation.
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("%w: non-positive password length", common.ErrorCrypto)
	}

	out := make([]byte, length)
	max := big.NewInt(int64(len(passwordCharset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordCharset[n.Int64()]
	}
	return string(out), nil
}
