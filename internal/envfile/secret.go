package envfile

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// SecretAlphabet is the character set generated secrets are drawn from.
const SecretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*"

// SecretLength is the length of every generated secret.
const SecretLength = 32

// GenerateSecret returns SecretLength characters drawn uniformly from
// SecretAlphabet.
func GenerateSecret() (string, error) {
	limit := big.NewInt(int64(len(SecretAlphabet)))
	buf := make([]byte, SecretLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		buf[i] = SecretAlphabet[n.Int64()]
	}
	return string(buf), nil
}
