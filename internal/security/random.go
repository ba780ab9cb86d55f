package security

import (
	"crypto/rand"
	"math/big"
)

const (
	keyLength      = 20
	passwordLength = 10

	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// RandomKey returns an activation or reset key.
func RandomKey() string {
	return randomString(keyLength)
}

// RandomPassword returns an initial password for admin-created accounts.
func RandomPassword() string {
	return randomString(passwordLength)
}

func randomString(n int) string {
	max := big.NewInt(int64(len(alphanumeric)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand unavailable: " + err.Error())
		}
		b[i] = alphanumeric[idx.Int64()]
	}
	return string(b)
}
