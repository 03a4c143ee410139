package registry

import (
	"crypto/rand"
	"math/big"
)

const (
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	idLength   = 6
)

// IDFunc produces a candidate site id. Uniqueness is checked by the Registry.
type IDFunc func() (string, error)

var alphabetSize = big.NewInt(int64(len(idAlphabet)))

// NewID returns six random base-36 characters (about 31 bits of entropy).
func NewID() (string, error) {
	b := make([]byte, idLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		b[i] = idAlphabet[n.Int64()]
	}
	return string(b), nil
}
