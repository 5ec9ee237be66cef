package common

import (
	"crypto/rand"
	"encoding/hex"
)

// MakeRandHexString returns a cryptographically random hex string encoding
// size random bytes (so the result is 2*size characters long).
func MakeRandHexString(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
