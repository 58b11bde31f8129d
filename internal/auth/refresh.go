package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// RefreshTokenBytes is the size of the opaque refresh token before
// encoding. 32 random bytes gives 256 bits of entropy, comfortably beyond
// what an offline guesser could exhaust before RefreshExpiresAt.
const RefreshTokenBytes = 32

// NewRefreshToken returns a fresh opaque token and the hash that should be
// persisted in its place. The raw token is returned to the caller exactly
// once and is not recoverable from the hash.
func NewRefreshToken() (raw string, hash string, err error) {
	raw, err = GenerateRandomToken(RefreshTokenBytes)
	if err != nil {
		return "", "", err
	}
	return raw, HashRefreshToken(raw), nil
}

func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
