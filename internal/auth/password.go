package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password hash schemes. SchemeBcrypt is current: bcrypt already salts
// internally, so the stored hash is self-contained. SchemeLegacySalted is
// the scheme carried over from the prior generation of the service, which
// concatenated an explicit salt before hashing; it is still verified but
// never used to create new hashes, and a successful legacy verify always
// triggers a rehash into SchemeBcrypt.
const (
	SchemeBcrypt       = "bcrypt"
	SchemeLegacySalted = "legacy_salted_bcrypt"
)

// HashPassword produces a SchemeBcrypt hash for a new or changed password.
func HashPassword(password string) (hash string, scheme string, err error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	return string(h), SchemeBcrypt, nil
}

// VerifyPassword checks password against hash under the given scheme. ok
// reports whether the password matched; rehashedHash and rehashedScheme are
// non-empty when the caller should persist a new hash+scheme because the
// verification used a scheme that's no longer current.
func VerifyPassword(scheme, hash, password string) (ok bool, rehashedHash string, rehashedScheme string, err error) {
	switch scheme {
	case SchemeBcrypt:
		err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		if err != nil {
			return false, "", "", nil
		}
		return true, "", "", nil

	case SchemeLegacySalted:
		salt, legacyHash, splitErr := splitLegacyHash(hash)
		if splitErr != nil {
			return false, "", "", splitErr
		}
		if err := bcrypt.CompareHashAndPassword([]byte(legacyHash), []byte(password+salt)); err != nil {
			return false, "", "", nil
		}
		newHash, newScheme, err := HashPassword(password)
		if err != nil {
			return true, "", "", err
		}
		return true, newHash, newScheme, nil

	default:
		return false, "", "", errors.New("auth: unknown password hash scheme " + scheme)
	}
}

// EncodeLegacyHash is a test helper mirroring the prior generation's
// storage format: salt and bcrypt hash joined by "$". The bcrypt hash itself
// contains "$", so the split is made at the first "$" and the salt must not
// contain one.
func EncodeLegacyHash(password, salt string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password+salt), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return salt + "$" + string(h), nil
}

func splitLegacyHash(stored string) (salt, hash string, err error) {
	parts := strings.SplitN(stored, "$", 2)
	if len(parts) != 2 {
		return "", "", errors.New("auth: malformed legacy password hash")
	}
	return parts[0], parts[1], nil
}

// GenerateRandomToken returns a URL-safe base64 token of n random bytes,
// used for magic links, refresh tokens, and invoice public tokens.
func GenerateRandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
