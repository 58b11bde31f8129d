package auth

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// KeyPair holds the ES256 signing/verification key pair, both PEM-encoded.
type KeyPair struct {
	private *ecdsa.PrivateKey
	public  *ecdsa.PublicKey
}

func LoadKeyPair(privatePEM, publicPEM string) (*KeyPair, error) {
	privBlock, _ := pem.Decode([]byte(privatePEM))
	if privBlock == nil {
		return nil, errors.New("auth: failed to decode PEM block containing EC private key")
	}
	priv, err := x509.ParseECPrivateKey(privBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse EC private key: %w", err)
	}

	pubBlock, _ := pem.Decode([]byte(publicPEM))
	if pubBlock == nil {
		return nil, errors.New("auth: failed to decode PEM block containing EC public key")
	}
	pubIface, err := x509.ParsePKIXPublicKey(pubBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse EC public key: %w", err)
	}
	pub, ok := pubIface.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("auth: public key is not ECDSA")
	}
	return &KeyPair{private: priv, public: pub}, nil
}

// AccessClaims is the access-token payload. JTI ties the token back to the
// Session row that can revoke it early; SessionID ("sid") is the Session's
// own primary key, letting /auth/logout revoke exactly the session the
// caller is currently using without needing a separate lookup by JTI.
type AccessClaims struct {
	jwt.RegisteredClaims
	OrgID     string `json:"org_id"`
	Role      string `json:"role"`
	SessionID string `json:"sid"`
}

func (k *KeyPair) IssueAccessToken(userID, orgID, role, sessionID, jti string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		OrgID:     orgID,
		Role:      role,
		SessionID: sessionID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	return token.SignedString(k.private)
}

func (k *KeyPair) ParseAccessToken(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, errors.New("auth: unexpected signing method")
		}
		return k.public, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("auth: invalid token")
	}
	return claims, nil
}
