package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateTestKeyPair(t *testing.T) *KeyPair {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	privBytes, err := x509.MarshalECPrivateKey(priv)
	require.NoError(t, err)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: privBytes})

	pubBytes, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})

	kp, err := LoadKeyPair(string(privPEM), string(pubPEM))
	require.NoError(t, err)
	return kp
}

func TestIssueAndParseAccessTokenRoundTrip(t *testing.T) {
	kp := generateTestKeyPair(t)

	raw, err := kp.IssueAccessToken("u1", "o1", "owner", "s1", "jti1", time.Hour)
	require.NoError(t, err)

	claims, err := kp.ParseAccessToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "o1", claims.OrgID)
	assert.Equal(t, "owner", claims.Role)
	assert.Equal(t, "s1", claims.SessionID)
	assert.Equal(t, "jti1", claims.ID)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	kp := generateTestKeyPair(t)

	raw, err := kp.IssueAccessToken("u1", "o1", "owner", "s1", "jti1", -time.Minute)
	require.NoError(t, err)

	_, err = kp.ParseAccessToken(raw)
	assert.Error(t, err)
}

func TestParseAccessTokenRejectsWrongKey(t *testing.T) {
	kp1 := generateTestKeyPair(t)
	kp2 := generateTestKeyPair(t)

	raw, err := kp1.IssueAccessToken("u1", "o1", "owner", "s1", "jti1", time.Hour)
	require.NoError(t, err)

	_, err = kp2.ParseAccessToken(raw)
	assert.Error(t, err)
}

func TestLoadKeyPairRejectsMalformedPEM(t *testing.T) {
	_, err := LoadKeyPair("not pem", "also not pem")
	assert.Error(t, err)
}
