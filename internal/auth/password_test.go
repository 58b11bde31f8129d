package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPasswordRoundTrip(t *testing.T) {
	hash, scheme, err := HashPassword("correct-horse-battery-staple")
	require.NoError(t, err)
	assert.Equal(t, SchemeBcrypt, scheme)

	ok, rehash, rescheme, err := VerifyPassword(scheme, hash, "correct-horse-battery-staple")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, rehash)
	assert.Empty(t, rescheme)
}

func TestVerifyPasswordRejectsWrongPassword(t *testing.T) {
	hash, scheme, err := HashPassword("correct-horse-battery-staple")
	require.NoError(t, err)

	ok, _, _, err := VerifyPassword(scheme, hash, "wrong-password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordLegacySchemeRehashesOnSuccess(t *testing.T) {
	legacyHash, err := EncodeLegacyHash("hunter2", "somesalt")
	require.NoError(t, err)

	ok, rehash, rescheme, err := VerifyPassword(SchemeLegacySalted, legacyHash, "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, rehash)
	assert.Equal(t, SchemeBcrypt, rescheme)

	ok2, _, _, err := VerifyPassword(SchemeBcrypt, rehash, "hunter2")
	require.NoError(t, err)
	assert.True(t, ok2)
}

func TestVerifyPasswordLegacySchemeRejectsWrongPassword(t *testing.T) {
	legacyHash, err := EncodeLegacyHash("hunter2", "somesalt")
	require.NoError(t, err)

	ok, rehash, _, err := VerifyPassword(SchemeLegacySalted, legacyHash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rehash)
}

func TestVerifyPasswordRejectsUnknownScheme(t *testing.T) {
	_, _, _, err := VerifyPassword("made_up_scheme", "whatever", "whatever")
	assert.Error(t, err)
}

func TestVerifyPasswordRejectsMalformedLegacyHash(t *testing.T) {
	_, _, _, err := VerifyPassword(SchemeLegacySalted, "no-delimiter-here", "whatever")
	assert.Error(t, err)
}

func TestGenerateRandomTokenLengthAndUniqueness(t *testing.T) {
	a, err := GenerateRandomToken(32)
	require.NoError(t, err)
	b, err := GenerateRandomToken(32)
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
