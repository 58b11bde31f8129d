package adminsafety

import (
	"encoding/base32"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakGlassVerifyAcceptsCurrentCode(t *testing.T) {
	b := NewBreakGlass("a-shared-secret", time.Minute)

	code, err := totp.GenerateCodeCustom(base32.StdEncoding.EncodeToString([]byte("a-shared-secret"+"org1")), time.Now(), totp.ValidateOpts{
		Period: uint(time.Minute.Seconds()),
		Digits: 8,
	})
	require.NoError(t, err)

	assert.True(t, b.Verify("org1", code))
}

func TestBreakGlassVerifyAcceptsOnePeriodOfClockSkew(t *testing.T) {
	b := NewBreakGlass("a-shared-secret", time.Minute)

	prior, err := totp.GenerateCodeCustom(base32.StdEncoding.EncodeToString([]byte("a-shared-secret"+"org1")), time.Now().Add(-time.Minute), totp.ValidateOpts{
		Period: uint(time.Minute.Seconds()),
		Digits: 8,
	})
	require.NoError(t, err)

	assert.True(t, b.Verify("org1", prior))
}

func TestBreakGlassVerifyRejectsWrongOrg(t *testing.T) {
	b := NewBreakGlass("a-shared-secret", time.Minute)

	code, err := totp.GenerateCodeCustom(base32.StdEncoding.EncodeToString([]byte("a-shared-secret"+"org1")), time.Now(), totp.ValidateOpts{
		Period: uint(time.Minute.Seconds()),
		Digits: 8,
	})
	require.NoError(t, err)

	assert.False(t, b.Verify("org2", code))
}

func TestBreakGlassVerifyRejectsEmptyInputs(t *testing.T) {
	b := NewBreakGlass("a-shared-secret", time.Minute)
	assert.False(t, b.Verify("", "12345678"))
	assert.False(t, b.Verify("org1", ""))
}

func TestBreakGlassVerifyRejectsGarbageToken(t *testing.T) {
	b := NewBreakGlass("a-shared-secret", time.Minute)
	assert.False(t, b.Verify("org1", "00000000"))
}
