package adminsafety

import (
	"crypto/subtle"
	"encoding/base32"
	"time"

	"github.com/pquerna/otp/totp"
	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/audit"
	"github.com/cleanco/platform/internal/tenant"
)

// BreakGlass issues short-TTL TOTP-style tokens that bypass the admin IP
// allowlist. A token is scoped to the org that issued it — it never grants
// access to a different tenant even if leaked.
type BreakGlass struct {
	secret string
	ttl    time.Duration
}

func NewBreakGlass(secret string, ttl time.Duration) *BreakGlass {
	return &BreakGlass{secret: secret, ttl: ttl}
}

// totpSecret derives the org-scoped TOTP key. The OTP library decodes its
// secret as base32, so the secret+orgID bytes are base32-encoded first.
func (b *BreakGlass) totpSecret(orgID string) string {
	return base32.StdEncoding.EncodeToString([]byte(b.secret + orgID))
}

// Issue mints a token for orgID, good for the configured TTL, and records
// the issuance in the audit log.
func (b *BreakGlass) Issue(tx *gorm.DB, orgID, issuerID string) (string, error) {
	code, err := totp.GenerateCodeCustom(b.totpSecret(orgID), time.Now(), totp.ValidateOpts{
		Period: uint(b.ttl.Seconds()),
		Digits: 8,
	})
	if err != nil {
		return "", err
	}
	if err := audit.Write(tx, orgID, audit.Event{
		PrincipalKind: tenant.PrincipalAdmin,
		PrincipalID:   issuerID,
		Event:         "admin.break_glass.issued",
	}); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks a presented token against the org-scoped generator,
// allowing one period of clock skew: the current period's code and the
// immediately preceding period's code are both accepted.
func (b *BreakGlass) Verify(orgID, token string) bool {
	if orgID == "" || token == "" {
		return false
	}
	expected, err := totp.GenerateCodeCustom(b.totpSecret(orgID), time.Now(), totp.ValidateOpts{
		Period: uint(b.ttl.Seconds()),
		Digits: 8,
	})
	if err == nil && subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1 {
		return true
	}
	prior, err := totp.GenerateCodeCustom(b.totpSecret(orgID), time.Now().Add(-b.ttl), totp.ValidateOpts{
		Period: uint(b.ttl.Seconds()),
		Digits: 8,
	})
	return err == nil && subtle.ConstantTimeCompare([]byte(prior), []byte(token)) == 1
}
