package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"

	"github.com/cleanco/platform/pkg/apperrors"
)

// CDNGateway fronts objects with a signed-redirect image CDN. Put/Delete
// still go to the origin bucket this CDN is configured to pull from — this
// gateway only changes how download/upload URLs are minted, not where the
// bytes live.
type CDNGateway struct {
	origin     Gateway
	baseURL    string
	signingKey []byte
}

func NewCDNGateway(origin Gateway, baseURL, signingKey string) *CDNGateway {
	return &CDNGateway{origin: origin, baseURL: baseURL, signingKey: []byte(signingKey)}
}

func (g *CDNGateway) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return g.origin.Put(ctx, key, data, contentType)
}

func (g *CDNGateway) Delete(ctx context.Context, key string) error {
	return g.origin.Delete(ctx, key)
}

func (g *CDNGateway) SignDownload(_ context.Context, key string, ttl time.Duration) (string, error) {
	exp := time.Now().Add(ttl).Unix()
	sig := g.sign(key, exp)
	u, err := url.Parse(g.baseURL + "/" + key)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("exp", strconv.FormatInt(exp, 10))
	q.Set("sig", sig)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// SignUpload passes through to the origin — the CDN only ever fronts
// reads, so an upload URL still targets the origin's presigned endpoint.
func (g *CDNGateway) SignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return g.origin.SignUpload(ctx, key, contentType, ttl)
}

func (g *CDNGateway) sign(key string, exp int64) string {
	mac := hmac.New(sha256.New, g.signingKey)
	mac.Write([]byte(key))
	mac.Write([]byte(strconv.FormatInt(exp, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *CDNGateway) VerifyRedirectSignature(key, sig string, exp int64) error {
	if time.Now().Unix() > exp {
		return apperrors.Forbidden("signed_url_expired", "signed CDN redirect has expired")
	}
	expected := g.sign(key, exp)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return apperrors.Forbidden("signed_url_invalid", "signed CDN redirect signature is invalid")
	}
	return nil
}
