package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cleanco/platform/pkg/apperrors"
)

// LocalGateway stores objects on the local filesystem and signs proxy URLs
// under proxyBaseURL — there is no presigned-URL concept for a backend with
// no public endpoint of its own, so this gateway builds the same effect with
// an HMAC over (key, expiry). VerifyProxySignature and Read are the pieces a
// handler serving those URLs needs; the HTTP server in this module registers
// no such route.
type LocalGateway struct {
	rootDir      string
	signingKey   []byte
	proxyBaseURL string
}

func NewLocalGateway(rootDir, signingKey, proxyBaseURL string) *LocalGateway {
	return &LocalGateway{rootDir: rootDir, signingKey: []byte(signingKey), proxyBaseURL: proxyBaseURL}
}

func (g *LocalGateway) pathFor(key string) string {
	return filepath.Join(g.rootDir, filepath.FromSlash(key))
}

func (g *LocalGateway) Put(_ context.Context, key string, data []byte, _ string) error {
	full := g.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("local storage mkdir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o640); err != nil {
		return fmt.Errorf("local storage write: %w", err)
	}
	return nil
}

func (g *LocalGateway) Delete(_ context.Context, key string) error {
	if err := os.Remove(g.pathFor(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("local storage delete: %w", err)
	}
	return nil
}

func (g *LocalGateway) SignDownload(_ context.Context, key string, ttl time.Duration) (string, error) {
	exp := time.Now().Add(ttl).Unix()
	sig := g.sign(key, exp)
	u := url.URL{Path: g.proxyBaseURL + "/" + key}
	q := u.Query()
	q.Set("exp", strconv.FormatInt(exp, 10))
	q.Set("sig", sig)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// SignUpload is not meaningfully different for a backend with no public
// write endpoint: it returns the same signed proxy URL as SignDownload, and
// the signature covers only (key, expiry), not the HTTP method.
func (g *LocalGateway) SignUpload(ctx context.Context, key, _ string, ttl time.Duration) (string, error) {
	return g.SignDownload(ctx, key, ttl)
}

func (g *LocalGateway) sign(key string, exp int64) string {
	mac := hmac.New(sha256.New, g.signingKey)
	mac.Write([]byte(key))
	mac.Write([]byte(strconv.FormatInt(exp, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyProxySignature checks a signed proxy URL's expiry and HMAC, for use
// before the file is read off disk. No handler in this module calls it.
func (g *LocalGateway) VerifyProxySignature(key, sig string, exp int64) error {
	if time.Now().Unix() > exp {
		return apperrors.Forbidden("signed_url_expired", "signed download URL has expired")
	}
	expected := g.sign(key, exp)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return apperrors.Forbidden("signed_url_invalid", "signed download URL signature is invalid")
	}
	return nil
}

func (g *LocalGateway) Read(key string) ([]byte, error) {
	return os.ReadFile(g.pathFor(key))
}
