package adminsafety

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cleanco/platform/internal/models"
	"github.com/cleanco/platform/internal/store"
	"github.com/cleanco/platform/internal/tenant"
	"github.com/cleanco/platform/pkg/apperrors"
)

// IdempotencyMiddleware requires an Idempotency-Key header on every
// non-GET admin request. A replayed key with a matching request hash
// short-circuits to the stored response; a replayed key with a different
// hash is a 409 (the caller is reusing a key for a different request,
// which is almost always a client bug worth surfacing loudly).
func IdempotencyMiddleware(idem store.Idempotency, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodGet || c.Request().Method == http.MethodHead {
				return next(c)
			}
			key := c.Request().Header.Get("Idempotency-Key")
			if key == "" {
				return apperrors.Validation("idempotency_key_required", "admin writes require an Idempotency-Key header")
			}

			body, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return err
			}
			c.Request().Body = io.NopCloser(bytes.NewReader(body))
			hash := requestHash(c.Request().Method, c.Request().URL.Path, body)

			tx, err := tenant.Tx(c)
			if err != nil {
				return err
			}
			existing, err := idem.ByKey(tx, key)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.RequestHash != hash {
					return apperrors.Conflict("idempotency_key_reused", "Idempotency-Key was already used for a different request")
				}
				return c.Blob(existing.ResponseStatus, echo.MIMEApplicationJSON, existing.ResponseBody)
			}

			rec := &captureResponse{ResponseWriter: c.Response().Writer}
			c.Response().Writer = rec

			if err := next(c); err != nil {
				return err
			}

			return idem.Create(tx, &models.AdminIdempotency{
				Key:            key,
				OrgID:          tenant.CurrentOrgID(c),
				RequestHash:    hash,
				ResponseStatus: rec.status,
				ResponseBody:   rec.body.Bytes(),
				ExpiresAt:      time.Now().Add(ttl),
			})
		}
	}
}

func requestHash(method, path string, body []byte) string {
	normalized := map[string]interface{}{}
	if len(body) > 0 {
		_ = json.Unmarshal(body, &normalized)
	}
	canon, _ := json.Marshal(normalized)
	sum := sha256.Sum256(append([]byte(method+" "+path+" "), canon...))
	return hex.EncodeToString(sum[:])
}

type captureResponse struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *captureResponse) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *captureResponse) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
