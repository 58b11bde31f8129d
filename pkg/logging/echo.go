package logging

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/cleanco/platform/internal/tenant"
	"github.com/cleanco/platform/pkg/apperrors"
)

// RequestLogger returns the Echo middleware that logs every request in the
// machine-readable shape §4.13 requires: request_id, org_id, principal,
// event name, with sensitive fields redacted.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	cfg := middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/healthz" || p == "/readyz"
		},
		BeforeNextFunc: func(c echo.Context) {
			c.Set("request-start-time", time.Now())
		},
		HandleError:      true,
		LogLatency:       true,
		LogProtocol:      true,
		LogRemoteIP:      true,
		LogHost:          true,
		LogMethod:        true,
		LogURIPath:       true,
		LogRoutePath:     true,
		LogRequestID:     true,
		LogUserAgent:     true,
		LogStatus:        true,
		LogError:         true,
		LogResponseSize:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("event", "http_request"),
				zap.String("request_id", v.RequestID),
				zap.String("org_id", orgIDFromContext(c)),
				zap.String("principal", principalFromContext(c)),
				zap.String("request.remote_ip", v.RemoteIP),
				zap.String("request.method", v.Method),
				zap.String("request.path", Redact(v.URIPath)),
				zap.String("request.route", v.RoutePath),
				zap.Int("response.status", v.Status),
				zap.Duration("response.latency", v.Latency),
				zap.Int64("response.size", v.ResponseSize),
			}
			if v.Error != nil {
				fields = append(fields, zap.String("error", Redact(v.Error.Error())))
				logger.Error("request failed", fields...)
				return nil
			}
			switch {
			case v.Status >= 500:
				logger.Error("request completed", fields...)
			case v.Status >= 400:
				logger.Warn("request completed", fields...)
			default:
				logger.Info("request completed", fields...)
			}
			return nil
		},
	}
	return middleware.RequestLoggerWithConfig(cfg)
}

func orgIDFromContext(c echo.Context) string {
	return tenant.CurrentOrgID(c)
}

func principalFromContext(c echo.Context) string {
	return string(tenant.CurrentPrincipal(c).Kind)
}

// ProblemErrorHandler installs the Echo error handler that converts any
// error — apperrors.Error, echo.HTTPError, or plain — into an
// RFC 7807 Problem-Details JSON envelope.
func ProblemErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		requestID := c.Response().Header().Get(echo.HeaderXRequestID)

		kind := apperrors.KindInternal
		code := ""
		detail := "an internal error occurred"
		var errs []map[string]string

		if ae, ok := apperrors.Of(err); ok {
			kind = ae.Kind()
			code = ae.Code()
			detail = ae.Message()
		} else if he, ok := err.(*echo.HTTPError); ok {
			detail = httpErrorDetail(he)
			kind = kindFromHTTPStatus(he.Code)
		}

		status := apperrors.HTTPStatus(kind)
		body := map[string]interface{}{
			"type":       apperrors.TypeURI(kind, code),
			"title":      string(kind),
			"status":     status,
			"detail":     detail,
			"request_id": requestID,
			"errors":     errs,
		}

		if status >= 500 {
			logger.Error("handler error", zap.Error(err), zap.String("request_id", requestID))
		}

		if !c.Response().Committed {
			_ = c.JSON(status, body)
		}
	}
}

func httpErrorDetail(he *echo.HTTPError) string {
	if s, ok := he.Message.(string); ok {
		return s
	}
	return "request failed"
}

func kindFromHTTPStatus(status int) apperrors.Kind {
	switch status {
	case 400, 409:
		return apperrors.KindConflict
	case 401:
		return apperrors.KindUnauthenticated
	case 403:
		return apperrors.KindForbidden
	case 404:
		return apperrors.KindNotFound
	case 422:
		return apperrors.KindValidation
	case 429:
		return apperrors.KindRateLimited
	default:
		return apperrors.KindInternal
	}
}
