package apperrors

import "net/http"

// kindToStatus maps each error Kind to the HTTP status it renders as.
var kindToStatus = map[Kind]int{
	KindValidation:      http.StatusUnprocessableEntity,
	KindUnauthenticated: http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindNotFound:        http.StatusNotFound,
	KindConflict:        http.StatusConflict,
	KindPlanLimit:       http.StatusPaymentRequired,
	KindRateLimited:     http.StatusTooManyRequests,
	KindDependency:      http.StatusServiceUnavailable,
	KindIntegration:     http.StatusBadRequest,
	KindInternal:        http.StatusInternalServerError,
}

// HTTPStatus maps an error kind to its stable HTTP status.
func HTTPStatus(kind Kind) int {
	if s, ok := kindToStatus[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// TypeURI returns the machine-readable `type` URI for the Problem-Details
// envelope, derived from the kind and the optional sub-code.
func TypeURI(kind Kind, code string) string {
	base := "https://errors.cleanco.dev/"
	if code != "" {
		return base + code
	}
	switch kind {
	case KindValidation:
		return base + "validation"
	case KindUnauthenticated:
		return base + "unauthenticated"
	case KindForbidden:
		return base + "forbidden"
	case KindNotFound:
		return base + "not-found"
	case KindConflict:
		return base + "conflict"
	case KindPlanLimit:
		return base + "plan-limit"
	case KindRateLimited:
		return base + "rate-limited"
	case KindDependency:
		return base + "dependency-unavailable"
	case KindIntegration:
		return base + "integration-rejected"
	default:
		return base + "internal"
	}
}
