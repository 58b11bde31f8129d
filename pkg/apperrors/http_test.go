package apperrors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapsEveryKnownKind(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusUnprocessableEntity},
		{KindUnauthenticated, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindPlanLimit, http.StatusPaymentRequired},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindDependency, http.StatusServiceUnavailable},
		{KindIntegration, http.StatusBadRequest},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.kind), "kind %s", tt.kind)
	}
}

func TestHTTPStatusFallsBackToInternalServerError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Kind("NOT_A_REAL_KIND")))
}

func TestTypeURIPrefersExplicitCode(t *testing.T) {
	assert.Equal(t, "https://errors.cleanco.dev/slot-conflict", TypeURI(KindConflict, "slot-conflict"))
}

func TestTypeURIFallsBackToKind(t *testing.T) {
	assert.Equal(t, "https://errors.cleanco.dev/not-found", TypeURI(KindNotFound, ""))
	assert.Equal(t, "https://errors.cleanco.dev/internal", TypeURI(Kind("UNKNOWN"), ""))
}

func TestErrorConstructorsSetExpectedKind(t *testing.T) {
	assert.Equal(t, KindValidation, Validation("x", "y").Kind())
	assert.Equal(t, KindForbidden, Forbidden("x", "y").Kind())
	assert.Equal(t, KindNotFound, NotFound("x", "y").Kind())
	assert.Equal(t, KindConflict, Conflict("x", "y").Kind())
	assert.Equal(t, KindPlanLimit, PlanLimit("x", "y").Kind())
}

func TestDependencyWrapsCause(t *testing.T) {
	cause := New("upstream exploded")
	err := Dependency("payment_unavailable", "could not reach payment provider", cause)
	assert.Equal(t, KindDependency, err.Kind())
	assert.ErrorIs(t, err, cause)
}
