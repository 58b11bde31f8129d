package outbox

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffGrowsExponentiallyAndCaps(t *testing.T) {
	prevMin := time.Duration(0)
	for attempts := 1; attempts <= 5; attempts++ {
		d := Backoff(attempts)
		// delay is base<<attempts plus up to 20% jitter, so the minimum
		// possible delay still strictly grows with attempts.
		floor := 30 * time.Second << uint(attempts)
		assert.GreaterOrEqual(t, d, floor)
		assert.Greater(t, d, prevMin)
		prevMin = floor
	}
}

func TestBackoffRespectsCeiling(t *testing.T) {
	d := Backoff(30)
	// base<<30 overflows well past the 24h ceiling; Backoff must clamp.
	assert.LessOrEqual(t, d, 24*time.Hour+24*time.Hour/5)
	assert.GreaterOrEqual(t, d, 24*time.Hour)
}

func TestBackoffNeverNegativeOrZero(t *testing.T) {
	for attempts := 0; attempts <= 40; attempts++ {
		d := Backoff(attempts)
		assert.Greater(t, d, time.Duration(0))
	}
}

func TestMinInt(t *testing.T) {
	assert.Equal(t, 3, minInt(3, 5))
	assert.Equal(t, 3, minInt(5, 3))
	assert.Equal(t, 3, minInt(3, 3))
}

func TestPermanentMarksErrorAsPermanent(t *testing.T) {
	cause := errors.New("destination returned 404")
	wrapped := Permanent(cause)

	assert.True(t, isPermanent(wrapped))
	assert.True(t, errors.Is(wrapped, cause))
	assert.Equal(t, cause.Error(), wrapped.Error())
}

func TestPermanentOfNilIsNil(t *testing.T) {
	assert.Nil(t, Permanent(nil))
}

func TestIsPermanentFalseForOrdinaryError(t *testing.T) {
	assert.False(t, isPermanent(errors.New("connection reset")))
}

func TestIsPermanentFalseForNil(t *testing.T) {
	assert.False(t, isPermanent(nil))
}
