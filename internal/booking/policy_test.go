package booking

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"

	"github.com/cleanco/platform/internal/models"
)

func TestDecideDepositPolicy(t *testing.T) {
	weekday := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC) // Tuesday
	saturday := time.Date(2026, time.March, 7, 10, 0, 0, 0, time.UTC)

	t.Run("weekday standard clean requires no deposit", func(t *testing.T) {
		got := DecideDepositPolicy(nil, weekday)
		assert.False(t, got.Required)
		assert.Zero(t, got.AmountCents)
	})

	t.Run("weekend slot requires a deposit", func(t *testing.T) {
		got := DecideDepositPolicy(nil, saturday)
		assert.True(t, got.Required)
		assert.Equal(t, DefaultDepositAmountCents, got.AmountCents)
	})

	t.Run("deep clean on a weekday requires a deposit", func(t *testing.T) {
		inputs, err := json.Marshal(map[string]string{"service_type": "Deep"})
		assert.NoError(t, err)
		lead := &models.Lead{StructuredInputs: datatypes.JSON(inputs)}

		got := DecideDepositPolicy(lead, weekday)
		assert.True(t, got.Required)
		assert.Equal(t, DefaultDepositAmountCents, got.AmountCents)
	})

	t.Run("malformed structured inputs fall back to no deposit on a weekday", func(t *testing.T) {
		lead := &models.Lead{StructuredInputs: datatypes.JSON(`not json`)}
		got := DecideDepositPolicy(lead, weekday)
		assert.False(t, got.Required)
	})
}

func TestBookingOverlaps(t *testing.T) {
	start := time.Date(2026, time.March, 3, 15, 0, 0, 0, time.UTC)
	b := &models.Booking{StartsAt: start, DurationMin: 120}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"identical interval overlaps", start, start.Add(2 * time.Hour), true},
		{"interval fully inside overlaps", start.Add(30 * time.Minute), start.Add(time.Hour), true},
		{"adjacent interval starting at EndsAt does not overlap", start.Add(2 * time.Hour), start.Add(3 * time.Hour), false},
		{"adjacent interval ending at StartsAt does not overlap", start.Add(-2 * time.Hour), start, false},
		{"interval straddling the start overlaps", start.Add(-time.Hour), start.Add(time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Overlaps(tt.start, tt.end))
		})
	}
}

func TestBookingStatusTerminal(t *testing.T) {
	terminal := []models.BookingStatus{models.BookingDone, models.BookingCancelled, models.BookingExpired}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), "%s should be terminal", s)
	}

	nonTerminal := []models.BookingStatus{models.BookingPending, models.BookingAwaitingDeposit, models.BookingConfirmed, models.BookingInProgress}
	for _, s := range nonTerminal {
		assert.False(t, s.Terminal(), "%s should not be terminal", s)
	}
}
