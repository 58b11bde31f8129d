package models

import "time"

type BookingStatus string

const (
	BookingPending          BookingStatus = "PENDING"
	BookingAwaitingDeposit  BookingStatus = "AWAITING_DEPOSIT"
	BookingConfirmed        BookingStatus = "CONFIRMED"
	BookingInProgress       BookingStatus = "IN_PROGRESS"
	BookingDone             BookingStatus = "DONE"
	BookingCancelled        BookingStatus = "CANCELLED"
	BookingExpired          BookingStatus = "EXPIRED"
)

// Terminal reports whether s is one of the FSM's terminal states.
func (s BookingStatus) Terminal() bool {
	return s == BookingDone || s == BookingCancelled || s == BookingExpired
}

// Booking is the central scheduling record. StartsAt/DurationMin define the
// slot; slot exclusivity is enforced per Team across all non-cancelled,
// non-expired bookings.
type Booking struct {
	ID               string        `gorm:"type:char(16);primaryKey" json:"id"`
	OrgID            string        `gorm:"type:char(16);not null;index:idx_booking_org_team_time" json:"org_id"`
	LeadID           *string       `gorm:"type:char(16);index" json:"lead_id,omitempty"`
	TeamID           *string       `gorm:"type:char(16);index:idx_booking_org_team_time" json:"team_id,omitempty"`
	StartsAt         time.Time     `gorm:"not null;index:idx_booking_org_team_time" json:"starts_at"`
	DurationMin      int           `gorm:"not null" json:"duration_min"`
	Status           BookingStatus `gorm:"size:20;not null;index" json:"status"`
	DepositRequired  bool          `gorm:"not null;default:false" json:"deposit_required"`
	DepositAmountCents int64       `gorm:"not null;default:0" json:"deposit_amount_cents"`
	DepositSessionID *string       `gorm:"size:120;index" json:"deposit_session_id,omitempty"`
	DepositPaidAt    *time.Time    `json:"deposit_paid_at,omitempty"`
	LastWebhookEventID *string     `gorm:"size:120" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Booking) TableName() string { return "bookings" }

// EndsAt is the exclusive end of the reserved interval.
func (b *Booking) EndsAt() time.Time {
	return b.StartsAt.Add(time.Duration(b.DurationMin) * time.Minute)
}

// Overlaps reports whether b's interval intersects [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartsAt.Before(end) && start.Before(b.EndsAt())
}
