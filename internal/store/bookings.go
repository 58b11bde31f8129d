package store

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cleanco/platform/internal/models"
)

type Bookings struct{}

func (Bookings) ByID(tx *gorm.DB, orgID, id string) (*models.Booking, error) {
	var b models.Booking
	err := tx.Where("org_id = ? AND id = ?", orgID, id).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &b, err
}

func (Bookings) ByDepositSessionID(tx *gorm.DB, sessionID string) (*models.Booking, error) {
	var b models.Booking
	err := tx.Where("deposit_session_id = ?", sessionID).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &b, err
}

func (Bookings) Create(tx *gorm.DB, b *models.Booking) error {
	return tx.Create(b).Error
}

// CountActive returns the number of bookings for orgID that have not
// reached a terminal status, for plan-quota enforcement.
func (Bookings) CountActive(tx *gorm.DB, orgID string) (int64, error) {
	var count int64
	err := tx.Model(&models.Booking{}).
		Where("org_id = ? AND status NOT IN ?", orgID,
			[]models.BookingStatus{models.BookingDone, models.BookingCancelled, models.BookingExpired}).
		Count(&count).Error
	return count, err
}

// LockTeamWindow takes a row-level lock on every non-cancelled, non-expired
// booking for teamID that could possibly overlap [start, end). This alone
// only serializes against bookings that already exist in the window; the
// caller must also hold Teams.LockByID for teamID so a team with no prior
// booking in the window can't have two concurrent creates both pass the
// overlap check. Must run inside the request transaction.
func (Bookings) LockTeamWindow(tx *gorm.DB, orgID, teamID string, start, end time.Time) ([]models.Booking, error) {
	var existing []models.Booking
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("org_id = ? AND team_id = ? AND status NOT IN ? AND starts_at < ?",
			orgID, teamID, []models.BookingStatus{models.BookingCancelled, models.BookingExpired}, end).
		Find(&existing).Error
	return existing, err
}

func (Bookings) UpdateStatus(tx *gorm.DB, orgID, id string, from, to models.BookingStatus) (int64, error) {
	res := tx.Model(&models.Booking{}).
		Where("org_id = ? AND id = ? AND status = ?", orgID, id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

func (Bookings) MarkDepositPaid(tx *gorm.DB, orgID, id string, eventID string, paidAt time.Time) (int64, error) {
	res := tx.Model(&models.Booking{}).
		Where("org_id = ? AND id = ? AND status = ?", orgID, id, models.BookingAwaitingDeposit).
		Updates(map[string]interface{}{
			"status":                models.BookingConfirmed,
			"deposit_paid_at":       paidAt,
			"last_webhook_event_id": eventID,
		})
	return res.RowsAffected, res.Error
}

// ListByTeamRange is the read-only counterpart to LockTeamWindow, used by
// the public slots endpoint to show existing reservations without taking
// a row lock outside of a booking transaction.
func (Bookings) ListByTeamRange(tx *gorm.DB, orgID, teamID string, from, to time.Time) ([]models.Booking, error) {
	var existing []models.Booking
	err := tx.Where("org_id = ? AND team_id = ? AND status NOT IN ? AND starts_at >= ? AND starts_at < ?",
		orgID, teamID, []models.BookingStatus{models.BookingCancelled, models.BookingExpired}, from, to).
		Order("starts_at").
		Find(&existing).Error
	return existing, err
}

func (Bookings) DueForExpiry(tx *gorm.DB, cutoff time.Time, limit int) ([]models.Booking, error) {
	var due []models.Booking
	err := tx.Where("status = ? AND created_at < ?", models.BookingAwaitingDeposit, cutoff).
		Limit(limit).Find(&due).Error
	return due, err
}

// ByLead lists every booking tied to a lead, used by the retention sweep
// to find photos that must be erased alongside the lead itself.
func (Bookings) ByLead(tx *gorm.DB, orgID, leadID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := tx.Where("org_id = ? AND lead_id = ?", orgID, leadID).Find(&bookings).Error
	return bookings, err
}

// DueForReminder returns CONFIRMED bookings starting within the next
// window, for the email_reminders job to notify the customer ahead of
// their appointment. Dedupe against a double-send is left to the outbox's
// (org, dedupe_key) uniqueness rather than a flag on the row.
func (Bookings) DueForReminder(tx *gorm.DB, from, to time.Time, limit int) ([]models.Booking, error) {
	var due []models.Booking
	err := tx.Where("status = ? AND starts_at >= ? AND starts_at < ?", models.BookingConfirmed, from, to).
		Limit(limit).Find(&due).Error
	return due, err
}
