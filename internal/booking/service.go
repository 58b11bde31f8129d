package booking

import (
	"time"

	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/authz"
	"github.com/cleanco/platform/internal/metrics"
	"github.com/cleanco/platform/internal/models"
	"github.com/cleanco/platform/internal/outbox"
	"github.com/cleanco/platform/internal/store"
	"github.com/cleanco/platform/pkg/apperrors"
	"github.com/cleanco/platform/pkg/ids"
)

var (
	bookings  store.Bookings
	referrals store.ReferralCredits
	leads     store.Leads
	orgs      store.Orgs
	teams     store.Teams
)

// ReferralCreditAmountCents is the flat bonus owed to a referring lead when
// the lead it referred has a booking confirmed. A flat amount keeps the
// pipeline simple until a plan-tiered schedule is needed.
const ReferralCreditAmountCents = 2000

// DepositPolicy is a pure predicate over the booking context, decided once
// at creation time and stored on the booking so a later policy change
// never retroactively alters bookings already in flight.
type DepositPolicy struct {
	Required    bool
	AmountCents int64
}

// CreateInput is everything the caller supplies; TeamID/StartsAt/DurationMin
// define the slot being reserved.
type CreateInput struct {
	LeadID      *string
	TeamID      string
	StartsAt    time.Time
	DurationMin int
	Deposit     DepositPolicy
}

// Create reserves a slot for TeamID, failing with a CONFLICT "slot-conflict"
// error if it
// intersects any non-cancelled, non-expired booking of that team. Must run
// inside the request transaction: the team row lock taken here, ahead of
// the overlap check, is what makes the reservation race-free even when the
// team has no existing booking in the window for LockTeamWindow to lock.
func Create(tx *gorm.DB, orgID string, in CreateInput) (*models.Booking, error) {
	org, err := orgs.ByID(tx, orgID)
	if err != nil {
		return nil, err
	}
	if org != nil {
		active, err := bookings.CountActive(tx, orgID)
		if err != nil {
			return nil, err
		}
		quota := authz.QuotaForPlan(org.Plan)
		if err := authz.CheckCount(quota.MaxActiveBookings, int(active), "active_bookings"); err != nil {
			return nil, err
		}
	}

	team, err := teams.LockByID(tx, orgID, in.TeamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, apperrors.NotFound("team_not_found", "team not found")
	}

	end := in.StartsAt.Add(time.Duration(in.DurationMin) * time.Minute)

	existing, err := bookings.LockTeamWindow(tx, orgID, in.TeamID, in.StartsAt, end)
	if err != nil {
		return nil, err
	}
	for _, other := range existing {
		if other.Overlaps(in.StartsAt, end) {
			return nil, apperrors.Conflict("slot-conflict", "the requested time slot is no longer available for this team")
		}
	}

	id, err := ids.New(ids.PrefixBooking, 16)
	if err != nil {
		return nil, err
	}

	status := models.BookingConfirmed
	if in.Deposit.Required {
		status = models.BookingAwaitingDeposit
	}

	b := &models.Booking{
		ID:                 id,
		OrgID:              orgID,
		LeadID:             in.LeadID,
		TeamID:             &in.TeamID,
		StartsAt:           in.StartsAt,
		DurationMin:        in.DurationMin,
		Status:             status,
		DepositRequired:    in.Deposit.Required,
		DepositAmountCents: in.Deposit.AmountCents,
	}
	if err := bookings.Create(tx, b); err != nil {
		return nil, err
	}
	metrics.BookingLifecycleTotal.WithLabelValues("created").Inc()

	eventKind := "booking.confirmed"
	if in.Deposit.Required {
		eventKind = "booking.pending"
	}
	if err := outbox.Enqueue(tx, orgID, outbox.KindEmail, "", emailForBooking(tx, orgID, eventKind, b)); err != nil {
		return nil, err
	}

	if in.LeadID != nil {
		if err := createReferralCreditIfReferred(tx, orgID, *in.LeadID, b.ID); err != nil {
			return nil, err
		}
		if !in.Deposit.Required {
			if err := resolveReferralOnConfirm(tx, orgID, *in.LeadID, b.ID); err != nil {
				return nil, err
			}
		}
	}

	return b, nil
}

// createReferralCreditIfReferred opens a PENDING ReferralCredit the moment
// a referred lead's booking exists, so the later CONFIRMED/CANCELLED
// transition has something to resolve regardless of whether a deposit
// checkout sits in between.
func createReferralCreditIfReferred(tx *gorm.DB, orgID, leadID, bookingID string) error {
	lead, err := leads.ByID(tx, orgID, leadID)
	if err != nil || lead == nil || lead.ReferredByLeadID == nil {
		return err
	}
	id, err := ids.New(ids.PrefixReferral, 16)
	if err != nil {
		return err
	}
	return referrals.Create(tx, &models.ReferralCredit{
		ID:                id,
		OrgID:             orgID,
		ReferringLeadID:   *lead.ReferredByLeadID,
		ReferredLeadID:    leadID,
		ReferredBookingID: bookingID,
		AmountCents:       ReferralCreditAmountCents,
		Status:            models.ReferralCreditPending,
	})
}

// StripeSessionAssigned records the checkout session id a caller started
// for a booking awaiting deposit, so the webhook handler can correlate an
// incoming payment event back to the booking by session id alone.
func StripeSessionAssigned(tx *gorm.DB, orgID, bookingID, sessionID string) error {
	return tx.Model(&models.Booking{}).
		Where("org_id = ? AND id = ? AND status = ?", orgID, bookingID, models.BookingAwaitingDeposit).
		Update("deposit_session_id", sessionID).Error
}

// Start transitions a CONFIRMED booking to IN_PROGRESS.
func Start(tx *gorm.DB, orgID, id string) error {
	rows, err := bookings.UpdateStatus(tx, orgID, id, models.BookingConfirmed, models.BookingInProgress)
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.Conflict("invalid_transition", "booking is not in a state that can be started")
	}
	metrics.BookingLifecycleTotal.WithLabelValues("started").Inc()
	return nil
}

// Complete transitions an IN_PROGRESS booking to DONE.
func Complete(tx *gorm.DB, orgID, id string) error {
	rows, err := bookings.UpdateStatus(tx, orgID, id, models.BookingInProgress, models.BookingDone)
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.Conflict("invalid_transition", "booking is not in a state that can be completed")
	}
	metrics.BookingLifecycleTotal.WithLabelValues("completed").Inc()
	return nil
}

// Cancel transitions a CONFIRMED or AWAITING_DEPOSIT booking to CANCELLED,
// voiding any pending referral credit tied to it in the same transaction.
func Cancel(tx *gorm.DB, orgID, id string) error {
	b, err := bookings.ByID(tx, orgID, id)
	if err != nil {
		return err
	}
	if b == nil {
		return apperrors.NotFound("booking_not_found", "booking not found")
	}
	if b.Status != models.BookingConfirmed && b.Status != models.BookingAwaitingDeposit {
		return apperrors.Conflict("invalid_transition", "booking is not in a state that can be cancelled")
	}

	rows, err := bookings.UpdateStatus(tx, orgID, id, b.Status, models.BookingCancelled)
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.Conflict("invalid_transition", "booking is not in a state that can be cancelled")
	}

	if err := voidReferralCredit(tx, orgID, id); err != nil {
		return err
	}
	metrics.BookingLifecycleTotal.WithLabelValues("cancelled").Inc()
	return outbox.Enqueue(tx, orgID, outbox.KindEmail, "", emailForBooking(tx, orgID, "booking.cancelled", b))
}

// Reschedule moves a non-terminal booking to a new slot on the same team,
// taking the same row lock Create does so the new interval is checked
// against other bookings race-free. The booking's status and deposit state
// are left unchanged; only the interval moves.
func Reschedule(tx *gorm.DB, orgID, id string, startsAt time.Time, durationMin int) (*models.Booking, error) {
	b, err := bookings.ByID(tx, orgID, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperrors.NotFound("booking_not_found", "booking not found")
	}
	if b.Status.Terminal() {
		return nil, apperrors.Conflict("invalid_transition", "a terminal booking cannot be rescheduled")
	}
	if b.TeamID == nil {
		return nil, apperrors.Conflict("invalid_transition", "booking has no team to reschedule against")
	}

	if _, err := teams.LockByID(tx, orgID, *b.TeamID); err != nil {
		return nil, err
	}

	end := startsAt.Add(time.Duration(durationMin) * time.Minute)
	existing, err := bookings.LockTeamWindow(tx, orgID, *b.TeamID, startsAt, end)
	if err != nil {
		return nil, err
	}
	for _, other := range existing {
		if other.ID != b.ID && other.Overlaps(startsAt, end) {
			return nil, apperrors.Conflict("slot-conflict", "the requested time slot is no longer available for this team")
		}
	}

	if err := tx.Model(&models.Booking{}).
		Where("org_id = ? AND id = ?", orgID, id).
		Updates(map[string]interface{}{"starts_at": startsAt, "duration_min": durationMin}).Error; err != nil {
		return nil, err
	}
	b.StartsAt = startsAt
	b.DurationMin = durationMin
	return b, nil
}

// SweepExpired moves AWAITING_DEPOSIT bookings past their TTL to EXPIRED,
// releasing their slot for re-booking. Called by the scheduler's
// booking_sweep job.
func SweepExpired(tx *gorm.DB, ttl time.Duration, limit int) (int, error) {
	cutoff := time.Now().Add(-ttl)
	due, err := bookings.DueForExpiry(tx, cutoff, limit)
	if err != nil {
		return 0, err
	}
	var expired int
	for _, b := range due {
		rows, err := bookings.UpdateStatus(tx, b.OrgID, b.ID, models.BookingAwaitingDeposit, models.BookingExpired)
		if err != nil {
			return expired, err
		}
		if rows == 0 {
			continue
		}
		expired++
		metrics.BookingLifecycleTotal.WithLabelValues("expired").Inc()
		if err := outbox.Enqueue(tx, b.OrgID, outbox.KindEmail, "", emailForBooking(tx, b.OrgID, "booking.expired", &b)); err != nil {
			return expired, err
		}
	}
	return expired, nil
}

func resolveReferralOnConfirm(tx *gorm.DB, orgID, leadID, bookingID string) error {
	lead, err := leads.ByID(tx, orgID, leadID)
	if err != nil || lead == nil || lead.ReferredByLeadID == nil {
		return err
	}
	credit, err := referrals.ByReferredBooking(tx, orgID, bookingID)
	if err != nil || credit == nil {
		return err
	}
	_, err = referrals.Resolve(tx, orgID, credit.ID, models.ReferralCreditGranted, time.Now())
	return err
}

func voidReferralCredit(tx *gorm.DB, orgID, bookingID string) error {
	credit, err := referrals.ByReferredBooking(tx, orgID, bookingID)
	if err != nil || credit == nil {
		return err
	}
	_, err = referrals.Resolve(tx, orgID, credit.ID, models.ReferralCreditVoided, time.Now())
	return err
}

// emailForBooking resolves the recipient from the booking's lead, if any —
// a booking created without a lead (e.g. a walk-in entered directly by
// staff), or whose lead has no email, yields a payload with To == "".
// Callers enqueue the payload either way; the email handler fails an event
// without a recipient, so such an event is retried until it is dead-lettered.
func emailForBooking(tx *gorm.DB, orgID, kind string, b *models.Booking) outbox.EmailPayload {
	to := ""
	if b.LeadID != nil {
		if lead, err := leads.ByID(tx, orgID, *b.LeadID); err == nil && lead != nil {
			to = lead.ContactEmail
		}
	}
	return outbox.EmailPayload{
		To:       to,
		Subject:  kind,
		HTMLBody: "booking " + b.ID + " -> " + string(b.Status),
	}
}
