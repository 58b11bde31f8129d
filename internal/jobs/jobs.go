// Package jobs holds the bodies of the scheduler loops: outbox delivery,
// booking expiry sweeping, pre-appointment reminders, and data retention.
// Each is a plain scheduler.JobFunc, registered with a Supervisor by
// cmd/server.
package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/booking"
	"github.com/cleanco/platform/internal/config"
	"github.com/cleanco/platform/internal/outbox"
	"github.com/cleanco/platform/internal/photos"
	"github.com/cleanco/platform/internal/scheduler"
	"github.com/cleanco/platform/internal/store"
)

// reminderWindow is how far ahead of a booking's start time the
// email_reminders job notifies the customer. One day ahead matches a
// typical residential cleaning appointment reminder cadence.
const reminderWindow = 24 * time.Hour

const defaultBatchLimit = 200

var (
	bookings store.Bookings
	leads    store.Leads
	ph       store.Photos
)

// OutboxDrain drains one batch of due outbox events. The drainer itself
// owns claim/lease/backoff; this just adapts Drainer.DrainOnce to the
// JobFunc shape the supervisor expects.
func OutboxDrain(d *outbox.Drainer, batchSize int) scheduler.JobFunc {
	return func(ctx context.Context, _ *gorm.DB) error {
		_, _, _, err := d.DrainOnce(ctx, batchSize)
		return err
	}
}

// BookingSweep expires AWAITING_DEPOSIT bookings whose deposit window has
// lapsed, releasing their slot.
func BookingSweep(ttl time.Duration) scheduler.JobFunc {
	return func(_ context.Context, tx *gorm.DB) error {
		_, err := booking.SweepExpired(tx, ttl, defaultBatchLimit)
		return err
	}
}

// EmailReminders enqueues a reminder email for every CONFIRMED booking
// starting within reminderWindow. Re-running the scan before the window
// has elapsed is safe: the outbox's (org, dedupe_key) uniqueness makes a
// repeat enqueue for the same booking a no-op rather than a duplicate send.
func EmailReminders() scheduler.JobFunc {
	return func(_ context.Context, tx *gorm.DB) error {
		now := time.Now()
		due, err := bookings.DueForReminder(tx, now, now.Add(reminderWindow), defaultBatchLimit)
		if err != nil {
			return err
		}
		for _, b := range due {
			to := ""
			if b.LeadID != nil {
				lead, err := leads.ByID(tx, b.OrgID, *b.LeadID)
				if err != nil {
					return err
				}
				if lead != nil {
					to = lead.ContactEmail
				}
			}
			if to == "" {
				continue
			}
			if err := outbox.Enqueue(tx, b.OrgID, outbox.KindEmail, "booking_reminder:"+b.ID, outbox.EmailPayload{
				To:       to,
				Subject:  "booking.reminder",
				HTMLBody: "reminder: your appointment " + b.ID + " starts at " + b.StartsAt.Format(time.RFC3339),
			}); err != nil {
				return err
			}
		}
		return nil
	}
}

// RetentionCleanup erases contact PII on leads that have sat in a
// terminal status past the configured retention window, and cascades the
// erasure to every photo attached to their bookings by routing through the
// same row-delete-first + outbox path an admin-initiated delete uses: the
// photo row is gone before this transaction commits, not just flagged.
func RetentionCleanup(cfg *config.RetentionConfig, log *zap.Logger) scheduler.JobFunc {
	return func(_ context.Context, tx *gorm.DB) error {
		cutoff := time.Now().Add(-cfg.LeadRetention)
		due, err := leads.DueForRetention(tx, cutoff, defaultBatchLimit)
		if err != nil {
			return err
		}
		for _, lead := range due {
			relatedBookings, err := bookings.ByLead(tx, lead.OrgID, lead.ID)
			if err != nil {
				return err
			}
			for _, b := range relatedBookings {
				photosForBooking, err := ph.ByBooking(tx, lead.OrgID, b.ID)
				if err != nil {
					return err
				}
				for _, p := range photosForBooking {
					if err := photos.Delete(tx, lead.OrgID, p.ID); err != nil {
						return err
					}
				}
			}
			if err := leads.Redact(tx, lead.OrgID, lead.ID); err != nil {
				return err
			}
		}
		if len(due) > 0 {
			log.Info("retention cleanup erased leads", zap.Int("count", len(due)))
		}
		return nil
	}
}
