package store

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cleanco/platform/internal/models"
)

type Outbox struct{}

func (Outbox) Enqueue(tx *gorm.DB, e *models.OutboxEvent) error {
	// (org_id, dedupe_key) is backed by a partial unique index over
	// dedupe_key IS NOT NULL (store.createCustomIndexes). Postgres can only
	// infer a partial index as an ON CONFLICT target when the same
	// predicate is repeated here as TargetWhere; events with a nil
	// DedupeKey never match it, so a non-deduped enqueue always inserts,
	// and a repeated dedupe key becomes a no-op via DoNothing.
	return tx.Clauses(clause.OnConflict{
		Columns:     []clause.Column{{Name: "org_id"}, {Name: "dedupe_key"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "dedupe_key IS NOT NULL"}}},
		DoNothing:   true,
	}).Create(e).Error
}

// ClaimDue leases up to limit due events for leaseOwner, advancing them to
// IN_FLIGHT so a concurrent drain loop (this instance's next tick, or
// another instance) can't also pick them up.
func (Outbox) ClaimDue(tx *gorm.DB, now time.Time, leaseOwner string, leaseFor time.Duration, limit int) ([]models.OutboxEvent, error) {
	var claimed []models.OutboxEvent
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ? AND next_attempt_at <= ?", models.OutboxPending, now).
		Order("next_attempt_at").
		Limit(limit).
		Find(&claimed).Error
	if err != nil || len(claimed) == 0 {
		return nil, err
	}

	ids := make([]string, len(claimed))
	for i, e := range claimed {
		ids[i] = e.ID
	}
	leaseExpiresAt := now.Add(leaseFor)
	if err := tx.Model(&models.OutboxEvent{}).Where("id IN ?", ids).Updates(map[string]interface{}{
		"status":           models.OutboxInFlight,
		"lease_owner":      leaseOwner,
		"lease_expires_at": leaseExpiresAt,
	}).Error; err != nil {
		return nil, err
	}
	for i := range claimed {
		claimed[i].Status = models.OutboxInFlight
		claimed[i].LeaseOwner = leaseOwner
		claimed[i].LeaseExpiresAt = &leaseExpiresAt
	}
	return claimed, nil
}

func (Outbox) MarkDelivered(tx *gorm.DB, id string, now time.Time) error {
	return tx.Model(&models.OutboxEvent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       models.OutboxDelivered,
		"delivered_at": now,
	}).Error
}

// MarkFailed either reschedules the event for retry with the given next
// attempt time, or marks it DEAD when the caller passes dead (the caller
// decides, from the attempt count or a permanent error).
func (Outbox) MarkFailed(tx *gorm.DB, id string, attempts int, nextAttemptAt time.Time, dead bool, lastErr string) error {
	status := models.OutboxPending
	if dead {
		status = models.OutboxDead
	}
	return tx.Model(&models.OutboxEvent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":          status,
		"attempts":        attempts,
		"next_attempt_at": nextAttemptAt,
		"last_error":      lastErr,
	}).Error
}

func (Outbox) ByID(tx *gorm.DB, orgID, id string) (*models.OutboxEvent, error) {
	var e models.OutboxEvent
	err := tx.Where("org_id = ? AND id = ?", orgID, id).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (Outbox) Dead(tx *gorm.DB, orgID string, limit, offset int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := tx.Where("org_id = ? AND status = ?", orgID, models.OutboxDead).
		Order("updated_at DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, err
}

// Replay resets a DEAD event back to PENDING, due immediately, clearing the
// attempt counter so backoff restarts from the beginning.
func (Outbox) Replay(tx *gorm.DB, orgID, id string, now time.Time) (int64, error) {
	res := tx.Model(&models.OutboxEvent{}).
		Where("org_id = ? AND id = ? AND status = ?", orgID, id, models.OutboxDead).
		Updates(map[string]interface{}{
			"status":          models.OutboxPending,
			"attempts":        0,
			"next_attempt_at": now,
			"last_error":      "",
		})
	return res.RowsAffected, res.Error
}

// ReclaimExpiredLeases returns IN_FLIGHT events whose lease has expired
// (a drain worker crashed mid-delivery) back to PENDING so another worker
// can retry them.
func (Outbox) ReclaimExpiredLeases(tx *gorm.DB, now time.Time) (int64, error) {
	res := tx.Model(&models.OutboxEvent{}).
		Where("status = ? AND lease_expires_at < ?", models.OutboxInFlight, now).
		Updates(map[string]interface{}{"status": models.OutboxPending})
	return res.RowsAffected, res.Error
}
