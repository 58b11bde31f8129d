package models

import "time"

type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "PENDING"
	OutboxInFlight  OutboxStatus = "IN_FLIGHT"
	OutboxDelivered OutboxStatus = "DELIVERED"
	OutboxDead      OutboxStatus = "DEAD"
)

// OutboxEvent is a durable queued side effect. (OrgID, DedupeKey) is unique
// for events that carry a dedupe key, giving enqueue-side idempotency; the
// unique index is a partial one over "dedupe_key IS NOT NULL" (see
// store.createCustomIndexes) so events with no dedupe key — a NULL, not an
// empty string — never collide with each other.
type OutboxEvent struct {
	ID            string         `gorm:"type:char(20);primaryKey" json:"id"`
	OrgID         string         `gorm:"type:char(16);not null" json:"org_id"`
	Kind          string         `gorm:"size:40;not null;index" json:"kind"`
	DedupeKey     *string        `gorm:"size:150" json:"dedupe_key,omitempty"`
	Payload       []byte         `gorm:"type:jsonb;not null" json:"payload"`
	Status        OutboxStatus   `gorm:"size:20;not null;default:'PENDING';index:idx_outbox_claim" json:"status"`
	Attempts      int            `gorm:"not null;default:0" json:"attempts"`
	NextAttemptAt time.Time      `gorm:"not null;index:idx_outbox_claim" json:"next_attempt_at"`
	LeaseOwner    string         `gorm:"size:64" json:"-"`
	LeaseExpiresAt *time.Time    `json:"-"`
	LastError     string         `gorm:"type:text" json:"last_error,omitempty"`
	DeliveredAt   *time.Time     `json:"delivered_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }

// Claimable reports whether the event is eligible to be leased right now:
// PENDING and due, per the "WHERE status='PENDING' AND next_attempt_at<=now"
// claim discipline.
func (e *OutboxEvent) Claimable(now time.Time) bool {
	return e.Status == OutboxPending && !e.NextAttemptAt.After(now)
}
