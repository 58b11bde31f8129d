package outbox

import (
	"encoding/json"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/models"
	"github.com/cleanco/platform/internal/store"
	"github.com/cleanco/platform/pkg/ids"
)

// Kind names the outbox event kinds this service knows how to deliver.
type Kind string

const (
	KindEmail           Kind = "email"
	KindExportWebhook    Kind = "export_webhook"
	KindIntegrationEvent Kind = "integration_event"
	KindStorageDelete    Kind = "storage_delete"
)

// MaxAttempts is the attempt count at which an event moves from PENDING
// (with backoff) to DEAD rather than being rescheduled again.
const MaxAttempts = 8

var outboxStore store.Outbox

// Enqueue writes a durable queued side effect in the same transaction as
// the state change that caused it. dedupeKey, when non-empty, makes a
// second enqueue with the same (orgID, dedupeKey) a silent no-op.
func Enqueue(tx *gorm.DB, orgID string, kind Kind, dedupeKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	id, err := ids.New(ids.PrefixOutbox, 20)
	if err != nil {
		return err
	}
	var dedupeKeyPtr *string
	if dedupeKey != "" {
		dedupeKeyPtr = &dedupeKey
	}
	return outboxStore.Enqueue(tx, &models.OutboxEvent{
		ID:            id,
		OrgID:         orgID,
		Kind:          string(kind),
		DedupeKey:     dedupeKeyPtr,
		Payload:       body,
		Status:        models.OutboxPending,
		NextAttemptAt: time.Now(),
	})
}

// Backoff computes the next attempt delay: exponential with a 30-second
// base and a 24-hour cap, jittered by up to 20% so a burst of failures
// doesn't retry in lockstep.
func Backoff(attempts int) time.Duration {
	base := 30 * time.Second
	ceiling := 24 * time.Hour
	delay := base << uint(minInt(attempts, 20))
	if delay > ceiling || delay <= 0 {
		delay = ceiling
	}
	jitter := time.Duration(rand.Int63n(int64(delay) / 5))
	return delay + jitter
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
