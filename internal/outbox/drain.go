package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/metrics"
	"github.com/cleanco/platform/internal/models"
)

// Handler delivers the side effect encoded in an event's payload. An
// error means retry (subject to MaxAttempts); a nil return marks the
// event DELIVERED. An error wrapped with Permanent skips the retry budget
// and marks the event DEAD on the first failed attempt.
type Handler func(ctx context.Context, db *gorm.DB, event *models.OutboxEvent) error

// permanentError marks a delivery failure the destination will never
// recover from on retry: a 4xx response, or a destination a policy check
// rejected outright. Constructed via Permanent.
type permanentError struct{ err error }

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func isPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Drainer owns the claim-process-resolve loop for one outbox worker
// instance. leaseOwner should be unique per process so a crashed worker's
// abandoned leases are unambiguous.
type Drainer struct {
	db         *gorm.DB
	log        *zap.Logger
	leaseOwner string
	leaseFor   time.Duration
	handlers   map[Kind]Handler
}

func NewDrainer(db *gorm.DB, log *zap.Logger, leaseOwner string, leaseFor time.Duration) *Drainer {
	return &Drainer{db: db, log: log, leaseOwner: leaseOwner, leaseFor: leaseFor, handlers: map[Kind]Handler{}}
}

func (d *Drainer) Register(kind Kind, h Handler) {
	d.handlers[kind] = h
}

// DrainOnce claims up to batchSize due events and attempts delivery for
// each, advancing DELIVERED/PENDING(retry)/DEAD per event inside its own
// short transaction so one slow handler can't hold the claim transaction
// open for the whole batch.
func (d *Drainer) DrainOnce(ctx context.Context, batchSize int) (delivered, failed, dead int, err error) {
	now := time.Now()
	var claimed []models.OutboxEvent
	err = d.db.Transaction(func(tx *gorm.DB) error {
		if _, err := outboxStore.ReclaimExpiredLeases(tx, now); err != nil {
			return err
		}
		var claimErr error
		claimed, claimErr = outboxStore.ClaimDue(tx, now, d.leaseOwner, d.leaseFor, batchSize)
		return claimErr
	})
	if err != nil {
		return 0, 0, 0, err
	}

	for i := range claimed {
		event := &claimed[i]
		handler, ok := d.handlers[Kind(event.Kind)]
		if !ok {
			d.log.Error("outbox: no handler registered for kind", zap.String("kind", event.Kind))
			continue
		}

		handleErr := handler(ctx, d.db, event)
		txErr := d.db.Transaction(func(tx *gorm.DB) error {
			if handleErr == nil {
				delivered++
				metrics.OutboxOutcomesTotal.WithLabelValues(event.Kind, "delivered").Inc()
				return outboxStore.MarkDelivered(tx, event.ID, time.Now())
			}
			attempts := event.Attempts + 1
			isDead := attempts >= MaxAttempts || isPermanent(handleErr)
			if isDead {
				dead++
				metrics.OutboxOutcomesTotal.WithLabelValues(event.Kind, "dead").Inc()
			} else {
				failed++
				metrics.OutboxOutcomesTotal.WithLabelValues(event.Kind, "retry").Inc()
			}
			return outboxStore.MarkFailed(tx, event.ID, attempts, time.Now().Add(Backoff(attempts)), isDead, handleErr.Error())
		})
		if txErr != nil {
			d.log.Error("outbox: failed to resolve event outcome", zap.String("event_id", event.ID), zap.Error(txErr))
		}
	}
	return delivered, failed, dead, nil
}

// Run loops DrainOnce on interval. It returns nil when ctx is cancelled, and
// returns the first DrainOnce error as soon as it occurs, which ends the loop.
func (d *Drainer) Run(ctx context.Context, interval time.Duration, batchSize int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			delivered, failed, dead, err := d.DrainOnce(ctx, batchSize)
			if err != nil {
				return fmt.Errorf("outbox drain: %w", err)
			}
			if delivered+failed+dead > 0 {
				d.log.Info("outbox drain tick", zap.Int("delivered", delivered), zap.Int("failed", failed), zap.Int("dead", dead))
			}
		}
	}
}
