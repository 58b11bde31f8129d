package booking

import (
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/config"
	"github.com/cleanco/platform/internal/metrics"
	"github.com/cleanco/platform/internal/models"
	"github.com/cleanco/platform/internal/outbox"
	"github.com/cleanco/platform/pkg/apperrors"
)

// WebhookProcessor verifies and applies Stripe checkout events against the
// booking they funded. It carries no state of its own beyond the verifying
// secret — everything else is looked up from the event payload.
type WebhookProcessor struct {
	webhookSecret string
	log           *zap.Logger
}

func NewWebhookProcessor(cfg *config.PaymentConfig, log *zap.Logger) *WebhookProcessor {
	return &WebhookProcessor{webhookSecret: cfg.WebhookSecret, log: log}
}

// HandleCheckoutEvent verifies the signature on rawPayload, then applies
// the event to the booking its checkout session is tied to. Processing is
// idempotent on LastWebhookEventID: a replay that arrives after the
// booking is already CONFIRMED is a silent no-op; a replay that lands on a
// booking that has since been cancelled is logged as replay_mismatch
// rather than resurrecting it.
func (p *WebhookProcessor) HandleCheckoutEvent(tx *gorm.DB, rawPayload []byte, signatureHeader string) error {
	event, err := webhook.ConstructEvent(rawPayload, signatureHeader, p.webhookSecret)
	if err != nil {
		metrics.WebhookOutcomesTotal.WithLabelValues("signature_invalid").Inc()
		return apperrors.Unauthenticated("webhook_signature_invalid", "stripe webhook signature verification failed")
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		err = p.applyDepositPaid(tx, event)
	case "checkout.session.async_payment_failed", "checkout.session.expired":
		err = p.applyDepositFailed(tx, event)
	default:
		metrics.WebhookOutcomesTotal.WithLabelValues("ignored").Inc()
		return nil
	}
	if err != nil {
		metrics.WebhookOutcomesTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.WebhookOutcomesTotal.WithLabelValues("processed").Inc()
	return nil
}

func (p *WebhookProcessor) applyDepositPaid(tx *gorm.DB, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := event.Data.UnmarshalJSONInto(&session); err != nil {
		return err
	}

	b, err := bookings.ByDepositSessionID(tx, session.ID)
	if err != nil {
		return err
	}
	if b == nil {
		p.log.Warn("stripe webhook: no booking for checkout session", zap.String("session_id", session.ID))
		return nil
	}
	if b.LastWebhookEventID != nil && *b.LastWebhookEventID == event.ID {
		return nil
	}
	if b.Status != models.BookingAwaitingDeposit {
		p.log.Info("stripe webhook: replay_mismatch", zap.String("booking_id", b.ID), zap.String("status", string(b.Status)))
		return nil
	}

	rows, err := bookings.MarkDepositPaid(tx, b.OrgID, b.ID, event.ID, time.Now())
	if err != nil {
		return err
	}
	if rows == 0 {
		return nil
	}
	if b.LeadID != nil {
		if err := resolveReferralOnConfirm(tx, b.OrgID, *b.LeadID, b.ID); err != nil {
			return err
		}
	}
	b.Status = models.BookingConfirmed
	return outbox.Enqueue(tx, b.OrgID, outbox.KindEmail, "booking_confirmed:"+b.ID, emailForBooking(tx, b.OrgID, "booking.confirmed", b))
}

func (p *WebhookProcessor) applyDepositFailed(tx *gorm.DB, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := event.Data.UnmarshalJSONInto(&session); err != nil {
		return err
	}

	b, err := bookings.ByDepositSessionID(tx, session.ID)
	if err != nil {
		return err
	}
	if b == nil || b.Status != models.BookingAwaitingDeposit {
		return nil
	}

	rows, err := bookings.UpdateStatus(tx, b.OrgID, b.ID, models.BookingAwaitingDeposit, models.BookingExpired)
	if err != nil || rows == 0 {
		return err
	}
	return voidReferralCredit(tx, b.OrgID, b.ID)
}
