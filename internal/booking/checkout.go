package booking

import (
	"fmt"

	"github.com/stripe/stripe-go/v76"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"

	"github.com/cleanco/platform/internal/config"
)

// CheckoutFactory opens the Stripe Checkout Session backing a booking's
// deposit hold. Configured once at startup so the success/cancel URL
// templates and the Stripe secret key aren't threaded through every call
// site.
type CheckoutFactory struct {
	successURL string
	cancelURL  string
}

func NewCheckoutFactory(cfg *config.PaymentConfig) *CheckoutFactory {
	stripe.Key = cfg.SecretKey
	return &CheckoutFactory{
		successURL: cfg.CheckoutBaseURL + "/success",
		cancelURL:  cfg.CheckoutBaseURL + "/cancel",
	}
}

// CreateDepositSession opens a one-off payment-mode Checkout Session for
// bookingID's deposit amount. The returned session id is what the webhook
// correlates an incoming event back to via StripeSessionAssigned.
func (f *CheckoutFactory) CreateDepositSession(bookingID string, amountCents int64) (sessionID, url string, err error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String("usd"),
					UnitAmount: stripe.Int64(amountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Booking deposit"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(f.successURL + "?booking_id=" + bookingID),
		CancelURL:         stripe.String(f.cancelURL + "?booking_id=" + bookingID),
		ClientReferenceID: stripe.String(bookingID),
	}
	s, err := checkoutsession.New(params)
	if err != nil {
		return "", "", fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return s.ID, s.URL, nil
}
