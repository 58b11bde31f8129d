package invoice

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"time"

	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/models"
	"github.com/cleanco/platform/internal/outbox"
	"github.com/cleanco/platform/internal/store"
	"github.com/cleanco/platform/pkg/apperrors"
	"github.com/cleanco/platform/pkg/ids"
)

var invoices store.Invoices

// PublicTokenBytes is the size of the random token handed to customers in
// public invoice links; only its SHA-256 hash is ever persisted.
const PublicTokenBytes = 48

// LineInput is one requested invoice line; LineTotalCents is always
// recomputed server-side, never trusted from the caller.
type LineInput struct {
	Description    string
	QuantityX100   int64
	UnitPriceCents int64
	TaxCents       int64
}

// CreateDraft assembles a DRAFT invoice from the given lines, computing
// totals server-side. The invoice has no number yet — Finalize assigns one.
func CreateDraft(tx *gorm.DB, orgID string, bookingID *string, lines []LineInput) (*models.Invoice, error) {
	id, err := ids.New(ids.PrefixInvoice, 16)
	if err != nil {
		return nil, err
	}

	inv := &models.Invoice{
		ID:        id,
		OrgID:     orgID,
		BookingID: bookingID,
		Year:      time.Now().Year(),
		Status:    models.InvoiceDraft,
	}
	if err := invoices.Create(tx, inv); err != nil {
		return nil, err
	}

	var total int64
	for _, line := range lines {
		itemID, err := ids.New(ids.PrefixInvoiceItem, 16)
		if err != nil {
			return nil, err
		}
		item := &models.InvoiceItem{
			ID:             itemID,
			InvoiceID:      inv.ID,
			OrgID:          orgID,
			Description:    line.Description,
			QuantityX100:   line.QuantityX100,
			UnitPriceCents: line.UnitPriceCents,
			TaxCents:       line.TaxCents,
		}
		item.Recompute()
		if err := invoices.CreateItem(tx, item); err != nil {
			return nil, err
		}
		total += item.LineTotalCents
	}

	inv.TotalCents = total
	if err := invoices.Save(tx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Finalize assigns the invoice's permanent (org, year) number, mints its
// public link token, and moves it to SENT. Returns the raw token — the
// only time the caller sees it in cleartext — for inclusion in the send.
func Finalize(tx *gorm.DB, orgID, invoiceID string) (*models.Invoice, string, error) {
	inv, err := invoices.ByID(tx, orgID, invoiceID)
	if err != nil {
		return nil, "", err
	}
	if inv == nil {
		return nil, "", apperrors.NotFound("invoice_not_found", "invoice not found")
	}
	if inv.Status != models.InvoiceDraft {
		return nil, "", apperrors.Conflict("invalid_transition", "only draft invoices can be finalized")
	}

	number, err := invoices.NextNumber(tx, orgID, inv.Year)
	if err != nil {
		return nil, "", err
	}
	rawToken, hash, err := newPublicToken()
	if err != nil {
		return nil, "", err
	}

	inv.Number = number
	inv.PublicTokenHash = hash
	now := time.Now()
	inv.SentAt = &now
	inv.Status = models.InvoiceSent
	if err := invoices.Save(tx, inv); err != nil {
		return nil, "", err
	}

	if err := outbox.Enqueue(tx, orgID, outbox.KindEmail, "", outbox.EmailPayload{
		Subject:  "invoice.sent",
		HTMLBody: "invoice " + inv.ID,
	}); err != nil {
		return nil, "", err
	}
	return inv, rawToken, nil
}

// Resend rotates the public link token, invalidating any previously
// issued link, and returns the new raw token.
func Resend(tx *gorm.DB, orgID, invoiceID string) (string, error) {
	inv, err := invoices.ByID(tx, orgID, invoiceID)
	if err != nil {
		return "", err
	}
	if inv == nil {
		return "", apperrors.NotFound("invoice_not_found", "invoice not found")
	}
	if inv.Status == models.InvoiceDraft || inv.Status == models.InvoiceVoid {
		return "", apperrors.Conflict("invalid_transition", "only a sent invoice can be resent")
	}

	rawToken, hash, err := newPublicToken()
	if err != nil {
		return "", err
	}
	inv.PublicTokenHash = hash
	if err := invoices.Save(tx, inv); err != nil {
		return "", err
	}
	return rawToken, nil
}

// RecordPayment applies a settlement and re-derives the invoice's status
// from its running PaidCents vs TotalCents.
func RecordPayment(tx *gorm.DB, orgID, invoiceID string, amountCents int64, method models.PaymentMethod, providerEventID string) (*models.Invoice, error) {
	if providerEventID != "" {
		existing, err := invoices.PaymentByProviderEventID(tx, providerEventID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return invoices.ByID(tx, orgID, invoiceID)
		}
	}

	inv, err := invoices.ByID(tx, orgID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperrors.NotFound("invoice_not_found", "invoice not found")
	}
	if inv.Status == models.InvoiceDraft || inv.Status == models.InvoiceVoid {
		return nil, apperrors.Conflict("invalid_transition", "cannot record payment against a draft or void invoice")
	}

	paymentID, err := ids.New(ids.PrefixPayment, 16)
	if err != nil {
		return nil, err
	}
	var providerEventIDPtr *string
	if providerEventID != "" {
		providerEventIDPtr = &providerEventID
	}
	if err := invoices.CreatePayment(tx, &models.Payment{
		ID:              paymentID,
		OrgID:           orgID,
		InvoiceID:       &invoiceID,
		AmountCents:     amountCents,
		Method:          method,
		ProviderEventID: providerEventIDPtr,
	}); err != nil {
		return nil, err
	}

	inv.PaidCents += amountCents
	inv.DeriveStatus()
	if err := invoices.Save(tx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Void marks a non-paid invoice VOID; the number, once assigned, is never
// reused or reassigned.
func Void(tx *gorm.DB, orgID, invoiceID string) error {
	inv, err := invoices.ByID(tx, orgID, invoiceID)
	if err != nil {
		return err
	}
	if inv == nil {
		return apperrors.NotFound("invoice_not_found", "invoice not found")
	}
	if inv.Status == models.InvoicePaid {
		return apperrors.Conflict("invalid_transition", "a paid invoice cannot be voided")
	}
	inv.Status = models.InvoiceVoid
	return invoices.Save(tx, inv)
}

func newPublicToken() (raw, hash string, err error) {
	buf := make([]byte, PublicTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	sum := sha256.Sum256([]byte(raw))
	hash = hex.EncodeToString(sum[:])
	return raw, hash, nil
}
