package models

import "time"

type InvoiceStatus string

const (
	InvoiceDraft   InvoiceStatus = "DRAFT"
	InvoiceSent    InvoiceStatus = "SENT"
	InvoicePartial InvoiceStatus = "PARTIAL"
	InvoicePaid    InvoiceStatus = "PAID"
	InvoiceVoid    InvoiceStatus = "VOID"
)

// Invoice numbers are unique per (org, year), assigned atomically at
// finalization time — never reused, never assigned to a draft.
type Invoice struct {
	ID            string        `gorm:"type:char(16);primaryKey" json:"id"`
	OrgID         string        `gorm:"type:char(16);not null;index:idx_invoice_org_number" json:"org_id"`
	BookingID     *string       `gorm:"type:char(16);index" json:"booking_id,omitempty"`
	Year          int           `gorm:"not null;index:idx_invoice_org_number" json:"year"`
	Number        int           `gorm:"not null;index:idx_invoice_org_number" json:"number"`
	Status        InvoiceStatus `gorm:"size:20;not null;default:'DRAFT'" json:"status"`
	TotalCents    int64         `gorm:"not null;default:0" json:"total_cents"`
	PaidCents     int64         `gorm:"not null;default:0" json:"paid_cents"`
	PublicTokenHash string      `gorm:"size:128;index" json:"-"`
	SentAt        *time.Time    `json:"sent_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Invoice) TableName() string { return "invoices" }

// Outstanding reports the unpaid balance in cents.
func (i *Invoice) Outstanding() int64 {
	return i.TotalCents - i.PaidCents
}

// DeriveStatus recomputes Status from TotalCents/PaidCents, leaving DRAFT and
// VOID (administrative states, not payment-derived) untouched.
func (i *Invoice) DeriveStatus() {
	if i.Status == InvoiceDraft || i.Status == InvoiceVoid {
		return
	}
	switch {
	case i.PaidCents <= 0:
		i.Status = InvoiceSent
	case i.PaidCents < i.TotalCents:
		i.Status = InvoicePartial
	default:
		i.Status = InvoicePaid
	}
}

// InvoiceItem is a single priced line on an Invoice. LineTotalCents is
// server-computed as QuantityX100*UnitPriceCents/100 plus TaxCents — never
// accepted from the client.
type InvoiceItem struct {
	ID             string `gorm:"type:char(16);primaryKey" json:"id"`
	InvoiceID      string `gorm:"type:char(16);not null;index" json:"invoice_id"`
	OrgID          string `gorm:"type:char(16);not null;index" json:"org_id"`
	Description    string `gorm:"size:300;not null" json:"description"`
	QuantityX100   int64  `gorm:"not null;default:100" json:"quantity_x100"`
	UnitPriceCents int64  `gorm:"not null" json:"unit_price_cents"`
	TaxCents       int64  `gorm:"not null;default:0" json:"tax_cents"`
	LineTotalCents int64  `gorm:"not null" json:"line_total_cents"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (InvoiceItem) TableName() string { return "invoice_items" }

// Recompute sets LineTotalCents from the line's quantity/price/tax.
func (it *InvoiceItem) Recompute() {
	it.LineTotalCents = it.QuantityX100*it.UnitPriceCents/100 + it.TaxCents
}

type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "CARD"
	PaymentMethodCash PaymentMethod = "CASH"
	PaymentMethodOther PaymentMethod = "OTHER"
)

// Payment records a single settlement against an Invoice (or a booking
// deposit when InvoiceID is nil).
type Payment struct {
	ID              string        `gorm:"type:char(16);primaryKey" json:"id"`
	OrgID           string        `gorm:"type:char(16);not null;index" json:"org_id"`
	InvoiceID       *string       `gorm:"type:char(16);index" json:"invoice_id,omitempty"`
	BookingID       *string       `gorm:"type:char(16);index" json:"booking_id,omitempty"`
	AmountCents     int64         `gorm:"not null" json:"amount_cents"`
	Method          PaymentMethod `gorm:"size:20;not null" json:"method"`
	// ProviderEventID is NULL for cash/manual payments that carry no
	// provider webhook event; uniqueness is enforced by a partial index
	// (store.createCustomIndexes) over non-NULL values only, so multiple
	// manual payments against the same invoice don't collide.
	ProviderEventID *string       `gorm:"size:120" json:"provider_event_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Payment) TableName() string { return "payments" }

// InvoiceCounter backs per-(org,year) atomic invoice numbering: NextNumber
// increments Last via an UPSERT rather than a read-then-write, so two
// concurrent finalizations can never be handed the same number.
type InvoiceCounter struct {
	OrgID string `gorm:"type:char(16);primaryKey;column:org_id" json:"org_id"`
	Year  int    `gorm:"primaryKey" json:"year"`
	Last  int    `gorm:"not null;default:0" json:"last"`
}

func (InvoiceCounter) TableName() string { return "invoice_counters" }
