package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceItemRecompute(t *testing.T) {
	tests := []struct {
		name string
		item InvoiceItem
		want int64
	}{
		{"single unit no tax", InvoiceItem{QuantityX100: 100, UnitPriceCents: 5000, TaxCents: 0}, 5000},
		{"half unit", InvoiceItem{QuantityX100: 50, UnitPriceCents: 10000, TaxCents: 0}, 5000},
		{"with tax", InvoiceItem{QuantityX100: 100, UnitPriceCents: 5000, TaxCents: 412}, 5412},
		{"two and a half units", InvoiceItem{QuantityX100: 250, UnitPriceCents: 2000, TaxCents: 0}, 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.item.Recompute()
			assert.Equal(t, tt.want, tt.item.LineTotalCents)
		})
	}
}

func TestInvoiceOutstanding(t *testing.T) {
	inv := Invoice{TotalCents: 10000, PaidCents: 4000}
	assert.Equal(t, int64(6000), inv.Outstanding())
}

func TestInvoiceDeriveStatus(t *testing.T) {
	t.Run("draft stays draft regardless of payments", func(t *testing.T) {
		inv := Invoice{Status: InvoiceDraft, TotalCents: 10000, PaidCents: 10000}
		inv.DeriveStatus()
		assert.Equal(t, InvoiceDraft, inv.Status)
	})

	t.Run("void stays void", func(t *testing.T) {
		inv := Invoice{Status: InvoiceVoid, TotalCents: 10000, PaidCents: 0}
		inv.DeriveStatus()
		assert.Equal(t, InvoiceVoid, inv.Status)
	})

	t.Run("sent with no payment stays sent", func(t *testing.T) {
		inv := Invoice{Status: InvoiceSent, TotalCents: 10000, PaidCents: 0}
		inv.DeriveStatus()
		assert.Equal(t, InvoiceSent, inv.Status)
	})

	t.Run("partial payment moves to partial", func(t *testing.T) {
		inv := Invoice{Status: InvoiceSent, TotalCents: 10000, PaidCents: 4000}
		inv.DeriveStatus()
		assert.Equal(t, InvoicePartial, inv.Status)
	})

	t.Run("full payment moves to paid", func(t *testing.T) {
		inv := Invoice{Status: InvoicePartial, TotalCents: 10000, PaidCents: 10000}
		inv.DeriveStatus()
		assert.Equal(t, InvoicePaid, inv.Status)
	})

	t.Run("overpayment still resolves to paid", func(t *testing.T) {
		inv := Invoice{Status: InvoicePartial, TotalCents: 10000, PaidCents: 10500}
		inv.DeriveStatus()
		assert.Equal(t, InvoicePaid, inv.Status)
	})
}
