package store

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cleanco/platform/internal/models"
)

type Invoices struct{}

func (Invoices) ByID(tx *gorm.DB, orgID, id string) (*models.Invoice, error) {
	var inv models.Invoice
	err := tx.Where("org_id = ? AND id = ?", orgID, id).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &inv, err
}

func (Invoices) ByPublicTokenHash(tx *gorm.DB, hash string) (*models.Invoice, error) {
	var inv models.Invoice
	err := tx.Where("public_token_hash = ?", hash).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &inv, err
}

func (Invoices) Create(tx *gorm.DB, inv *models.Invoice) error {
	return tx.Create(inv).Error
}

func (Invoices) Save(tx *gorm.DB, inv *models.Invoice) error {
	return tx.Save(inv).Error
}

// NextNumber atomically allocates the next invoice number for (orgID,
// year) via an UPSERT against a per-org-year counter row, then returns the
// freshly incremented value. No SELECT...FOR UPDATE race window: the
// increment itself is the atomic operation.
func (Invoices) NextNumber(tx *gorm.DB, orgID string, year int) (int, error) {
	if err := tx.Exec(`
		INSERT INTO invoice_counters (org_id, year, last)
		VALUES (?, ?, 1)
		ON CONFLICT (org_id, year) DO UPDATE SET last = invoice_counters.last + 1
	`, orgID, year).Error; err != nil {
		return 0, err
	}
	var counter models.InvoiceCounter
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("org_id = ? AND year = ?", orgID, year).
		First(&counter).Error
	if err != nil {
		return 0, err
	}
	return counter.Last, nil
}

func (Invoices) CreateItem(tx *gorm.DB, item *models.InvoiceItem) error {
	return tx.Create(item).Error
}

func (Invoices) ItemsFor(tx *gorm.DB, orgID, invoiceID string) ([]models.InvoiceItem, error) {
	var items []models.InvoiceItem
	err := tx.Where("org_id = ? AND invoice_id = ?", orgID, invoiceID).Find(&items).Error
	return items, err
}

func (Invoices) CreatePayment(tx *gorm.DB, p *models.Payment) error {
	return tx.Create(p).Error
}

func (Invoices) PaymentByProviderEventID(tx *gorm.DB, eventID string) (*models.Payment, error) {
	var p models.Payment
	err := tx.Where("provider_event_id = ?", eventID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &p, err
}
