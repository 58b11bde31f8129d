package store

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/models"
)

type Leads struct{}

func (Leads) Create(tx *gorm.DB, l *models.Lead) error {
	return tx.Create(l).Error
}

func (Leads) ByID(tx *gorm.DB, orgID, id string) (*models.Lead, error) {
	var l models.Lead
	err := tx.Where("org_id = ? AND id = ?", orgID, id).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &l, err
}

func (Leads) ByReferralCode(tx *gorm.DB, orgID, code string) (*models.Lead, error) {
	var l models.Lead
	err := tx.Where("org_id = ? AND referral_code = ?", orgID, code).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &l, err
}

func (Leads) UpdateStatus(tx *gorm.DB, orgID, id string, status models.LeadStatus) error {
	return tx.Model(&models.Lead{}).Where("org_id = ? AND id = ?", orgID, id).
		Update("status", status).Error
}

func (Leads) List(tx *gorm.DB, orgID string, limit, offset int) ([]models.Lead, error) {
	var leads []models.Lead
	err := tx.Where("org_id = ?", orgID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&leads).Error
	return leads, err
}

// DueForRetention returns terminal (DONE/CANCELLED) leads last touched
// before cutoff, across every org — the retention sweep runs org-agnostic
// the same way the booking and outbox sweeps do.
func (Leads) DueForRetention(tx *gorm.DB, cutoff time.Time, limit int) ([]models.Lead, error) {
	var leads []models.Lead
	err := tx.Where("status IN ? AND updated_at < ? AND contact_email != ?",
		[]models.LeadStatus{models.LeadStatusDone, models.LeadStatusCancelled}, cutoff, redactedEmail).
		Limit(limit).Find(&leads).Error
	return leads, err
}

const redactedEmail = "redacted@erased.invalid"

// Redact anonymizes a lead's PII in place, leaving its id, org, status,
// referral graph, and estimate snapshot intact for aggregate reporting.
func (Leads) Redact(tx *gorm.DB, orgID, id string) error {
	return tx.Model(&models.Lead{}).Where("org_id = ? AND id = ?", orgID, id).Updates(map[string]interface{}{
		"contact_name":    "redacted",
		"contact_phone":   "redacted",
		"contact_email":   redactedEmail,
		"contact_address": "redacted",
	}).Error
}
