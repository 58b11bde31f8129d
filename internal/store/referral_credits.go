package store

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/models"
)

type ReferralCredits struct{}

func (ReferralCredits) Create(tx *gorm.DB, rc *models.ReferralCredit) error {
	return tx.Create(rc).Error
}

func (ReferralCredits) ByReferredBooking(tx *gorm.DB, orgID, bookingID string) (*models.ReferralCredit, error) {
	var rc models.ReferralCredit
	err := tx.Where("org_id = ? AND referred_booking_id = ?", orgID, bookingID).First(&rc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &rc, err
}

func (ReferralCredits) Resolve(tx *gorm.DB, orgID, id string, status models.ReferralCreditStatus, when time.Time) (int64, error) {
	res := tx.Model(&models.ReferralCredit{}).
		Where("org_id = ? AND id = ? AND status = ?", orgID, id, models.ReferralCreditPending).
		Updates(map[string]interface{}{"status": status, "resolved_at": when})
	return res.RowsAffected, res.Error
}
