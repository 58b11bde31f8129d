package store

import (
	"errors"

	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/models"
)

type Photos struct{}

func (Photos) ByID(tx *gorm.DB, orgID, id string) (*models.Photo, error) {
	var p models.Photo
	err := tx.Where("org_id = ? AND id = ?", orgID, id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &p, err
}

func (Photos) Create(tx *gorm.DB, p *models.Photo) error {
	return tx.Create(p).Error
}

// Delete removes the row outright. Callers enqueue the backend object
// delete separately, by storage key, since the row carrying that key is
// gone the moment this returns.
func (Photos) Delete(tx *gorm.DB, orgID, id string) error {
	return tx.Where("org_id = ? AND id = ?", orgID, id).Delete(&models.Photo{}).Error
}

// ByBooking lists a booking's photos, newest first.
func (Photos) ByBooking(tx *gorm.DB, orgID, bookingID string) ([]models.Photo, error) {
	var photos []models.Photo
	err := tx.Where("org_id = ? AND booking_id = ?", orgID, bookingID).
		Order("created_at DESC").Find(&photos).Error
	return photos, err
}
