package store

import (
	"errors"

	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/models"
)

type Orgs struct{}

func (Orgs) ByID(tx *gorm.DB, id string) (*models.Organization, error) {
	var o models.Organization
	err := tx.Where("id = ?", id).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &o, err
}

func (Orgs) Create(tx *gorm.DB, o *models.Organization) error {
	return tx.Create(o).Error
}
