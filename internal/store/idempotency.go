package store

import (
	"errors"

	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/models"
)

type Idempotency struct{}

func (Idempotency) ByKey(tx *gorm.DB, key string) (*models.AdminIdempotency, error) {
	var rec models.AdminIdempotency
	err := tx.Where("key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &rec, err
}

func (Idempotency) Create(tx *gorm.DB, rec *models.AdminIdempotency) error {
	return tx.Create(rec).Error
}
