package store

import (
	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/models"
)

type AuditLogs struct{}

func (AuditLogs) Create(tx *gorm.DB, entry *models.AuditLog) error {
	return tx.Create(entry).Error
}

func (AuditLogs) List(tx *gorm.DB, orgID string, limit, offset int) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := tx.Where("org_id = ?", orgID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&entries).Error
	return entries, err
}
