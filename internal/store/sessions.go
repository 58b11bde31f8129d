package store

import (
	"errors"

	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/models"
)

type Sessions struct{}

func (Sessions) Create(tx *gorm.DB, s *models.Session) error {
	return tx.Create(s).Error
}

func (Sessions) ByRefreshHash(tx *gorm.DB, hash string) (*models.Session, error) {
	var s models.Session
	err := tx.Where("refresh_hash = ?", hash).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &s, err
}

func (Sessions) ByID(tx *gorm.DB, id string) (*models.Session, error) {
	var s models.Session
	err := tx.Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &s, err
}

// RevokeByID marks a session revoked if it isn't already, returning the
// number of rows changed — callers use this to detect replay (0 rows
// changed on a session that's already revoked means someone reused a
// rotated-away refresh token).
func (Sessions) RevokeByID(tx *gorm.DB, id, reason string) (int64, error) {
	res := tx.Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Updates(map[string]interface{}{"revoked_at": gorm.Expr("now()"), "revoked_reason": reason})
	return res.RowsAffected, res.Error
}

func (Sessions) RevokeAllForUser(tx *gorm.DB, orgID, userID, reason string) error {
	return tx.Model(&models.Session{}).
		Where("org_id = ? AND user_id = ? AND revoked_at IS NULL", orgID, userID).
		Updates(map[string]interface{}{"revoked_at": gorm.Expr("now()"), "revoked_reason": reason}).Error
}
