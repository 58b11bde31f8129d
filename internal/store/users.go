package store

import (
	"errors"

	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/models"
)

// Users is a thin org-scoped wrapper around gorm. Every method takes the
// org ID explicitly rather than relying solely on the session-local
// app.current_org_id variable — defense in depth against a future caller
// that forgets to set the tenant context.
type Users struct{}

func (Users) ByID(tx *gorm.DB, orgID, id string) (*models.User, error) {
	var u models.User
	err := tx.Where("org_id = ? AND id = ?", orgID, id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (Users) ByEmail(tx *gorm.DB, orgID, email string) (*models.User, error) {
	var u models.User
	err := tx.Where("org_id = ? AND email = ?", orgID, email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (Users) Create(tx *gorm.DB, u *models.User) error {
	return tx.Create(u).Error
}

func (Users) UpdatePassword(tx *gorm.DB, orgID, userID, hash, scheme string) error {
	return tx.Model(&models.User{}).
		Where("org_id = ? AND id = ?", orgID, userID).
		Updates(map[string]interface{}{"password_hash": hash, "hash_scheme": scheme, "must_change": false}).Error
}

func (Users) MembershipFor(tx *gorm.DB, orgID, userID string) (*models.Membership, error) {
	var m models.Membership
	err := tx.Where("org_id = ? AND user_id = ?", orgID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &m, err
}

func (Users) CreateMembership(tx *gorm.DB, m *models.Membership) error {
	return tx.Create(m).Error
}

// ListByOrg returns every user in the org ordered by creation, newest
// first, for the IAM roster view.
func (Users) ListByOrg(tx *gorm.DB, orgID string) ([]models.User, error) {
	var users []models.User
	err := tx.Where("org_id = ?", orgID).Order("created_at DESC").Find(&users).Error
	return users, err
}

func (Users) SetDeactivated(tx *gorm.DB, orgID, userID string, deactivated bool) error {
	return tx.Model(&models.User{}).
		Where("org_id = ? AND id = ?", orgID, userID).
		Update("deactivated", deactivated).Error
}

func (Users) UpdateMembershipRole(tx *gorm.DB, orgID, userID string, role models.Role) (int64, error) {
	res := tx.Model(&models.Membership{}).
		Where("org_id = ? AND user_id = ?", orgID, userID).
		Update("role", role)
	return res.RowsAffected, res.Error
}
