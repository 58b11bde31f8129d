package store

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cleanco/platform/internal/models"
)

type Teams struct{}

func (Teams) ByID(tx *gorm.DB, orgID, id string) (*models.Team, error) {
	var t models.Team
	err := tx.Where("org_id = ? AND id = ?", orgID, id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &t, err
}

// LockByID takes a row-level lock on teamID for the duration of the caller's
// transaction. Unlike locking the booking rows a slot overlap check finds,
// this also serializes the case where no booking exists yet for the team in
// the requested window — two concurrent first-bookings for an empty team
// would otherwise both pass the overlap check and both insert.
func (Teams) LockByID(tx *gorm.DB, orgID, id string) (*models.Team, error) {
	var t models.Team
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &t, err
}

func (Teams) Create(tx *gorm.DB, t *models.Team) error {
	return tx.Create(t).Error
}

// Count returns the number of teams belonging to orgID, for plan-quota
// enforcement.
func (Teams) Count(tx *gorm.DB, orgID string) (int64, error) {
	var count int64
	err := tx.Model(&models.Team{}).Where("org_id = ?", orgID).Count(&count).Error
	return count, err
}

func (Teams) Update(tx *gorm.DB, orgID, id string, fields map[string]interface{}) (int64, error) {
	res := tx.Model(&models.Team{}).Where("org_id = ? AND id = ?", orgID, id).Updates(fields)
	return res.RowsAffected, res.Error
}

func (Teams) List(tx *gorm.DB, orgID string) ([]models.Team, error) {
	var teams []models.Team
	err := tx.Where("org_id = ?", orgID).Order("name").Find(&teams).Error
	return teams, err
}
