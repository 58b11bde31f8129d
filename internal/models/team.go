package models

import (
	"time"

	"gorm.io/datatypes"
)

// Team is a crew that bookings are scheduled against. Slot exclusivity is
// enforced per-team.
type Team struct {
	ID            string         `gorm:"type:char(16);primaryKey" json:"id"`
	OrgID         string         `gorm:"type:char(16);not null;uniqueIndex:idx_team_org_name,priority:1" json:"org_id"`
	Name          string         `gorm:"size:150;not null;uniqueIndex:idx_team_org_name,priority:2" json:"name"`
	WorkingHours  datatypes.JSON `gorm:"type:jsonb" json:"working_hours"`
	Blackouts     datatypes.JSON `gorm:"type:jsonb" json:"blackouts"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Team) TableName() string { return "teams" }
