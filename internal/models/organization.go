package models

import "time"

// Organization is the top-level tenant boundary. Every business row below
// carries OrgID; Organization itself is global.
type Organization struct {
	ID            string `gorm:"type:char(16);primaryKey" json:"id"`
	Name          string `gorm:"size:250;not null" json:"name"`
	BillingStatus string `gorm:"size:50;not null;default:'active'" json:"billing_status"`
	Plan          string `gorm:"size:50;not null;default:'starter'" json:"plan"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Organization) TableName() string { return "organizations" }
