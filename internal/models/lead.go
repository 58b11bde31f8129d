package models

import (
	"time"

	"gorm.io/datatypes"
)

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "NEW"
	LeadStatusContacted LeadStatus = "CONTACTED"
	LeadStatusBooked    LeadStatus = "BOOKED"
	LeadStatusDone       LeadStatus = "DONE"
	LeadStatusCancelled LeadStatus = "CANCELLED"
)

// Lead is a prospective customer captured by public intake. EstimateSnapshot
// is an opaque JSON blob produced by the external pricing evaluator and is
// immutable once written.
type Lead struct {
	ID                string         `gorm:"type:char(16);primaryKey" json:"id"`
	OrgID             string         `gorm:"type:char(16);not null;index" json:"org_id"`
	ContactName       string         `gorm:"size:200;not null" json:"contact_name"`
	ContactPhone      string         `gorm:"size:40;not null" json:"contact_phone"`
	ContactEmail      string         `gorm:"size:250" json:"contact_email,omitempty"`
	ContactAddress    string         `gorm:"size:500" json:"contact_address,omitempty"`
	StructuredInputs  datatypes.JSON `gorm:"type:jsonb" json:"structured_inputs"`
	EstimateSnapshot  datatypes.JSON `gorm:"type:jsonb;not null" json:"estimate_snapshot"`
	ReferralCode      string         `gorm:"size:12;uniqueIndex:idx_lead_org_refcode,priority:2" json:"referral_code"`
	ReferredByLeadID  *string        `gorm:"type:char(16)" json:"referred_by_lead_id,omitempty"`
	Status            LeadStatus     `gorm:"size:20;not null;default:'NEW'" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Lead) TableName() string { return "leads" }
