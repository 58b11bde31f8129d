package models

import "time"

type ReferralCreditStatus string

const (
	ReferralCreditPending ReferralCreditStatus = "PENDING"
	ReferralCreditGranted ReferralCreditStatus = "GRANTED"
	ReferralCreditVoided  ReferralCreditStatus = "VOIDED"
)

// ReferralCredit tracks the reward owed to a referring Lead. It is created
// PENDING when a referred lead books, and flips to GRANTED or VOIDED in the
// same transaction as the referred booking's CONFIRMED/CANCELLED transition.
type ReferralCredit struct {
	ID               string               `gorm:"type:char(16);primaryKey" json:"id"`
	OrgID            string               `gorm:"type:char(16);not null;index" json:"org_id"`
	ReferringLeadID  string               `gorm:"type:char(16);not null;index" json:"referring_lead_id"`
	ReferredLeadID   string               `gorm:"type:char(16);not null;index" json:"referred_lead_id"`
	ReferredBookingID string              `gorm:"type:char(16);not null;index" json:"referred_booking_id"`
	AmountCents      int64                `gorm:"not null" json:"amount_cents"`
	Status           ReferralCreditStatus `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	ResolvedAt       *time.Time           `json:"resolved_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ReferralCredit) TableName() string { return "referral_credits" }
