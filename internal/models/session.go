package models

import "time"

// Session backs an issued access+refresh token pair. It is the unit of
// revocation: deleting/marking a Session dead invalidates both tokens
// regardless of the JWT's own exp claim.
type Session struct {
	ID                string     `gorm:"type:char(20);primaryKey" json:"id"`
	UserID            string     `gorm:"type:char(16);not null;index" json:"user_id"`
	OrgID             string     `gorm:"type:char(16);not null;index" json:"org_id"`
	AccessJTI         string     `gorm:"size:40;not null;uniqueIndex" json:"access_jti"`
	RefreshHash       string     `gorm:"size:128;not null;index" json:"-"`
	IssuedAt          time.Time  `gorm:"not null" json:"issued_at"`
	ExpiresAt         time.Time  `gorm:"not null" json:"expires_at"`
	RefreshExpiresAt  time.Time  `gorm:"not null" json:"refresh_expires_at"`
	RevokedAt         *time.Time `json:"revoked_at,omitempty"`
	RevokedReason     string     `gorm:"size:40" json:"revoked_reason,omitempty"`
	PredecessorID     string     `gorm:"type:char(20)" json:"predecessor_id,omitempty"`
	DeviceFingerprint string     `gorm:"size:250" json:"device_fingerprint,omitempty"`
	IP                string     `gorm:"size:64" json:"ip,omitempty"`
	UserAgent         string     `gorm:"size:250" json:"user_agent,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Session) TableName() string { return "sessions" }

// Active reports whether s is usable right now: not revoked, not expired.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// RefreshActive reports whether the refresh token backing s can still be
// exchanged: not revoked, refresh window not yet elapsed.
func (s *Session) RefreshActive(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.RefreshExpiresAt)
}
