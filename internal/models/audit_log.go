package models

import "time"

// AuditLog is an append-only record of a security- or billing-relevant
// action. Detail is pre-redacted JSON — callers must run it through
// logging.Redact before persisting, the same as the request logger does for
// HTTP access logs.
type AuditLog struct {
	ID            string    `gorm:"type:char(20);primaryKey" json:"id"`
	OrgID         string    `gorm:"type:char(16);not null;index" json:"org_id"`
	RequestID     string    `gorm:"size:60;index" json:"request_id,omitempty"`
	PrincipalKind string    `gorm:"size:20;not null" json:"principal_kind"`
	PrincipalID   string    `gorm:"size:60" json:"principal_id,omitempty"`
	Event         string    `gorm:"size:80;not null;index" json:"event"`
	TargetType    string    `gorm:"size:40" json:"target_type,omitempty"`
	TargetID      string    `gorm:"size:60" json:"target_id,omitempty"`
	Detail        []byte    `gorm:"type:jsonb" json:"detail,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
