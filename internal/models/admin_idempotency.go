package models

import "time"

// AdminIdempotency records an admin write keyed by its caller-supplied
// Idempotency-Key. RequestHash is sha256(method, path, normalized body): a
// replayed key with a matching hash returns the stored response verbatim, a
// mismatched hash is a 409.
type AdminIdempotency struct {
	Key             string `gorm:"size:120;primaryKey" json:"key"`
	OrgID           string `gorm:"type:char(16);not null;index" json:"org_id"`
	RequestHash     string `gorm:"size:64;not null" json:"request_hash"`
	ResponseStatus  int    `gorm:"not null" json:"response_status"`
	ResponseBody    []byte `gorm:"type:jsonb" json:"response_body"`
	ExpiresAt       time.Time `gorm:"not null;index" json:"expires_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AdminIdempotency) TableName() string { return "admin_idempotency_keys" }
