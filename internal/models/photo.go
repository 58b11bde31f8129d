package models

import "time"

// Photo is a stored object reference, not the bytes themselves. Deletion is
// DB-row-first: the row is removed outright in the same transaction that
// detaches it from its owning booking/lead, and a storage-delete outbox
// event (keyed on StorageKey, not the now-gone row) retries the backend
// delete until it succeeds.
type Photo struct {
	ID               string    `gorm:"type:char(16);primaryKey" json:"id"`
	OrgID            string    `gorm:"type:char(16);not null;index" json:"org_id"`
	BookingID        *string   `gorm:"type:char(16);index" json:"booking_id,omitempty"`
	LeadID           *string   `gorm:"type:char(16);index" json:"lead_id,omitempty"`
	StorageKey       string    `gorm:"size:500;not null" json:"storage_key"`
	Backend          string    `gorm:"size:20;not null" json:"backend"`
	MIMEType         string    `gorm:"size:100;not null" json:"mime_type"`
	SizeBytes        int64     `gorm:"not null" json:"size_bytes"`
	UploadedByUserID *string   `gorm:"type:char(16)" json:"uploaded_by_user_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Photo) TableName() string { return "photos" }
