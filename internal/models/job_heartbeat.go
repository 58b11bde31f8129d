package models

import "time"

// JobHeartbeat records the last time a scheduler job completed an
// iteration, success or failure. Readiness probing treats a stale
// heartbeat (older than the job's configured TTL) as not-ready when strict
// heartbeat mode is on.
type JobHeartbeat struct {
	JobName    string    `gorm:"size:60;primaryKey" json:"job_name"`
	LastRunAt  time.Time `gorm:"not null" json:"last_run_at"`
	LastOK     bool      `gorm:"not null" json:"last_ok"`
	LastError  string    `gorm:"type:text" json:"last_error,omitempty"`
	RunCount   int64     `gorm:"not null;default:0" json:"run_count"`

	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (JobHeartbeat) TableName() string { return "job_heartbeats" }

// Stale reports whether the heartbeat is older than ttl as of now.
func (h *JobHeartbeat) Stale(now time.Time, ttl time.Duration) bool {
	return now.Sub(h.LastRunAt) > ttl
}
