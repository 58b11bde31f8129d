package store

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cleanco/platform/internal/models"
)

type Heartbeats struct{}

func (Heartbeats) Upsert(tx *gorm.DB, jobName string, ok bool, lastErr string, at time.Time) error {
	hb := models.JobHeartbeat{JobName: jobName, LastRunAt: at, LastOK: ok, LastError: lastErr, RunCount: 1}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "job_name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_run_at": at,
			"last_ok":     ok,
			"last_error":  lastErr,
			"run_count":   gorm.Expr("job_heartbeats.run_count + 1"),
		}),
	}).Create(&hb).Error
}

func (Heartbeats) All(tx *gorm.DB) ([]models.JobHeartbeat, error) {
	var hbs []models.JobHeartbeat
	err := tx.Find(&hbs).Error
	return hbs, err
}
