package logging

import (
	"time"

	"github.com/skcgolf/skc-api/internal/models"
	"gorm.io/gorm"
)

const Retention = 30 * 24 * time.Hour

// StartCleanup runs a daily goroutine that deletes system_logs older than 30 days.
func StartCleanup(db *gorm.DB, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				Cleanup(db, time.Now().Add(-Retention))
			case <-done:
				return
			}
		}
	}()
}

// Cleanup deletes system_logs written before cutoff.
func Cleanup(db *gorm.DB, cutoff time.Time) int64 {
	log := For("logging")
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		log.Error("log cleanup failed", "error", result.Error)
		return 0
	}
	if result.RowsAffected > 0 {
		log.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
	return result.RowsAffected
}
