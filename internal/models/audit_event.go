package models

import (
	"time"

	"gorm.io/datatypes"
)

// PersistentAuditEvent is a security event (authentication success/failure...)
// kept for the management audit screens.
type PersistentAuditEvent struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Principal string         `gorm:"size:50;not null;index" json:"principal"`
	EventDate time.Time      `gorm:"not null;index" json:"timestamp"`
	EventType string         `gorm:"size:255;index" json:"type"`
	Data      datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"data"`
}
