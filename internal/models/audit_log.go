package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions recorded for privileged operations.
const (
	AuditActionStatusOverride = "status_override"
)

// AuditLog records a privileged administrative action against a card.
type AuditLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Actor    string         `gorm:"type:text;not null"`       // Admin username performing the action.
	Action   string         `gorm:"type:text;not null;index"` // Action identifier.
	CardCode string         `gorm:"type:text;not null;index"` // Affected card code.
	Detail   datatypes.JSON `gorm:"type:json"`                // Action-specific payload.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Record time.
}
