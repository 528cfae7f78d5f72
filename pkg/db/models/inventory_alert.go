package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/orbas1/fixnado-backend/pkg/enums"
)

// InventoryAlert flags items whose available quantity crossed a threshold.
type InventoryAlert struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ItemID         uuid.UUID           `gorm:"column:item_id;type:uuid;not null;index"`
	AlertType      enums.AlertType     `gorm:"column:alert_type;type:text;not null"`
	Severity       enums.AlertSeverity `gorm:"column:severity;type:text;not null;default:'warning'"`
	Status         enums.AlertStatus   `gorm:"column:status;type:text;not null;default:'open'"`
	Threshold      int                 `gorm:"column:threshold;not null"`
	ObservedQty    int                 `gorm:"column:observed_qty;not null"`
	AcknowledgedBy *uuid.UUID          `gorm:"column:acknowledged_by;type:uuid"`
	AcknowledgedAt *time.Time          `gorm:"column:acknowledged_at"`
	ResolvedAt     *time.Time          `gorm:"column:resolved_at"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
