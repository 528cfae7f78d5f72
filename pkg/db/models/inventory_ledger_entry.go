package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/orbas1/fixnado-backend/pkg/enums"
)

// InventoryLedgerEntry is an immutable record of one quantity movement.
// Rows are only ever inserted, never updated or deleted.
type InventoryLedgerEntry struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ItemID         uuid.UUID            `gorm:"column:item_id;type:uuid;not null;index"`
	AdjustmentType enums.AdjustmentType `gorm:"column:adjustment_type;type:text;not null"`
	Quantity       int                  `gorm:"column:quantity;not null"`
	OnHandAfter    int                  `gorm:"column:on_hand_after;not null"`
	ReservedAfter  int                  `gorm:"column:reserved_after;not null"`
	RentalID       *uuid.UUID           `gorm:"column:rental_id;type:uuid;index"`
	ActorID        *uuid.UUID           `gorm:"column:actor_id;type:uuid"`
	ActorRole      enums.ActorRole      `gorm:"column:actor_role;type:text;not null;default:'system'"`
	Reason         *string              `gorm:"column:reason"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime;index"`
}
