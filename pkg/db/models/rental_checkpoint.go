package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/orbas1/fixnado-backend/pkg/enums"
	"github.com/orbas1/fixnado-backend/pkg/types"
)

// RentalCheckpoint is an append-only audit record for a rental.
// Rows are only ever inserted.
type RentalCheckpoint struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	RentalID       uuid.UUID            `gorm:"column:rental_id;type:uuid;not null;index"`
	CheckpointType enums.CheckpointType `gorm:"column:checkpoint_type;type:text;not null"`
	ActorID        *uuid.UUID           `gorm:"column:actor_id;type:uuid"`
	ActorRole      enums.ActorRole      `gorm:"column:actor_role;type:text;not null;default:'system'"`
	Note           *string              `gorm:"column:note"`
	Data           *types.JSONMap       `gorm:"column:data;type:jsonb;serializer:json"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime;index"`
}
