package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orbas1/fixnado-backend/pkg/enums"
	"github.com/orbas1/fixnado-backend/pkg/types"
)

// RentalAgreement is the aggregate root of the rental lifecycle.
type RentalAgreement struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	RentalNumber  string              `gorm:"column:rental_number;type:text;not null;uniqueIndex"`
	CompanyID     uuid.UUID           `gorm:"column:company_id;type:uuid;not null;index"`
	ItemID        uuid.UUID           `gorm:"column:item_id;type:uuid;not null;index"`
	RenterID      uuid.UUID           `gorm:"column:renter_id;type:uuid;not null;index"`
	ProviderID    uuid.UUID           `gorm:"column:provider_id;type:uuid;not null"`
	Quantity      int                 `gorm:"column:quantity;not null"`
	Status        enums.RentalStatus  `gorm:"column:status;type:text;not null;default:'requested'"`
	Currency      enums.Currency      `gorm:"column:currency;type:text;not null;default:'USD'"`
	DailyRate     decimal.Decimal     `gorm:"column:daily_rate;type:numeric(12,2);not null"`
	DepositAmount decimal.Decimal     `gorm:"column:deposit_amount;type:numeric(12,2);not null;default:0"`
	DepositStatus enums.DepositStatus `gorm:"column:deposit_status;type:text;not null;default:'pending'"`
	BookingRef    *string             `gorm:"column:booking_ref;type:text"`

	ScheduledPickupAt *time.Time `gorm:"column:scheduled_pickup_at"`
	CheckedOutAt      *time.Time `gorm:"column:checked_out_at"`
	DueAt             *time.Time `gorm:"column:due_at"`
	ReturnedAt        *time.Time `gorm:"column:returned_at"`
	SettledAt         *time.Time `gorm:"column:settled_at"`
	CancelledAt       *time.Time `gorm:"column:cancelled_at"`

	// Stamped only on lifecycle status changes, never on deposit updates.
	LastStatusTransitionAt *time.Time `gorm:"column:last_status_transition_at"`

	Meta types.RentalMeta `gorm:"column:meta;type:jsonb;serializer:json"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
