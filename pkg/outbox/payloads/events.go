package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orbas1/fixnado-backend/pkg/enums"
)

// RentalRequestedEvent signals a new rental request holding inventory.
type RentalRequestedEvent struct {
	RentalID     uuid.UUID `json:"rental_id"`
	RentalNumber string    `json:"rental_number"`
	ItemID       uuid.UUID `json:"item_id"`
	RenterID     uuid.UUID `json:"renter_id"`
	Quantity     int       `json:"quantity"`
}

// RentalApprovedEvent is emitted when a provider accepts a request.
type RentalApprovedEvent struct {
	RentalID   uuid.UUID `json:"rental_id"`
	ItemID     uuid.UUID `json:"item_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	ApprovedAt time.Time `json:"approved_at"`
}

// RentalPickupScheduledEvent carries the agreed pickup window.
type RentalPickupScheduledEvent struct {
	RentalID          uuid.UUID `json:"rental_id"`
	ItemID            uuid.UUID `json:"item_id"`
	ScheduledPickupAt time.Time `json:"scheduled_pickup_at"`
	DueAt             time.Time `json:"due_at"`
}

// RentalCheckedOutEvent is emitted when the item physically leaves stock.
type RentalCheckedOutEvent struct {
	RentalID     uuid.UUID  `json:"rental_id"`
	ItemID       uuid.UUID  `json:"item_id"`
	Quantity     int        `json:"quantity"`
	CheckedOutAt time.Time  `json:"checked_out_at"`
	DueAt        *time.Time `json:"due_at,omitempty"`
}

// RentalReturnedEvent is emitted when the renter hands the item back.
type RentalReturnedEvent struct {
	RentalID   uuid.UUID `json:"rental_id"`
	ItemID     uuid.UUID `json:"item_id"`
	Quantity   int       `json:"quantity"`
	ReturnedAt time.Time `json:"returned_at"`
	Late       bool      `json:"late"`
}

// RentalInspectionCompletedEvent closes the inspection and settles the rental.
type RentalInspectionCompletedEvent struct {
	RentalID     uuid.UUID               `json:"rental_id"`
	ItemID       uuid.UUID               `json:"item_id"`
	Outcome      enums.InspectionOutcome `json:"outcome"`
	TotalDue     decimal.Decimal         `json:"total_due"`
	DepositKept  decimal.Decimal         `json:"deposit_kept"`
	DepositOwed  decimal.Decimal         `json:"deposit_owed"`
	SettledAt    time.Time               `json:"settled_at"`
	DamageCharge decimal.Decimal         `json:"damage_charge"`
}

// RentalCancelledEvent is emitted whenever a rental is cancelled pre-checkout.
type RentalCancelledEvent struct {
	RentalID    uuid.UUID `json:"rental_id"`
	ItemID      uuid.UUID `json:"item_id"`
	CancelledAt time.Time `json:"cancelled_at"`
	Reason      string    `json:"reason,omitempty"`
}

// RentalDisputedEvent flags a rental for manual resolution.
type RentalDisputedEvent struct {
	RentalID    uuid.UUID `json:"rental_id"`
	RaisedBy    uuid.UUID `json:"raised_by"`
	Reason      string    `json:"reason"`
	EvidenceURL *string   `json:"evidence_url,omitempty"`
	RaisedAt    time.Time `json:"raised_at"`
}

// RentalDepositUpdatedEvent reports deposit status changes post-settlement.
type RentalDepositUpdatedEvent struct {
	RentalID      uuid.UUID           `json:"rental_id"`
	DepositStatus enums.DepositStatus `json:"deposit_status"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// InventoryAlertRaisedEvent notifies downstream systems about low stock.
type InventoryAlertRaisedEvent struct {
	AlertID     uuid.UUID           `json:"alert_id"`
	ItemID      uuid.UUID           `json:"item_id"`
	AlertType   enums.AlertType     `json:"alert_type"`
	Severity    enums.AlertSeverity `json:"severity"`
	Threshold   int                 `json:"threshold"`
	ObservedQty int                 `json:"observed_qty"`
}
