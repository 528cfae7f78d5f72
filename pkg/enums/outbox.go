package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateRental         OutboxAggregateType = "rental"
	AggregateInventoryItem  OutboxAggregateType = "inventory_item"
	AggregateInventoryAlert OutboxAggregateType = "inventory_alert"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateRental,
	AggregateInventoryItem,
	AggregateInventoryAlert,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventRentalRequested           OutboxEventType = "rental.requested"
	EventRentalApproved            OutboxEventType = "rental.approved"
	EventRentalPickupScheduled     OutboxEventType = "rental.pickup_scheduled"
	EventRentalCheckedOut          OutboxEventType = "rental.checked_out"
	EventRentalReturned            OutboxEventType = "rental.returned"
	EventRentalInspectionCompleted OutboxEventType = "rental.inspection.completed"
	EventRentalCancelled           OutboxEventType = "rental.cancelled"
	EventRentalDisputed            OutboxEventType = "rental.disputed"
	EventRentalDepositUpdated      OutboxEventType = "rental.deposit.updated"
	EventInventoryAlertRaised      OutboxEventType = "inventory.alert.raised"
)

var validOutboxEventTypes = []OutboxEventType{
	EventRentalRequested,
	EventRentalApproved,
	EventRentalPickupScheduled,
	EventRentalCheckedOut,
	EventRentalReturned,
	EventRentalInspectionCompleted,
	EventRentalCancelled,
	EventRentalDisputed,
	EventRentalDepositUpdated,
	EventInventoryAlertRaised,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
