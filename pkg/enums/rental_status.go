package enums

import "fmt"

// RentalStatus tracks the lifecycle of a rental agreement.
type RentalStatus string

const (
	RentalStatusRequested         RentalStatus = "requested"
	RentalStatusApproved          RentalStatus = "approved"
	RentalStatusPickupScheduled   RentalStatus = "pickup_scheduled"
	RentalStatusInUse             RentalStatus = "in_use"
	RentalStatusInspectionPending RentalStatus = "inspection_pending"
	RentalStatusSettled           RentalStatus = "settled"
	RentalStatusCancelled         RentalStatus = "cancelled"
	RentalStatusDisputed          RentalStatus = "disputed"
)

var validRentalStatuses = []RentalStatus{
	RentalStatusRequested,
	RentalStatusApproved,
	RentalStatusPickupScheduled,
	RentalStatusInUse,
	RentalStatusInspectionPending,
	RentalStatusSettled,
	RentalStatusCancelled,
	RentalStatusDisputed,
}

// String implements fmt.Stringer.
func (r RentalStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RentalStatus.
func (r RentalStatus) IsValid() bool {
	for _, candidate := range validRentalStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the rental lifecycle.
func (r RentalStatus) IsTerminal() bool {
	return r == RentalStatusSettled || r == RentalStatusCancelled
}

// ParseRentalStatus converts raw input into a RentalStatus.
func ParseRentalStatus(value string) (RentalStatus, error) {
	for _, candidate := range validRentalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rental status %q", value)
}
