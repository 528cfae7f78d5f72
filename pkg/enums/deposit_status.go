package enums

import "fmt"

// DepositStatus tracks the security deposit held for a rental.
type DepositStatus string

const (
	DepositStatusPending           DepositStatus = "pending"
	DepositStatusHeld              DepositStatus = "held"
	DepositStatusPartiallyReleased DepositStatus = "partially_released"
	DepositStatusReleased          DepositStatus = "released"
	DepositStatusForfeited         DepositStatus = "forfeited"
)

var validDepositStatuses = []DepositStatus{
	DepositStatusPending,
	DepositStatusHeld,
	DepositStatusPartiallyReleased,
	DepositStatusReleased,
	DepositStatusForfeited,
}

// String implements fmt.Stringer.
func (d DepositStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DepositStatus.
func (d DepositStatus) IsValid() bool {
	for _, candidate := range validDepositStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDepositStatus converts raw input into a DepositStatus.
func ParseDepositStatus(value string) (DepositStatus, error) {
	for _, candidate := range validDepositStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deposit status %q", value)
}
