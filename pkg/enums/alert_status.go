package enums

import "fmt"

// AlertStatus tracks the workflow state of an inventory alert.
type AlertStatus string

const (
	AlertStatusOpen         AlertStatus = "open"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

var validAlertStatuses = []AlertStatus{
	AlertStatusOpen,
	AlertStatusAcknowledged,
	AlertStatusResolved,
}

// String implements fmt.Stringer.
func (a AlertStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AlertStatus.
func (a AlertStatus) IsValid() bool {
	for _, candidate := range validAlertStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAlertStatus converts raw input into an AlertStatus.
func ParseAlertStatus(value string) (AlertStatus, error) {
	for _, candidate := range validAlertStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid alert status %q", value)
}
