package enums

import "fmt"

// AlertSeverity ranks how urgent an inventory alert is.
type AlertSeverity string

const (
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityCritical AlertSeverity = "critical"
)

var validAlertSeverities = []AlertSeverity{
	AlertSeverityWarning,
	AlertSeverityCritical,
}

// String implements fmt.Stringer.
func (a AlertSeverity) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AlertSeverity.
func (a AlertSeverity) IsValid() bool {
	for _, candidate := range validAlertSeverities {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAlertSeverity converts raw input into an AlertSeverity.
func ParseAlertSeverity(value string) (AlertSeverity, error) {
	for _, candidate := range validAlertSeverities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid alert severity %q", value)
}
