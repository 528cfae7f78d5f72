package enums

import "fmt"

// InspectionOutcome records the verdict of a post-return inspection.
type InspectionOutcome string

const (
	InspectionOutcomeOK      InspectionOutcome = "ok"
	InspectionOutcomeDamaged InspectionOutcome = "damaged"
	InspectionOutcomeLost    InspectionOutcome = "lost"
)

var validInspectionOutcomes = []InspectionOutcome{
	InspectionOutcomeOK,
	InspectionOutcomeDamaged,
	InspectionOutcomeLost,
}

// String implements fmt.Stringer.
func (i InspectionOutcome) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InspectionOutcome.
func (i InspectionOutcome) IsValid() bool {
	for _, candidate := range validInspectionOutcomes {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInspectionOutcome converts raw input into an InspectionOutcome.
func ParseInspectionOutcome(value string) (InspectionOutcome, error) {
	for _, candidate := range validInspectionOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inspection outcome %q", value)
}
