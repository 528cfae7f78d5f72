package enums

import "fmt"

// CheckpointType identifies the audit event recorded against a rental.
// status_change entries carry the new status in their payload.
type CheckpointType string

const (
	CheckpointTypeStatusChange CheckpointType = "status_change"
	CheckpointTypeHandover     CheckpointType = "handover"
	CheckpointTypeReturn       CheckpointType = "return"
	CheckpointTypeInspection   CheckpointType = "inspection"
	CheckpointTypeDeposit      CheckpointType = "deposit"
	CheckpointTypeDispute      CheckpointType = "dispute"
	CheckpointTypeNote         CheckpointType = "note"
)

var validCheckpointTypes = []CheckpointType{
	CheckpointTypeStatusChange,
	CheckpointTypeHandover,
	CheckpointTypeReturn,
	CheckpointTypeInspection,
	CheckpointTypeDeposit,
	CheckpointTypeDispute,
	CheckpointTypeNote,
}

// String implements fmt.Stringer.
func (c CheckpointType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckpointType.
func (c CheckpointType) IsValid() bool {
	for _, candidate := range validCheckpointTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCheckpointType converts raw input into a CheckpointType.
func ParseCheckpointType(value string) (CheckpointType, error) {
	for _, candidate := range validCheckpointTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkpoint type %q", value)
}
