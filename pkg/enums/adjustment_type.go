package enums

import "fmt"

// AdjustmentType identifies the kind of quantity movement recorded
// against an inventory item.
type AdjustmentType string

const (
	AdjustmentTypeReservation        AdjustmentType = "reservation"
	AdjustmentTypeReservationRelease AdjustmentType = "reservation_release"
	AdjustmentTypeCheckout           AdjustmentType = "checkout"
	AdjustmentTypeReturn             AdjustmentType = "return"
	AdjustmentTypeWriteOff           AdjustmentType = "write_off"
	AdjustmentTypeRestock            AdjustmentType = "restock"
	AdjustmentTypeAdjustment         AdjustmentType = "adjustment"
)

var validAdjustmentTypes = []AdjustmentType{
	AdjustmentTypeReservation,
	AdjustmentTypeReservationRelease,
	AdjustmentTypeCheckout,
	AdjustmentTypeReturn,
	AdjustmentTypeWriteOff,
	AdjustmentTypeRestock,
	AdjustmentTypeAdjustment,
}

// String implements fmt.Stringer.
func (a AdjustmentType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AdjustmentType.
func (a AdjustmentType) IsValid() bool {
	for _, candidate := range validAdjustmentTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAdjustmentType converts raw input into an AdjustmentType.
func ParseAdjustmentType(value string) (AdjustmentType, error) {
	for _, candidate := range validAdjustmentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid adjustment type %q", value)
}
