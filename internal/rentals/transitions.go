package rentals

import (
	"fmt"

	"github.com/orbas1/fixnado-backend/pkg/enums"
	apperrors "github.com/orbas1/fixnado-backend/pkg/errors"
)

// transitionTable defines the only legal status edges. Terminal states have
// no outgoing edges except settled, which may still be disputed.
var transitionTable = map[enums.RentalStatus][]enums.RentalStatus{
	enums.RentalStatusRequested: {
		enums.RentalStatusApproved,
		enums.RentalStatusCancelled,
	},
	enums.RentalStatusApproved: {
		enums.RentalStatusPickupScheduled,
		enums.RentalStatusInUse,
		enums.RentalStatusCancelled,
	},
	enums.RentalStatusPickupScheduled: {
		enums.RentalStatusInUse,
		enums.RentalStatusCancelled,
	},
	enums.RentalStatusInUse: {
		enums.RentalStatusInspectionPending,
		enums.RentalStatusDisputed,
	},
	enums.RentalStatusInspectionPending: {
		enums.RentalStatusSettled,
		enums.RentalStatusDisputed,
	},
	enums.RentalStatusSettled: {
		enums.RentalStatusDisputed,
	},
	enums.RentalStatusCancelled: {},
	enums.RentalStatusDisputed:  {},
}

// CanTransition reports whether the edge from -> to is in the table.
func CanTransition(from, to enums.RentalStatus) bool {
	for _, candidate := range transitionTable[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// AllowedTargets returns the legal next statuses for the given status.
func AllowedTargets(from enums.RentalStatus) []enums.RentalStatus {
	targets := transitionTable[from]
	out := make([]enums.RentalStatus, len(targets))
	copy(out, targets)
	return out
}

func guardTransition(from, to enums.RentalStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return apperrors.New(apperrors.CodeStateConflict,
		fmt.Sprintf("cannot transition rental from %s to %s", from, to)).
		WithDetails(map[string]any{
			"from":    from.String(),
			"to":      to.String(),
			"allowed": statusStrings(AllowedTargets(from)),
		})
}

func statusStrings(statuses []enums.RentalStatus) []string {
	out := make([]string, len(statuses))
	for i, status := range statuses {
		out[i] = status.String()
	}
	return out
}
