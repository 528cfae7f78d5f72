package rentals

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orbas1/fixnado-backend/internal/rentals/settlement"
	"github.com/orbas1/fixnado-backend/pkg/db/models"
	"github.com/orbas1/fixnado-backend/pkg/enums"
	"github.com/orbas1/fixnado-backend/pkg/outbox"
)

// Actor identifies who is performing an operation. A zero Actor is treated
// as the system acting on its own behalf.
type Actor struct {
	ID        *uuid.UUID
	CompanyID *uuid.UUID
	Role      enums.ActorRole
}

func (a Actor) role() enums.ActorRole {
	if a.Role == "" {
		return enums.ActorRoleSystem
	}
	return a.Role
}

func (a Actor) ref() *outbox.ActorRef {
	if a.ID == nil {
		return nil
	}
	return &outbox.ActorRef{
		UserID:    *a.ID,
		CompanyID: a.CompanyID,
		Role:      a.role().String(),
	}
}

// RequestInput creates a rental and places the reservation hold.
type RequestInput struct {
	CompanyID         uuid.UUID
	ItemID            uuid.UUID
	RenterID          uuid.UUID
	ProviderID        uuid.UUID
	Quantity          int
	Currency          enums.Currency
	DailyRate         decimal.Decimal
	DepositAmount     decimal.Decimal
	BookingRef        *string
	ScheduledPickupAt *time.Time
	DueAt             *time.Time
	Actor             Actor
}

// SchedulePickupInput fixes the pickup window for an approved rental.
type SchedulePickupInput struct {
	RentalID uuid.UUID
	PickupAt time.Time
	DueAt    time.Time
	Actor    Actor
}

// CheckoutInput hands the item over and converts the reservation into a
// physical removal.
type CheckoutInput struct {
	RentalID     uuid.UUID
	CheckedOutAt *time.Time
	ConditionOut *string
	Actor        Actor
}

// ReturnInput records the item coming back on shelf.
type ReturnInput struct {
	RentalID    uuid.UUID
	ReturnedAt  *time.Time
	ConditionIn *string
	Actor       Actor
}

// InspectionInput settles the rental after the post-return inspection.
type InspectionInput struct {
	RentalID uuid.UUID
	Outcome  enums.InspectionOutcome
	Charges  []settlement.Charge
	Notes    *string
	Actor    Actor
}

// CancelInput releases the reservation and closes the rental pre-checkout.
type CancelInput struct {
	RentalID uuid.UUID
	Reason   *string
	Actor    Actor
}

// DisputeInput flags the rental for manual resolution.
type DisputeInput struct {
	RentalID    uuid.UUID
	Reason      string
	EvidenceURL *string
	Actor       Actor
}

// DepositStatusInput adjusts the deposit side-channel independent of the
// lifecycle status.
type DepositStatusInput struct {
	RentalID uuid.UUID
	Status   enums.DepositStatus
	Reason   *string
	Amount   *decimal.Decimal
	Actor    Actor
}

// Detail is one rental with a preview of its latest checkpoints.
type Detail struct {
	Rental      *models.RentalAgreement
	Item        *models.InventoryItem
	Checkpoints []models.RentalCheckpoint
}

// Page is one page of rentals plus the cursor for the next page.
type Page struct {
	Rentals    []models.RentalAgreement
	NextCursor string
}

// newRentalNumber builds the human-readable rental reference
// FXR-YYYYMMDD-XXXXXX. Uniqueness is enforced by the rental_number index;
// callers retry on collision.
func newRentalNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("FXR-%s-%s", now.UTC().Format("20060102"), suffix)
}
