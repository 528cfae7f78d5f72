package rentals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/orbas1/fixnado-backend/internal/checkpoints"
	"github.com/orbas1/fixnado-backend/internal/inventory"
	"github.com/orbas1/fixnado-backend/internal/rentals/settlement"
	dbpkg "github.com/orbas1/fixnado-backend/pkg/db"
	"github.com/orbas1/fixnado-backend/pkg/db/models"
	"github.com/orbas1/fixnado-backend/pkg/enums"
	apperrors "github.com/orbas1/fixnado-backend/pkg/errors"
	"github.com/orbas1/fixnado-backend/pkg/logger"
	"github.com/orbas1/fixnado-backend/pkg/metrics"
	"github.com/orbas1/fixnado-backend/pkg/outbox"
	"github.com/orbas1/fixnado-backend/pkg/outbox/payloads"
	"github.com/orbas1/fixnado-backend/pkg/pagination"
	"github.com/orbas1/fixnado-backend/pkg/types"
)

const rentalNumberAttempts = 3

// Service drives the rental agreement lifecycle. Every state-changing
// operation runs as one unit of work covering the rental row, the inventory
// adjustment, the checkpoint and the outbox event.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*models.RentalAgreement, error)
	Approve(ctx context.Context, rentalID uuid.UUID, actor Actor) (*models.RentalAgreement, error)
	SchedulePickup(ctx context.Context, input SchedulePickupInput) (*models.RentalAgreement, error)
	Checkout(ctx context.Context, input CheckoutInput) (*models.RentalAgreement, error)
	MarkReturned(ctx context.Context, input ReturnInput) (*models.RentalAgreement, error)
	CompleteInspection(ctx context.Context, input InspectionInput) (*models.RentalAgreement, error)
	Cancel(ctx context.Context, input CancelInput) (*models.RentalAgreement, error)
	RaiseDispute(ctx context.Context, input DisputeInput) (*models.RentalAgreement, error)
	UpdateDepositStatus(ctx context.Context, input DepositStatusInput) (*models.RentalAgreement, error)

	Get(ctx context.Context, rentalID uuid.UUID) (*Detail, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (*Page, error)
}

// TxRunner abstracts the transaction entry point used by the service.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	txRunner    TxRunner
	repo        Repository
	inventory   inventory.Service
	checkpoints checkpoints.Service
	outbox      *outbox.Service
	metrics     *metrics.RentalMetrics
	logg        *logger.Logger
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	TxRunner    TxRunner
	Repo        Repository
	Inventory   inventory.Service
	Checkpoints checkpoints.Service
	Outbox      *outbox.Service
	Metrics     *metrics.RentalMetrics
	Logger      *logger.Logger
}

// NewService wires a rental service.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("rental repository required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if params.Checkpoints == nil {
		return nil, fmt.Errorf("checkpoint service required")
	}
	return &service{
		txRunner:    params.TxRunner,
		repo:        params.Repo,
		inventory:   params.Inventory,
		checkpoints: params.Checkpoints,
		outbox:      params.Outbox,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

func (s *service) Request(ctx context.Context, input RequestInput) (*models.RentalAgreement, error) {
	if input.CompanyID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "company id is required")
	}
	if input.ItemID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "item id is required")
	}
	if input.RenterID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "renter id is required")
	}
	if input.ProviderID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "provider id is required")
	}
	if input.Quantity <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "quantity must be positive")
	}
	if input.DailyRate.IsNegative() {
		return nil, apperrors.New(apperrors.CodeValidation, "daily rate cannot be negative")
	}
	if input.DepositAmount.IsNegative() {
		return nil, apperrors.New(apperrors.CodeValidation, "deposit amount cannot be negative")
	}
	if input.ScheduledPickupAt != nil && input.DueAt != nil && !input.DueAt.After(*input.ScheduledPickupAt) {
		return nil, apperrors.New(apperrors.CodeValidation, "due date must be after the pickup date")
	}
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	if !currency.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid currency %q", currency))
	}

	now := time.Now().UTC()
	rental := &models.RentalAgreement{
		ID:                     uuid.New(),
		CompanyID:              input.CompanyID,
		ItemID:                 input.ItemID,
		RenterID:               input.RenterID,
		ProviderID:             input.ProviderID,
		Quantity:               input.Quantity,
		Status:                 enums.RentalStatusRequested,
		Currency:               currency,
		DailyRate:              input.DailyRate,
		DepositAmount:          input.DepositAmount,
		DepositStatus:          enums.DepositStatusPending,
		BookingRef:             input.BookingRef,
		ScheduledPickupAt:      input.ScheduledPickupAt,
		DueAt:                  input.DueAt,
		LastStatusTransitionAt: &now,
	}

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.createWithNumber(ctx, repo, rental, now); err != nil {
			return err
		}

		if _, err := s.inventory.ApplyAdjustmentTx(ctx, tx, inventory.AdjustmentInput{
			ItemID:         input.ItemID,
			AdjustmentType: enums.AdjustmentTypeReservation,
			Quantity:       input.Quantity,
			RentalID:       &rental.ID,
			ActorID:        input.Actor.ID,
			ActorRole:      input.Actor.role(),
		}); err != nil {
			return err
		}

		if _, err := s.checkpoints.AppendTx(ctx, tx, checkpoints.AppendInput{
			RentalID:       rental.ID,
			CheckpointType: enums.CheckpointTypeStatusChange,
			ActorID:        input.Actor.ID,
			ActorRole:      input.Actor.role(),
			Data: jsonMap(map[string]any{
				"status":   enums.RentalStatusRequested.String(),
				"item_id":  input.ItemID.String(),
				"quantity": input.Quantity,
			}),
		}); err != nil {
			return err
		}

		return s.emit(ctx, tx, rental, enums.EventRentalRequested, input.Actor, payloads.RentalRequestedEvent{
			RentalID:     rental.ID,
			RentalNumber: rental.RentalNumber,
			ItemID:       rental.ItemID,
			RenterID:     rental.RenterID,
			Quantity:     rental.Quantity,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logInfo(ctx, rental, "rental requested")
	return rental, nil
}

// createWithNumber retries the insert with a fresh rental number when the
// generated suffix collides.
func (s *service) createWithNumber(ctx context.Context, repo Repository, rental *models.RentalAgreement, now time.Time) error {
	for attempt := 0; attempt < rentalNumberAttempts; attempt++ {
		rental.RentalNumber = newRentalNumber(now)
		err := repo.Create(ctx, rental)
		if err == nil {
			return nil
		}
		if !dbpkg.IsUniqueViolation(err, "") {
			return apperrors.Wrap(apperrors.CodeInternal, err, "creating rental")
		}
	}
	return apperrors.New(apperrors.CodeInternal, "could not allocate a unique rental number")
}

func (s *service) Approve(ctx context.Context, rentalID uuid.UUID, actor Actor) (*models.RentalAgreement, error) {
	return s.mutate(ctx, rentalID, func(ctx context.Context, tx *gorm.DB, rental *models.RentalAgreement) error {
		if err := guardTransition(rental.Status, enums.RentalStatusApproved); err != nil {
			return err
		}
		setStatus(rental, enums.RentalStatusApproved)

		if err := s.repo.WithTx(tx).Update(ctx, rental); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "approving rental")
		}

		if _, err := s.checkpoints.AppendTx(ctx, tx, checkpoints.AppendInput{
			RentalID:       rental.ID,
			CheckpointType: enums.CheckpointTypeStatusChange,
			ActorID:        actor.ID,
			ActorRole:      actor.role(),
			Data: jsonMap(map[string]any{
				"status": enums.RentalStatusApproved.String(),
			}),
		}); err != nil {
			return err
		}

		return s.emit(ctx, tx, rental, enums.EventRentalApproved, actor, payloads.RentalApprovedEvent{
			RentalID:   rental.ID,
			ItemID:     rental.ItemID,
			ProviderID: rental.ProviderID,
			ApprovedAt: time.Now().UTC(),
		})
	})
}

func (s *service) SchedulePickup(ctx context.Context, input SchedulePickupInput) (*models.RentalAgreement, error) {
	if input.PickupAt.IsZero() || input.DueAt.IsZero() {
		return nil, apperrors.New(apperrors.CodeValidation, "pickup and due dates are required")
	}
	if !input.DueAt.After(input.PickupAt) {
		return nil, apperrors.New(apperrors.CodeValidation, "due date must be after the pickup date")
	}

	return s.mutate(ctx, input.RentalID, func(ctx context.Context, tx *gorm.DB, rental *models.RentalAgreement) error {
		// Rescheduling an already scheduled pickup is allowed.
		if rental.Status != enums.RentalStatusPickupScheduled {
			if err := guardTransition(rental.Status, enums.RentalStatusPickupScheduled); err != nil {
				return err
			}
		}
		setStatus(rental, enums.RentalStatusPickupScheduled)
		rental.ScheduledPickupAt = &input.PickupAt
		rental.DueAt = &input.DueAt

		if err := s.repo.WithTx(tx).Update(ctx, rental); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "scheduling pickup")
		}

		if _, err := s.checkpoints.AppendTx(ctx, tx, checkpoints.AppendInput{
			RentalID:       rental.ID,
			CheckpointType: enums.CheckpointTypeHandover,
			ActorID:        input.Actor.ID,
			ActorRole:      input.Actor.role(),
			Data: jsonMap(map[string]any{
				"pickup_at": input.PickupAt,
				"due_at":    input.DueAt,
			}),
		}); err != nil {
			return err
		}

		return s.emit(ctx, tx, rental, enums.EventRentalPickupScheduled, input.Actor, payloads.RentalPickupScheduledEvent{
			RentalID:          rental.ID,
			ItemID:            rental.ItemID,
			ScheduledPickupAt: input.PickupAt,
			DueAt:             input.DueAt,
		})
	})
}

func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*models.RentalAgreement, error) {
	return s.mutate(ctx, input.RentalID, func(ctx context.Context, tx *gorm.DB, rental *models.RentalAgreement) error {
		if err := guardTransition(rental.Status, enums.RentalStatusInUse); err != nil {
			return err
		}

		if _, err := s.inventory.ApplyAdjustmentTx(ctx, tx, inventory.AdjustmentInput{
			ItemID:         rental.ItemID,
			AdjustmentType: enums.AdjustmentTypeCheckout,
			Quantity:       rental.Quantity,
			RentalID:       &rental.ID,
			ActorID:        input.Actor.ID,
			ActorRole:      input.Actor.role(),
		}); err != nil {
			return err
		}

		checkedOutAt := time.Now().UTC()
		if input.CheckedOutAt != nil {
			checkedOutAt = input.CheckedOutAt.UTC()
		} else if rental.ScheduledPickupAt != nil {
			checkedOutAt = *rental.ScheduledPickupAt
		}
		rental.CheckedOutAt = &checkedOutAt
		if rental.DepositAmount.GreaterThan(decimal.Zero) {
			rental.DepositStatus = enums.DepositStatusHeld
		}
		setStatus(rental, enums.RentalStatusInUse)

		if err := s.repo.WithTx(tx).Update(ctx, rental); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "checking out rental")
		}

		if _, err := s.checkpoints.AppendTx(ctx, tx, checkpoints.AppendInput{
			RentalID:       rental.ID,
			CheckpointType: enums.CheckpointTypeHandover,
			ActorID:        input.Actor.ID,
			ActorRole:      input.Actor.role(),
			Note:           input.ConditionOut,
			Data: jsonMap(map[string]any{
				"quantity":       rental.Quantity,
				"checked_out_at": checkedOutAt,
			}),
		}); err != nil {
			return err
		}

		return s.emit(ctx, tx, rental, enums.EventRentalCheckedOut, input.Actor, payloads.RentalCheckedOutEvent{
			RentalID:     rental.ID,
			ItemID:       rental.ItemID,
			Quantity:     rental.Quantity,
			CheckedOutAt: checkedOutAt,
			DueAt:        rental.DueAt,
		})
	})
}

func (s *service) MarkReturned(ctx context.Context, input ReturnInput) (*models.RentalAgreement, error) {
	return s.mutate(ctx, input.RentalID, func(ctx context.Context, tx *gorm.DB, rental *models.RentalAgreement) error {
		if err := guardTransition(rental.Status, enums.RentalStatusInspectionPending); err != nil {
			return err
		}

		if _, err := s.inventory.ApplyAdjustmentTx(ctx, tx, inventory.AdjustmentInput{
			ItemID:         rental.ItemID,
			AdjustmentType: enums.AdjustmentTypeReturn,
			Quantity:       rental.Quantity,
			RentalID:       &rental.ID,
			ActorID:        input.Actor.ID,
			ActorRole:      input.Actor.role(),
		}); err != nil {
			return err
		}

		returnedAt := time.Now().UTC()
		if input.ReturnedAt != nil {
			returnedAt = input.ReturnedAt.UTC()
		}
		rental.ReturnedAt = &returnedAt
		setStatus(rental, enums.RentalStatusInspectionPending)

		if err := s.repo.WithTx(tx).Update(ctx, rental); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "marking rental returned")
		}

		late := rental.DueAt != nil && returnedAt.After(*rental.DueAt)

		if _, err := s.checkpoints.AppendTx(ctx, tx, checkpoints.AppendInput{
			RentalID:       rental.ID,
			CheckpointType: enums.CheckpointTypeReturn,
			ActorID:        input.Actor.ID,
			ActorRole:      input.Actor.role(),
			Note:           input.ConditionIn,
			Data: jsonMap(map[string]any{
				"returned_at": returnedAt,
				"late":        late,
			}),
		}); err != nil {
			return err
		}

		return s.emit(ctx, tx, rental, enums.EventRentalReturned, input.Actor, payloads.RentalReturnedEvent{
			RentalID:   rental.ID,
			ItemID:     rental.ItemID,
			Quantity:   rental.Quantity,
			ReturnedAt: returnedAt,
			Late:       late,
		})
	})
}

func (s *service) CompleteInspection(ctx context.Context, input InspectionInput) (*models.RentalAgreement, error) {
	if !input.Outcome.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid inspection outcome %q", input.Outcome))
	}
	for _, charge := range input.Charges {
		if charge.Amount.IsNegative() {
			return nil, apperrors.New(apperrors.CodeValidation, "charge amounts cannot be negative")
		}
	}

	return s.mutate(ctx, input.RentalID, func(ctx context.Context, tx *gorm.DB, rental *models.RentalAgreement) error {
		if err := guardTransition(rental.Status, enums.RentalStatusSettled); err != nil {
			return err
		}

		now := time.Now().UTC()
		start := rental.CreatedAt
		if rental.CheckedOutAt != nil {
			start = *rental.CheckedOutAt
		} else if rental.ScheduledPickupAt != nil {
			start = *rental.ScheduledPickupAt
		}
		end := now
		if rental.ReturnedAt != nil {
			end = *rental.ReturnedAt
		}
		quote := settlement.Calculate(start, end, rental.DailyRate, input.Charges)

		// Lost units were restocked by the return adjustment; write them
		// back off so on-hand reflects reality.
		if input.Outcome == enums.InspectionOutcomeLost {
			reason := "lost during rental"
			if _, err := s.inventory.ApplyAdjustmentTx(ctx, tx, inventory.AdjustmentInput{
				ItemID:         rental.ItemID,
				AdjustmentType: enums.AdjustmentTypeWriteOff,
				Quantity:       rental.Quantity,
				RentalID:       &rental.ID,
				ActorID:        input.Actor.ID,
				ActorRole:      input.Actor.role(),
				Reason:         &reason,
			}); err != nil {
				return err
			}
		}

		kept, owed := decimal.Zero, decimal.Zero
		if rental.DepositAmount.GreaterThan(decimal.Zero) {
			rental.DepositStatus = settlement.DepositDisposition(quote.AdditionalCharge, rental.DepositAmount)
			kept, owed = settlement.DepositSplit(quote.AdditionalCharge, rental.DepositAmount)
		}

		inspectedBy := uuid.Nil
		if input.Actor.ID != nil {
			inspectedBy = *input.Actor.ID
		}
		rental.Meta.Inspection = &types.InspectionInfo{
			Outcome:      input.Outcome.String(),
			InspectedBy:  inspectedBy,
			InspectedAt:  now,
			DamageCharge: quote.AdditionalCharge,
			Notes:        input.Notes,
		}
		rental.SettledAt = &now
		setStatus(rental, enums.RentalStatusSettled)

		if err := s.repo.WithTx(tx).Update(ctx, rental); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "settling rental")
		}

		if _, err := s.checkpoints.AppendTx(ctx, tx, checkpoints.AppendInput{
			RentalID:       rental.ID,
			CheckpointType: enums.CheckpointTypeInspection,
			ActorID:        input.Actor.ID,
			ActorRole:      input.Actor.role(),
			Note:           input.Notes,
			Data: jsonMap(map[string]any{
				"outcome":           input.Outcome.String(),
				"duration_days":     quote.DurationDays,
				"base_charge":       quote.BaseCharge.String(),
				"additional_charge": quote.AdditionalCharge.String(),
				"total_charges":     quote.TotalCharges.String(),
				"deposit_status":    rental.DepositStatus.String(),
			}),
		}); err != nil {
			return err
		}

		return s.emit(ctx, tx, rental, enums.EventRentalInspectionCompleted, input.Actor, payloads.RentalInspectionCompletedEvent{
			RentalID:     rental.ID,
			ItemID:       rental.ItemID,
			Outcome:      input.Outcome,
			TotalDue:     quote.TotalCharges,
			DepositKept:  kept,
			DepositOwed:  owed,
			SettledAt:    now,
			DamageCharge: quote.AdditionalCharge,
		})
	})
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.RentalAgreement, error) {
	return s.mutate(ctx, input.RentalID, func(ctx context.Context, tx *gorm.DB, rental *models.RentalAgreement) error {
		if err := guardTransition(rental.Status, enums.RentalStatusCancelled); err != nil {
			return err
		}

		if _, err := s.inventory.ApplyAdjustmentTx(ctx, tx, inventory.AdjustmentInput{
			ItemID:         rental.ItemID,
			AdjustmentType: enums.AdjustmentTypeReservationRelease,
			Quantity:       rental.Quantity,
			RentalID:       &rental.ID,
			ActorID:        input.Actor.ID,
			ActorRole:      input.Actor.role(),
		}); err != nil {
			return err
		}

		now := time.Now().UTC()
		rental.CancelledAt = &now
		rental.Meta.CancelReason = input.Reason
		if rental.DepositAmount.GreaterThan(decimal.Zero) {
			rental.DepositStatus = enums.DepositStatusReleased
		}
		setStatus(rental, enums.RentalStatusCancelled)

		if err := s.repo.WithTx(tx).Update(ctx, rental); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "cancelling rental")
		}

		if _, err := s.checkpoints.AppendTx(ctx, tx, checkpoints.AppendInput{
			RentalID:       rental.ID,
			CheckpointType: enums.CheckpointTypeStatusChange,
			ActorID:        input.Actor.ID,
			ActorRole:      input.Actor.role(),
			Note:           input.Reason,
			Data: jsonMap(map[string]any{
				"status": enums.RentalStatusCancelled.String(),
			}),
		}); err != nil {
			return err
		}

		reason := ""
		if input.Reason != nil {
			reason = *input.Reason
		}
		return s.emit(ctx, tx, rental, enums.EventRentalCancelled, input.Actor, payloads.RentalCancelledEvent{
			RentalID:    rental.ID,
			ItemID:      rental.ItemID,
			CancelledAt: now,
			Reason:      reason,
		})
	})
}

func (s *service) RaiseDispute(ctx context.Context, input DisputeInput) (*models.RentalAgreement, error) {
	if strings.TrimSpace(input.Reason) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "dispute reason is required")
	}

	return s.mutate(ctx, input.RentalID, func(ctx context.Context, tx *gorm.DB, rental *models.RentalAgreement) error {
		// Raising a dispute twice is a no-op.
		if rental.Status == enums.RentalStatusDisputed {
			return nil
		}
		if err := guardTransition(rental.Status, enums.RentalStatusDisputed); err != nil {
			return err
		}

		now := time.Now().UTC()
		raisedBy := uuid.Nil
		if input.Actor.ID != nil {
			raisedBy = *input.Actor.ID
		}
		rental.Meta.Dispute = &types.DisputeInfo{
			RaisedBy:    raisedBy,
			Reason:      input.Reason,
			EvidenceURL: input.EvidenceURL,
			RaisedAt:    now,
		}
		// The deposit stays where it is until the dispute resolves; the
		// hold is noted in the adjustment history.
		rental.Meta.AppendDepositAdjustment(types.DepositAdjustment{
			Amount:     decimal.Zero,
			Reason:     "deposit held pending dispute: " + input.Reason,
			RecordedBy: raisedBy,
			RecordedAt: now,
		})
		setStatus(rental, enums.RentalStatusDisputed)

		if err := s.repo.WithTx(tx).Update(ctx, rental); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "raising dispute")
		}

		data := map[string]any{
			"reason": input.Reason,
		}
		if input.EvidenceURL != nil {
			data["evidence_url"] = *input.EvidenceURL
		}
		if _, err := s.checkpoints.AppendTx(ctx, tx, checkpoints.AppendInput{
			RentalID:       rental.ID,
			CheckpointType: enums.CheckpointTypeDispute,
			ActorID:        input.Actor.ID,
			ActorRole:      input.Actor.role(),
			Note:           &input.Reason,
			Data:           jsonMap(data),
		}); err != nil {
			return err
		}

		return s.emit(ctx, tx, rental, enums.EventRentalDisputed, input.Actor, payloads.RentalDisputedEvent{
			RentalID:    rental.ID,
			RaisedBy:    raisedBy,
			Reason:      input.Reason,
			EvidenceURL: input.EvidenceURL,
			RaisedAt:    now,
		})
	})
}

// UpdateDepositStatus operates on the financial side-channel only and does
// not consult the lifecycle transition table.
func (s *service) UpdateDepositStatus(ctx context.Context, input DepositStatusInput) (*models.RentalAgreement, error) {
	if !input.Status.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid deposit status %q", input.Status))
	}

	return s.mutate(ctx, input.RentalID, func(ctx context.Context, tx *gorm.DB, rental *models.RentalAgreement) error {
		now := time.Now().UTC()
		recordedBy := uuid.Nil
		if input.Actor.ID != nil {
			recordedBy = *input.Actor.ID
		}
		reason := string(input.Status)
		if input.Reason != nil {
			reason = *input.Reason
		}
		amount := decimal.Zero
		if input.Amount != nil {
			amount = *input.Amount
		}

		rental.DepositStatus = input.Status
		rental.Meta.AppendDepositAdjustment(types.DepositAdjustment{
			Amount:     amount,
			Reason:     reason,
			RecordedBy: recordedBy,
			RecordedAt: now,
		})

		if err := s.repo.WithTx(tx).Update(ctx, rental); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "updating deposit status")
		}

		if _, err := s.checkpoints.AppendTx(ctx, tx, checkpoints.AppendInput{
			RentalID:       rental.ID,
			CheckpointType: enums.CheckpointTypeDeposit,
			ActorID:        input.Actor.ID,
			ActorRole:      input.Actor.role(),
			Note:           input.Reason,
			Data: jsonMap(map[string]any{
				"deposit_status": input.Status.String(),
				"amount":         amount.String(),
			}),
		}); err != nil {
			return err
		}

		return s.emit(ctx, tx, rental, enums.EventRentalDepositUpdated, input.Actor, payloads.RentalDepositUpdatedEvent{
			RentalID:      rental.ID,
			DepositStatus: input.Status,
			UpdatedAt:     now,
		})
	})
}

func (s *service) Get(ctx context.Context, rentalID uuid.UUID) (*Detail, error) {
	if rentalID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "rental id is required")
	}
	rental, err := s.repo.FindByID(ctx, rentalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "rental not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading rental")
	}

	item, err := s.inventory.GetItem(ctx, rental.ItemID)
	if err != nil && apperrors.As(err) != nil && apperrors.As(err).Code() != apperrors.CodeNotFound {
		return nil, err
	}

	latest, err := s.checkpoints.LatestN(ctx, rentalID, 5)
	if err != nil {
		return nil, err
	}

	return &Detail{Rental: rental, Item: item, Checkpoints: latest}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (*Page, error) {
	rows, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing rentals")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	page := &Page{Rentals: rows}
	if len(rows) > limit {
		page.Rentals = rows[:limit]
		last := page.Rentals[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// mutate loads and locks the rental, runs fn inside one unit of work and
// records the transition metric on success.
func (s *service) mutate(ctx context.Context, rentalID uuid.UUID, fn func(ctx context.Context, tx *gorm.DB, rental *models.RentalAgreement) error) (*models.RentalAgreement, error) {
	if rentalID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "rental id is required")
	}

	started := time.Now()
	var rental *models.RentalAgreement
	var from enums.RentalStatus

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := s.repo.WithTx(tx).FindByIDForUpdate(ctx, rentalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.CodeNotFound, "rental not found")
			}
			return apperrors.Wrap(apperrors.CodeInternal, err, "locking rental")
		}
		rental = loaded
		from = loaded.Status
		return fn(ctx, tx, loaded)
	})
	if err != nil {
		return nil, err
	}

	if rental.Status != from {
		s.metrics.ObserveTransition(from.String(), rental.Status.String(), time.Since(started))
		s.logInfo(ctx, rental, fmt.Sprintf("rental %s", rental.Status))
	}
	return rental, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, rental *models.RentalAgreement, eventType enums.OutboxEventType, actor Actor, data interface{}) error {
	if s.outbox == nil {
		return nil
	}
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateRental,
		AggregateID:   rental.ID,
		Actor:         actor.ref(),
		Version:       1,
		Data:          data,
	})
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "emitting rental event")
	}
	return nil
}

func (s *service) logInfo(ctx context.Context, rental *models.RentalAgreement, message string) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"rental_id":     rental.ID.String(),
		"rental_number": rental.RentalNumber,
		"status":        rental.Status.String(),
	})
	s.logg.Info(logCtx, message)
}

// setStatus moves the rental to the target status and stamps the transition
// time. Deposit side-channel updates never touch the stamp.
func setStatus(rental *models.RentalAgreement, status enums.RentalStatus) {
	if rental.Status != status {
		now := time.Now().UTC()
		rental.LastStatusTransitionAt = &now
	}
	rental.Status = status
}

func jsonMap(values map[string]any) *types.JSONMap {
	m := types.JSONMap(values)
	return &m
}
