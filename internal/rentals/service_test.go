package rentals

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orbas1/fixnado-backend/internal/checkpoints"
	"github.com/orbas1/fixnado-backend/internal/inventory"
	"github.com/orbas1/fixnado-backend/internal/rentals/settlement"
	"github.com/orbas1/fixnado-backend/pkg/db/models"
	"github.com/orbas1/fixnado-backend/pkg/enums"
	apperrors "github.com/orbas1/fixnado-backend/pkg/errors"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type testStack struct {
	db        *gorm.DB
	inventory inventory.Service
	rentals   Service
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	dsn := "file:rentals_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.InventoryItem{},
		&models.InventoryLedgerEntry{},
		&models.InventoryAlert{},
		&models.RentalAgreement{},
		&models.RentalCheckpoint{},
		&models.OutboxEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	runner := testTxRunner{db: db}
	invSvc, err := inventory.NewService(inventory.ServiceParams{
		TxRunner: runner,
		Repo:     inventory.NewRepository(db),
	})
	if err != nil {
		t.Fatalf("inventory service: %v", err)
	}
	cpSvc, err := checkpoints.NewService(checkpoints.NewRepository(db))
	if err != nil {
		t.Fatalf("checkpoint service: %v", err)
	}
	rentalSvc, err := NewService(ServiceParams{
		TxRunner:    runner,
		Repo:        NewRepository(db),
		Inventory:   invSvc,
		Checkpoints: cpSvc,
	})
	if err != nil {
		t.Fatalf("rental service: %v", err)
	}
	return &testStack{db: db, inventory: invSvc, rentals: rentalSvc}
}

func (s *testStack) seedItem(t *testing.T, onHand, threshold int) *models.InventoryItem {
	t.Helper()
	item := &models.InventoryItem{
		ID:                uuid.New(),
		CompanyID:         uuid.New(),
		SKU:               "SKU-" + uuid.NewString()[:8],
		Name:              "scaffold tower",
		OnHandQty:         onHand,
		ReservedQty:       0,
		LowStockThreshold: threshold,
	}
	if err := s.db.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func (s *testStack) request(t *testing.T, item *models.InventoryItem, qty int, rate, deposit decimal.Decimal) *models.RentalAgreement {
	t.Helper()
	rental, err := s.rentals.Request(context.Background(), RequestInput{
		CompanyID:     item.CompanyID,
		ItemID:        item.ID,
		RenterID:      uuid.New(),
		ProviderID:    uuid.New(),
		Quantity:      qty,
		DailyRate:     rate,
		DepositAmount: deposit,
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return rental
}

func (s *testStack) reloadItem(t *testing.T, id uuid.UUID) *models.InventoryItem {
	t.Helper()
	item, err := s.inventory.GetItem(context.Background(), id)
	if err != nil {
		t.Fatalf("reload item: %v", err)
	}
	return item
}

func wantCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestRequestHoldsStockAndRaisesLowStockAlert(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	item := stack.seedItem(t, 5, 2)

	rental := stack.request(t, item, 4, decimal.NewFromInt(25), decimal.Zero)
	if rental.Status != enums.RentalStatusRequested {
		t.Fatalf("expected requested, got %s", rental.Status)
	}
	if rental.RentalNumber == "" {
		t.Fatalf("rental number not assigned")
	}

	reloaded := stack.reloadItem(t, item.ID)
	if reloaded.ReservedQty != 4 || reloaded.AvailableQty() != 1 {
		t.Fatalf("expected reserved=4 available=1, got reserved=%d available=%d",
			reloaded.ReservedQty, reloaded.AvailableQty())
	}

	var alert models.InventoryAlert
	if err := stack.db.Where("item_id = ?", item.ID).First(&alert).Error; err != nil {
		t.Fatalf("expected low-stock alert: %v", err)
	}
	if alert.Status != enums.AlertStatusOpen || alert.AlertType != enums.AlertTypeLowStock {
		t.Fatalf("unexpected alert %s/%s", alert.AlertType, alert.Status)
	}

	_, err := stack.rentals.Request(ctx, RequestInput{
		CompanyID:  item.CompanyID,
		ItemID:     item.ID,
		RenterID:   uuid.New(),
		ProviderID: uuid.New(),
		Quantity:   2,
		DailyRate:  decimal.NewFromInt(25),
	})
	wantCode(t, err, apperrors.CodeConflict)

	var rentalCount int64
	stack.db.Model(&models.RentalAgreement{}).Count(&rentalCount)
	if rentalCount != 1 {
		t.Fatalf("failed request must not persist a rental, found %d", rentalCount)
	}
}

func TestFullLifecycleSettlesCleanReturn(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	item := stack.seedItem(t, 5, 0)

	rental := stack.request(t, item, 1, decimal.NewFromInt(25), decimal.NewFromInt(100))

	rental2, err := stack.rentals.Approve(ctx, rental.ID, Actor{})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if rental2.Status != enums.RentalStatusApproved {
		t.Fatalf("expected approved, got %s", rental2.Status)
	}

	pickup := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	due := pickup.Add(72 * time.Hour)
	if _, err := stack.rentals.SchedulePickup(ctx, SchedulePickupInput{
		RentalID: rental.ID,
		PickupAt: pickup,
		DueAt:    due,
	}); err != nil {
		t.Fatalf("schedule pickup: %v", err)
	}

	checkedOut, err := stack.rentals.Checkout(ctx, CheckoutInput{RentalID: rental.ID})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if checkedOut.Status != enums.RentalStatusInUse {
		t.Fatalf("expected in_use, got %s", checkedOut.Status)
	}
	if checkedOut.DepositStatus != enums.DepositStatusHeld {
		t.Fatalf("deposit should be held, got %s", checkedOut.DepositStatus)
	}
	if checkedOut.CheckedOutAt == nil || !checkedOut.CheckedOutAt.Equal(pickup) {
		t.Fatalf("checkout should default to the scheduled pickup, got %v", checkedOut.CheckedOutAt)
	}

	midRental := stack.reloadItem(t, item.ID)
	if midRental.OnHandQty != 4 || midRental.ReservedQty != 0 {
		t.Fatalf("checkout should consume stock, got on_hand=%d reserved=%d",
			midRental.OnHandQty, midRental.ReservedQty)
	}

	returnedAt := pickup.Add(72 * time.Hour)
	if _, err := stack.rentals.MarkReturned(ctx, ReturnInput{
		RentalID:   rental.ID,
		ReturnedAt: &returnedAt,
	}); err != nil {
		t.Fatalf("mark returned: %v", err)
	}

	settled, err := stack.rentals.CompleteInspection(ctx, InspectionInput{
		RentalID: rental.ID,
		Outcome:  enums.InspectionOutcomeOK,
	})
	if err != nil {
		t.Fatalf("complete inspection: %v", err)
	}
	if settled.Status != enums.RentalStatusSettled {
		t.Fatalf("expected settled, got %s", settled.Status)
	}
	if settled.DepositStatus != enums.DepositStatusReleased {
		t.Fatalf("clean return should release the deposit, got %s", settled.DepositStatus)
	}
	if settled.Meta.Inspection == nil {
		t.Fatalf("inspection record missing from meta")
	}

	final := stack.reloadItem(t, item.ID)
	if final.OnHandQty != 5 || final.ReservedQty != 0 {
		t.Fatalf("stock should be fully restored, got on_hand=%d reserved=%d",
			final.OnHandQty, final.ReservedQty)
	}

	// 72 hours at 25/day.
	quote := settlement.Calculate(pickup, returnedAt, settled.DailyRate, nil)
	if quote.DurationDays != 3 || !quote.TotalCharges.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("expected 3 days / 75 total, got %d / %s", quote.DurationDays, quote.TotalCharges)
	}

	var cpCount int64
	stack.db.Model(&models.RentalCheckpoint{}).Where("rental_id = ?", rental.ID).Count(&cpCount)
	if cpCount != 6 {
		t.Fatalf("expected 6 checkpoints, got %d", cpCount)
	}

	var inspectionCount int64
	stack.db.Model(&models.RentalCheckpoint{}).
		Where("rental_id = ? AND checkpoint_type = ?", rental.ID, enums.CheckpointTypeInspection).
		Count(&inspectionCount)
	if inspectionCount != 1 {
		t.Fatalf("expected one inspection checkpoint, got %d", inspectionCount)
	}
}

func TestStatusTransitionStampIgnoresDepositUpdates(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	item := stack.seedItem(t, 5, 0)

	rental := stack.request(t, item, 1, decimal.NewFromInt(10), decimal.NewFromInt(50))
	if rental.LastStatusTransitionAt == nil {
		t.Fatalf("transition stamp not set on creation")
	}
	created := *rental.LastStatusTransitionAt

	approved, err := stack.rentals.Approve(ctx, rental.ID, Actor{})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.LastStatusTransitionAt == nil || approved.LastStatusTransitionAt.Before(created) {
		t.Fatalf("transition stamp not advanced on approve")
	}
	stamped := *approved.LastStatusTransitionAt

	amount := decimal.NewFromInt(10)
	updated, err := stack.rentals.UpdateDepositStatus(ctx, DepositStatusInput{
		RentalID: rental.ID,
		Status:   enums.DepositStatusHeld,
		Amount:   &amount,
	})
	if err != nil {
		t.Fatalf("update deposit status: %v", err)
	}
	if updated.LastStatusTransitionAt == nil || !updated.LastStatusTransitionAt.Equal(stamped) {
		t.Fatalf("deposit update moved the transition stamp: %v -> %v", stamped, updated.LastStatusTransitionAt)
	}
}

func TestCancelReleasesReservation(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	item := stack.seedItem(t, 5, 0)

	rental := stack.request(t, item, 3, decimal.NewFromInt(10), decimal.NewFromInt(50))

	reason := "renter changed plans"
	cancelled, err := stack.rentals.Cancel(ctx, CancelInput{RentalID: rental.ID, Reason: &reason})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.RentalStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.DepositStatus != enums.DepositStatusReleased {
		t.Fatalf("deposit should be released on cancel, got %s", cancelled.DepositStatus)
	}
	if cancelled.Meta.CancelReason == nil || *cancelled.Meta.CancelReason != reason {
		t.Fatalf("cancel reason not recorded")
	}

	restored := stack.reloadItem(t, item.ID)
	if restored.OnHandQty != 5 || restored.ReservedQty != 0 {
		t.Fatalf("reservation not released, got on_hand=%d reserved=%d",
			restored.OnHandQty, restored.ReservedQty)
	}

	_, err = stack.rentals.Approve(ctx, rental.ID, Actor{})
	wantCode(t, err, apperrors.CodeStateConflict)
}

func TestRaiseDisputeIsIdempotent(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	item := stack.seedItem(t, 5, 0)

	rental := stack.request(t, item, 1, decimal.NewFromInt(10), decimal.Zero)
	if _, err := stack.rentals.Approve(ctx, rental.ID, Actor{}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := stack.rentals.Checkout(ctx, CheckoutInput{RentalID: rental.ID}); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	actorID := uuid.New()
	evidence := "https://evidence.example.com/photos/123"
	disputed, err := stack.rentals.RaiseDispute(ctx, DisputeInput{
		RentalID:    rental.ID,
		Reason:      "damage",
		EvidenceURL: &evidence,
		Actor:       Actor{ID: &actorID, Role: enums.ActorRoleRenter},
	})
	if err != nil {
		t.Fatalf("raise dispute: %v", err)
	}
	if disputed.Status != enums.RentalStatusDisputed {
		t.Fatalf("expected disputed, got %s", disputed.Status)
	}
	if disputed.Meta.Dispute == nil || disputed.Meta.Dispute.RaisedBy != actorID {
		t.Fatalf("dispute metadata missing")
	}
	if disputed.Meta.Dispute.EvidenceURL == nil || *disputed.Meta.Dispute.EvidenceURL != evidence {
		t.Fatalf("evidence url not recorded")
	}
	if len(disputed.Meta.DepositAdjustments) != 1 {
		t.Fatalf("dispute should note the deposit hold, got %d adjustments", len(disputed.Meta.DepositAdjustments))
	}
	if disputed.DepositStatus != enums.DepositStatusPending {
		t.Fatalf("dispute must not move the deposit status, got %s", disputed.DepositStatus)
	}

	var before int64
	stack.db.Model(&models.RentalCheckpoint{}).Where("rental_id = ?", rental.ID).Count(&before)

	again, err := stack.rentals.RaiseDispute(ctx, DisputeInput{RentalID: rental.ID, Reason: "other reason"})
	if err != nil {
		t.Fatalf("second dispute should be a no-op: %v", err)
	}
	if again.Status != enums.RentalStatusDisputed {
		t.Fatalf("expected disputed, got %s", again.Status)
	}
	if again.Meta.Dispute.Reason != "damage" {
		t.Fatalf("original dispute reason overwritten: %s", again.Meta.Dispute.Reason)
	}

	var after int64
	stack.db.Model(&models.RentalCheckpoint{}).Where("rental_id = ?", rental.ID).Count(&after)
	if before != after {
		t.Fatalf("idempotent dispute wrote a checkpoint: %d -> %d", before, after)
	}
}

func TestInspectionForfeitsDepositOnMatchingCharges(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	item := stack.seedItem(t, 5, 0)
	deposit := decimal.NewFromInt(100)

	rental := stack.request(t, item, 1, decimal.NewFromInt(25), deposit)
	if _, err := stack.rentals.Approve(ctx, rental.ID, Actor{}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := stack.rentals.Checkout(ctx, CheckoutInput{RentalID: rental.ID}); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if _, err := stack.rentals.MarkReturned(ctx, ReturnInput{RentalID: rental.ID}); err != nil {
		t.Fatalf("mark returned: %v", err)
	}

	settled, err := stack.rentals.CompleteInspection(ctx, InspectionInput{
		RentalID: rental.ID,
		Outcome:  enums.InspectionOutcomeDamaged,
		Charges:  []settlement.Charge{{Label: "repair", Amount: deposit}},
	})
	if err != nil {
		t.Fatalf("complete inspection: %v", err)
	}
	if settled.DepositStatus != enums.DepositStatusForfeited {
		t.Fatalf("charges equal to deposit should forfeit it, got %s", settled.DepositStatus)
	}
}

func TestInspectionWritesOffLostUnits(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	item := stack.seedItem(t, 5, 0)

	rental := stack.request(t, item, 2, decimal.NewFromInt(25), decimal.Zero)
	if _, err := stack.rentals.Approve(ctx, rental.ID, Actor{}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := stack.rentals.Checkout(ctx, CheckoutInput{RentalID: rental.ID}); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if _, err := stack.rentals.MarkReturned(ctx, ReturnInput{RentalID: rental.ID}); err != nil {
		t.Fatalf("mark returned: %v", err)
	}

	if _, err := stack.rentals.CompleteInspection(ctx, InspectionInput{
		RentalID: rental.ID,
		Outcome:  enums.InspectionOutcomeLost,
	}); err != nil {
		t.Fatalf("complete inspection: %v", err)
	}

	final := stack.reloadItem(t, item.ID)
	if final.OnHandQty != 3 {
		t.Fatalf("lost units should be written off, got on_hand=%d", final.OnHandQty)
	}
}

func TestIllegalTransitionsDoNotMutate(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	item := stack.seedItem(t, 5, 0)

	rental := stack.request(t, item, 2, decimal.NewFromInt(10), decimal.Zero)

	// requested -> in_use skips approval.
	_, err := stack.rentals.Checkout(ctx, CheckoutInput{RentalID: rental.ID})
	wantCode(t, err, apperrors.CodeStateConflict)

	// requested -> inspection_pending is not an edge either.
	_, err = stack.rentals.MarkReturned(ctx, ReturnInput{RentalID: rental.ID})
	wantCode(t, err, apperrors.CodeStateConflict)

	current, err := stack.rentals.Get(ctx, rental.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.Rental.Status != enums.RentalStatusRequested {
		t.Fatalf("status mutated by rejected transition: %s", current.Rental.Status)
	}

	unchanged := stack.reloadItem(t, item.ID)
	if unchanged.ReservedQty != 2 || unchanged.OnHandQty != 5 {
		t.Fatalf("stock mutated by rejected transition: on_hand=%d reserved=%d",
			unchanged.OnHandQty, unchanged.ReservedQty)
	}
}

func TestUpdateDepositStatusKeepsBoundedHistory(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	item := stack.seedItem(t, 5, 0)

	rental := stack.request(t, item, 1, decimal.NewFromInt(10), decimal.NewFromInt(50))

	for i := 0; i < 25; i++ {
		amount := decimal.NewFromInt(int64(i))
		if _, err := stack.rentals.UpdateDepositStatus(ctx, DepositStatusInput{
			RentalID: rental.ID,
			Status:   enums.DepositStatusHeld,
			Amount:   &amount,
		}); err != nil {
			t.Fatalf("update deposit status: %v", err)
		}
	}

	detail, err := stack.rentals.Get(ctx, rental.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	history := detail.Rental.Meta.DepositAdjustments
	if len(history) != 20 {
		t.Fatalf("expected history capped at 20, got %d", len(history))
	}
	if !history[len(history)-1].Amount.Equal(decimal.NewFromInt(24)) {
		t.Fatalf("newest adjustment should survive, got %s", history[len(history)-1].Amount)
	}

	_, err = stack.rentals.UpdateDepositStatus(ctx, DepositStatusInput{
		RentalID: rental.ID,
		Status:   enums.DepositStatus("melted"),
	})
	wantCode(t, err, apperrors.CodeValidation)
}

func TestSchedulePickupValidation(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	item := stack.seedItem(t, 5, 0)

	rental := stack.request(t, item, 1, decimal.NewFromInt(10), decimal.Zero)
	if _, err := stack.rentals.Approve(ctx, rental.ID, Actor{}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	pickup := time.Now().UTC().Add(24 * time.Hour)
	_, err := stack.rentals.SchedulePickup(ctx, SchedulePickupInput{
		RentalID: rental.ID,
		PickupAt: pickup,
		DueAt:    pickup.Add(-time.Hour),
	})
	wantCode(t, err, apperrors.CodeValidation)

	// Rescheduling is allowed once pickup_scheduled.
	if _, err := stack.rentals.SchedulePickup(ctx, SchedulePickupInput{
		RentalID: rental.ID,
		PickupAt: pickup,
		DueAt:    pickup.Add(48 * time.Hour),
	}); err != nil {
		t.Fatalf("schedule pickup: %v", err)
	}
	rescheduled, err := stack.rentals.SchedulePickup(ctx, SchedulePickupInput{
		RentalID: rental.ID,
		PickupAt: pickup.Add(time.Hour),
		DueAt:    pickup.Add(72 * time.Hour),
	})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if rescheduled.Status != enums.RentalStatusPickupScheduled {
		t.Fatalf("expected pickup_scheduled, got %s", rescheduled.Status)
	}
}

func TestRequestValidation(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	item := stack.seedItem(t, 5, 0)

	_, err := stack.rentals.Request(ctx, RequestInput{
		CompanyID:  item.CompanyID,
		ItemID:     item.ID,
		RenterID:   uuid.New(),
		ProviderID: uuid.New(),
		Quantity:   0,
		DailyRate:  decimal.NewFromInt(10),
	})
	wantCode(t, err, apperrors.CodeValidation)

	_, err = stack.rentals.Request(ctx, RequestInput{
		CompanyID:  item.CompanyID,
		ItemID:     uuid.New(),
		RenterID:   uuid.New(),
		ProviderID: uuid.New(),
		Quantity:   1,
		DailyRate:  decimal.NewFromInt(10),
	})
	wantCode(t, err, apperrors.CodeNotFound)
}
