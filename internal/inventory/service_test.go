package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orbas1/fixnado-backend/pkg/db/models"
	"github.com/orbas1/fixnado-backend/pkg/enums"
	apperrors "github.com/orbas1/fixnado-backend/pkg/errors"
	"github.com/orbas1/fixnado-backend/pkg/pagination"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.InventoryItem{},
		&models.InventoryLedgerEntry{},
		&models.InventoryAlert{},
		&models.OutboxEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		TxRunner: testTxRunner{db: db},
		Repo:     NewRepository(db),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedItem(t *testing.T, db *gorm.DB, onHand, reserved, threshold int) *models.InventoryItem {
	t.Helper()
	item := &models.InventoryItem{
		ID:                uuid.New(),
		CompanyID:         uuid.New(),
		SKU:               "SKU-" + uuid.NewString()[:8],
		Name:              "excavator",
		OnHandQty:         onHand,
		ReservedQty:       reserved,
		LowStockThreshold: threshold,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func TestApplyQuantitiesGuards(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		onHand   int
		reserved int
		adjType  enums.AdjustmentType
		qty      int
		wantErr  apperrors.Code
		wantOn   int
		wantRes  int
	}{
		{name: "reservation ok", onHand: 10, reserved: 2, adjType: enums.AdjustmentTypeReservation, qty: 3, wantOn: 10, wantRes: 5},
		{name: "reservation exceeds available", onHand: 10, reserved: 8, adjType: enums.AdjustmentTypeReservation, qty: 3, wantErr: apperrors.CodeConflict},
		{name: "reservation zero qty", onHand: 10, reserved: 0, adjType: enums.AdjustmentTypeReservation, qty: 0, wantErr: apperrors.CodeValidation},
		{name: "release ok", onHand: 10, reserved: 4, adjType: enums.AdjustmentTypeReservationRelease, qty: 4, wantOn: 10, wantRes: 0},
		{name: "release exceeds reserved", onHand: 10, reserved: 1, adjType: enums.AdjustmentTypeReservationRelease, qty: 2, wantErr: apperrors.CodeStateConflict},
		{name: "checkout ok", onHand: 10, reserved: 4, adjType: enums.AdjustmentTypeCheckout, qty: 4, wantOn: 6, wantRes: 0},
		{name: "checkout exceeds reserved", onHand: 10, reserved: 1, adjType: enums.AdjustmentTypeCheckout, qty: 2, wantErr: apperrors.CodeStateConflict},
		{name: "return ok", onHand: 6, reserved: 0, adjType: enums.AdjustmentTypeReturn, qty: 4, wantOn: 10, wantRes: 0},
		{name: "restock ok", onHand: 0, reserved: 0, adjType: enums.AdjustmentTypeRestock, qty: 7, wantOn: 7, wantRes: 0},
		{name: "write off ok", onHand: 10, reserved: 3, adjType: enums.AdjustmentTypeWriteOff, qty: 7, wantOn: 3, wantRes: 3},
		{name: "write off hits reserved", onHand: 10, reserved: 5, adjType: enums.AdjustmentTypeWriteOff, qty: 6, wantErr: apperrors.CodeConflict},
		{name: "adjustment up", onHand: 5, reserved: 2, adjType: enums.AdjustmentTypeAdjustment, qty: 3, wantOn: 8, wantRes: 2},
		{name: "adjustment down", onHand: 5, reserved: 2, adjType: enums.AdjustmentTypeAdjustment, qty: -3, wantOn: 2, wantRes: 2},
		{name: "adjustment breaks reserved bound", onHand: 5, reserved: 4, adjType: enums.AdjustmentTypeAdjustment, qty: -2, wantErr: apperrors.CodeConflict},
		{name: "adjustment zero delta", onHand: 5, reserved: 0, adjType: enums.AdjustmentTypeAdjustment, qty: 0, wantErr: apperrors.CodeValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := &models.InventoryItem{OnHandQty: tc.onHand, ReservedQty: tc.reserved}
			err := applyQuantities(item, tc.adjType, tc.qty)
			if tc.wantErr != "" {
				typed := apperrors.As(err)
				if typed == nil || typed.Code() != tc.wantErr {
					t.Fatalf("expected %s, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if item.OnHandQty != tc.wantOn || item.ReservedQty != tc.wantRes {
				t.Fatalf("got on_hand=%d reserved=%d, want %d/%d", item.OnHandQty, item.ReservedQty, tc.wantOn, tc.wantRes)
			}
			if item.ReservedQty < 0 || item.ReservedQty > item.OnHandQty {
				t.Fatalf("invariant broken: on_hand=%d reserved=%d", item.OnHandQty, item.ReservedQty)
			}
		})
	}
}

func TestApplyAdjustmentWritesLedger(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	item := seedItem(t, db, 10, 0, 0)

	result, err := svc.ApplyAdjustment(ctx, AdjustmentInput{
		ItemID:         item.ID,
		AdjustmentType: enums.AdjustmentTypeReservation,
		Quantity:       4,
		ActorRole:      enums.ActorRoleRenter,
	})
	if err != nil {
		t.Fatalf("apply reservation: %v", err)
	}
	if result.Item.ReservedQty != 4 || result.Item.OnHandQty != 10 {
		t.Fatalf("unexpected balances: %+v", result.Item)
	}
	if result.Entry.OnHandAfter != 10 || result.Entry.ReservedAfter != 4 {
		t.Fatalf("ledger snapshot wrong: %+v", result.Entry)
	}

	page, err := svc.ListLedgerEntries(ctx, item.ID, pagination.Params{})
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if len(page.Entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(page.Entries))
	}
}

func TestReserveCheckoutReturnRoundTrip(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	item := seedItem(t, db, 5, 0, 0)

	steps := []struct {
		adjType enums.AdjustmentType
		qty     int
		wantOn  int
		wantRes int
	}{
		{enums.AdjustmentTypeReservation, 2, 5, 2},
		{enums.AdjustmentTypeCheckout, 2, 3, 0},
		{enums.AdjustmentTypeReturn, 2, 5, 0},
	}
	for _, step := range steps {
		result, err := svc.ApplyAdjustment(ctx, AdjustmentInput{
			ItemID:         item.ID,
			AdjustmentType: step.adjType,
			Quantity:       step.qty,
		})
		if err != nil {
			t.Fatalf("%s: %v", step.adjType, err)
		}
		if result.Item.OnHandQty != step.wantOn || result.Item.ReservedQty != step.wantRes {
			t.Fatalf("%s: got %d/%d want %d/%d", step.adjType,
				result.Item.OnHandQty, result.Item.ReservedQty, step.wantOn, step.wantRes)
		}
	}
}

func TestInsufficientAvailabilityRollsBack(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	item := seedItem(t, db, 2, 0, 0)

	_, err := svc.ApplyAdjustment(ctx, AdjustmentInput{
		ItemID:         item.ID,
		AdjustmentType: enums.AdjustmentTypeReservation,
		Quantity:       3,
	})
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	var count int64
	if err := db.Model(&models.InventoryLedgerEntry{}).Where("item_id = ?", item.ID).Count(&count).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no ledger entries after failed reservation, got %d", count)
	}
}

func TestLowStockAlertLifecycle(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	item := seedItem(t, db, 5, 0, 2)

	result, err := svc.ApplyAdjustment(ctx, AdjustmentInput{
		ItemID:         item.ID,
		AdjustmentType: enums.AdjustmentTypeReservation,
		Quantity:       4,
	})
	if err != nil {
		t.Fatalf("reservation: %v", err)
	}
	if result.Alert == nil {
		t.Fatalf("expected low stock alert")
	}
	if result.Alert.AlertType != enums.AlertTypeLowStock || result.Alert.Severity != enums.AlertSeverityWarning {
		t.Fatalf("unexpected alert: %+v", result.Alert)
	}

	// Dropping to zero escalates to a separate out-of-stock alert.
	result, err = svc.ApplyAdjustment(ctx, AdjustmentInput{
		ItemID:         item.ID,
		AdjustmentType: enums.AdjustmentTypeReservation,
		Quantity:       1,
	})
	if err != nil {
		t.Fatalf("second reservation: %v", err)
	}
	if result.Alert == nil || result.Alert.AlertType != enums.AlertTypeOutOfStock {
		t.Fatalf("expected out of stock alert, got %+v", result.Alert)
	}
	if result.Alert.Severity != enums.AlertSeverityCritical {
		t.Fatalf("expected critical severity, got %s", result.Alert.Severity)
	}

	actor := uuid.New()
	acked, err := svc.AcknowledgeAlert(ctx, result.Alert.ID, actor)
	if err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if acked.Status != enums.AlertStatusAcknowledged || acked.AcknowledgedBy == nil || *acked.AcknowledgedBy != actor {
		t.Fatalf("unexpected acknowledged alert: %+v", acked)
	}

	_, err = svc.AcknowledgeAlert(ctx, result.Alert.ID, actor)
	if typed := apperrors.As(err); typed == nil || typed.Code() != apperrors.CodeStateConflict {
		t.Fatalf("expected state conflict on double ack, got %v", err)
	}

	resolved, err := svc.ResolveAlert(ctx, result.Alert.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != enums.AlertStatusResolved || resolved.ResolvedAt == nil {
		t.Fatalf("unexpected resolved alert: %+v", resolved)
	}

	_, err = svc.ResolveAlert(ctx, result.Alert.ID)
	if typed := apperrors.As(err); typed == nil || typed.Code() != apperrors.CodeStateConflict {
		t.Fatalf("expected state conflict on double resolve, got %v", err)
	}
}

func TestOpenAlertRefreshedNotDuplicated(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	item := seedItem(t, db, 10, 0, 8)

	for i := 0; i < 3; i++ {
		if _, err := svc.ApplyAdjustment(ctx, AdjustmentInput{
			ItemID:         item.ID,
			AdjustmentType: enums.AdjustmentTypeReservation,
			Quantity:       1,
		}); err != nil {
			t.Fatalf("reservation %d: %v", i, err)
		}
	}

	var count int64
	if err := db.Model(&models.InventoryAlert{}).
		Where("item_id = ? AND alert_type = ?", item.ID, enums.AlertTypeLowStock).
		Count(&count).Error; err != nil {
		t.Fatalf("count alerts: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single open low stock alert, got %d", count)
	}

	var alert models.InventoryAlert
	if err := db.Where("item_id = ?", item.ID).First(&alert).Error; err != nil {
		t.Fatalf("load alert: %v", err)
	}
	if alert.ObservedQty != 7 {
		t.Fatalf("expected observed qty refreshed to 7, got %d", alert.ObservedQty)
	}
}

func TestAlertResolvesWhenStockRecovers(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	item := seedItem(t, db, 5, 0, 2)

	result, err := svc.ApplyAdjustment(ctx, AdjustmentInput{
		ItemID:         item.ID,
		AdjustmentType: enums.AdjustmentTypeReservation,
		Quantity:       4,
	})
	if err != nil {
		t.Fatalf("reservation: %v", err)
	}
	if result.Alert == nil || result.Alert.Status != enums.AlertStatusOpen {
		t.Fatalf("expected open alert, got %+v", result.Alert)
	}
	alertID := result.Alert.ID

	if _, err := svc.ApplyAdjustment(ctx, AdjustmentInput{
		ItemID:         item.ID,
		AdjustmentType: enums.AdjustmentTypeReservationRelease,
		Quantity:       4,
	}); err != nil {
		t.Fatalf("release: %v", err)
	}

	var alert models.InventoryAlert
	if err := db.Where("id = ?", alertID).First(&alert).Error; err != nil {
		t.Fatalf("load alert: %v", err)
	}
	if alert.Status != enums.AlertStatusResolved || alert.ResolvedAt == nil {
		t.Fatalf("alert should resolve on recovery, got status=%s resolved_at=%v", alert.Status, alert.ResolvedAt)
	}
}

func TestAcknowledgedAlertReopensWhenStockWorsens(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	item := seedItem(t, db, 10, 0, 8)

	result, err := svc.ApplyAdjustment(ctx, AdjustmentInput{
		ItemID:         item.ID,
		AdjustmentType: enums.AdjustmentTypeReservation,
		Quantity:       3,
	})
	if err != nil {
		t.Fatalf("reservation: %v", err)
	}
	if result.Alert == nil {
		t.Fatalf("expected low stock alert")
	}
	alertID := result.Alert.ID

	if _, err := svc.AcknowledgeAlert(ctx, alertID, uuid.New()); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}

	result, err = svc.ApplyAdjustment(ctx, AdjustmentInput{
		ItemID:         item.ID,
		AdjustmentType: enums.AdjustmentTypeReservation,
		Quantity:       1,
	})
	if err != nil {
		t.Fatalf("second reservation: %v", err)
	}
	if result.Alert == nil || result.Alert.ID != alertID {
		t.Fatalf("expected the same alert refreshed, got %+v", result.Alert)
	}
	if result.Alert.Status != enums.AlertStatusOpen {
		t.Fatalf("acknowledged alert should reopen when stock worsens, got %s", result.Alert.Status)
	}
	if result.Alert.AcknowledgedBy != nil || result.Alert.AcknowledgedAt != nil {
		t.Fatalf("acknowledgement should be cleared on reopen: %+v", result.Alert)
	}
	if result.Alert.ObservedQty != 6 {
		t.Fatalf("expected observed qty 6, got %d", result.Alert.ObservedQty)
	}
}

func TestCreateItemProvisionsInitialStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, CreateItemInput{
		CompanyID:         uuid.New(),
		SKU:               "GEN-1000",
		Name:              "generator",
		InitialQty:        6,
		LowStockThreshold: 2,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if item.OnHandQty != 6 || item.ReservedQty != 0 {
		t.Fatalf("unexpected balances: %+v", item)
	}

	page, err := svc.ListLedgerEntries(ctx, item.ID, pagination.Params{})
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if len(page.Entries) != 1 || page.Entries[0].AdjustmentType != enums.AdjustmentTypeRestock {
		t.Fatalf("expected a single restock entry, got %+v", page.Entries)
	}
}

func TestCreateItemPricingDefaults(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, CreateItemInput{
		CompanyID:     uuid.New(),
		SKU:           "DRL-200",
		Name:          "hammer drill",
		DailyRate:     decimal.RequireFromString("14.50"),
		RateCurrency:  enums.CurrencyEUR,
		DepositAmount: decimal.RequireFromString("80"),
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if !item.DailyRate.Equal(decimal.RequireFromString("14.50")) {
		t.Fatalf("unexpected daily rate %s", item.DailyRate)
	}
	if item.RateCurrency != enums.CurrencyEUR || item.DepositCurrency != enums.CurrencyEUR {
		t.Fatalf("expected deposit currency to follow rate currency, got %s/%s", item.RateCurrency, item.DepositCurrency)
	}

	_, err = svc.CreateItem(ctx, CreateItemInput{
		CompanyID: uuid.New(),
		SKU:       "DRL-201",
		Name:      "hammer drill",
		DailyRate: decimal.RequireFromString("-1"),
	})
	if typed := apperrors.As(err); typed == nil || typed.Code() != apperrors.CodeValidation {
		t.Fatalf("expected validation error for negative rate, got %v", err)
	}
}

func TestCreateItemRejectsDuplicateSKU(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	companyID := uuid.New()

	if _, err := svc.CreateItem(ctx, CreateItemInput{
		CompanyID: companyID,
		SKU:       "DUP-1",
		Name:      "scaffold",
	}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.CreateItem(ctx, CreateItemInput{
		CompanyID: companyID,
		SKU:       "DUP-1",
		Name:      "scaffold",
	})
	if typed := apperrors.As(err); typed == nil || typed.Code() != apperrors.CodeConflict {
		t.Fatalf("expected conflict for duplicate sku, got %v", err)
	}
}

func TestGetItemNotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.GetItem(context.Background(), uuid.New())
	if typed := apperrors.As(err); typed == nil || typed.Code() != apperrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
