package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/orbas1/fixnado-backend/pkg/db"
	"github.com/orbas1/fixnado-backend/pkg/db/models"
	"github.com/orbas1/fixnado-backend/pkg/enums"
	apperrors "github.com/orbas1/fixnado-backend/pkg/errors"
	"github.com/orbas1/fixnado-backend/pkg/logger"
	"github.com/orbas1/fixnado-backend/pkg/metrics"
	"github.com/orbas1/fixnado-backend/pkg/outbox"
	"github.com/orbas1/fixnado-backend/pkg/outbox/payloads"
	"github.com/orbas1/fixnado-backend/pkg/pagination"
)

// Service defines inventory ledger operations.
type Service interface {
	CreateItem(ctx context.Context, input CreateItemInput) (*models.InventoryItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	ListItems(ctx context.Context, companyID uuid.UUID, params pagination.Params) (*ItemPage, error)

	ApplyAdjustment(ctx context.Context, input AdjustmentInput) (*AdjustmentResult, error)
	ApplyAdjustmentTx(ctx context.Context, tx *gorm.DB, input AdjustmentInput) (*AdjustmentResult, error)
	ListLedgerEntries(ctx context.Context, itemID uuid.UUID, params pagination.Params) (*LedgerPage, error)

	AcknowledgeAlert(ctx context.Context, alertID, actorID uuid.UUID) (*models.InventoryAlert, error)
	ResolveAlert(ctx context.Context, alertID uuid.UUID) (*models.InventoryAlert, error)
	ListAlerts(ctx context.Context, itemID *uuid.UUID, status *enums.AlertStatus, params pagination.Params) (*AlertPage, error)
}

// CreateItemInput captures the data needed to provision a rentable SKU.
// The pricing fields are informational defaults surfaced on item reads;
// rentals carry their own rate once created.
type CreateItemInput struct {
	CompanyID         uuid.UUID
	SKU               string
	Name              string
	InitialQty        int
	LowStockThreshold int
	DailyRate         decimal.Decimal
	RateCurrency      enums.Currency
	DepositAmount     decimal.Decimal
	DepositCurrency   enums.Currency
	ActorID           *uuid.UUID
	ActorRole         enums.ActorRole
}

// AdjustmentInput describes one quantity movement against an item.
type AdjustmentInput struct {
	ItemID         uuid.UUID
	AdjustmentType enums.AdjustmentType
	Quantity       int
	RentalID       *uuid.UUID
	ActorID        *uuid.UUID
	ActorRole      enums.ActorRole
	Reason         *string
}

// AdjustmentResult reports the balances and side effects of an adjustment.
type AdjustmentResult struct {
	Item  *models.InventoryItem
	Entry *models.InventoryLedgerEntry
	Alert *models.InventoryAlert
}

// ItemPage is one page of items plus the cursor for the next page.
type ItemPage struct {
	Items      []models.InventoryItem
	NextCursor string
}

// LedgerPage is one page of ledger entries plus the cursor for the next page.
type LedgerPage struct {
	Entries    []models.InventoryLedgerEntry
	NextCursor string
}

// AlertPage is one page of alerts plus the cursor for the next page.
type AlertPage struct {
	Alerts     []models.InventoryAlert
	NextCursor string
}

// TxRunner abstracts the transaction entry point used by the service.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	txRunner TxRunner
	repo     Repository
	outbox   *outbox.Service
	metrics  *metrics.RentalMetrics
	logg     *logger.Logger
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	TxRunner TxRunner
	Repo     Repository
	Outbox   *outbox.Service
	Metrics  *metrics.RentalMetrics
	Logger   *logger.Logger
}

// NewService wires an inventory service.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{
		txRunner: params.TxRunner,
		repo:     params.Repo,
		outbox:   params.Outbox,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*models.InventoryItem, error) {
	if input.CompanyID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "company id is required")
	}
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "sku is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "name is required")
	}
	if input.InitialQty < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "initial quantity cannot be negative")
	}
	if input.LowStockThreshold < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "low stock threshold cannot be negative")
	}
	if input.DailyRate.IsNegative() {
		return nil, apperrors.New(apperrors.CodeValidation, "daily rate cannot be negative")
	}
	if input.DepositAmount.IsNegative() {
		return nil, apperrors.New(apperrors.CodeValidation, "deposit amount cannot be negative")
	}
	rateCurrency := input.RateCurrency
	if rateCurrency == "" {
		rateCurrency = enums.CurrencyUSD
	}
	if !rateCurrency.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid rate currency %q", rateCurrency))
	}
	depositCurrency := input.DepositCurrency
	if depositCurrency == "" {
		depositCurrency = rateCurrency
	}
	if !depositCurrency.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid deposit currency %q", depositCurrency))
	}

	item := &models.InventoryItem{
		CompanyID:         input.CompanyID,
		SKU:               sku,
		Name:              strings.TrimSpace(input.Name),
		OnHandQty:         0,
		ReservedQty:       0,
		LowStockThreshold: input.LowStockThreshold,
		DailyRate:         input.DailyRate,
		RateCurrency:      rateCurrency,
		DepositAmount:     input.DepositAmount,
		DepositCurrency:   depositCurrency,
	}

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateItem(ctx, item); err != nil {
			if dbpkg.IsUniqueViolation(err, "idx_inventory_items_company_sku") || dbpkg.IsUniqueViolation(err, "") {
				return apperrors.New(apperrors.CodeConflict, fmt.Sprintf("sku %q already exists", sku))
			}
			return apperrors.Wrap(apperrors.CodeInternal, err, "creating inventory item")
		}
		if input.InitialQty > 0 {
			result, err := s.applyAdjustmentLocked(ctx, repo, AdjustmentInput{
				ItemID:         item.ID,
				AdjustmentType: enums.AdjustmentTypeRestock,
				Quantity:       input.InitialQty,
				ActorID:        input.ActorID,
				ActorRole:      input.ActorRole,
			}, tx)
			if err != nil {
				return err
			}
			*item = *result.Item
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "item id is required")
	}
	item, err := s.repo.FindItem(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "inventory item not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading inventory item")
	}
	return item, nil
}

func (s *service) ListItems(ctx context.Context, companyID uuid.UUID, params pagination.Params) (*ItemPage, error) {
	rows, err := s.repo.ListItems(ctx, companyID, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing inventory items")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	page := &ItemPage{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		last := page.Items[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// ApplyAdjustment runs the adjustment in its own transaction.
func (s *service) ApplyAdjustment(ctx context.Context, input AdjustmentInput) (*AdjustmentResult, error) {
	var result *AdjustmentResult
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.ApplyAdjustmentTx(ctx, tx, input)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyAdjustmentTx applies the adjustment inside an existing transaction,
// locking the item row until the caller commits.
func (s *service) ApplyAdjustmentTx(ctx context.Context, tx *gorm.DB, input AdjustmentInput) (*AdjustmentResult, error) {
	if tx == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "transaction required")
	}
	return s.applyAdjustmentLocked(ctx, s.repo.WithTx(tx), input, tx)
}

func (s *service) applyAdjustmentLocked(ctx context.Context, repo Repository, input AdjustmentInput, tx *gorm.DB) (*AdjustmentResult, error) {
	if input.ItemID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "item id is required")
	}
	if !input.AdjustmentType.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid adjustment type %q", input.AdjustmentType))
	}

	item, err := repo.FindItemForUpdate(ctx, input.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "inventory item not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "locking inventory item")
	}

	if err := applyQuantities(item, input.AdjustmentType, input.Quantity); err != nil {
		if typed := apperrors.As(err); typed != nil && typed.Code() == apperrors.CodeConflict {
			s.metrics.IncReservationConflict()
		}
		return nil, err
	}

	if err := repo.UpdateItemQuantities(ctx, item); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "updating inventory quantities")
	}

	role := input.ActorRole
	if role == "" {
		role = enums.ActorRoleSystem
	}
	entry := &models.InventoryLedgerEntry{
		ItemID:         item.ID,
		AdjustmentType: input.AdjustmentType,
		Quantity:       input.Quantity,
		OnHandAfter:    item.OnHandQty,
		ReservedAfter:  item.ReservedQty,
		RentalID:       input.RentalID,
		ActorID:        input.ActorID,
		ActorRole:      role,
		Reason:         input.Reason,
	}
	if err := repo.InsertLedgerEntry(ctx, entry); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "inserting ledger entry")
	}

	alert, err := s.evaluateAlert(ctx, repo, item, tx)
	if err != nil {
		return nil, err
	}

	return &AdjustmentResult{Item: item, Entry: entry, Alert: alert}, nil
}

// applyQuantities mutates the item balances according to the adjustment
// guards. The invariant 0 <= reserved <= on_hand holds on success.
func applyQuantities(item *models.InventoryItem, adjType enums.AdjustmentType, qty int) error {
	if adjType == enums.AdjustmentTypeAdjustment {
		if qty == 0 {
			return apperrors.New(apperrors.CodeValidation, "adjustment delta cannot be zero")
		}
	} else if qty <= 0 {
		return apperrors.New(apperrors.CodeValidation, "quantity must be positive")
	}

	switch adjType {
	case enums.AdjustmentTypeReservation:
		if item.AvailableQty() < qty {
			return apperrors.New(apperrors.CodeConflict, "insufficient availability").
				WithDetails(map[string]any{"available": item.AvailableQty(), "requested": qty})
		}
		item.ReservedQty += qty

	case enums.AdjustmentTypeReservationRelease:
		if item.ReservedQty < qty {
			return apperrors.New(apperrors.CodeStateConflict, "cannot release more than reserved").
				WithDetails(map[string]any{"reserved": item.ReservedQty, "requested": qty})
		}
		item.ReservedQty -= qty

	case enums.AdjustmentTypeCheckout:
		if item.ReservedQty < qty {
			return apperrors.New(apperrors.CodeStateConflict, "cannot check out more than reserved").
				WithDetails(map[string]any{"reserved": item.ReservedQty, "requested": qty})
		}
		item.ReservedQty -= qty
		item.OnHandQty -= qty

	case enums.AdjustmentTypeReturn, enums.AdjustmentTypeRestock:
		item.OnHandQty += qty

	case enums.AdjustmentTypeWriteOff:
		if item.AvailableQty() < qty {
			return apperrors.New(apperrors.CodeConflict, "cannot write off reserved or missing units").
				WithDetails(map[string]any{"available": item.AvailableQty(), "requested": qty})
		}
		item.OnHandQty -= qty

	case enums.AdjustmentTypeAdjustment:
		newOnHand := item.OnHandQty + qty
		if newOnHand < 0 || newOnHand < item.ReservedQty {
			return apperrors.New(apperrors.CodeConflict, "adjustment would break reserved/on-hand bounds").
				WithDetails(map[string]any{"on_hand": item.OnHandQty, "reserved": item.ReservedQty, "delta": qty})
		}
		item.OnHandQty = newOnHand
	}

	return nil
}

// evaluateAlert opens, refreshes or resolves the low-stock alert for the
// item and emits the notification event when a new alert is raised.
func (s *service) evaluateAlert(ctx context.Context, repo Repository, item *models.InventoryItem, tx *gorm.DB) (*models.InventoryAlert, error) {
	available := item.AvailableQty()
	if available > item.LowStockThreshold {
		return nil, s.resolveOpenAlerts(ctx, repo, item.ID)
	}

	alertType := enums.AlertTypeLowStock
	severity := enums.AlertSeverityWarning
	if available == 0 {
		alertType = enums.AlertTypeOutOfStock
		severity = enums.AlertSeverityCritical
	}

	existing, err := repo.FindOpenAlert(ctx, item.ID, alertType)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading open alert")
	}
	if existing != nil {
		// An acknowledged alert reopens when stock drops further.
		if existing.Status == enums.AlertStatusAcknowledged && available < existing.ObservedQty {
			existing.Status = enums.AlertStatusOpen
			existing.AcknowledgedBy = nil
			existing.AcknowledgedAt = nil
		}
		existing.ObservedQty = available
		existing.Severity = severity
		if err := repo.UpdateAlert(ctx, existing); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "refreshing alert")
		}
		return existing, nil
	}

	alert := &models.InventoryAlert{
		ItemID:      item.ID,
		AlertType:   alertType,
		Severity:    severity,
		Status:      enums.AlertStatusOpen,
		Threshold:   item.LowStockThreshold,
		ObservedQty: available,
	}
	if err := repo.InsertAlert(ctx, alert); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "inserting alert")
	}

	if s.outbox != nil && tx != nil {
		event := outbox.DomainEvent{
			EventType:     enums.EventInventoryAlertRaised,
			AggregateType: enums.AggregateInventoryAlert,
			AggregateID:   alert.ID,
			Version:       1,
			Data: payloads.InventoryAlertRaisedEvent{
				AlertID:     alert.ID,
				ItemID:      item.ID,
				AlertType:   alertType,
				Severity:    severity,
				Threshold:   item.LowStockThreshold,
				ObservedQty: available,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "emitting alert event")
		}
	}

	if count, err := repo.CountOpenAlerts(ctx); err == nil {
		s.metrics.SetOpenAlerts(int(count))
	}

	return alert, nil
}

// resolveOpenAlerts closes every open alert for the item once availability
// recovers above the threshold. Runs inside the adjustment transaction.
func (s *service) resolveOpenAlerts(ctx context.Context, repo Repository, itemID uuid.UUID) error {
	open, err := repo.ListOpenAlertsForItem(ctx, itemID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "listing open alerts")
	}
	if len(open) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for i := range open {
		alert := &open[i]
		alert.Status = enums.AlertStatusResolved
		alert.ResolvedAt = &now
		if err := repo.UpdateAlert(ctx, alert); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "resolving alert on recovery")
		}
	}

	if count, err := repo.CountOpenAlerts(ctx); err == nil {
		s.metrics.SetOpenAlerts(int(count))
	}
	return nil
}

func (s *service) ListLedgerEntries(ctx context.Context, itemID uuid.UUID, params pagination.Params) (*LedgerPage, error) {
	if itemID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "item id is required")
	}
	rows, err := s.repo.ListLedgerEntries(ctx, itemID, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing ledger entries")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	page := &LedgerPage{Entries: rows}
	if len(rows) > limit {
		page.Entries = rows[:limit]
		last := page.Entries[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

func (s *service) AcknowledgeAlert(ctx context.Context, alertID, actorID uuid.UUID) (*models.InventoryAlert, error) {
	if alertID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "alert id is required")
	}
	if actorID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "actor id is required")
	}

	var updated *models.InventoryAlert
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		alert, err := repo.FindAlert(ctx, alertID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.CodeNotFound, "alert not found")
			}
			return apperrors.Wrap(apperrors.CodeInternal, err, "loading alert")
		}
		if alert.Status != enums.AlertStatusOpen {
			return apperrors.New(apperrors.CodeStateConflict, fmt.Sprintf("alert is %s, not open", alert.Status))
		}
		now := time.Now().UTC()
		alert.Status = enums.AlertStatusAcknowledged
		alert.AcknowledgedBy = &actorID
		alert.AcknowledgedAt = &now
		if err := repo.UpdateAlert(ctx, alert); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "acknowledging alert")
		}
		updated = alert
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) ResolveAlert(ctx context.Context, alertID uuid.UUID) (*models.InventoryAlert, error) {
	if alertID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "alert id is required")
	}

	var updated *models.InventoryAlert
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		alert, err := repo.FindAlert(ctx, alertID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.CodeNotFound, "alert not found")
			}
			return apperrors.Wrap(apperrors.CodeInternal, err, "loading alert")
		}
		if alert.Status == enums.AlertStatusResolved {
			return apperrors.New(apperrors.CodeStateConflict, "alert already resolved")
		}
		now := time.Now().UTC()
		alert.Status = enums.AlertStatusResolved
		alert.ResolvedAt = &now
		if err := repo.UpdateAlert(ctx, alert); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "resolving alert")
		}
		if count, err := repo.CountOpenAlerts(ctx); err == nil {
			s.metrics.SetOpenAlerts(int(count))
		}
		updated = alert
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) ListAlerts(ctx context.Context, itemID *uuid.UUID, status *enums.AlertStatus, params pagination.Params) (*AlertPage, error) {
	rows, err := s.repo.ListAlerts(ctx, itemID, status, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing alerts")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	page := &AlertPage{Alerts: rows}
	if len(rows) > limit {
		page.Alerts = rows[:limit]
		last := page.Alerts[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}
