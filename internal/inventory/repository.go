package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orbas1/fixnado-backend/pkg/db/models"
	"github.com/orbas1/fixnado-backend/pkg/enums"
	"github.com/orbas1/fixnado-backend/pkg/pagination"
)

// Repository persists inventory items, ledger entries and alerts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateItem(ctx context.Context, item *models.InventoryItem) error
	FindItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	FindItemForUpdate(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	ListItems(ctx context.Context, companyID uuid.UUID, params pagination.Params) ([]models.InventoryItem, error)
	UpdateItemQuantities(ctx context.Context, item *models.InventoryItem) error

	InsertLedgerEntry(ctx context.Context, entry *models.InventoryLedgerEntry) error
	ListLedgerEntries(ctx context.Context, itemID uuid.UUID, params pagination.Params) ([]models.InventoryLedgerEntry, error)

	FindAlert(ctx context.Context, id uuid.UUID) (*models.InventoryAlert, error)
	FindOpenAlert(ctx context.Context, itemID uuid.UUID, alertType enums.AlertType) (*models.InventoryAlert, error)
	ListOpenAlertsForItem(ctx context.Context, itemID uuid.UUID) ([]models.InventoryAlert, error)
	InsertAlert(ctx context.Context, alert *models.InventoryAlert) error
	UpdateAlert(ctx context.Context, alert *models.InventoryAlert) error
	ListAlerts(ctx context.Context, itemID *uuid.UUID, status *enums.AlertStatus, params pagination.Params) ([]models.InventoryAlert, error)
	CountOpenAlerts(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemForUpdate locks the item row for the remainder of the transaction.
func (r *repository) FindItemForUpdate(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItems(ctx context.Context, companyID uuid.UUID, params pagination.Params) ([]models.InventoryItem, error) {
	query := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if companyID != uuid.Nil {
		query = query.Where("company_id = ?", companyID)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at > ?) OR (created_at = ? AND id > ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.InventoryItem
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateItemQuantities(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"on_hand_qty":  item.OnHandQty,
			"reserved_qty": item.ReservedQty,
		}).Error
}

func (r *repository) InsertLedgerEntry(ctx context.Context, entry *models.InventoryLedgerEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListLedgerEntries(ctx context.Context, itemID uuid.UUID, params pagination.Params) ([]models.InventoryLedgerEntry, error) {
	query := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at ASC").
		Order("id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at > ?) OR (created_at = ? AND id > ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.InventoryLedgerEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindAlert(ctx context.Context, id uuid.UUID) (*models.InventoryAlert, error) {
	var alert models.InventoryAlert
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&alert).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *repository) FindOpenAlert(ctx context.Context, itemID uuid.UUID, alertType enums.AlertType) (*models.InventoryAlert, error) {
	var alert models.InventoryAlert
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND alert_type = ? AND status <> ?", itemID, alertType, enums.AlertStatusResolved).
		First(&alert).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *repository) ListOpenAlertsForItem(ctx context.Context, itemID uuid.UUID) ([]models.InventoryAlert, error) {
	var rows []models.InventoryAlert
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND status <> ?", itemID, enums.AlertStatusResolved).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) InsertAlert(ctx context.Context, alert *models.InventoryAlert) error {
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *repository) UpdateAlert(ctx context.Context, alert *models.InventoryAlert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}

func (r *repository) ListAlerts(ctx context.Context, itemID *uuid.UUID, status *enums.AlertStatus, params pagination.Params) ([]models.InventoryAlert, error) {
	query := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if itemID != nil && *itemID != uuid.Nil {
		query = query.Where("item_id = ?", *itemID)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at > ?) OR (created_at = ? AND id > ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.InventoryAlert
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountOpenAlerts(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InventoryAlert{}).
		Where("status <> ?", enums.AlertStatusResolved).
		Count(&count).Error
	return count, err
}
