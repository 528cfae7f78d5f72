package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orbas1/fixnado-backend/pkg/enums"
)

// InventoryItem tracks on-hand and reserved counts per rentable SKU.
type InventoryItem struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CompanyID         uuid.UUID `gorm:"column:company_id;type:uuid;not null;uniqueIndex:idx_inventory_items_company_sku"`
	SKU               string    `gorm:"column:sku;type:text;not null;uniqueIndex:idx_inventory_items_company_sku"`
	Name              string    `gorm:"column:name;type:text;not null"`
	OnHandQty         int       `gorm:"column:on_hand_qty;not null;default:0"`
	ReservedQty       int       `gorm:"column:reserved_qty;not null;default:0"`
	LowStockThreshold int       `gorm:"column:low_stock_threshold;not null;default:0"`

	// Pricing defaults copied onto new rentals by clients; the rental row
	// keeps its own rate once created.
	DailyRate       decimal.Decimal `gorm:"column:daily_rate;type:numeric(12,2);not null;default:0"`
	RateCurrency    enums.Currency  `gorm:"column:rate_currency;type:text;not null;default:USD"`
	DepositAmount   decimal.Decimal `gorm:"column:deposit_amount;type:numeric(12,2);not null;default:0"`
	DepositCurrency enums.Currency  `gorm:"column:deposit_currency;type:text;not null;default:USD"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// AvailableQty is the quantity free to reserve.
func (i InventoryItem) AvailableQty() int {
	return i.OnHandQty - i.ReservedQty
}
