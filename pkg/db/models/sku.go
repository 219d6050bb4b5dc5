package models

import (
	"time"

	"github.com/google/uuid"
)

// SKU is the purchasable, stockable unit. AvailableQty is the authoritative
// remaining stock and is mutated exclusively through the stock ledger. A SKU
// referenced by historical order lines is never hard-deleted.
type SKU struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	Label          string     `gorm:"column:label;not null;default:''"`
	UnitPriceCents int        `gorm:"column:unit_price_cents;not null"`
	AvailableQty   int        `gorm:"column:available_qty;not null;default:0"`
	Active         bool       `gorm:"column:active;not null;default:true"`
	DeletedAt      *time.Time `gorm:"column:deleted_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
