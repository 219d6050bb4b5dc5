package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLine holds one SKU inside one cart; the composite key guarantees at
// most one line per SKU per cart. UnitPriceCents is captured at reservation
// time so later catalog price changes never alter an open cart.
type CartLine struct {
	CartID         uuid.UUID `gorm:"column:cart_id;type:uuid;primaryKey"`
	SKUID          uuid.UUID `gorm:"column:sku_id;type:uuid;primaryKey"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	LineTotalCents int       `gorm:"column:line_total_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
