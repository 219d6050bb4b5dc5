package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/storeops-dev/backoffice-backend/pkg/enums"
)

// Cart is an order in pending state. TotalCents is recomputed from the lines
// after every mutation, never accumulated incrementally. A pending cart that
// empties out is archived in the same transaction; there is no persisted empty
// pending cart.
type Cart struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	StoreID    uuid.UUID        `gorm:"column:store_id;type:uuid;not null"`
	Status     enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'pending'"`
	TotalCents int              `gorm:"column:total_cents;not null;default:0"`
	CustomerID *uuid.UUID       `gorm:"column:customer_id;type:uuid"`
	AddressID  *uuid.UUID       `gorm:"column:address_id;type:uuid"`
	Lines      []CartLine       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	DeletedAt  *time.Time       `gorm:"column:deleted_at"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
