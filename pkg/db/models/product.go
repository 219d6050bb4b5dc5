package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/storeops-dev/backoffice-backend/pkg/enums"
)

// Product represents a catalog listing. Purchasable stock and pricing live on
// its SKUs; a product without declared variants carries exactly one default
// SKU.
type Product struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	StoreID   uuid.UUID           `gorm:"column:store_id;type:uuid;not null"`
	Title     string              `gorm:"column:title;not null"`
	Slug      string              `gorm:"column:slug;not null"`
	Tags      pq.StringArray      `gorm:"column:tags;type:text"`
	Status    enums.ProductStatus `gorm:"column:status;type:product_status;not null;default:'active'"`
	SKUs      []SKU               `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	DeletedAt *time.Time          `gorm:"column:deleted_at"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
