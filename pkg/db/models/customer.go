package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer identifies the buyer a confirmed order is attributed to.
// ExternalID carries the identifier of the storefront's own auth system.
type Customer struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	StoreID    uuid.UUID `gorm:"column:store_id;type:uuid;not null"`
	ExternalID *string   `gorm:"column:external_id"`
	Email      string    `gorm:"column:email;not null"`
	Name       string    `gorm:"column:name;not null"`
	Addresses  []Address `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
