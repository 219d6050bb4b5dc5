package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storeops-dev/backoffice-backend/pkg/db/models"
)

// Repository resolves catalog records for cart mutations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindSKUForStore(ctx context.Context, storeID, skuID uuid.UUID) (*models.SKU, error)
	FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindSKUForStore loads a SKU only when its product belongs to the store.
// Tenancy is enforced here so a cart can never hold another store's catalog.
func (r *repository) FindSKUForStore(ctx context.Context, storeID, skuID uuid.UUID) (*models.SKU, error) {
	var sku models.SKU
	err := r.db.WithContext(ctx).
		Joins("JOIN products ON products.id = skus.product_id").
		Where("skus.id = ? AND products.store_id = ? AND skus.deleted_at IS NULL AND products.deleted_at IS NULL", skuID, storeID).
		First(&sku).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sku, nil
}

func (r *repository) FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", productID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}
