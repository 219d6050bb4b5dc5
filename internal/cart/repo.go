package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storeops-dev/backoffice-backend/pkg/db/models"
	"github.com/storeops-dev/backoffice-backend/pkg/enums"
)

// Repository manages persistence for carts and their lines. Mutating methods
// are expected to run on a transaction obtained through WithTx.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, cart *models.Cart) error
	FindByID(ctx context.Context, cartID uuid.UUID) (*models.Cart, error)
	GetLine(ctx context.Context, cartID, skuID uuid.UUID) (*models.CartLine, error)
	UpsertLine(ctx context.Context, line *models.CartLine) error
	RemoveLine(ctx context.Context, cartID, skuID uuid.UUID) error
	CountLines(ctx context.Context, cartID uuid.UUID) (int64, error)
	RecomputeTotal(ctx context.Context, cartID uuid.UUID) (int, error)
	TransitionStatus(ctx context.Context, cartID uuid.UUID, from, to enums.CartStatus, updates map[string]any) (bool, error)
	Archive(ctx context.Context, cartID uuid.UUID) (bool, error)
	ListConfirmedForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Cart, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a cart repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

func (r *repository) FindByID(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("id = ? AND deleted_at IS NULL", cartID).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

func (r *repository) GetLine(ctx context.Context, cartID, skuID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND sku_id = ?", cartID, skuID).
		First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &line, nil
}

func (r *repository) UpsertLine(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "sku_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"quantity", "unit_price_cents", "line_total_cents", "updated_at",
			}),
		}).
		Create(line).Error
}

func (r *repository) RemoveLine(ctx context.Context, cartID, skuID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND sku_id = ?", cartID, skuID).
		Delete(&models.CartLine{}).Error
}

func (r *repository) CountLines(ctx context.Context, cartID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("cart_id = ?", cartID).
		Count(&count).Error
	return count, err
}

// RecomputeTotal derives the cart total from the full set of lines and writes
// it back. Summing instead of applying deltas keeps the stored total equal to
// the line items even after partial failures.
func (r *repository) RecomputeTotal(ctx context.Context, cartID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("cart_id = ?", cartID).
		Select("COALESCE(SUM(line_total_cents), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	err = r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("total_cents", total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// TransitionStatus applies a guarded state change and reports whether the row
// matched. A false return means the cart was not in the expected status.
func (r *repository) TransitionStatus(ctx context.Context, cartID uuid.UUID, from, to enums.CartStatus, updates map[string]any) (bool, error) {
	values := map[string]any{"status": to}
	for k, v := range updates {
		values[k] = v
	}
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND status = ? AND deleted_at IS NULL", cartID, from).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Archive soft-deletes a pending cart and marks it archived in one update.
func (r *repository) Archive(ctx context.Context, cartID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND status = ? AND deleted_at IS NULL", cartID, enums.CartStatusPending).
		Updates(map[string]any{
			"status":     enums.CartStatusArchived,
			"deleted_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListConfirmedForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Cart, error) {
	var carts []models.Cart
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("customer_id = ? AND status = ?", customerID, enums.CartStatusConfirmed).
		Order("updated_at DESC").
		Find(&carts).Error
	return carts, err
}
