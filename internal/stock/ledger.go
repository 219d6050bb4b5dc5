package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storeops-dev/backoffice-backend/pkg/db/models"
	pkgerrors "github.com/storeops-dev/backoffice-backend/pkg/errors"
)

// Ledger guards the authoritative available_qty column on skus. Reserve and
// Release run on the caller's transaction so stock movement commits or rolls
// back together with the cart mutation that caused it.
type Ledger interface {
	Reserve(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, qty int) error
	Release(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, qty int) error
}

type ledger struct{}

// NewLedger returns the stock ledger.
func NewLedger() Ledger {
	return &ledger{}
}

// Reserve decrements available stock for the SKU. The decrement is a single
// guarded UPDATE: it only applies when the SKU is active and holds at least
// qty units, so concurrent reservations can never drive the quantity negative.
func (l *ledger) Reserve(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, qty int) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if skuID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku id is required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reserve quantity must be positive")
	}

	res := tx.WithContext(ctx).Model(&models.SKU{}).
		Where("id = ? AND active = ? AND deleted_at IS NULL AND available_qty >= ?", skuID, true, qty).
		Update("available_qty", gorm.Expr("available_qty - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// The guarded update matched nothing. Load the row to tell a missing or
	// inactive SKU apart from plain shortage.
	var sku models.SKU
	err := tx.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", skuID).
		First(&sku).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "sku not found")
		}
		return err
	}
	if !sku.Active {
		return pkgerrors.New(pkgerrors.CodeNotFound, "sku is not purchasable")
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(map[string]any{
			"sku_id":    skuID.String(),
			"requested": qty,
			"available": sku.AvailableQty,
		})
}

// Release returns previously reserved units to the SKU. Releases target SKUs
// that may have been deactivated since the reservation, so only existence is
// checked.
func (l *ledger) Release(ctx context.Context, tx *gorm.DB, skuID uuid.UUID, qty int) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if skuID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku id is required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "release quantity must be positive")
	}

	res := tx.WithContext(ctx).Model(&models.SKU{}).
		Where("id = ?", skuID).
		Update("available_qty", gorm.Expr("available_qty + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "sku not found")
	}
	return nil
}
