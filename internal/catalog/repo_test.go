package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/storeops-dev/backoffice-backend/pkg/db/models"
)

func TestFindSKUForStoreEnforcesTenancy(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	storeID := uuid.New()
	otherStoreID := uuid.New()

	product := models.Product{ID: uuid.New(), StoreID: storeID, Title: "Hoodie", Slug: "hoodie"}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	sku := models.SKU{ID: uuid.New(), ProductID: product.ID, UnitPriceCents: 4500, AvailableQty: 10, Active: true}
	if err := db.Create(&sku).Error; err != nil {
		t.Fatalf("seed sku: %v", err)
	}

	got, err := repo.FindSKUForStore(ctx, storeID, sku.ID)
	if err != nil {
		t.Fatalf("find sku: %v", err)
	}
	if got == nil || got.ID != sku.ID {
		t.Fatalf("expected sku %s, got %+v", sku.ID, got)
	}

	got, err = repo.FindSKUForStore(ctx, otherStoreID, sku.ID)
	if err != nil {
		t.Fatalf("cross-store lookup: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no sku for other store, got %+v", got)
	}
}

func TestFindSKUForStoreSkipsDeletedProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	storeID := uuid.New()
	product := models.Product{ID: uuid.New(), StoreID: storeID, Title: "Cap", Slug: "cap"}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	sku := models.SKU{ID: uuid.New(), ProductID: product.ID, UnitPriceCents: 1500, AvailableQty: 3, Active: true}
	if err := db.Create(&sku).Error; err != nil {
		t.Fatalf("seed sku: %v", err)
	}

	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("deleted_at", gorm.Expr("CURRENT_TIMESTAMP")).Error; err != nil {
		t.Fatalf("soft delete product: %v", err)
	}

	got, err := repo.FindSKUForStore(ctx, storeID, sku.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != nil {
		t.Fatalf("expected deleted product's sku hidden, got %+v", got)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.SKU{}); err != nil {
		t.Fatalf("migrate catalog models: %v", err)
	}
	return db
}
