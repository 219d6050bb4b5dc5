package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/storeops-dev/backoffice-backend/internal/audit"
	"github.com/storeops-dev/backoffice-backend/internal/cart"
	"github.com/storeops-dev/backoffice-backend/internal/catalog"
	"github.com/storeops-dev/backoffice-backend/internal/orders"
	"github.com/storeops-dev/backoffice-backend/internal/stock"
	"github.com/storeops-dev/backoffice-backend/pkg/db/models"
	"github.com/storeops-dev/backoffice-backend/pkg/enums"
	pkgerrors "github.com/storeops-dev/backoffice-backend/pkg/errors"
	"github.com/storeops-dev/backoffice-backend/pkg/outbox"
)

type env struct {
	db      *gorm.DB
	svc     Service
	storeID uuid.UUID
}

type sqliteTxRunner struct {
	db *gorm.DB
}

func (r sqliteTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Product{}, &models.SKU{},
		&models.Cart{}, &models.CartLine{},
		&models.AuditEvent{}, &models.OutboxEvent{},
		&models.Customer{}, &models.Address{},
	); err != nil {
		t.Fatalf("migrate models: %v", err)
	}

	svc, err := NewService(
		sqliteTxRunner{db: db},
		cart.NewRepository(db),
		catalog.NewRepository(db),
		orders.NewRepository(db),
		stock.NewLedger(),
		audit.NewRecorder(db),
		outbox.NewService(outbox.NewRepository(db), nil),
		nil,
	)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	return &env{db: db, svc: svc, storeID: uuid.New()}
}

func (e *env) seedSKU(t *testing.T, priceCents, qty int) uuid.UUID {
	t.Helper()
	product := models.Product{ID: uuid.New(), StoreID: e.storeID, Title: "item", Slug: "item-" + uuid.NewString()[:8]}
	if err := e.db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	sku := models.SKU{ID: uuid.New(), ProductID: product.ID, UnitPriceCents: priceCents, AvailableQty: qty, Active: true}
	if err := e.db.Create(&sku).Error; err != nil {
		t.Fatalf("seed sku: %v", err)
	}
	return sku.ID
}

func (e *env) seedCustomer(t *testing.T) uuid.UUID {
	t.Helper()
	customer := models.Customer{ID: uuid.New(), StoreID: e.storeID, Email: uuid.NewString()[:8] + "@example.com", Name: "Buyer"}
	if err := e.db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer.ID
}

func (e *env) repriceSKU(t *testing.T, skuID uuid.UUID, priceCents int) {
	t.Helper()
	if err := e.db.Model(&models.SKU{}).Where("id = ?", skuID).Update("unit_price_cents", priceCents).Error; err != nil {
		t.Fatalf("reprice sku: %v", err)
	}
}

func (e *env) availableQty(t *testing.T, skuID uuid.UUID) int {
	t.Helper()
	var sku models.SKU
	if err := e.db.First(&sku, "id = ?", skuID).Error; err != nil {
		t.Fatalf("load sku: %v", err)
	}
	return sku.AvailableQty
}

func (e *env) auditCount(t *testing.T, action enums.AuditAction) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(&models.AuditEvent{}).Where("store_id = ? AND action = ?", e.storeID, action).Count(&count).Error; err != nil {
		t.Fatalf("count audit events: %v", err)
	}
	return count
}

func (e *env) outboxCount(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&count).Error; err != nil {
		t.Fatalf("count outbox events: %v", err)
	}
	return count
}

func TestCreateCartReservesStockAndComputesTotal(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuA := e.seedSKU(t, 1999, 10)
	skuB := e.seedSKU(t, 500, 4)

	created, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{
		{SKUID: skuA, Quantity: 3},
		{SKUID: skuB, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	if created.Status != enums.CartStatusPending {
		t.Fatalf("unexpected status %s", created.Status)
	}
	if len(created.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(created.Lines))
	}
	if created.TotalCents != 3*1999+2*500 {
		t.Fatalf("unexpected total %d", created.TotalCents)
	}
	if got := e.availableQty(t, skuA); got != 7 {
		t.Fatalf("expected sku A stock 7, got %d", got)
	}
	if got := e.availableQty(t, skuB); got != 2 {
		t.Fatalf("expected sku B stock 2, got %d", got)
	}
	if got := e.outboxCount(t, enums.EventCartCreated); got != 1 {
		t.Fatalf("expected one cart_created event, got %d", got)
	}
}

func TestCreateCartAbortsWhollyOnInsufficientStock(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuA := e.seedSKU(t, 1000, 10)
	skuB := e.seedSKU(t, 1000, 1)

	_, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{
		{SKUID: skuA, Quantity: 2},
		{SKUID: skuB, Quantity: 5},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	// The whole transaction must roll back: no cart, no stock movement,
	// no audit rows.
	if got := e.availableQty(t, skuA); got != 10 {
		t.Fatalf("expected sku A stock untouched, got %d", got)
	}
	var carts int64
	if err := e.db.Model(&models.Cart{}).Where("store_id = ?", e.storeID).Count(&carts).Error; err != nil {
		t.Fatalf("count carts: %v", err)
	}
	if carts != 0 {
		t.Fatalf("expected no cart to survive the abort, got %d", carts)
	}
	if got := e.auditCount(t, enums.AuditLineAdded); got != 0 {
		t.Fatalf("expected no audit rows, got %d", got)
	}
}

func TestAddLineStacksOntoExistingLine(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuID := e.seedSKU(t, 1000, 10)

	created, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{{SKUID: skuID, Quantity: 2}})
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}

	result, err := e.svc.AddLine(ctx, e.storeID, created.ID, skuID, 3)
	if err != nil {
		t.Fatalf("add line: %v", err)
	}
	if result.Status != StatusOk {
		t.Fatalf("unexpected status %s", result.Status)
	}
	if len(result.Cart.Lines) != 1 || result.Cart.Lines[0].Quantity != 5 {
		t.Fatalf("expected single line with quantity 5, got %+v", result.Cart.Lines)
	}
	if result.Cart.TotalCents != 5000 {
		t.Fatalf("unexpected total %d", result.Cart.TotalCents)
	}
	if got := e.availableQty(t, skuID); got != 5 {
		t.Fatalf("expected stock 5, got %d", got)
	}
	if got := e.auditCount(t, enums.AuditLineUpdated); got != 1 {
		t.Fatalf("expected one line_updated audit row, got %d", got)
	}
}

func TestAddLineInsufficientStockLeavesCartUntouched(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuID := e.seedSKU(t, 1000, 5)

	created, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{{SKUID: skuID, Quantity: 3}})
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}

	_, err = e.svc.AddLine(ctx, e.storeID, created.ID, skuID, 3)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	reloaded, err := e.svc.GetCart(ctx, e.storeID, created.ID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if reloaded.Lines[0].Quantity != 3 || reloaded.TotalCents != 3000 {
		t.Fatalf("failed add must not change the cart, got %+v", reloaded)
	}
	if got := e.availableQty(t, skuID); got != 2 {
		t.Fatalf("expected stock 2, got %d", got)
	}
}

func TestSetLineQuantityUnchangedSkipsWrites(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuID := e.seedSKU(t, 1000, 10)

	created, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{{SKUID: skuID, Quantity: 4}})
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	auditBefore := e.auditCount(t, enums.AuditLineUpdated)

	result, err := e.svc.SetLineQuantity(ctx, e.storeID, created.ID, skuID, 4)
	if err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if result.Status != StatusUnchanged {
		t.Fatalf("expected unchanged, got %s", result.Status)
	}
	if got := e.availableQty(t, skuID); got != 6 {
		t.Fatalf("expected stock 6, got %d", got)
	}
	if got := e.auditCount(t, enums.AuditLineUpdated); got != auditBefore {
		t.Fatalf("unchanged mutation must not audit, got %d rows", got)
	}
}

func TestSetLineQuantityAdjustsReservation(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuID := e.seedSKU(t, 1000, 10)

	created, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{{SKUID: skuID, Quantity: 4}})
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}

	// Shrink releases the delta.
	result, err := e.svc.SetLineQuantity(ctx, e.storeID, created.ID, skuID, 1)
	if err != nil {
		t.Fatalf("shrink: %v", err)
	}
	if result.Status != StatusOk || result.Cart.TotalCents != 1000 {
		t.Fatalf("unexpected shrink result %+v", result)
	}
	if got := e.availableQty(t, skuID); got != 9 {
		t.Fatalf("expected stock 9 after shrink, got %d", got)
	}

	// Grow reserves the delta.
	result, err = e.svc.SetLineQuantity(ctx, e.storeID, created.ID, skuID, 6)
	if err != nil {
		t.Fatalf("grow: %v", err)
	}
	if result.Cart.TotalCents != 6000 {
		t.Fatalf("unexpected total %d", result.Cart.TotalCents)
	}
	if got := e.availableQty(t, skuID); got != 4 {
		t.Fatalf("expected stock 4 after grow, got %d", got)
	}
}

func TestSetLineQuantityZeroRemovesLastLineAndArchivesCart(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuID := e.seedSKU(t, 1000, 10)

	created, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{{SKUID: skuID, Quantity: 4}})
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}

	result, err := e.svc.SetLineQuantity(ctx, e.storeID, created.ID, skuID, 0)
	if err != nil {
		t.Fatalf("set zero: %v", err)
	}
	if result.Status != StatusCartRemoved {
		t.Fatalf("expected cart_removed, got %s", result.Status)
	}
	// Round trip: the full reservation is back.
	if got := e.availableQty(t, skuID); got != 10 {
		t.Fatalf("expected stock restored to 10, got %d", got)
	}
	if _, err := e.svc.GetCart(ctx, e.storeID, created.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("archived cart must be gone, got %v", err)
	}
	if got := e.auditCount(t, enums.AuditCartArchived); got != 1 {
		t.Fatalf("expected one cart_archived audit row, got %d", got)
	}
	if got := e.outboxCount(t, enums.EventCartArchived); got != 1 {
		t.Fatalf("expected one cart_archived event, got %d", got)
	}
}

func TestRemoveLineReleasesStock(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuA := e.seedSKU(t, 1000, 10)
	skuB := e.seedSKU(t, 500, 10)

	created, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{
		{SKUID: skuA, Quantity: 2},
		{SKUID: skuB, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}

	result, err := e.svc.RemoveLine(ctx, e.storeID, created.ID, skuA)
	if err != nil {
		t.Fatalf("remove line: %v", err)
	}
	if result.Status != StatusOk {
		t.Fatalf("expected ok with remaining line, got %s", result.Status)
	}
	if result.Cart.TotalCents != 500 || len(result.Cart.Lines) != 1 {
		t.Fatalf("unexpected cart state %+v", result.Cart)
	}
	if got := e.availableQty(t, skuA); got != 10 {
		t.Fatalf("expected stock restored, got %d", got)
	}

	// Removing the same line again finds nothing.
	_, err = e.svc.RemoveLine(ctx, e.storeID, created.ID, skuA)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on repeat removal, got %v", err)
	}
	if got := e.availableQty(t, skuA); got != 10 {
		t.Fatalf("repeat removal must not touch stock, got %d", got)
	}
}

func TestGuardedReserveRejectsSecondOverdraw(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuID := e.seedSKU(t, 1000, 5)

	created, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{{SKUID: skuID, Quantity: 3}})
	if err != nil {
		t.Fatalf("first reserve: %v", err)
	}

	// Stock 5, 3 held: a second add of 3 must lose the guard.
	_, err = e.svc.AddLine(ctx, e.storeID, created.ID, skuID, 3)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if got := e.availableQty(t, skuID); got != 2 {
		t.Fatalf("expected stock 2, got %d", got)
	}
}

func TestConfirmTransitionsAndIsIdempotent(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuID := e.seedSKU(t, 2500, 10)
	customerID := e.seedCustomer(t)

	created, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{{SKUID: skuID, Quantity: 2}})
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}

	confirmed, err := e.svc.Confirm(ctx, e.storeID, customerID, ConfirmInput{CartID: &created.ID})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != enums.CartStatusConfirmed {
		t.Fatalf("unexpected status %s", confirmed.Status)
	}
	if confirmed.CustomerID == nil || *confirmed.CustomerID != customerID {
		t.Fatalf("expected customer recorded")
	}

	// Re-confirm: same outcome, no duplicate order event, stock untouched.
	again, err := e.svc.Confirm(ctx, e.storeID, customerID, ConfirmInput{CartID: &created.ID})
	if err != nil {
		t.Fatalf("re-confirm: %v", err)
	}
	if again.ID != confirmed.ID || again.Status != enums.CartStatusConfirmed {
		t.Fatalf("unexpected re-confirm result %+v", again)
	}
	if got := e.outboxCount(t, enums.EventOrderConfirmed); got != 1 {
		t.Fatalf("expected exactly one order_confirmed event, got %d", got)
	}
	if got := e.availableQty(t, skuID); got != 8 {
		t.Fatalf("confirm must not move stock, got %d", got)
	}

	// A confirmed cart is no longer mutable; it reads as gone.
	_, err = e.svc.AddLine(ctx, e.storeID, created.ID, skuID, 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConfirmRejectsAnotherCustomersCart(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuID := e.seedSKU(t, 1000, 10)
	owner := e.seedCustomer(t)
	intruder := e.seedCustomer(t)

	created, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{{SKUID: skuID, Quantity: 1}})
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	if _, err := e.svc.Confirm(ctx, e.storeID, owner, ConfirmInput{CartID: &created.ID}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	_, err = e.svc.Confirm(ctx, e.storeID, intruder, ConfirmInput{CartID: &created.ID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestConfirmWithoutCartBuildsAndConfirms(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuID := e.seedSKU(t, 1500, 10)
	customerID := e.seedCustomer(t)

	confirmed, err := e.svc.Confirm(ctx, e.storeID, customerID, ConfirmInput{
		Items: []LineInput{{SKUID: skuID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("confirm without cart: %v", err)
	}
	if confirmed.Status != enums.CartStatusConfirmed {
		t.Fatalf("unexpected status %s", confirmed.Status)
	}
	if confirmed.TotalCents != 3000 {
		t.Fatalf("unexpected total %d", confirmed.TotalCents)
	}
	if got := e.availableQty(t, skuID); got != 8 {
		t.Fatalf("expected stock 8, got %d", got)
	}
}

func TestConfirmUnknownCustomer(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuID := e.seedSKU(t, 1000, 10)

	created, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{{SKUID: skuID, Quantity: 1}})
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}

	_, err = e.svc.Confirm(ctx, e.storeID, uuid.New(), ConfirmInput{CartID: &created.ID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTotalMatchesLineSumAfterMixedMutations(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuA := e.seedSKU(t, 1999, 20)
	skuB := e.seedSKU(t, 750, 20)

	created, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{{SKUID: skuA, Quantity: 2}})
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	if _, err := e.svc.AddLine(ctx, e.storeID, created.ID, skuB, 4); err != nil {
		t.Fatalf("add b: %v", err)
	}
	if _, err := e.svc.SetLineQuantity(ctx, e.storeID, created.ID, skuA, 5); err != nil {
		t.Fatalf("grow a: %v", err)
	}
	result, err := e.svc.SetLineQuantity(ctx, e.storeID, created.ID, skuB, 1)
	if err != nil {
		t.Fatalf("shrink b: %v", err)
	}

	var lineSum int
	for _, line := range result.Cart.Lines {
		lineSum += line.LineTotalCents
	}
	if result.Cart.TotalCents != lineSum {
		t.Fatalf("total %d != line sum %d", result.Cart.TotalCents, lineSum)
	}
	if result.Cart.TotalCents != 5*1999+750 {
		t.Fatalf("unexpected total %d", result.Cart.TotalCents)
	}
}

func TestMutationsRejectCrossStoreCart(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuID := e.seedSKU(t, 1000, 10)

	created, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{{SKUID: skuID, Quantity: 1}})
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}

	_, err = e.svc.AddLine(ctx, uuid.New(), created.ID, skuID, 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign store, got %v", err)
	}
}

func TestQuantityBounds(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuID := e.seedSKU(t, 1000, 2000)

	_, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{{SKUID: skuID, Quantity: 1000}})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	created, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{{SKUID: skuID, Quantity: 999}})
	if err != nil {
		t.Fatalf("create at bound: %v", err)
	}

	// Stacking past the bound fails even though stock would allow it.
	_, err = e.svc.AddLine(ctx, e.storeID, created.ID, skuID, 1)
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error at 1000, got %v", err)
	}
}

func TestCreateCartAlwaysOpensAFreshCart(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuID := e.seedSKU(t, 1000, 10)

	first, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{{SKUID: skuID, Quantity: 2}})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{{SKUID: skuID, Quantity: 1}})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}

	// Independent requests must never share an aggregate.
	if first.ID == second.ID {
		t.Fatalf("expected distinct carts, both requests got %s", first.ID)
	}
	if len(first.Lines) != 1 || len(second.Lines) != 1 {
		t.Fatalf("expected one line each, got %d and %d", len(first.Lines), len(second.Lines))
	}
	if second.TotalCents != 1000 {
		t.Fatalf("second cart must not inherit the first cart's lines, total %d", second.TotalCents)
	}
	if got := e.availableQty(t, skuID); got != 7 {
		t.Fatalf("expected stock 7 after both reserves, got %d", got)
	}
	if got := e.outboxCount(t, enums.EventCartCreated); got != 2 {
		t.Fatalf("expected two cart_created events, got %d", got)
	}
}

func TestConfirmWithoutCartLeavesOtherPendingCartsAlone(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuID := e.seedSKU(t, 1000, 10)
	customerID := e.seedCustomer(t)

	inflight, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{{SKUID: skuID, Quantity: 2}})
	if err != nil {
		t.Fatalf("create in-flight cart: %v", err)
	}

	confirmed, err := e.svc.Confirm(ctx, e.storeID, customerID, ConfirmInput{
		Items: []LineInput{{SKUID: skuID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("confirm without cart: %v", err)
	}
	if confirmed.ID == inflight.ID {
		t.Fatalf("checkout without a cart must not absorb an unrelated pending cart")
	}
	if confirmed.TotalCents != 1000 || len(confirmed.Lines) != 1 {
		t.Fatalf("unexpected confirmed cart %+v", confirmed)
	}

	// The shopper's in-flight cart is untouched and still mutable.
	still, err := e.svc.GetCart(ctx, e.storeID, inflight.ID)
	if err != nil {
		t.Fatalf("reload in-flight cart: %v", err)
	}
	if still.Status != enums.CartStatusPending || still.TotalCents != 2000 {
		t.Fatalf("in-flight cart changed: %+v", still)
	}
}

func TestAddLineRecapturesCurrentUnitPrice(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuID := e.seedSKU(t, 1000, 10)

	created, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{{SKUID: skuID, Quantity: 1}})
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	e.repriceSKU(t, skuID, 2000)

	result, err := e.svc.AddLine(ctx, e.storeID, created.ID, skuID, 1)
	if err != nil {
		t.Fatalf("add line: %v", err)
	}
	line := result.Cart.Lines[0]
	if line.UnitPriceCents != 2000 {
		t.Fatalf("expected recaptured price 2000, got %d", line.UnitPriceCents)
	}
	if line.LineTotalCents != 4000 || result.Cart.TotalCents != 4000 {
		t.Fatalf("expected totals at the new price, got line %d cart %d", line.LineTotalCents, result.Cart.TotalCents)
	}
}

func TestSetLineQuantityRecapturesPriceOnGrowOnly(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	skuID := e.seedSKU(t, 1000, 20)

	created, err := e.svc.CreateCart(ctx, e.storeID, []LineInput{{SKUID: skuID, Quantity: 3}})
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	e.repriceSKU(t, skuID, 1500)

	// Shrinking releases stock without a new reservation, so the captured
	// price stands.
	result, err := e.svc.SetLineQuantity(ctx, e.storeID, created.ID, skuID, 2)
	if err != nil {
		t.Fatalf("shrink: %v", err)
	}
	if got := result.Cart.Lines[0].UnitPriceCents; got != 1000 {
		t.Fatalf("shrink must keep the captured price, got %d", got)
	}
	if result.Cart.TotalCents != 2000 {
		t.Fatalf("unexpected total after shrink %d", result.Cart.TotalCents)
	}

	// Growing reserves again and re-captures.
	result, err = e.svc.SetLineQuantity(ctx, e.storeID, created.ID, skuID, 4)
	if err != nil {
		t.Fatalf("grow: %v", err)
	}
	if got := result.Cart.Lines[0].UnitPriceCents; got != 1500 {
		t.Fatalf("grow must re-capture the price, got %d", got)
	}
	if result.Cart.TotalCents != 6000 {
		t.Fatalf("unexpected total after grow %d", result.Cart.TotalCents)
	}
}
