package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storeops-dev/backoffice-backend/internal/audit"
	"github.com/storeops-dev/backoffice-backend/internal/cart"
	"github.com/storeops-dev/backoffice-backend/internal/catalog"
	"github.com/storeops-dev/backoffice-backend/internal/orders"
	"github.com/storeops-dev/backoffice-backend/internal/stock"
	dbpkg "github.com/storeops-dev/backoffice-backend/pkg/db"
	"github.com/storeops-dev/backoffice-backend/pkg/db/models"
	"github.com/storeops-dev/backoffice-backend/pkg/enums"
	pkgerrors "github.com/storeops-dev/backoffice-backend/pkg/errors"
	"github.com/storeops-dev/backoffice-backend/pkg/logger"
	"github.com/storeops-dev/backoffice-backend/pkg/money"
	"github.com/storeops-dev/backoffice-backend/pkg/outbox"
	"github.com/storeops-dev/backoffice-backend/pkg/outbox/payloads"
)

// maxLineQuantity bounds any single cart line.
const maxLineQuantity = 999

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service coordinates every cart mutation as one transaction spanning the
// catalog lookup, the stock ledger write, the line write, the total recompute,
// the audit append and the outbox emit.
type Service interface {
	CreateCart(ctx context.Context, storeID uuid.UUID, items []LineInput) (*models.Cart, error)
	GetCart(ctx context.Context, storeID, cartID uuid.UUID) (*models.Cart, error)
	AddLine(ctx context.Context, storeID, cartID, skuID uuid.UUID, quantity int) (*Result, error)
	SetLineQuantity(ctx context.Context, storeID, cartID, skuID uuid.UUID, quantity int) (*Result, error)
	RemoveLine(ctx context.Context, storeID, cartID, skuID uuid.UUID) (*Result, error)
	Confirm(ctx context.Context, storeID, customerID uuid.UUID, input ConfirmInput) (*models.Cart, error)
}

// LineInput is one requested (sku, quantity) pair.
type LineInput struct {
	SKUID    uuid.UUID
	Quantity int
}

// ConfirmInput drives cart confirmation. CartID nil selects the
// checkout-without-cart path: a fresh pending cart is built from Items and
// confirmed in the same transaction.
type ConfirmInput struct {
	CartID    *uuid.UUID
	AddressID *uuid.UUID
	Items     []LineInput
}

type service struct {
	tx          txRunner
	cartRepo    cart.Repository
	catalogRepo catalog.Repository
	ordersRepo  orders.Repository
	ledger      stock.Ledger
	auditor     audit.Recorder
	outbox      outboxPublisher
	logg        *logger.Logger
}

// NewService builds the reservation coordinator.
func NewService(
	tx txRunner,
	cartRepo cart.Repository,
	catalogRepo catalog.Repository,
	ordersRepo orders.Repository,
	ledger stock.Ledger,
	auditor audit.Recorder,
	publisher outboxPublisher,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if ledger == nil {
		ledger = stock.NewLedger()
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:          tx,
		cartRepo:    cartRepo,
		catalogRepo: catalogRepo,
		ordersRepo:  ordersRepo,
		ledger:      ledger,
		auditor:     auditor,
		outbox:      publisher,
		logg:        logg,
	}, nil
}

// CreateCart builds a pending cart from the requested items. The whole batch
// reserves atomically: the first SKU that cannot be reserved aborts the
// transaction and nothing is written.
func (s *service) CreateCart(ctx context.Context, storeID uuid.UUID, items []LineInput) (*models.Cart, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if err := validateLineInputs(items); err != nil {
		return nil, err
	}

	var created *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRecord, err := s.createPendingCart(ctx, tx, storeID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if _, err := s.applyAdd(ctx, tx, cartRecord, storeID, item.SKUID, item.Quantity); err != nil {
				return err
			}
		}
		created, err = s.cartRepo.WithTx(tx).FindByID(ctx, cartRecord.ID)
		return err
	})
	if err != nil {
		return nil, s.classify(err)
	}
	return created, nil
}

func (s *service) GetCart(ctx context.Context, storeID, cartID uuid.UUID) (*models.Cart, error) {
	if storeID == uuid.Nil || cartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id and cart id are required")
	}
	record, err := s.cartRepo.FindByID(ctx, cartID)
	if err != nil {
		return nil, s.classify(err)
	}
	if record == nil || record.StoreID != storeID || record.Status != enums.CartStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return record, nil
}

// AddLine adds quantity units of the SKU, stacking onto an existing line.
func (s *service) AddLine(ctx context.Context, storeID, cartID, skuID uuid.UUID, quantity int) (*Result, error) {
	if err := validateMutationIDs(storeID, cartID, skuID); err != nil {
		return nil, err
	}
	if quantity < 1 || quantity > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 1 and 999")
	}

	var result *Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		record, err := s.loadPendingCart(ctx, tx, storeID, cartID)
		if err != nil {
			return err
		}
		result, err = s.applyAdd(ctx, tx, record, storeID, skuID, quantity)
		return err
	})
	if err != nil {
		return nil, s.classify(err)
	}
	return result, nil
}

// SetLineQuantity sets the line to an absolute quantity. Zero removes the
// line; setting the current quantity is reported as Unchanged without writes.
func (s *service) SetLineQuantity(ctx context.Context, storeID, cartID, skuID uuid.UUID, quantity int) (*Result, error) {
	if err := validateMutationIDs(storeID, cartID, skuID); err != nil {
		return nil, err
	}
	if quantity < 0 || quantity > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 0 and 999")
	}

	var result *Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		record, err := s.loadPendingCart(ctx, tx, storeID, cartID)
		if err != nil {
			return err
		}
		cartRepo := s.cartRepo.WithTx(tx)

		line, err := cartRepo.GetLine(ctx, record.ID, skuID)
		if err != nil {
			return err
		}
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		if quantity == line.Quantity {
			result = unchangedResult(record)
			return nil
		}
		if quantity == 0 {
			result, err = s.applyRemove(ctx, tx, record, storeID, line)
			return err
		}

		delta := quantity - line.Quantity
		if delta > 0 {
			// Growing is a fresh reservation, so the line price re-captures
			// the current catalog price.
			sku, err := s.catalogRepo.WithTx(tx).FindSKUForStore(ctx, storeID, skuID)
			if err != nil {
				return err
			}
			if sku == nil || !sku.Active {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sku not found")
			}
			if err := s.ledger.Reserve(ctx, tx, skuID, delta); err != nil {
				return err
			}
			line.UnitPriceCents = sku.UnitPriceCents
		} else {
			if err := s.ledger.Release(ctx, tx, skuID, -delta); err != nil {
				return err
			}
		}

		line.Quantity = quantity
		line.LineTotalCents = int(money.LineTotal(int64(line.UnitPriceCents), quantity))
		if err := cartRepo.UpsertLine(ctx, line); err != nil {
			return err
		}
		total, err := cartRepo.RecomputeTotal(ctx, record.ID)
		if err != nil {
			return err
		}

		if err := s.recordLineMutation(ctx, tx, enums.AuditLineUpdated, enums.EventCartLineUpdated, record, line, total); err != nil {
			return err
		}

		result, err = s.reloadOk(ctx, tx, record.ID)
		return err
	})
	if err != nil {
		return nil, s.classify(err)
	}
	return result, nil
}

// RemoveLine drops the SKU from the cart and releases its reservation.
func (s *service) RemoveLine(ctx context.Context, storeID, cartID, skuID uuid.UUID) (*Result, error) {
	if err := validateMutationIDs(storeID, cartID, skuID); err != nil {
		return nil, err
	}

	var result *Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		record, err := s.loadPendingCart(ctx, tx, storeID, cartID)
		if err != nil {
			return err
		}
		line, err := s.cartRepo.WithTx(tx).GetLine(ctx, record.ID, skuID)
		if err != nil {
			return err
		}
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		result, err = s.applyRemove(ctx, tx, record, storeID, line)
		return err
	})
	if err != nil {
		return nil, s.classify(err)
	}
	return result, nil
}

// applyAdd stacks quantity onto the SKU's line inside the caller's
// transaction and returns the refreshed cart.
func (s *service) applyAdd(ctx context.Context, tx *gorm.DB, record *models.Cart, storeID, skuID uuid.UUID, quantity int) (*Result, error) {
	cartRepo := s.cartRepo.WithTx(tx)

	sku, err := s.catalogRepo.WithTx(tx).FindSKUForStore(ctx, storeID, skuID)
	if err != nil {
		return nil, err
	}
	if sku == nil || !sku.Active {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sku not found")
	}

	line, err := cartRepo.GetLine(ctx, record.ID, skuID)
	if err != nil {
		return nil, err
	}

	// The reservation re-captures the current catalog price, also when
	// stacking onto an existing line.
	newQty := quantity
	unitPrice := sku.UnitPriceCents
	action := enums.AuditLineAdded
	eventType := enums.EventCartLineAdded
	if line != nil {
		newQty = line.Quantity + quantity
		action = enums.AuditLineUpdated
		eventType = enums.EventCartLineUpdated
	}
	if newQty > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity cannot exceed 999")
	}

	if err := s.ledger.Reserve(ctx, tx, skuID, quantity); err != nil {
		return nil, err
	}

	updated := &models.CartLine{
		CartID:         record.ID,
		SKUID:          skuID,
		ProductID:      sku.ProductID,
		Quantity:       newQty,
		UnitPriceCents: unitPrice,
		LineTotalCents: int(money.LineTotal(int64(unitPrice), newQty)),
	}
	if err := cartRepo.UpsertLine(ctx, updated); err != nil {
		return nil, err
	}
	total, err := cartRepo.RecomputeTotal(ctx, record.ID)
	if err != nil {
		return nil, err
	}

	if err := s.recordLineMutation(ctx, tx, action, eventType, record, updated, total); err != nil {
		return nil, err
	}

	return s.reloadOk(ctx, tx, record.ID)
}

// applyRemove deletes the line, releases its full reservation, and archives
// the cart when the removal emptied it.
func (s *service) applyRemove(ctx context.Context, tx *gorm.DB, record *models.Cart, storeID uuid.UUID, line *models.CartLine) (*Result, error) {
	cartRepo := s.cartRepo.WithTx(tx)

	if err := cartRepo.RemoveLine(ctx, record.ID, line.SKUID); err != nil {
		return nil, err
	}
	if err := s.ledger.Release(ctx, tx, line.SKUID, line.Quantity); err != nil {
		return nil, err
	}
	total, err := cartRepo.RecomputeTotal(ctx, record.ID)
	if err != nil {
		return nil, err
	}

	removed := &models.CartLine{
		CartID:         record.ID,
		SKUID:          line.SKUID,
		ProductID:      line.ProductID,
		Quantity:       0,
		UnitPriceCents: line.UnitPriceCents,
	}
	if err := s.recordLineMutation(ctx, tx, enums.AuditLineRemoved, enums.EventCartLineRemoved, record, removed, total); err != nil {
		return nil, err
	}

	archived, err := s.archiveIfEmpty(ctx, tx, record, "emptied")
	if err != nil {
		return nil, err
	}
	if archived {
		return cartRemovedResult(), nil
	}
	return s.reloadOk(ctx, tx, record.ID)
}

// loadPendingCart fetches the cart and enforces tenancy and pending status.
func (s *service) loadPendingCart(ctx context.Context, tx *gorm.DB, storeID, cartID uuid.UUID) (*models.Cart, error) {
	record, err := s.cartRepo.WithTx(tx).FindByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if record == nil || record.StoreID != storeID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	// A cart that left pending is not addressable for mutation anymore.
	if record.Status != enums.CartStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return record, nil
}

func (s *service) reloadOk(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) (*Result, error) {
	refreshed, err := s.cartRepo.WithTx(tx).FindByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return okResult(refreshed), nil
}

// recordLineMutation appends the audit row and queues the outbox event for a
// committed line change.
func (s *service) recordLineMutation(ctx context.Context, tx *gorm.DB, action enums.AuditAction, eventType enums.OutboxEventType, record *models.Cart, line *models.CartLine, totalCents int) error {
	actor := audit.StoreActorLabel(record.StoreID)
	if err := s.auditor.Record(ctx, tx, audit.Entry{
		StoreID: record.StoreID,
		Action:  action,
		Actor:   actor,
		Payload: map[string]any{
			"cart_id":     record.ID.String(),
			"sku_id":      line.SKUID.String(),
			"quantity":    line.Quantity,
			"total_cents": totalCents,
			"total":       money.Format(int64(totalCents)),
		},
	}); err != nil {
		return err
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateCart,
		AggregateID:   record.ID,
		Actor:         &outbox.ActorRef{StoreID: record.StoreID, Label: actor},
		Version:       1,
		Data: payloads.CartLineChangedEvent{
			CartID:         record.ID,
			StoreID:        record.StoreID,
			SKUID:          line.SKUID,
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			UnitPriceCents: int64(line.UnitPriceCents),
			CartTotalCents: int64(totalCents),
		},
	})
}

// classify maps infrastructure failures onto the service error codes.
// Typed errors pass through untouched.
func (s *service) classify(err error) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	if dbpkg.IsTransient(err) {
		return pkgerrors.Wrap(pkgerrors.CodeTransient, err, "transient store failure")
	}
	return err
}

func validateMutationIDs(storeID, cartID, skuID uuid.UUID) error {
	if storeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if cartID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	if skuID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku id is required")
	}
	return nil
}

func validateLineInputs(items []LineInput) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if item.SKUID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "sku id is required")
		}
		if item.Quantity < 1 || item.Quantity > maxLineQuantity {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 1 and 999")
		}
		if _, dup := seen[item.SKUID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate sku in items")
		}
		seen[item.SKUID] = struct{}{}
	}
	return nil
}
