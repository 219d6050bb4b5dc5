package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storeops-dev/backoffice-backend/internal/audit"
	"github.com/storeops-dev/backoffice-backend/pkg/db/models"
	"github.com/storeops-dev/backoffice-backend/pkg/enums"
	pkgerrors "github.com/storeops-dev/backoffice-backend/pkg/errors"
	"github.com/storeops-dev/backoffice-backend/pkg/outbox"
	"github.com/storeops-dev/backoffice-backend/pkg/outbox/payloads"
)

// Cart lifecycle: PENDING -> CONFIRMED or PENDING -> ARCHIVED, both terminal.
// The rules live here so every mutation path shares one implementation.

// createPendingCart opens a fresh pending cart. Every create request gets its
// own cart; concurrent shoppers of one store must never share an aggregate.
func (s *service) createPendingCart(ctx context.Context, tx *gorm.DB, storeID uuid.UUID) (*models.Cart, error) {
	cartRepo := s.cartRepo.WithTx(tx)

	record := &models.Cart{
		ID:      uuid.New(),
		StoreID: storeID,
		Status:  enums.CartStatusPending,
	}
	if err := cartRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventCartCreated,
		AggregateType: enums.AggregateCart,
		AggregateID:   record.ID,
		Actor:         &outbox.ActorRef{StoreID: storeID, Label: audit.StoreActorLabel(storeID)},
		Version:       1,
		Data:          payloads.CartCreatedEvent{CartID: record.ID, StoreID: storeID},
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// archiveIfEmpty archives the cart when it holds no lines. An empty pending
// cart never survives the transaction that emptied it.
func (s *service) archiveIfEmpty(ctx context.Context, tx *gorm.DB, record *models.Cart, reason string) (bool, error) {
	cartRepo := s.cartRepo.WithTx(tx)

	count, err := cartRepo.CountLines(ctx, record.ID)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	archived, err := cartRepo.Archive(ctx, record.ID)
	if err != nil {
		return false, err
	}
	if !archived {
		return false, pkgerrors.New(pkgerrors.CodeStateConflict, "cart already processed")
	}

	actor := audit.StoreActorLabel(record.StoreID)
	if err := s.auditor.Record(ctx, tx, audit.Entry{
		StoreID: record.StoreID,
		Action:  enums.AuditCartArchived,
		Actor:   actor,
		Payload: map[string]any{"cart_id": record.ID.String(), "reason": reason},
	}); err != nil {
		return false, err
	}

	err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventCartArchived,
		AggregateType: enums.AggregateCart,
		AggregateID:   record.ID,
		Actor:         &outbox.ActorRef{StoreID: record.StoreID, Label: actor},
		Version:       1,
		Data: payloads.CartArchivedEvent{
			CartID:     record.ID,
			StoreID:    record.StoreID,
			ArchivedAt: time.Now().UTC(),
			Reason:     reason,
		},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Confirm converts a pending cart into a confirmed order for the customer.
// Re-confirming an already confirmed cart is idempotent: only mutable fields
// (the shipping address) are updated. With no cart id the order is built from
// input items on a fresh pending cart and confirmed in the same transaction.
func (s *service) Confirm(ctx context.Context, storeID, customerID uuid.UUID, input ConfirmInput) (*models.Cart, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if input.CartID == nil && len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id or items are required")
	}
	if input.CartID == nil {
		if err := validateLineInputs(input.Items); err != nil {
			return nil, err
		}
	}

	var confirmed *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		customer, err := ordersRepo.FindCustomerForStore(ctx, customerID, storeID)
		if err != nil {
			return err
		}
		if customer == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}

		if input.AddressID != nil {
			address, err := ordersRepo.FindAddressForCustomer(ctx, *input.AddressID, customerID)
			if err != nil {
				return err
			}
			if address == nil {
				return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
			}
		}

		var record *models.Cart
		if input.CartID != nil {
			record, err = cartRepo.FindByID(ctx, *input.CartID)
			if err != nil {
				return err
			}
			if record == nil || record.StoreID != storeID {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			if record.Status == enums.CartStatusConfirmed {
				confirmed, err = s.reconfirm(ctx, tx, record, customerID, input.AddressID)
				return err
			}
			if record.Status != enums.CartStatusPending {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "cart already processed")
			}
		} else {
			record, err = s.createPendingCart(ctx, tx, storeID)
			if err != nil {
				return err
			}
			for _, item := range input.Items {
				if _, err := s.applyAdd(ctx, tx, record, storeID, item.SKUID, item.Quantity); err != nil {
					return err
				}
			}
		}

		count, err := cartRepo.CountLines(ctx, record.ID)
		if err != nil {
			return err
		}
		if count == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
		}

		updates := map[string]any{"customer_id": customerID}
		if input.AddressID != nil {
			updates["address_id"] = *input.AddressID
		}
		ok, err := cartRepo.TransitionStatus(ctx, record.ID, enums.CartStatusPending, enums.CartStatusConfirmed, updates)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart already processed")
		}

		confirmed, err = cartRepo.FindByID(ctx, record.ID)
		if err != nil {
			return err
		}

		actor := audit.StoreActorLabel(storeID)
		if err := s.auditor.Record(ctx, tx, audit.Entry{
			StoreID: storeID,
			Action:  enums.AuditOrderConfirmed,
			Actor:   actor,
			Payload: map[string]any{
				"cart_id":     confirmed.ID.String(),
				"customer_id": customerID.String(),
				"total_cents": confirmed.TotalCents,
			},
		}); err != nil {
			return err
		}

		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderConfirmed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   confirmed.ID,
			Actor:         &outbox.ActorRef{StoreID: storeID, Label: actor},
			Version:       1,
			Data: payloads.OrderConfirmedEvent{
				CartID:      confirmed.ID,
				StoreID:     storeID,
				CustomerID:  customerID,
				AddressID:   input.AddressID,
				TotalCents:  int64(confirmed.TotalCents),
				LineCount:   len(confirmed.Lines),
				ConfirmedAt: time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, s.classify(err)
	}
	return confirmed, nil
}

// reconfirm is the idempotent path for a cart that already confirmed. Stock,
// lines and totals are untouched; only the address may change.
func (s *service) reconfirm(ctx context.Context, tx *gorm.DB, record *models.Cart, customerID uuid.UUID, addressID *uuid.UUID) (*models.Cart, error) {
	if record.CustomerID == nil || *record.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart confirmed for another customer")
	}
	cartRepo := s.cartRepo.WithTx(tx)
	if addressID != nil && (record.AddressID == nil || *record.AddressID != *addressID) {
		ok, err := cartRepo.TransitionStatus(ctx, record.ID, enums.CartStatusConfirmed, enums.CartStatusConfirmed, map[string]any{
			"address_id": *addressID,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart already processed")
		}
	}
	return cartRepo.FindByID(ctx, record.ID)
}
