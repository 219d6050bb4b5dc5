package payloads

import (
	"time"

	"github.com/google/uuid"
)

// CartCreatedEvent signals a new pending cart for a store.
type CartCreatedEvent struct {
	CartID  uuid.UUID `json:"cart_id"`
	StoreID uuid.UUID `json:"store_id"`
}

// CartLineChangedEvent carries the resulting line state after an add, update
// or removal. Quantity is the post-mutation quantity, zero for removals.
type CartLineChangedEvent struct {
	CartID         uuid.UUID `json:"cart_id"`
	StoreID        uuid.UUID `json:"store_id"`
	SKUID          uuid.UUID `json:"sku_id"`
	ProductID      uuid.UUID `json:"product_id"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	CartTotalCents int64     `json:"cart_total_cents"`
}

// CartArchivedEvent is emitted when a cart empties out or is abandoned.
type CartArchivedEvent struct {
	CartID     uuid.UUID `json:"cart_id"`
	StoreID    uuid.UUID `json:"store_id"`
	ArchivedAt time.Time `json:"archived_at"`
	Reason     string    `json:"reason,omitempty"`
}

// OrderConfirmedEvent is emitted when a pending cart converts into an order.
type OrderConfirmedEvent struct {
	CartID      uuid.UUID  `json:"cart_id"`
	StoreID     uuid.UUID  `json:"store_id"`
	CustomerID  uuid.UUID  `json:"customer_id"`
	AddressID   *uuid.UUID `json:"address_id,omitempty"`
	TotalCents  int64      `json:"total_cents"`
	LineCount   int        `json:"line_count"`
	ConfirmedAt time.Time  `json:"confirmed_at"`
}
