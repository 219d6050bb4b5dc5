package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateCart  OutboxAggregateType = "cart"
	AggregateOrder OutboxAggregateType = "order"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateCart,
	AggregateOrder,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres. Every committed
// cart mutation queues exactly one of these for post-commit delivery.
type OutboxEventType string

const (
	EventCartCreated     OutboxEventType = "cart_created"
	EventCartLineAdded   OutboxEventType = "cart_line_added"
	EventCartLineUpdated OutboxEventType = "cart_line_updated"
	EventCartLineRemoved OutboxEventType = "cart_line_removed"
	EventCartArchived    OutboxEventType = "cart_archived"
	EventOrderConfirmed  OutboxEventType = "order_confirmed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventCartCreated,
	EventCartLineAdded,
	EventCartLineUpdated,
	EventCartLineRemoved,
	EventCartArchived,
	EventOrderConfirmed,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
