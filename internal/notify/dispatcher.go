package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/storeops-dev/backoffice-backend/pkg/enums"
	"github.com/storeops-dev/backoffice-backend/pkg/logger"
	"github.com/storeops-dev/backoffice-backend/pkg/money"
	"github.com/storeops-dev/backoffice-backend/pkg/outbox/payloads"
	"github.com/storeops-dev/backoffice-backend/pkg/outbox/registry"
)

// Dispatcher turns decoded order events into customer-facing notification
// records. Delivery is best effort: a failed dispatch is retried through the
// subscription, never surfaced to the mutation that produced the event.
type Dispatcher struct {
	decoders *registry.DecoderRegistry
	logg     *logger.Logger
}

// NewDispatcher registers the supported payload versions.
func NewDispatcher(logg *logger.Logger) (*Dispatcher, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	decoders := registry.NewDecoderRegistry()
	decoders.Register(enums.EventOrderConfirmed, 1, func(payload json.RawMessage) (interface{}, error) {
		var event payloads.OrderConfirmedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return &event, nil
	})
	return &Dispatcher{decoders: decoders, logg: logg}, nil
}

// Handle decodes the envelope and emits the notification record.
func (d *Dispatcher) Handle(ctx context.Context, envelope Envelope) error {
	decoded, err := d.decoders.Decode(envelope.EventType, envelope.Version, envelope.Payload)
	if err != nil {
		return err
	}

	switch event := decoded.(type) {
	case *payloads.OrderConfirmedEvent:
		return d.dispatchOrderConfirmed(ctx, event)
	default:
		return fmt.Errorf("no dispatch rule for %s@v%d", envelope.EventType, envelope.Version)
	}
}

func (d *Dispatcher) dispatchOrderConfirmed(ctx context.Context, event *payloads.OrderConfirmedEvent) error {
	fields := map[string]any{
		"notification": "order_confirmation",
		"cart_id":      event.CartID.String(),
		"store_id":     event.StoreID.String(),
		"customer_id":  event.CustomerID.String(),
		"total":        money.Format(event.TotalCents),
		"line_count":   event.LineCount,
		"confirmed_at": event.ConfirmedAt,
	}
	if event.AddressID != nil {
		fields["address_id"] = event.AddressID.String()
	}
	d.logg.Info(d.logg.WithFields(ctx, fields), "order confirmation notification queued")
	return nil
}
