package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/storeops-dev/backoffice-backend/pkg/enums"
	"github.com/storeops-dev/backoffice-backend/pkg/outbox"
)

// Envelope is the decoded shape of one delivered outbox message.
type Envelope struct {
	EventID       string
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   string
	OccurredAt    time.Time
	Version       int
	Payload       json.RawMessage
}

// buildEnvelope validates the Pub/Sub message attributes against the stored
// payload envelope. Attributes win for routing, the stored envelope wins for
// event identity and timing.
func buildEnvelope(msg *gcppubsub.Message) (*Envelope, error) {
	var stored outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &stored); err != nil {
		return nil, fmt.Errorf("decode payload envelope: %w", err)
	}

	eventType, err := enums.ParseOutboxEventType(strings.TrimSpace(msg.Attributes["event_type"]))
	if err != nil {
		return nil, fmt.Errorf("event_type: %w", err)
	}

	aggregateType, err := enums.ParseOutboxAggregateType(strings.TrimSpace(msg.Attributes["aggregate_type"]))
	if err != nil {
		return nil, fmt.Errorf("aggregate_type: %w", err)
	}

	aggregateID := strings.TrimSpace(msg.Attributes["aggregate_id"])
	if aggregateID == "" {
		return nil, errors.New("aggregate_id missing")
	}

	occurredAt := stored.OccurredAt
	if occurredAt.IsZero() {
		if created := strings.TrimSpace(msg.Attributes["created_at"]); created != "" {
			if parsed, err := time.Parse(time.RFC3339Nano, created); err == nil {
				occurredAt = parsed
			}
		}
	}

	eventID := strings.TrimSpace(stored.EventID)
	if eventID == "" {
		eventID = strings.TrimSpace(msg.Attributes["event_id"])
	}
	if eventID == "" {
		return nil, errors.New("event_id missing")
	}

	return &Envelope{
		EventID:       eventID,
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		OccurredAt:    occurredAt.UTC(),
		Version:       stored.Version,
		Payload:       stored.Data,
	}, nil
}
