package notify

import (
	"context"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/storeops-dev/backoffice-backend/pkg/logger"
	"github.com/storeops-dev/backoffice-backend/pkg/metrics"
)

const consumerName = "order-events"

// Handler processes one decoded envelope.
type Handler interface {
	Handle(ctx context.Context, envelope Envelope) error
}

// HandlerFunc adapts functions to the Handler interface.
type HandlerFunc func(ctx context.Context, envelope Envelope) error

func (fn HandlerFunc) Handle(ctx context.Context, envelope Envelope) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, envelope)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Worker consumes order events from Pub/Sub with at-least-once delivery made
// effectively-once through the Redis idempotency guard.
type Worker struct {
	subscription *gcppubsub.Subscriber
	handler      Handler
	manager      idempotencyChecker
	logg         *logger.Logger
	workerMetric *metrics.WorkerMetrics
}

// NewWorker builds the order event consumer.
func NewWorker(subscription *gcppubsub.Subscriber, handler Handler, manager idempotencyChecker, logg *logger.Logger, workerMetric *metrics.WorkerMetrics) (*Worker, error) {
	if subscription == nil {
		return nil, errors.New("order events subscription is required")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Worker{
		subscription: subscription,
		handler:      handler,
		manager:      manager,
		logg:         logg,
		workerMetric: workerMetric,
	}, nil
}

type processResult struct {
	nack bool
}

// Run consumes messages until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return w.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if w.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (w *Worker) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	start := time.Now()
	result := w.handle(ctx, msg)
	w.workerMetric.ObserveDuration(consumerName, time.Since(start))
	if result.nack {
		w.workerMetric.IncFailure(consumerName)
	} else {
		w.workerMetric.IncSuccess(consumerName)
	}
	return result
}

func (w *Worker) handle(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{"message_id": msg.ID}
	logCtx := w.logg.WithFields(ctx, fields)

	envelope, err := buildEnvelope(msg)
	if err != nil {
		// Malformed messages can never succeed, ack them away.
		w.logg.Warn(w.logg.WithField(logCtx, "error", err.Error()), "invalid order event envelope")
		return processResult{}
	}

	fields["event_id"] = envelope.EventID
	fields["event_type"] = envelope.EventType
	fields["aggregate_type"] = envelope.AggregateType
	fields["aggregate_id"] = envelope.AggregateID
	fields["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339Nano)
	logCtx = w.logg.WithFields(ctx, fields)

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		w.logg.Warn(logCtx, "invalid event id")
		return processResult{}
	}

	already, err := w.manager.CheckAndMarkProcessed(logCtx, consumerName, eventID)
	if err != nil {
		w.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		w.logg.Info(logCtx, "event already processed")
		return processResult{}
	}

	if err := w.handler.Handle(logCtx, *envelope); err != nil {
		w.logg.Error(logCtx, "handler error", err)
		_ = w.manager.Delete(logCtx, consumerName, eventID)
		return processResult{nack: true}
	}

	w.logg.Info(logCtx, "order event handled")
	return processResult{}
}
