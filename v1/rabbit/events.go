package rabbit

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/querykit/v1/catalog"
	"github.com/Aleph-Alpha/querykit/v1/queryerr"
)

const tracerName = "github.com/Aleph-Alpha/querykit/v1/rabbit"

// HeaderEntity carries the entity name of a deletion event.
const HeaderEntity = "x-querykit-entity"

// PublishDeletion publishes a catalog.DeletionEvent for entity with routing key
// "<RoutingKey>.<entity>". The current trace context travels in the message
// headers. Nothing is published when ids is empty.
func (c *Client) PublishDeletion(ctx context.Context, entity string, ids []any) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "rabbit.PublishDeletion",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("querykit.entity", entity),
			attribute.Int("querykit.deleted", len(ids)),
		))
	defer span.End()

	key, msg, err := deletionMessage(ctx, c.cfg.Channel, catalog.NewDeletionEvent(entity, ids))
	if err == nil {
		err = c.Publish(ctx, key, msg)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return queryerr.Backend("publish deletion", err)
	}
	return nil
}

// deletionMessage encodes ev and returns its routing key and publishing.
func deletionMessage(ctx context.Context, ch Channel, ev catalog.DeletionEvent) (string, amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return "", amqp.Publishing{}, fmt.Errorf("encode deletion event: %w", err)
	}

	headers := InjectTraceHeaders(ctx, amqp.Table{HeaderEntity: ev.Entity})
	return routingKey(ch, ev.Entity), amqp.Publishing{
		Headers:      headers,
		ContentType:  ch.ContentType,
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Type:         "catalog.deletion",
		Body:         body,
	}, nil
}

// InjectTraceHeaders writes the trace context of ctx into headers using the
// global propagator and returns them. A nil table is allocated.
func InjectTraceHeaders(ctx context.Context, headers amqp.Table) amqp.Table {
	if headers == nil {
		headers = amqp.Table{}
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		headers[k] = v
	}
	return headers
}

// ExtractTraceContext returns ctx carrying the trace context found in headers,
// so a consumer's spans join the publisher's trace.
func ExtractTraceContext(ctx context.Context, headers map[string]interface{}) context.Context {
	carrier := propagation.MapCarrier{}
	for k, v := range headers {
		if s, ok := v.(string); ok {
			carrier[k] = s
		}
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
