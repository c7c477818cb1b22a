package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/querykit/v1/catalog"
	"github.com/Aleph-Alpha/querykit/v1/queryerr"
)

const tracerName = "github.com/Aleph-Alpha/querykit/v1/kafka"

// Message headers set on every deletion event.
const (
	HeaderEntity = "x-querykit-entity"
	HeaderType   = "x-querykit-type"
)

const deletionType = "catalog.deletion"

// PublishDeletion writes a catalog.DeletionEvent for entity to the topic,
// keyed by entity so the events of one entity stay ordered within a
// partition. The current trace context travels in the message headers.
// Nothing is written when ids is empty.
func (c *Client) PublishDeletion(ctx context.Context, entity string, ids []any) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "kafka.PublishDeletion",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", c.cfg.Topic),
			attribute.String("querykit.entity", entity),
			attribute.Int("querykit.deleted", len(ids)),
		))
	defer span.End()

	start := time.Now()
	msg, err := deletionMessage(ctx, catalog.NewDeletionEvent(entity, ids))
	if err == nil {
		err = c.writer.WriteMessages(ctx, msg)
	}
	c.observeOperation("produce", c.cfg.Topic, entity, time.Since(start), err, int64(len(msg.Value)))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return queryerr.Backend("publish deletion", err)
	}
	return nil
}

// deletionMessage encodes ev as a keyed message carrying trace headers.
func deletionMessage(ctx context.Context, ev catalog.DeletionEvent) (kafka.Message, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode deletion event: %w", err)
	}

	headers := []kafka.Header{
		{Key: HeaderEntity, Value: []byte(ev.Entity)},
		{Key: HeaderType, Value: []byte(deletionType)},
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	return kafka.Message{
		Key:     []byte(ev.Entity),
		Value:   body,
		Headers: headers,
		Time:    ev.OccurredAt,
	}, nil
}

// ExtractTraceContext returns ctx carrying the trace context found in headers.
func ExtractTraceContext(ctx context.Context, headers []kafka.Header) context.Context {
	carrier := propagation.MapCarrier{}
	for _, h := range headers {
		carrier[h.Key] = string(h.Value)
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// DeletionHandler processes one consumed deletion event.
type DeletionHandler func(ctx context.Context, ev catalog.DeletionEvent) error

// ConsumeDeletions reads deletion events as member of the configured
// consumer group until ctx is cancelled, which ends it with a nil error.
//
// A message is committed after handle returns nil. Messages that do not
// decode are logged and committed so they do not block the partition. A
// handler error stops consumption without committing, and the message is
// redelivered to the group.
func (c *Client) ConsumeDeletions(ctx context.Context, handle DeletionHandler) error {
	r, err := c.reader()
	if err != nil {
		return err
	}
	defer r.Close()

	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return queryerr.Backend("fetch deletion", err)
		}

		start := time.Now()
		err = c.handleMessage(ctx, msg, handle)
		c.observeOperation("consume", msg.Topic, strconv.Itoa(msg.Partition), time.Since(start), err, int64(len(msg.Value)))
		if err != nil {
			return err
		}

		if err := r.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return queryerr.Backend("commit deletion", err)
		}
	}
}

func (c *Client) handleMessage(ctx context.Context, msg kafka.Message, handle DeletionHandler) error {
	ev, err := catalog.DecodeDeletion(msg.Value)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("skipping undecodable deletion event", err, map[string]interface{}{
				"topic":     msg.Topic,
				"partition": msg.Partition,
				"offset":    msg.Offset,
			})
		}
		return nil
	}

	ctx, span := otel.Tracer(tracerName).Start(ExtractTraceContext(ctx, msg.Headers), "kafka.ConsumeDeletion",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("querykit.entity", ev.Entity),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
		))
	defer span.End()

	if err := handle(ctx, *ev); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("handle deletion of %s at offset %d: %w", ev.Entity, msg.Offset, err)
	}
	return nil
}
