package rabbit

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventClient is implemented by *Client; consumers of deletion events depend on
// this rather than the concrete type.
type EventClient interface {
	PublishDeletion(ctx context.Context, entity string, ids []any) error
	Publish(ctx context.Context, key string, msg amqp.Publishing) error
	Consume(ctx context.Context, wg *sync.WaitGroup) <-chan Message
	ConsumeDLQ(ctx context.Context, wg *sync.WaitGroup) <-chan Message
	GracefulShutdown()
}

// Message is a consumed delivery.
type Message interface {
	AckMsg() error

	// NackMsg rejects the message, requeueing it when requeue is true.
	NackMsg(requeue bool) error

	Body() []byte
	Header() map[string]interface{}
	RoutingKey() string
}
