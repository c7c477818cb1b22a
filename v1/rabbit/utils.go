package rabbit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConsumerMessage implements Message over an AMQP delivery.
type ConsumerMessage struct {
	delivery *amqp.Delivery
}

// routingKey returns the key a deletion of entity is published with.
func routingKey(ch Channel, entity string) string {
	if entity == "" {
		return ch.RoutingKey
	}
	return ch.RoutingKey + "." + entity
}

// bindingKey returns the key a consumer queue is bound with.
func bindingKey(ch Channel) string {
	if ch.ExchangeType != amqp.ExchangeTopic || strings.ContainsAny(ch.RoutingKey, "*#") {
		return ch.RoutingKey
	}
	return ch.RoutingKey + ".#"
}

// Publish sends body to the configured exchange under key and waits for the
// broker to confirm it.
func (c *Client) Publish(ctx context.Context, key string, msg amqp.Publishing) error {
	start := time.Now()
	var err error
	defer func() {
		c.observeOperation("publish", c.cfg.Channel.ExchangeName, key, time.Since(start), err, int64(len(msg.Body)))
	}()

	if err = ctx.Err(); err != nil {
		return err
	}
	select {
	case <-c.shutdownSignal:
		err = ErrShutdown
		return err
	default:
	}

	if msg.ContentType == "" {
		msg.ContentType = c.cfg.Channel.ContentType
	}

	c.mu.RLock()
	confirm, err := c.channel.PublishWithDeferredConfirmWithContext(ctx,
		c.cfg.Channel.ExchangeName,
		key,
		false, // mandatory
		false, // immediate
		msg,
	)
	c.mu.RUnlock()
	if err != nil {
		err = TranslateError(err)
		return err
	}

	// A nil confirmation means the channel is not in confirm mode.
	if confirm == nil {
		return nil
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		err = fmt.Errorf("%w: delivery tag %d", ErrMessageNacked, confirm.DeliveryTag)
	}
	return err
}

// Consume delivers messages from the configured queue until ctx is done or
// the client shuts down; the returned channel is closed then. The consumer
// is re-established after a reconnect. wg is incremented for the delivery
// goroutine.
func (c *Client) Consume(ctx context.Context, wg *sync.WaitGroup) <-chan Message {
	return c.consumeQueue(ctx, wg, c.cfg.Channel.QueueName)
}

// ConsumeDLQ delivers messages from the dead-letter queue.
func (c *Client) ConsumeDLQ(ctx context.Context, wg *sync.WaitGroup) <-chan Message {
	return c.consumeQueue(ctx, wg, c.cfg.DeadLetter.QueueName)
}

func (c *Client) consumeQueue(ctx context.Context, wg *sync.WaitGroup, queueName string) <-chan Message {
	out := make(chan Message, 100)
	retry := time.Duration(c.cfg.Channel.DelayToReconnect) * time.Millisecond

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(out)

		for {
			c.mu.RLock()
			msgs, err := c.channel.ConsumeWithContext(ctx,
				queueName,
				"",    // consumer
				false, // autoAck
				false, // exclusive
				false, // noLocal
				false, // noWait
				nil,
			)
			c.mu.RUnlock()

			if err != nil {
				c.logError(ctx, "Failed to establish consumer", map[string]interface{}{
					"queue": queueName,
					"error": err.Error(),
				})
				select {
				case <-ctx.Done():
					return
				case <-c.shutdownSignal:
					return
				case <-time.After(retry):
					continue
				}
			}

			if !c.forward(ctx, queueName, msgs, out) {
				return
			}
		}
	}()
	return out
}

// forward copies deliveries to out. It returns true when the delivery channel
// closed and the consumer should be re-established.
func (c *Client) forward(ctx context.Context, queueName string, msgs <-chan amqp.Delivery, out chan<- Message) bool {
	for {
		select {
		case <-ctx.Done():
			c.logInfo(ctx, "Stopping consumer due to context cancellation", map[string]interface{}{"queue": queueName})
			return false
		case <-c.shutdownSignal:
			c.logInfo(ctx, "Stopping consumer due to shutdown signal", map[string]interface{}{"queue": queueName})
			return false
		case d, ok := <-msgs:
			if !ok {
				return true
			}
			c.observeOperation("consume", queueName, d.RoutingKey, 0, nil, int64(len(d.Body)))
			select {
			case out <- &ConsumerMessage{delivery: &d}:
			case <-ctx.Done():
				return false
			}
		}
	}
}

// AckMsg acknowledges the message.
func (m *ConsumerMessage) AckMsg() error {
	return m.delivery.Ack(false)
}

// NackMsg rejects the message. Without requeue it is dead-lettered when the
// queue has a dead-letter exchange.
func (m *ConsumerMessage) NackMsg(requeue bool) error {
	return m.delivery.Nack(false, requeue)
}

func (m *ConsumerMessage) Body() []byte {
	return m.delivery.Body
}

func (m *ConsumerMessage) Header() map[string]interface{} {
	return m.delivery.Headers
}

func (m *ConsumerMessage) RoutingKey() string {
	return m.delivery.RoutingKey
}
