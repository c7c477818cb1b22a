package rabbit

import (
	"errors"
	"fmt"
	"net"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Errors returned by the client. Translated errors wrap both the sentinel
// and the original broker error.
var (
	ErrConnectionFailed   = errors.New("rabbit: connection failed")
	ErrConnectionClosed   = errors.New("rabbit: connection closed")
	ErrChannelClosed      = errors.New("rabbit: channel closed")
	ErrAccessDenied       = errors.New("rabbit: access denied")
	ErrNotFound           = errors.New("rabbit: resource not found")
	ErrPreconditionFailed = errors.New("rabbit: precondition failed")
	ErrMessageTooLarge    = errors.New("rabbit: message too large")
	ErrPublishFailed      = errors.New("rabbit: publish failed")
	ErrMessageNacked      = errors.New("rabbit: message nacked by broker")
	ErrConfiguration      = errors.New("rabbit: invalid configuration")
	ErrShutdown           = errors.New("rabbit: client is shut down")
)

// TranslateError maps AMQP and network errors onto the package sentinels.
// Errors it does not recognize are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var sentinel error
	var amqpErr *amqp.Error
	var netErr net.Error
	switch {
	case errors.Is(err, amqp.ErrClosed):
		sentinel = ErrChannelClosed
	case errors.As(err, &amqpErr):
		sentinel = translateAMQPCode(amqpErr)
	case errors.As(err, &netErr):
		sentinel = ErrConnectionFailed
	default:
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") {
			sentinel = ErrConnectionFailed
		}
	}

	if sentinel == nil || errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

func translateAMQPCode(e *amqp.Error) error {
	switch e.Code {
	case amqp.ConnectionForced:
		return ErrConnectionClosed
	case amqp.AccessRefused:
		return ErrAccessDenied
	case amqp.NotFound, amqp.InvalidPath:
		return ErrNotFound
	case amqp.PreconditionFailed:
		return ErrPreconditionFailed
	case amqp.ContentTooLarge:
		return ErrMessageTooLarge
	case amqp.NoRoute, amqp.NoConsumers:
		return ErrPublishFailed
	case amqp.ChannelError:
		return ErrChannelClosed
	}
	if e.Server {
		return ErrConnectionClosed
	}
	return nil
}

// IsRetryableError reports whether err is transient: a lost connection or
// channel, or a broker nack.
func IsRetryableError(err error) bool {
	switch {
	case errors.Is(err, ErrConnectionFailed),
		errors.Is(err, ErrConnectionClosed),
		errors.Is(err, ErrChannelClosed),
		errors.Is(err, ErrMessageNacked):
		return true
	}
	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) {
		return amqpErr.Recover
	}
	return false
}
