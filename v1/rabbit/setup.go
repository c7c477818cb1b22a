package rabbit

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Aleph-Alpha/querykit/v1/observability"
)

const heartbeat = 2 * time.Second

// Client publishes catalog deletion events and, when configured as a
// consumer, delivers them from a bound queue. It reconnects automatically
// while RetryConnection runs.
type Client struct {
	cfg Config

	channel *amqp.Channel
	conn    *amqp.Connection

	// mu protects conn and channel across reconnects.
	mu sync.RWMutex

	shutdownSignal    chan struct{}
	closeShutdownOnce sync.Once

	observer observability.Observer
	logger   Logger
}

// NewClient connects to the broker and declares the topology described by cfg.
//
// Publishers declare only the exchange. Consumers additionally declare their
// queue, bind it with the configured routing key and set up dead-lettering.
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	conn, err := newConnection(cfg)
	if err != nil {
		return nil, err
	}

	ch, err := connectToChannel(conn, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Client{
		cfg:            cfg,
		conn:           conn,
		channel:        ch,
		shutdownSignal: make(chan struct{}),
	}, nil
}

// WithObserver attaches an observer notified of every publish and consume.
func (c *Client) WithObserver(observer observability.Observer) *Client {
	c.observer = observer
	return c
}

// WithLogger attaches a logger for lifecycle events.
func (c *Client) WithLogger(logger Logger) *Client {
	c.logger = logger
	return c
}

// Config returns the effective configuration, defaults applied.
func (c *Client) Config() Config {
	return c.cfg
}

// Channel returns the current AMQP channel.
func (c *Client) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// connectToChannel opens a channel in confirm mode and declares the topology.
func connectToChannel(conn *amqp.Connection, cfg Config) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", TranslateError(err))
	}

	if err = ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", TranslateError(err))
	}

	if err = declareTopology(ch, cfg); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return ch, nil
}

// topology is the subset of *amqp.Channel used to declare exchanges and queues.
type topology interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
}

func declareTopology(ch topology, cfg Config) error {
	err := ch.ExchangeDeclare(
		cfg.Channel.ExchangeName,
		cfg.Channel.ExchangeType,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %q: %w", cfg.Channel.ExchangeName, TranslateError(err))
	}

	if !cfg.Channel.IsConsumer {
		return nil
	}

	queueArgs := amqp.Table{}
	if cfg.deadLettering() {
		if err = ch.ExchangeDeclare(cfg.DeadLetter.ExchangeName, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare dead letter exchange: %w", TranslateError(err))
		}
		if _, err = ch.QueueDeclare(cfg.DeadLetter.QueueName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare dead letter queue: %w", TranslateError(err))
		}
		if err = ch.QueueBind(cfg.DeadLetter.QueueName, cfg.DeadLetter.RoutingKey, cfg.DeadLetter.ExchangeName, false, nil); err != nil {
			return fmt.Errorf("failed to bind dead letter queue: %w", TranslateError(err))
		}
		queueArgs = amqp.Table{
			"x-dead-letter-exchange":    cfg.DeadLetter.ExchangeName,
			"x-dead-letter-routing-key": cfg.DeadLetter.RoutingKey,
			"x-message-ttl":             int64(cfg.DeadLetter.Ttl) * 1000,
		}
	}

	if _, err = ch.QueueDeclare(cfg.Channel.QueueName, true, false, false, false, queueArgs); err != nil {
		return fmt.Errorf("failed to declare queue %q: %w", cfg.Channel.QueueName, TranslateError(err))
	}
	if err = ch.QueueBind(cfg.Channel.QueueName, bindingKey(cfg.Channel), cfg.Channel.ExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %q: %w", cfg.Channel.QueueName, TranslateError(err))
	}

	if cfg.Channel.PrefetchCount > 0 {
		if err = ch.Qos(cfg.Channel.PrefetchCount, 0, false); err != nil {
			return fmt.Errorf("failed to set QoS: %w", TranslateError(err))
		}
	}
	return nil
}

// RetryConnection watches the connection and re-establishes it, channel and
// topology included, whenever the broker drops it. It blocks until
// GracefulShutdown is called and is meant to run in its own goroutine.
func (c *Client) RetryConnection() {
	ctx := context.Background()
	delay := time.Duration(c.cfg.Channel.DelayToReconnect) * time.Millisecond

outerLoop:
	for {
		errChan := make(chan *amqp.Error, 1)
		c.mu.RLock()
		c.conn.NotifyClose(errChan)
		c.mu.RUnlock()

		select {
		case <-c.shutdownSignal:
			c.logInfo(ctx, "Stopping RetryConnection loop due to shutdown signal", nil)
			return

		case amqpErr := <-errChan:
			c.logWarn(ctx, "RabbitMQ connection closed, retrying", map[string]interface{}{"reason": fmt.Sprint(amqpErr)})

			for {
				select {
				case <-c.shutdownSignal:
					c.logInfo(ctx, "Stopping RetryConnection loop due to shutdown signal", nil)
					return
				case <-time.After(delay):
				}

				conn, err := newConnection(c.cfg)
				if err != nil {
					c.logError(ctx, "RabbitMQ reconnection failed", map[string]interface{}{"error": err.Error()})
					continue
				}

				ch, err := connectToChannel(conn, c.cfg)
				if err != nil {
					_ = conn.Close()
					c.logError(ctx, "Failed to re-establish RabbitMQ channel", map[string]interface{}{"error": err.Error()})
					continue
				}

				c.mu.Lock()
				if c.channel != nil {
					_ = c.channel.Close()
				}
				c.conn, c.channel = conn, ch
				c.mu.Unlock()

				c.logInfo(ctx, "Successfully reconnected to RabbitMQ", nil)
				continue outerLoop
			}
		}
	}
}

// GracefulShutdown stops RetryConnection and consumers and closes the
// channel and connection. It is safe to call more than once.
func (c *Client) GracefulShutdown() {
	c.closeShutdownOnce.Do(func() {
		close(c.shutdownSignal)
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx := context.Background()
	c.logInfo(ctx, "Shutting down RabbitMQ client", nil)

	if c.channel != nil && !c.channel.IsClosed() {
		if err := c.channel.Close(); err != nil {
			c.logWarn(ctx, "Failed to close rabbit channel", map[string]interface{}{"error": err.Error()})
		}
	}
	if c.conn != nil && !c.conn.IsClosed() {
		if err := c.conn.Close(); err != nil {
			c.logWarn(ctx, "Failed to close rabbit connection", map[string]interface{}{"error": err.Error()})
		}
	}
}

// dialURL builds the broker URL. Credentials are escaped; an empty or "/"
// vhost leaves the path off so the broker default applies.
func dialURL(conn Connection) string {
	scheme := "amqp"
	if conn.IsSSLEnabled {
		scheme = "amqps"
	}
	u := url.URL{
		Scheme: scheme,
		User:   url.UserPassword(conn.User, conn.Password),
		Host:   net.JoinHostPort(conn.Host, strconv.FormatUint(uint64(conn.Port), 10)),
	}
	if conn.VHost != "" && conn.VHost != "/" {
		u.Path = "/" + conn.VHost
	}
	return u.String()
}

// tlsConfig returns the client TLS settings, or nil for plain AMQP.
func tlsConfig(conn Connection) (*tls.Config, error) {
	if !conn.IsSSLEnabled {
		return nil, nil
	}

	cfg := &tls.Config{ServerName: conn.ServerName}
	if conn.CACertPath != "" {
		caCert, err := os.ReadFile(conn.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("no certificates found in %s", conn.CACertPath)
		}
		cfg.RootCAs = pool
	}
	if conn.UseCert {
		cert, err := tls.LoadX509KeyPair(conn.ClientCertPath, conn.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

// newConnection dials the broker with a short heartbeat so dropped
// connections are noticed quickly.
func newConnection(cfg Config) (*amqp.Connection, error) {
	tlsCfg, err := tlsConfig(cfg.Connection)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	conn, err := amqp.DialConfig(dialURL(cfg.Connection), amqp.Config{
		Heartbeat:       heartbeat,
		TLSClientConfig: tlsCfg,
		Properties:      amqp.Table{"connection_name": "querykit"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s:%d: %w", cfg.Connection.Host, cfg.Connection.Port, TranslateError(err))
	}
	return conn, nil
}

func (c *Client) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

func (c *Client) logWarn(ctx context.Context, msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.WarnWithContext(ctx, msg, nil, fields)
	}
}

func (c *Client) logError(ctx context.Context, msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.ErrorWithContext(ctx, msg, nil, fields)
	}
}
