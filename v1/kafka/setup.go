package kafka

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/Aleph-Alpha/querykit/v1/observability"
)

// messageWriter is the part of *kafka.Writer the client uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Client publishes deletion events to a Kafka topic. It is safe for
// concurrent use.
type Client struct {
	cfg      Config
	writer   messageWriter
	logger   Logger
	observer observability.Observer

	transport *kafka.Transport
	dialer    *kafka.Dialer
	newReader func() messageReader

	closeOnce sync.Once
}

// NewClient creates a producer for cfg.Topic. Brokers are contacted lazily on
// the first publish.
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	cfg = cfg.withDefaults()

	var (
		tlsConfig *tls.Config
		mechanism sasl.Mechanism
		err       error
	)
	if cfg.TLS.Enabled {
		if tlsConfig, err = createTLSConfig(cfg.TLS); err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}
	if cfg.SASL.Enabled {
		if mechanism, err = createSASLMechanism(cfg.SASL); err != nil {
			return nil, fmt.Errorf("failed to create SASL mechanism: %w", err)
		}
	}

	compression, err := compressionCodec(cfg.CompressionCodec)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:       cfg,
		transport: &kafka.Transport{TLS: tlsConfig, SASL: mechanism},
		dialer:    &kafka.Dialer{TLS: tlsConfig, SASLMechanism: mechanism, DualStack: true},
	}
	c.writer = &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		MaxAttempts:            cfg.MaxAttempts,
		WriteTimeout:           cfg.WriteTimeout,
		Compression:            compression,
		Transport:              c.transport,
		AllowAutoTopicCreation: true,
		ErrorLogger:            kafka.LoggerFunc(c.logKafkaError),
	}
	return c, nil
}

// reader opens a consumer-group reader on the topic.
func (c *Client) reader() (messageReader, error) {
	if c.cfg.GroupID == "" {
		return nil, errors.New("kafka: consuming requires a group id")
	}
	if c.newReader != nil {
		return c.newReader(), nil
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     c.cfg.Brokers,
		GroupID:     c.cfg.GroupID,
		Topic:       c.cfg.Topic,
		MinBytes:    c.cfg.MinBytes,
		MaxBytes:    c.cfg.MaxBytes,
		MaxWait:     c.cfg.MaxWait,
		StartOffset: kafka.FirstOffset,
		Dialer:      c.dialer,
		ErrorLogger: kafka.LoggerFunc(c.logKafkaError),
	}), nil
}

// WithLogger sets the logger and returns the client.
func (c *Client) WithLogger(l Logger) *Client {
	c.logger = l
	return c
}

// WithObserver sets the observer notified of every publish and returns the client.
func (c *Client) WithObserver(o observability.Observer) *Client {
	c.observer = o
	return c
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Close flushes pending writes and closes the producer. It is safe to call
// more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.writer.Close()
	})
	return err
}

func (c *Client) logKafkaError(msg string, args ...interface{}) {
	if c.logger == nil {
		return
	}
	c.logger.Error("kafka internal error", nil, map[string]interface{}{
		"error": fmt.Sprintf(msg, args...),
	})
}

func compressionCodec(name string) (kafka.Compression, error) {
	switch name {
	case "":
		return 0, nil
	case "gzip":
		return kafka.Gzip, nil
	case "snappy":
		return kafka.Snappy, nil
	case "lz4":
		return kafka.Lz4, nil
	case "zstd":
		return kafka.Zstd, nil
	}
	return 0, fmt.Errorf("kafka: unsupported compression codec %q", name)
}

func createTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if cfg.CACertPath != "" {
		caCert, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA cert")
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.ClientCertPath != "" && cfg.ClientKeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertPath, cfg.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

func createSASLMechanism(cfg SASLConfig) (sasl.Mechanism, error) {
	switch cfg.Mechanism {
	case "PLAIN":
		return plain.Mechanism{Username: cfg.Username, Password: cfg.Password}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, cfg.Username, cfg.Password)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
	default:
		return nil, fmt.Errorf("unsupported SASL mechanism: %s", cfg.Mechanism)
	}
}
