package rabbit

import "context"

// Default values for configuration.
const (
	DefaultPort             = 5672
	DefaultExchangeName     = "querykit.events"
	DefaultExchangeType     = "topic"
	DefaultRoutingKey       = "catalog.deleted"
	DefaultContentType      = "application/json"
	DefaultDelayToReconnect = 1000
)

// Config defines the connection, topology and dead-letter settings of the
// deletion event client.
type Config struct {
	Connection Connection `yaml:"connection" mapstructure:"connection"`
	Channel    Channel    `yaml:"channel" mapstructure:"channel"`
	DeadLetter DeadLetter `yaml:"dead_letter" mapstructure:"dead_letter"`
}

// Connection contains the settings needed to reach the broker.
type Connection struct {
	Host     string `yaml:"host" mapstructure:"host" envconfig:"RABBIT_HOST"`
	Port     uint   `yaml:"port" mapstructure:"port" envconfig:"RABBIT_PORT"`
	User     string `yaml:"user" mapstructure:"user" envconfig:"RABBIT_USER"`
	Password string `yaml:"password" mapstructure:"password" envconfig:"RABBIT_PASSWORD"`

	// VHost is the virtual host; empty means the broker default "/".
	VHost string `yaml:"vhost" mapstructure:"vhost" envconfig:"RABBIT_VHOST"`

	// IsSSLEnabled switches the scheme to amqps.
	IsSSLEnabled bool `yaml:"is_ssl_enabled" mapstructure:"is_ssl_enabled" envconfig:"RABBIT_SSL_ENABLED"`

	// UseCert sends a client certificate for mutual TLS. Requires IsSSLEnabled.
	UseCert        bool   `yaml:"use_cert" mapstructure:"use_cert" envconfig:"RABBIT_USE_CERT"`
	CACertPath     string `yaml:"ca_cert_path" mapstructure:"ca_cert_path" envconfig:"RABBIT_CA_CERT_PATH"`
	ClientCertPath string `yaml:"client_cert_path" mapstructure:"client_cert_path" envconfig:"RABBIT_CLIENT_CERT_PATH"`
	ClientKeyPath  string `yaml:"client_key_path" mapstructure:"client_key_path" envconfig:"RABBIT_CLIENT_KEY_PATH"`
	ServerName     string `yaml:"server_name" mapstructure:"server_name" envconfig:"RABBIT_SERVER_NAME"`
}

// Channel configures the exchange deletion events are published to and, for
// consumers, the queue bound to it.
type Channel struct {
	ExchangeName string `yaml:"exchange_name" mapstructure:"exchange_name" envconfig:"RABBIT_EXCHANGE_NAME"`

	// ExchangeType is usually "topic" so consumers can bind to
	// "catalog.deleted.<entity>" or "catalog.deleted.#".
	ExchangeType string `yaml:"exchange_type" mapstructure:"exchange_type" envconfig:"RABBIT_EXCHANGE_TYPE"`

	// RoutingKey is the prefix of published routing keys; the entity name is
	// appended. On a topic exchange consumers bind with "<RoutingKey>.#"
	// unless the key already carries a wildcard.
	RoutingKey string `yaml:"routing_key" mapstructure:"routing_key" envconfig:"RABBIT_ROUTING_KEY"`

	QueueName string `yaml:"queue_name" mapstructure:"queue_name" envconfig:"RABBIT_QUEUE_NAME"`

	// DelayToReconnect is the pause between reconnection attempts in milliseconds.
	DelayToReconnect int `yaml:"delay_to_reconnect" mapstructure:"delay_to_reconnect" envconfig:"RABBIT_DELAY_TO_RECONNECT"`

	PrefetchCount int `yaml:"prefetch_count" mapstructure:"prefetch_count" envconfig:"RABBIT_PREFETCH_COUNT"`

	// IsConsumer declares the queue, its binding and the dead-letter
	// topology in addition to the exchange.
	IsConsumer bool `yaml:"is_consumer" mapstructure:"is_consumer" envconfig:"RABBIT_IS_CONSUMER"`

	ContentType string `yaml:"content_type" mapstructure:"content_type" envconfig:"RABBIT_CONTENT_TYPE"`
}

// DeadLetter configures where rejected or expired deletion events go.
// Dead-lettering is enabled when ExchangeName is set and Ttl is positive.
type DeadLetter struct {
	ExchangeName string `yaml:"exchange_name" mapstructure:"exchange_name" envconfig:"RABBIT_DLX_NAME"`
	QueueName    string `yaml:"queue_name" mapstructure:"queue_name" envconfig:"RABBIT_DLQ_NAME"`
	RoutingKey   string `yaml:"routing_key" mapstructure:"routing_key" envconfig:"RABBIT_DLX_ROUTING_KEY"`

	// Ttl is the message time-to-live in seconds.
	Ttl int `yaml:"ttl" mapstructure:"ttl" envconfig:"RABBIT_DLX_TTL"`
}

func (c Config) withDefaults() Config {
	if c.Connection.Port == 0 {
		c.Connection.Port = DefaultPort
	}
	if c.Channel.ExchangeName == "" {
		c.Channel.ExchangeName = DefaultExchangeName
	}
	if c.Channel.ExchangeType == "" {
		c.Channel.ExchangeType = DefaultExchangeType
	}
	if c.Channel.RoutingKey == "" {
		c.Channel.RoutingKey = DefaultRoutingKey
	}
	if c.Channel.ContentType == "" {
		c.Channel.ContentType = DefaultContentType
	}
	if c.Channel.DelayToReconnect <= 0 {
		c.Channel.DelayToReconnect = DefaultDelayToReconnect
	}
	return c
}

func (c Config) deadLettering() bool {
	return c.DeadLetter.ExchangeName != "" && c.DeadLetter.Ttl > 0
}

// Logger is the context-aware logging interface used by the client.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
