package kafka

import "time"

// Default values for configuration.
const (
	DefaultTopic        = "querykit.deletions"
	DefaultRequiredAcks = -1
	DefaultMaxAttempts  = 10
	DefaultWriteTimeout = 10 * time.Second
	DefaultMinBytes     = 1
	DefaultMaxBytes     = 10e6
	DefaultMaxWait      = 500 * time.Millisecond
)

// Config configures the deletion event producer and, when GroupID is set,
// the consumer reading the same topic.
type Config struct {
	// Brokers lists the bootstrap brokers as host:port.
	Brokers []string `yaml:"brokers" mapstructure:"brokers" envconfig:"KAFKA_BROKERS"`

	Topic string `yaml:"topic" mapstructure:"topic" envconfig:"KAFKA_TOPIC"`

	// GroupID is the consumer group of ConsumeDeletions.
	GroupID string `yaml:"group_id" mapstructure:"group_id" envconfig:"KAFKA_GROUP_ID"`

	// RequiredAcks is -1 (all replicas), 1 (leader) or 0 (none).
	RequiredAcks int `yaml:"required_acks" mapstructure:"required_acks" envconfig:"KAFKA_REQUIRED_ACKS"`

	// CompressionCodec is one of gzip, snappy, lz4, zstd or empty.
	CompressionCodec string `yaml:"compression_codec" mapstructure:"compression_codec" envconfig:"KAFKA_COMPRESSION_CODEC"`

	MaxAttempts  int           `yaml:"max_attempts" mapstructure:"max_attempts" envconfig:"KAFKA_MAX_ATTEMPTS"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" envconfig:"KAFKA_WRITE_TIMEOUT"`

	MinBytes int           `yaml:"min_bytes" mapstructure:"min_bytes" envconfig:"KAFKA_MIN_BYTES"`
	MaxBytes int           `yaml:"max_bytes" mapstructure:"max_bytes" envconfig:"KAFKA_MAX_BYTES"`
	MaxWait  time.Duration `yaml:"max_wait" mapstructure:"max_wait" envconfig:"KAFKA_MAX_WAIT"`

	TLS  TLSConfig  `yaml:"tls" mapstructure:"tls"`
	SASL SASLConfig `yaml:"sasl" mapstructure:"sasl"`
}

// TLSConfig holds the TLS settings of the broker connection.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled" mapstructure:"enabled" envconfig:"KAFKA_TLS_ENABLED"`
	CACertPath         string `yaml:"ca_cert_path" mapstructure:"ca_cert_path" envconfig:"KAFKA_TLS_CA_CERT_PATH"`
	ClientCertPath     string `yaml:"client_cert_path" mapstructure:"client_cert_path" envconfig:"KAFKA_TLS_CLIENT_CERT_PATH"`
	ClientKeyPath      string `yaml:"client_key_path" mapstructure:"client_key_path" envconfig:"KAFKA_TLS_CLIENT_KEY_PATH"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify" envconfig:"KAFKA_TLS_INSECURE_SKIP_VERIFY"`
}

// SASLConfig holds the SASL credentials. Mechanism is PLAIN, SCRAM-SHA-256
// or SCRAM-SHA-512.
type SASLConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled" envconfig:"KAFKA_SASL_ENABLED"`
	Mechanism string `yaml:"mechanism" mapstructure:"mechanism" envconfig:"KAFKA_SASL_MECHANISM"`
	Username  string `yaml:"username" mapstructure:"username" envconfig:"KAFKA_SASL_USERNAME"`
	Password  string `yaml:"password" mapstructure:"password" envconfig:"KAFKA_SASL_PASSWORD"`
}

func (c Config) withDefaults() Config {
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.RequiredAcks == 0 {
		c.RequiredAcks = DefaultRequiredAcks
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.MinBytes == 0 {
		c.MinBytes = DefaultMinBytes
	}
	if c.MaxBytes == 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	if c.MaxWait == 0 {
		c.MaxWait = DefaultMaxWait
	}
	return c
}

// Logger is the logging surface used by the client.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}
