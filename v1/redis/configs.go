package redis

import "time"

// Defaults applied by NewClient to zero-valued fields.
const (
	DefaultHost            = "localhost"
	DefaultPort            = 6379
	DefaultMaxRetries      = 3
	DefaultMinRetryBackoff = 8 * time.Millisecond
	DefaultMaxRetryBackoff = 512 * time.Millisecond
	DefaultDialTimeout     = 5 * time.Second
	DefaultReadTimeout     = 3 * time.Second
	DefaultIdleTimeout     = 5 * time.Minute

	// DefaultKeyPrefix namespaces the cached external responses.
	DefaultKeyPrefix = "querykit:igdb:"

	// DefaultTTL is how long an external response stays cached.
	DefaultTTL = 10 * time.Minute
)

// Config defines the connection and caching settings.
type Config struct {
	// Host is the Redis server hostname or IP address.
	Host string `yaml:"host" mapstructure:"host" envconfig:"REDIS_HOST"`

	Port int `yaml:"port" mapstructure:"port" envconfig:"REDIS_PORT"`

	// Username is used for ACL authentication (Redis 6.0+).
	Username string `yaml:"username" mapstructure:"username" envconfig:"REDIS_USERNAME"`
	Password string `yaml:"password" mapstructure:"password" envconfig:"REDIS_PASSWORD"`

	DB int `yaml:"db" mapstructure:"db" envconfig:"REDIS_DB"`

	// PoolSize is the maximum number of socket connections. Zero lets
	// go-redis pick 10 per CPU.
	PoolSize     int `yaml:"pool_size" mapstructure:"pool_size" envconfig:"REDIS_POOL_SIZE"`
	MinIdleConns int `yaml:"min_idle_conns" mapstructure:"min_idle_conns" envconfig:"REDIS_MIN_IDLE_CONNS"`

	// MaxRetries before a command fails. -1 disables retries.
	MaxRetries      int           `yaml:"max_retries" mapstructure:"max_retries" envconfig:"REDIS_MAX_RETRIES"`
	MinRetryBackoff time.Duration `yaml:"min_retry_backoff" mapstructure:"min_retry_backoff" envconfig:"REDIS_MIN_RETRY_BACKOFF"`
	MaxRetryBackoff time.Duration `yaml:"max_retry_backoff" mapstructure:"max_retry_backoff" envconfig:"REDIS_MAX_RETRY_BACKOFF"`

	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout" envconfig:"REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" envconfig:"REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" envconfig:"REDIS_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" envconfig:"REDIS_IDLE_TIMEOUT"`

	TLS TLSConfig `yaml:"tls" mapstructure:"tls"`

	// KeyPrefix is prepended to every cache key.
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix" envconfig:"REDIS_KEY_PREFIX"`

	// TTL of a cached external response. Zero means DefaultTTL.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl" envconfig:"REDIS_TTL"`
}

// TLSConfig contains TLS settings.
type TLSConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled" envconfig:"REDIS_TLS_ENABLED"`

	CACertPath     string `yaml:"ca_cert_path" mapstructure:"ca_cert_path" envconfig:"REDIS_TLS_CA_CERT_PATH"`
	ClientCertPath string `yaml:"client_cert_path" mapstructure:"client_cert_path" envconfig:"REDIS_TLS_CLIENT_CERT_PATH"`
	ClientKeyPath  string `yaml:"client_key_path" mapstructure:"client_key_path" envconfig:"REDIS_TLS_CLIENT_KEY_PATH"`

	// InsecureSkipVerify disables server certificate checks. Testing only.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify" envconfig:"REDIS_TLS_INSECURE_SKIP_VERIFY"`

	// ServerName defaults to Host.
	ServerName string `yaml:"server_name" mapstructure:"server_name" envconfig:"REDIS_TLS_SERVER_NAME"`
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.MinRetryBackoff == 0 {
		c.MinRetryBackoff = DefaultMinRetryBackoff
	}
	if c.MaxRetryBackoff == 0 {
		c.MaxRetryBackoff = DefaultMaxRetryBackoff
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = DefaultKeyPrefix
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	return c
}

// Logger is the logging interface used by the cache.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
}
