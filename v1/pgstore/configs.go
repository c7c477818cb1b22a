package pgstore

import (
	"fmt"
	"time"
)

// Pool defaults applied when ConnectionDetails leaves a field at zero.
const (
	DefaultMaxOpenConns    = 50
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = time.Minute
	DefaultSSLMode         = "disable"
	DefaultTablePrefix     = "qk_"
)

// Config holds the PostgreSQL connection and document table settings.
type Config struct {
	Connection        Connection        `yaml:"connection" mapstructure:"connection"`
	ConnectionDetails ConnectionDetails `yaml:"connection_details" mapstructure:"connection_details"`

	// TablePrefix is prepended to collection names to form table names.
	// Empty means DefaultTablePrefix; "-" means no prefix.
	TablePrefix string `yaml:"table_prefix" mapstructure:"table_prefix" envconfig:"PGSTORE_TABLE_PREFIX"`

	// AutoMigrate creates the unaccent extension and one table per
	// registered collection on start.
	AutoMigrate bool `yaml:"auto_migrate" mapstructure:"auto_migrate" envconfig:"PGSTORE_AUTO_MIGRATE"`
}

type Connection struct {
	Host     string `yaml:"host" mapstructure:"host" envconfig:"PGSTORE_HOST"`
	Port     string `yaml:"port" mapstructure:"port" envconfig:"PGSTORE_PORT"`
	User     string `yaml:"user" mapstructure:"user" envconfig:"PGSTORE_USER"`
	Password string `yaml:"password" mapstructure:"password" envconfig:"PGSTORE_PASSWORD"`
	DbName   string `yaml:"db_name" mapstructure:"db_name" envconfig:"PGSTORE_DB_NAME"`
	SSLMode  string `yaml:"ssl_mode" mapstructure:"ssl_mode" envconfig:"PGSTORE_SSL_MODE"`
}

type ConnectionDetails struct {
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns" envconfig:"PGSTORE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns" envconfig:"PGSTORE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime" envconfig:"PGSTORE_CONN_MAX_LIFETIME"`
}

func (c Config) tablePrefix() string {
	switch c.TablePrefix {
	case "":
		return DefaultTablePrefix
	case "-":
		return ""
	}
	return c.TablePrefix
}

func (c Config) dsn() string {
	sslMode := c.Connection.SSLMode
	if sslMode == "" {
		sslMode = DefaultSSLMode
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Connection.Host,
		c.Connection.Port,
		c.Connection.User,
		c.Connection.Password,
		c.Connection.DbName,
		sslMode)
}

// Logger is the logging interface used for connection lifecycle events.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}
