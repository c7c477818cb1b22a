package minio

import "context"

// Default values for configuration.
const (
	DefaultBucketName  = "querykit-snapshots"
	DefaultContentType = "application/json"
	DefaultSuffix      = ".json"
)

// Config defines where catalog snapshots are stored.
type Config struct {
	Connection ConnectionConfig `yaml:"connection" mapstructure:"connection"`

	// Prefix is prepended to every snapshot name, e.g. "exports/".
	Prefix string `yaml:"prefix" mapstructure:"prefix" envconfig:"MINIO_PREFIX"`
}

// ConnectionConfig contains MinIO server connection details.
type ConnectionConfig struct {
	Endpoint        string `yaml:"endpoint" mapstructure:"endpoint" envconfig:"MINIO_ENDPOINT"`
	AccessKeyID     string `yaml:"access_key_id" mapstructure:"access_key_id" envconfig:"MINIO_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" mapstructure:"secret_access_key" envconfig:"MINIO_SECRET_ACCESS_KEY"`
	UseSSL          bool   `yaml:"use_ssl" mapstructure:"use_ssl" envconfig:"MINIO_USE_SSL"`
	BucketName      string `yaml:"bucket_name" mapstructure:"bucket_name" envconfig:"MINIO_BUCKET_NAME"`
	Region          string `yaml:"region" mapstructure:"region" envconfig:"MINIO_REGION"`

	// AccessBucketCreation creates the bucket on start when it is missing.
	AccessBucketCreation bool `yaml:"access_bucket_creation" mapstructure:"access_bucket_creation" envconfig:"MINIO_ACCESS_BUCKET_CREATION"`
}

func (c Config) withDefaults() Config {
	if c.Connection.BucketName == "" {
		c.Connection.BucketName = DefaultBucketName
	}
	return c
}

// Logger is the logging surface used by the client.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
