package docstore

// DefaultMaxConcurrentResolves bounds the relational sub-queries in flight
// for one request.
const DefaultMaxConcurrentResolves = 8

// Config controls the document-store compiler.
type Config struct {
	// MaxConcurrentResolves limits concurrent relational sub-queries per
	// request. Zero means DefaultMaxConcurrentResolves.
	MaxConcurrentResolves int `yaml:"max_concurrent_resolves" mapstructure:"max_concurrent_resolves" envconfig:"DOCSTORE_MAX_CONCURRENT_RESOLVES"`
}

func (c Config) maxConcurrentResolves() int {
	if c.MaxConcurrentResolves > 0 {
		return c.MaxConcurrentResolves
	}
	return DefaultMaxConcurrentResolves
}

// Logger is the logging interface used by the compiler.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
}
