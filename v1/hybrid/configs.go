package hybrid

// Config controls the orchestrator.
type Config struct {
	// DisablePadding turns off external padding of short local-first pages.
	DisablePadding bool `yaml:"disable_padding" mapstructure:"disable_padding" envconfig:"HYBRID_DISABLE_PADDING"`
}

// Logger is the logging interface used by the orchestrator.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
}
