package filter

const (
	// DefaultLimit is the page size used when a request does not set one.
	DefaultLimit = 50

	// DefaultMaxLimit bounds the page size a request may ask for.
	DefaultMaxLimit = 500
)

// Reserved parameter keys. They configure paging and are never filters.
const (
	KeyLimit  = "limit"
	KeyOffset = "offset"
	KeySort   = "sort"
)

// Config controls paging defaults of the normalizer.
type Config struct {
	// DefaultLimit applies when the request has no limit. Zero means DefaultLimit.
	DefaultLimit int `yaml:"default_limit" mapstructure:"default_limit" envconfig:"QUERYKIT_DEFAULT_LIMIT"`

	// MaxLimit rejects larger limits. Zero means DefaultMaxLimit, a negative
	// value disables the bound.
	MaxLimit int `yaml:"max_limit" mapstructure:"max_limit" envconfig:"QUERYKIT_MAX_LIMIT"`
}

func (c Config) defaultLimit() int {
	if c.DefaultLimit > 0 {
		return c.DefaultLimit
	}
	return DefaultLimit
}

func (c Config) maxLimit() int {
	if c.MaxLimit == 0 {
		return DefaultMaxLimit
	}
	return c.MaxLimit
}
