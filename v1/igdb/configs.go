package igdb

import (
	"fmt"
	"strings"
)

// Default values for configuration.
const (
	DefaultBaseURL      = "https://api.igdb.com/v4"
	DefaultTokenURL     = "https://id.twitch.tv/oauth2/token"
	DefaultHTTPTimeoutS = 30
	DefaultSlugVariants = 7
	DefaultMaxLimit     = 500
)

// DefaultPlatformAllowList is the set of external platform IDs searched when
// a request does not filter on platforms: the home consoles, handhelds and
// PC that save files are shared for.
var DefaultPlatformAllowList = []int64{
	4, 5, 6, 7, 8, 9, 11, 12, 18, 19, 20, 21, 22, 24, 33, 37, 38, 41, 46, 48, 49, 130, 167, 169,
}

// Config holds the external search service settings.
type Config struct {
	// BaseURL is the API root; endpoints are appended as "/<endpoint>".
	BaseURL string `yaml:"base_url" mapstructure:"base_url" envconfig:"IGDB_BASE_URL"`

	// ClientID is sent in the Client-ID header and used for the token exchange.
	ClientID string `yaml:"client_id" mapstructure:"client_id" envconfig:"IGDB_CLIENT_ID"`

	// ClientSecret is used for the OAuth2 client-credentials token exchange.
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret" envconfig:"IGDB_CLIENT_SECRET"`

	// TokenURL is the OAuth2 token endpoint.
	TokenURL string `yaml:"token_url" mapstructure:"token_url" envconfig:"IGDB_TOKEN_URL"`

	HTTPTimeoutS int `yaml:"http_timeout_seconds" mapstructure:"http_timeout_seconds" envconfig:"IGDB_HTTP_TIMEOUT_SECONDS"`

	// PlatformAllowList scopes requests without a platform filter. Empty
	// means DefaultPlatformAllowList.
	PlatformAllowList []int64 `yaml:"platform_allow_list" mapstructure:"platform_allow_list" envconfig:"IGDB_PLATFORM_ALLOW_LIST"`

	// IncludeVersions disables the default "version_parent = null" scope,
	// which hides editions and re-releases of a game.
	IncludeVersions bool `yaml:"include_versions" mapstructure:"include_versions" envconfig:"IGDB_INCLUDE_VERSIONS"`

	// SlugVariants is the number of "--n" disambiguation suffixes added to a
	// slug filter. Zero means DefaultSlugVariants.
	SlugVariants int `yaml:"slug_variants" mapstructure:"slug_variants" envconfig:"IGDB_SLUG_VARIANTS"`

	// MaxLimit caps the page size of a single external request.
	MaxLimit int `yaml:"max_limit" mapstructure:"max_limit" envconfig:"IGDB_MAX_LIMIT"`
}

// Validate ensures the fields needed to reach the service are present and
// fills in defaults.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("igdb: missing client id")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("igdb: missing client secret")
	}
	c.applyDefaults()
	return nil
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.TokenURL == "" {
		c.TokenURL = DefaultTokenURL
	}
	if c.HTTPTimeoutS <= 0 {
		c.HTTPTimeoutS = DefaultHTTPTimeoutS
	}
}

func (c Config) allowList() []int64 {
	if len(c.PlatformAllowList) > 0 {
		return c.PlatformAllowList
	}
	return DefaultPlatformAllowList
}

func (c Config) slugVariants() int {
	if c.SlugVariants > 0 {
		return c.SlugVariants
	}
	return DefaultSlugVariants
}

func (c Config) maxLimit() int {
	if c.MaxLimit > 0 {
		return c.MaxLimit
	}
	return DefaultMaxLimit
}

// Logger is the logging interface used by this package.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}
