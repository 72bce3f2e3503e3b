// Package config provides configuration loading and management for the block store.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/lumina-study/block-store/internal/httpclient"
	"github.com/lumina-study/block-store/internal/lumina"
	"github.com/lumina-study/block-store/internal/sourcekey"
	"github.com/lumina-study/block-store/internal/telemetry"
)

const (
	// DefaultAddress is the address the HTTP API listens on
	DefaultAddress = ":8080"

	// DefaultRequestTimeout bounds a single API request
	DefaultRequestTimeout = 60 * time.Second

	// DefaultMaxAttempts is the number of provider requests made before giving up
	DefaultMaxAttempts = 3

	// EnvPrefix is the prefix of environment variables read by the CLI
	EnvPrefix = "BLOCK_STORE"

	// configFile is the location of the config file below the XDG config dirs
	configFile = "block-store/config.yaml"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks; this also cleans the path.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// DefaultConfigPath returns the config file found in the XDG config
// directories, or an error when there is none.
func DefaultConfigPath() (string, error) {
	return xdg.SearchConfigFile(configFile)
}

// Config represents the root configuration structure
type Config struct {
	Server    ServerConfig      `yaml:"server"`
	Providers ProvidersConfig   `yaml:"providers"`
	HTTP      HTTPConfig        `yaml:"http"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`

	// Sources are added in order when the server starts
	Sources []SourceConfig `yaml:"sources,omitempty"`
}

// ServerConfig defines the HTTP API listener
type ServerConfig struct {
	// Address is the listen address, ":8080" by default
	Address string `yaml:"address,omitempty"`

	// RequestTimeout bounds a single request (e.g. "30s")
	RequestTimeout string `yaml:"requestTimeout,omitempty"`
}

// ProvidersConfig holds per provider settings
type ProvidersConfig struct {
	GitHub *ProviderConfig `yaml:"github,omitempty"`
	GitLab *ProviderConfig `yaml:"gitlab,omitempty"`
}

// ProviderConfig defines how one provider's API is reached
type ProviderConfig struct {
	// Disabled removes the provider; adds for it fail as unsupported
	Disabled bool `yaml:"disabled,omitempty"`

	// BaseURL overrides the public API root, for self hosted instances
	BaseURL string `yaml:"baseURL,omitempty"`

	// FileNames are the document names tried in order
	FileNames []string `yaml:"fileNames,omitempty"`
}

// HTTPConfig defines the outbound client used for provider calls
type HTTPConfig struct {
	// Timeout bounds a single provider request (e.g. "10s")
	Timeout string `yaml:"timeout,omitempty"`

	// RateLimit is the sustained provider requests per second; 0 disables limiting
	RateLimit float64 `yaml:"rateLimit,omitempty"`

	// Burst is the number of requests allowed above the rate
	Burst int `yaml:"burst,omitempty"`

	// MaxAttempts is the number of tries for retryable failures
	MaxAttempts uint `yaml:"maxAttempts,omitempty"`

	UserAgent string `yaml:"userAgent,omitempty"`
}

// SourceConfig names a repository added on startup
type SourceConfig struct {
	Provider     string `yaml:"provider"`
	Organization string `yaml:"organization"`
	Repository   string `yaml:"repository"`

	// TokenEnv is the environment variable holding the access token
	TokenEnv string `yaml:"tokenEnv,omitempty"`
}

// Triple returns the location named by the source
func (s SourceConfig) Triple() lumina.Triple {
	return lumina.Triple{
		Provider:     lumina.Provider(s.Provider),
		Organization: s.Organization,
		Repository:   s.Repository,
	}
}

// Token returns the value of TokenEnv, or "" when unset
func (s SourceConfig) Token() string {
	if s.TokenEnv == "" {
		return ""
	}
	return os.Getenv(s.TokenEnv)
}

// LoadConfig loads and parses configuration from a YAML file. Without a
// path the defaults are returned.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	var config Config
	if loaderCfg.path != "" {
		data, err := os.ReadFile(loaderCfg.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetAddress returns the listen address, using DefaultAddress if not specified
func (c *ServerConfig) GetAddress() string {
	if c.Address == "" {
		return DefaultAddress
	}
	return c.Address
}

// GetRequestTimeout returns the request timeout, using DefaultRequestTimeout if not specified
func (c *ServerConfig) GetRequestTimeout() time.Duration {
	return durationOr(c.RequestTimeout, DefaultRequestTimeout)
}

// Provider returns the settings for p, or nil when there are none
func (c *ProvidersConfig) Provider(p lumina.Provider) *ProviderConfig {
	switch p {
	case lumina.ProviderGitHub:
		return c.GitHub
	case lumina.ProviderGitLab:
		return c.GitLab
	}
	return nil
}

// Enabled reports whether adds for p are served
func (c *ProvidersConfig) Enabled(p lumina.Provider) bool {
	pc := c.Provider(p)
	return pc == nil || !pc.Disabled
}

// GetTimeout returns the request timeout, using httpclient.DefaultTimeout if not specified
func (c *HTTPConfig) GetTimeout() time.Duration {
	return durationOr(c.Timeout, httpclient.DefaultTimeout)
}

// GetMaxAttempts returns the number of tries, using DefaultMaxAttempts if not specified
func (c *HTTPConfig) GetMaxAttempts() uint {
	if c.MaxAttempts == 0 {
		return DefaultMaxAttempts
	}
	return c.MaxAttempts
}

// GetUserAgent returns the user agent, using httpclient.DefaultUserAgent if not specified
func (c *HTTPConfig) GetUserAgent() string {
	if c.UserAgent == "" {
		return httpclient.DefaultUserAgent
	}
	return c.UserAgent
}

func durationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		// validate rejects unparsable values before this is reached
		return fallback
	}
	return d
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateDuration("server.requestTimeout", c.Server.RequestTimeout); err != nil {
		return err
	}
	if err := validateHTTPConfig(&c.HTTP); err != nil {
		return err
	}

	for _, p := range lumina.Providers {
		if err := validateProviderConfig(p, c.Providers.Provider(p)); err != nil {
			return err
		}
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	seen := make(map[string]bool)
	for i, src := range c.Sources {
		if err := c.validateSourceConfig(&src, i); err != nil {
			return err
		}

		key := sourcekey.Encode(src.Triple())
		if seen[key] {
			return fmt.Errorf("sources[%d]: duplicate source '%s'", i, key)
		}
		seen[key] = true
	}

	return nil
}

func validateDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s must be a valid duration (e.g., '10s', '1m'): %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", field, value)
	}
	return nil
}

func validateHTTPConfig(h *HTTPConfig) error {
	if err := validateDuration("http.timeout", h.Timeout); err != nil {
		return err
	}
	if h.RateLimit < 0 {
		return fmt.Errorf("http.rateLimit must not be negative, got %v", h.RateLimit)
	}
	if h.Burst < 0 {
		return fmt.Errorf("http.burst must not be negative, got %d", h.Burst)
	}
	return nil
}

func validateProviderConfig(p lumina.Provider, pc *ProviderConfig) error {
	if pc == nil {
		return nil
	}
	prefix := fmt.Sprintf("providers.%s", p)

	if pc.BaseURL != "" {
		u, err := url.Parse(pc.BaseURL)
		if err != nil {
			return fmt.Errorf("%s: invalid baseURL: %w", prefix, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%s: baseURL must use http or https, got %q", prefix, pc.BaseURL)
		}
		if u.Host == "" {
			return fmt.Errorf("%s: baseURL must include a host", prefix)
		}
	}

	for i, name := range pc.FileNames {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%s: fileNames[%d] is empty", prefix, i)
		}
	}
	return nil
}

// validateSourceConfig validates a single seed source
func (c *Config) validateSourceConfig(src *SourceConfig, index int) error {
	prefix := fmt.Sprintf("sources[%d]", index)

	provider, err := lumina.ParseProvider(src.Provider)
	if err != nil {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	if !c.Providers.Enabled(provider) {
		return fmt.Errorf("%s: provider %s is disabled", prefix, provider)
	}

	if src.Organization == "" {
		return fmt.Errorf("%s: organization is required", prefix)
	}
	if src.Repository == "" {
		return fmt.Errorf("%s: repository is required", prefix)
	}

	// Names containing the separator would produce keys that cannot be decoded.
	if strings.Contains(src.Organization, sourcekey.Separator) {
		return fmt.Errorf("%s: organization must not contain %q", prefix, sourcekey.Separator)
	}
	if strings.Contains(src.Repository, sourcekey.Separator) {
		return fmt.Errorf("%s: repository must not contain %q", prefix, sourcekey.Separator)
	}
	return nil
}
