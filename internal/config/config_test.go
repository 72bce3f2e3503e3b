package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-study/block-store/internal/httpclient"
	"github.com/lumina-study/block-store/internal/lumina"
	"github.com/lumina-study/block-store/internal/telemetry"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name             string
		yamlContent      string
		skipFileCreation bool
		wantConfig       *Config
		wantErr          string
	}{
		{
			name: "full_config",
			yamlContent: `server:
  address: ":9090"
  requestTimeout: "30s"
providers:
  github:
    fileNames: ["lumina.json", "lumina.jsonc"]
  gitlab:
    baseURL: "https://gitlab.example.com/api/v4"
http:
  timeout: "5s"
  rateLimit: 2.5
  burst: 4
  maxAttempts: 5
telemetry:
  enabled: true
  endpoint: "otel:4318"
  insecure: true
  metrics:
    enabled: true
    exporter: prometheus
sources:
  - provider: github
    organization: lumina-study
    repository: algebra
    tokenEnv: ALGEBRA_TOKEN
  - provider: gitlab
    organization: group/sub
    repository: physics`,
			wantConfig: &Config{
				Server: ServerConfig{Address: ":9090", RequestTimeout: "30s"},
				Providers: ProvidersConfig{
					GitHub: &ProviderConfig{FileNames: []string{"lumina.json", "lumina.jsonc"}},
					GitLab: &ProviderConfig{BaseURL: "https://gitlab.example.com/api/v4"},
				},
				HTTP: HTTPConfig{Timeout: "5s", RateLimit: 2.5, Burst: 4, MaxAttempts: 5},
				Telemetry: &telemetry.Config{
					Enabled:  true,
					Endpoint: "otel:4318",
					Insecure: true,
					Metrics:  &telemetry.MetricsConfig{Enabled: true, Exporter: "prometheus"},
				},
				Sources: []SourceConfig{
					{Provider: "github", Organization: "lumina-study", Repository: "algebra", TokenEnv: "ALGEBRA_TOKEN"},
					{Provider: "gitlab", Organization: "group/sub", Repository: "physics"},
				},
			},
		},
		{
			name:        "empty_file_uses_defaults",
			yamlContent: ``,
			wantConfig:  &Config{},
		},
		{
			name:             "missing_file",
			skipFileCreation: true,
			wantErr:          "failed to evaluate symlinks",
		},
		{
			name:        "malformed_yaml",
			yamlContent: "server: [",
			wantErr:     "failed to parse YAML config",
		},
		{
			name: "unsupported_seed_provider",
			yamlContent: `sources:
  - provider: bitbucket
    organization: org
    repository: repo`,
			wantErr: "sources[0]: Unsupported provider: bitbucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")

			if tt.skipFileCreation {
				configPath = filepath.Join(tmpDir, "non-existent.yaml")
			} else {
				err := os.WriteFile(configPath, []byte(tt.yamlContent), 0600)
				require.NoError(t, err)
			}

			config, err := LoadConfig(WithConfigPath(configPath))

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantConfig, config)
		})
	}
}

func TestLoadConfig_WithoutPath(t *testing.T) {
	t.Parallel()

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultAddress, config.Server.GetAddress())
	assert.Equal(t, DefaultRequestTimeout, config.Server.GetRequestTimeout())
	assert.Equal(t, httpclient.DefaultTimeout, config.HTTP.GetTimeout())
	assert.Equal(t, uint(DefaultMaxAttempts), config.HTTP.GetMaxAttempts())
	assert.Equal(t, httpclient.DefaultUserAgent, config.HTTP.GetUserAgent())
	assert.Empty(t, config.Sources)
}

func TestWithConfigPath(t *testing.T) {
	t.Parallel()

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig(WithConfigPath(""))
		require.EqualError(t, err, "path is required")
	})

	t.Run("symlink is resolved", func(t *testing.T) {
		t.Parallel()
		tmpDir := t.TempDir()
		target := filepath.Join(tmpDir, "real.yaml")
		require.NoError(t, os.WriteFile(target, []byte("server:\n  address: \":7000\"\n"), 0600))
		link := filepath.Join(tmpDir, "link.yaml")
		require.NoError(t, os.Symlink(target, link))

		config, err := LoadConfig(WithConfigPath(link))
		require.NoError(t, err)
		assert.Equal(t, ":7000", config.Server.GetAddress())
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{
			name:    "nil_config",
			config:  nil,
			wantErr: "config cannot be nil",
		},
		{
			name:   "zero_config",
			config: &Config{},
		},
		{
			name:    "invalid_request_timeout",
			config:  &Config{Server: ServerConfig{RequestTimeout: "soon"}},
			wantErr: "server.requestTimeout must be a valid duration",
		},
		{
			name:    "negative_http_timeout",
			config:  &Config{HTTP: HTTPConfig{Timeout: "-1s"}},
			wantErr: "http.timeout must be positive",
		},
		{
			name:    "negative_rate_limit",
			config:  &Config{HTTP: HTTPConfig{RateLimit: -1}},
			wantErr: "http.rateLimit must not be negative",
		},
		{
			name:    "negative_burst",
			config:  &Config{HTTP: HTTPConfig{Burst: -2}},
			wantErr: "http.burst must not be negative",
		},
		{
			name: "base_url_without_scheme",
			config: &Config{Providers: ProvidersConfig{
				GitHub: &ProviderConfig{BaseURL: "api.github.com"},
			}},
			wantErr: "providers.github: baseURL must use http or https",
		},
		{
			name: "base_url_without_host",
			config: &Config{Providers: ProvidersConfig{
				GitLab: &ProviderConfig{BaseURL: "https://"},
			}},
			wantErr: "providers.gitlab: baseURL must include a host",
		},
		{
			name: "blank_file_name",
			config: &Config{Providers: ProvidersConfig{
				GitHub: &ProviderConfig{FileNames: []string{"lumina.json", " "}},
			}},
			wantErr: "providers.github: fileNames[1] is empty",
		},
		{
			name: "bad_telemetry_exporter",
			config: &Config{Telemetry: &telemetry.Config{
				Enabled: true,
				Metrics: &telemetry.MetricsConfig{Enabled: true, Exporter: "statsd"},
			}},
			wantErr: "telemetry: metrics: unknown exporter",
		},
		{
			name: "seed_missing_organization",
			config: &Config{Sources: []SourceConfig{
				{Provider: "github", Repository: "repo"},
			}},
			wantErr: "sources[0]: organization is required",
		},
		{
			name: "seed_missing_repository",
			config: &Config{Sources: []SourceConfig{
				{Provider: "gitlab", Organization: "group"},
			}},
			wantErr: "sources[0]: repository is required",
		},
		{
			name: "seed_with_separator",
			config: &Config{Sources: []SourceConfig{
				{Provider: "github", Organization: "org", Repository: "a:b"},
			}},
			wantErr: `sources[0]: repository must not contain ":"`,
		},
		{
			name: "seed_for_disabled_provider",
			config: &Config{
				Providers: ProvidersConfig{GitLab: &ProviderConfig{Disabled: true}},
				Sources: []SourceConfig{
					{Provider: "gitlab", Organization: "group", Repository: "repo"},
				},
			},
			wantErr: "sources[0]: provider gitlab is disabled",
		},
		{
			name: "duplicate_seed",
			config: &Config{Sources: []SourceConfig{
				{Provider: "github", Organization: "org", Repository: "repo"},
				{Provider: "gitlab", Organization: "org", Repository: "repo"},
				{Provider: "github", Organization: "org", Repository: "repo"},
			}},
			wantErr: "sources[2]: duplicate source 'github:org:repo'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.config.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetters(t *testing.T) {
	t.Parallel()

	server := ServerConfig{Address: "127.0.0.1:1", RequestTimeout: "2m"}
	assert.Equal(t, "127.0.0.1:1", server.GetAddress())
	assert.Equal(t, 2*time.Minute, server.GetRequestTimeout())

	h := HTTPConfig{Timeout: "3s", MaxAttempts: 1, UserAgent: "custom/1"}
	assert.Equal(t, 3*time.Second, h.GetTimeout())
	assert.Equal(t, uint(1), h.GetMaxAttempts())
	assert.Equal(t, "custom/1", h.GetUserAgent())

	providers := ProvidersConfig{GitLab: &ProviderConfig{Disabled: true}}
	assert.Nil(t, providers.Provider(lumina.ProviderGitHub))
	assert.True(t, providers.Enabled(lumina.ProviderGitHub))
	assert.False(t, providers.Enabled(lumina.ProviderGitLab))
	assert.Nil(t, providers.Provider("bitbucket"))
}

func TestSourceConfig(t *testing.T) {
	src := SourceConfig{Provider: "github", Organization: "org", Repository: "repo"}
	assert.Equal(t, lumina.Triple{Provider: lumina.ProviderGitHub, Organization: "org", Repository: "repo"}, src.Triple())
	assert.Empty(t, src.Token())

	t.Setenv("BLOCK_STORE_TEST_SEED_TOKEN", "s3cret")
	src.TokenEnv = "BLOCK_STORE_TEST_SEED_TOKEN"
	assert.Equal(t, "s3cret", src.Token())
}
