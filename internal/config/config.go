// Package config loads lectio configuration from defaults, an optional YAML
// file, a .env file and LECTIO_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/lectio/core/errors"
	"github.com/FocuswithJustin/lectio/core/version"
)

// Provider names accepted in providers.order.
const (
	ProviderABibliaDigital = "abibliadigital"
	ProviderAPIBible       = "apibible"
	ProviderBibleAPI       = "bibleapi"
	ProviderOSIS           = "osis"
)

var knownProviders = []string{ProviderABibliaDigital, ProviderAPIBible, ProviderBibleAPI, ProviderOSIS}

// Config is the full lectio configuration.
type Config struct {
	DefaultVersion string `yaml:"default_version"`
	PlanFile       string `yaml:"plan_file"`

	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Cache     CacheConfig     `yaml:"cache"`
	Providers ProvidersConfig `yaml:"providers"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Warm      WarmConfig      `yaml:"warm"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig configures `lectio serve`.
type ServerConfig struct {
	Port           int             `yaml:"port"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	APIKey         string          `yaml:"api_key"`
	TLS            TLSConfig       `yaml:"tls"`
}

// RateLimitConfig bounds requests per client IP. Zero disables limiting.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// TLSConfig holds TLS/HTTPS configuration.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// CacheConfig configures the persistent tier.
type CacheConfig struct {
	Backend      string    `yaml:"backend"`
	Path         string    `yaml:"path"`
	WriteWorkers int       `yaml:"write_workers"`
	WriteTimeout Duration  `yaml:"write_timeout"`
	MaxSnapshot  SizeBytes `yaml:"max_snapshot"`
}

// ProviderConfig configures one provider.
type ProviderConfig struct {
	// Enabled defaults to true. The osis mirror is also off without a BaseURL
	// and apibible without a Key.
	Enabled *bool    `yaml:"enabled"`
	BaseURL string   `yaml:"base_url"`
	Key     string   `yaml:"key"`
	Timeout Duration `yaml:"timeout"`
}

// IsEnabled reports whether the provider is switched on.
func (p ProviderConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// APIBibleConfig adds bible IDs to the API.Bible provider.
type APIBibleConfig struct {
	ProviderConfig `yaml:",inline"`

	// Bibles maps version codes to API.Bible bible IDs.
	Bibles map[string]string `yaml:"bibles"`

	// Fallback is the version whose bible serves missing books, for requests
	// in the same language.
	Fallback string `yaml:"fallback"`
}

// ProvidersConfig lists providers in the order they are tried.
type ProvidersConfig struct {
	Order   []string `yaml:"order"`
	Timeout Duration `yaml:"timeout"`

	ABibliaDigital ProviderConfig `yaml:"abibliadigital"`
	APIBible       APIBibleConfig `yaml:"apibible"`
	BibleAPI       ProviderConfig `yaml:"bibleapi"`
	OSIS           ProviderConfig `yaml:"osis"`
}

// ResolverConfig tunes passage fan-out.
type ResolverConfig struct {
	Workers int `yaml:"workers"`
}

// WarmConfig paces cache warm runs.
type WarmConfig struct {
	ChunkSize     int      `yaml:"chunk_size"`
	Pause         Duration `yaml:"pause"`
	RatePerSecond float64  `yaml:"rate_per_second"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DefaultVersion: string(version.Primary),
		Log:            LogConfig{Level: "info", Format: "json"},
		Server: ServerConfig{
			Port:      8080,
			RateLimit: RateLimitConfig{RequestsPerMinute: 120, Burst: 20},
		},
		Cache: CacheConfig{
			Backend:      "sqlite",
			Path:         "lectio-cache.db",
			WriteWorkers: 2,
			WriteTimeout: Duration(10 * time.Second),
			MaxSnapshot:  SizeBytes(512 << 20),
		},
		Providers: ProvidersConfig{
			Order:   []string{ProviderABibliaDigital, ProviderAPIBible, ProviderBibleAPI, ProviderOSIS},
			Timeout: Duration(8 * time.Second),
			APIBible: APIBibleConfig{
				Fallback: string(version.KJV),
			},
		},
		Resolver: ResolverConfig{Workers: 4},
		Warm:     WarmConfig{ChunkSize: 5, Pause: Duration(time.Second)},
	}
}

// Load builds the configuration. path may be empty; a named file that does
// not exist is an error. The .env file in the working directory is read if
// present and never overrides variables already set.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.NewIO("read", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.NewParse("yaml", path, err.Error())
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from LECTIO_* variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
		}
	}
	list := func(name string, dst *[]string) {
		if v := getenv(name); v != "" {
			*dst = splitList(v)
		}
	}
	integer := func(name string, dst *int) error {
		v := strings.TrimSpace(getenv(name))
		if v == "" {
			return nil
		}
		i, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewValidation(name, fmt.Sprintf("not an integer: %q", v))
		}
		*dst = i
		return nil
	}
	duration := func(name string, dst *Duration) error {
		d, err := ParseDuration(getenv(name))
		if err != nil {
			return errors.NewValidation(name, err.Error())
		}
		if d != 0 {
			*dst = d
		}
		return nil
	}

	str("LECTIO_DEFAULT_VERSION", &c.DefaultVersion)
	str("LECTIO_PLAN_FILE", &c.PlanFile)
	str("LECTIO_LOG_LEVEL", &c.Log.Level)
	str("LECTIO_LOG_FORMAT", &c.Log.Format)

	str("LECTIO_API_KEY", &c.Server.APIKey)
	list("LECTIO_CORS_ORIGINS", &c.Server.AllowedOrigins)
	str("LECTIO_TLS_CERT", &c.Server.TLS.CertFile)
	str("LECTIO_TLS_KEY", &c.Server.TLS.KeyFile)
	if c.Server.TLS.CertFile != "" && c.Server.TLS.KeyFile != "" {
		c.Server.TLS.Enabled = true
	}

	str("LECTIO_CACHE_BACKEND", &c.Cache.Backend)
	str("LECTIO_CACHE_PATH", &c.Cache.Path)
	if v := getenv("LECTIO_CACHE_MAX_SNAPSHOT"); v != "" {
		size, err := ParseSize(v)
		if err != nil {
			return errors.NewValidation("LECTIO_CACHE_MAX_SNAPSHOT", err.Error())
		}
		c.Cache.MaxSnapshot = size
	}

	list("LECTIO_PROVIDERS", &c.Providers.Order)
	str("LECTIO_ABIBLIADIGITAL_TOKEN", &c.Providers.ABibliaDigital.Key)
	str("LECTIO_APIBIBLE_KEY", &c.Providers.APIBible.Key)
	str("LECTIO_OSIS_BASE_URL", &c.Providers.OSIS.BaseURL)
	if v := getenv("LECTIO_APIBIBLE_BIBLES"); v != "" {
		bibles, err := parsePairs(v)
		if err != nil {
			return errors.NewValidation("LECTIO_APIBIBLE_BIBLES", err.Error())
		}
		if c.Providers.APIBible.Bibles == nil {
			c.Providers.APIBible.Bibles = map[string]string{}
		}
		for k, id := range bibles {
			c.Providers.APIBible.Bibles[k] = id
		}
	}

	for _, fn := range []func() error{
		func() error { return integer("LECTIO_PORT", &c.Server.Port) },
		func() error { return integer("LECTIO_RATE_LIMIT", &c.Server.RateLimit.RequestsPerMinute) },
		func() error { return integer("LECTIO_CACHE_WRITE_WORKERS", &c.Cache.WriteWorkers) },
		func() error { return integer("LECTIO_RESOLVER_WORKERS", &c.Resolver.Workers) },
		func() error { return duration("LECTIO_PROVIDER_TIMEOUT", &c.Providers.Timeout) },
	} {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the configuration and returns the first problem as a
// *errors.ValidationError.
func (c *Config) Validate() error {
	if _, err := version.NewNormalizer(c.DefaultVersion); err != nil {
		return err
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.NewValidation("server.port", fmt.Sprintf("%d out of range", c.Server.Port))
	}
	if c.Server.TLS.Enabled && (c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "") {
		return errors.NewValidation("server.tls", "cert_file and key_file are required when TLS is enabled")
	}
	if c.Server.RateLimit.RequestsPerMinute < 0 || c.Server.RateLimit.Burst < 0 {
		return errors.NewValidation("server.rate_limit", "must not be negative")
	}

	switch strings.ToLower(c.Cache.Backend) {
	case "sqlite", "pebble":
		if c.Cache.Path == "" {
			return errors.NewValidation("cache.path", "required for the "+c.Cache.Backend+" backend")
		}
	case "memory":
	default:
		return errors.NewValidation("cache.backend", fmt.Sprintf("unknown backend %q", c.Cache.Backend))
	}
	if c.Cache.WriteWorkers < 0 {
		return errors.NewValidation("cache.write_workers", "must not be negative")
	}

	if len(c.Providers.Order) == 0 {
		return errors.NewValidation("providers.order", "at least one provider is required")
	}
	seen := map[string]bool{}
	for _, name := range c.Providers.Order {
		if !slices.Contains(knownProviders, name) {
			return errors.NewValidation("providers.order", fmt.Sprintf("unknown provider %q", name))
		}
		if seen[name] {
			return errors.NewValidation("providers.order", fmt.Sprintf("provider %q listed twice", name))
		}
		seen[name] = true
	}
	for v := range c.Providers.APIBible.Bibles {
		if _, ok := version.Lookup(v); !ok {
			return errors.NewValidation("providers.apibible.bibles", fmt.Sprintf("unknown version %q", v))
		}
	}
	if f := c.Providers.APIBible.Fallback; f != "" {
		if _, ok := version.Lookup(f); !ok {
			return errors.NewValidation("providers.apibible.fallback", fmt.Sprintf("unknown version %q", f))
		}
	}

	if c.Resolver.Workers < 0 {
		return errors.NewValidation("resolver.workers", "must not be negative")
	}
	if c.Warm.ChunkSize < 0 || c.Warm.RatePerSecond < 0 {
		return errors.NewValidation("warm", "chunk_size and rate_per_second must not be negative")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parsePairs parses "a=1,b=2".
func parsePairs(v string) (map[string]string, error) {
	out := map[string]string{}
	for _, p := range splitList(v) {
		k, val, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" || strings.TrimSpace(val) == "" {
			return nil, fmt.Errorf("expected key=value, got %q", p)
		}
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(val)
	}
	return out, nil
}
