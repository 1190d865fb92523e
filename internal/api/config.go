package api

import "github.com/FocuswithJustin/lectio/internal/config"

// Config holds server configuration.
type Config struct {
	Port              int
	RateLimitRequests int        // Requests per minute (0 = disabled)
	RateLimitBurst    int        // Burst size
	Auth              AuthConfig // Authentication configuration
	TLS               TLSConfig  // TLS configuration
	AllowedOrigins    []string   // CORS allowed origins (empty = allow all)
}

// TLSConfig holds TLS/HTTPS configuration.
type TLSConfig struct {
	Enabled  bool   // Enable HTTPS
	CertFile string // Path to TLS certificate file
	KeyFile  string // Path to TLS private key file
}

// ConfigFrom maps the server section of a lectio configuration.
// Authentication is enabled whenever an API key is set.
func ConfigFrom(c config.ServerConfig) Config {
	return Config{
		Port:              c.Port,
		RateLimitRequests: c.RateLimit.RequestsPerMinute,
		RateLimitBurst:    c.RateLimit.Burst,
		Auth:              AuthConfig{Enabled: c.APIKey != "", APIKey: c.APIKey},
		TLS:               TLSConfig{Enabled: c.TLS.Enabled, CertFile: c.TLS.CertFile, KeyFile: c.TLS.KeyFile},
		AllowedOrigins:    c.AllowedOrigins,
	}
}
