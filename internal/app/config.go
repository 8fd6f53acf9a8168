package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (BILLING_ prefix), flags, or YAML config files.
type Config struct {
	Addr       string `default:"0.0.0.0:8080" usage:"API server listen address"`
	BaseURL    string `default:"http://localhost:8080/" usage:"Public page URL share tokens are attached to" flag:"base-url"`
	EntryURL   string `default:"" usage:"URL the session was opened with; a share token here starts the session in viewing mode" flag:"entry-url"`
	BillPrefix string `default:"TSL" usage:"Prefix for generated bill references" flag:"bill-prefix"`
	Redis      RedisConfig
	Gemini     GeminiConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
	Graceful   GracefulConfig
}

// RedisConfig controls the persistence backend. An empty Addr selects the
// in-memory store, which loses state on restart.
type RedisConfig struct {
	Addr     string `default:"" usage:"Redis address (host:port); empty uses in-memory storage" flag:"redis-addr"`
	Password string `default:"" usage:"Redis password" flag:"redis-password"`
	DB       int    `default:"0" usage:"Redis database number" flag:"redis-db"`
}

// GeminiConfig controls the AI item extraction collaborator. An empty
// APIKey disables extraction.
type GeminiConfig struct {
	APIKey string `default:"" usage:"Gemini API key (BILLING_GEMINI_APIKEY or GEMINI_API_KEY)" flag:"gemini-api-key"`
	Model  string `default:"gemini-2.0-flash" usage:"Gemini model name" flag:"gemini-model"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "BILLING",
		Files:     []string{"config.yaml", "/etc/billing/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like PORT and
// GEMINI_API_KEY to the BILLING_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
	if c.Gemini.APIKey == "" {
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			c.Gemini.APIKey = v
		}
	}
}
