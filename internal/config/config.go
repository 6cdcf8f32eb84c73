// Package config provides hierarchical configuration loading for TripCrew.
// Precedence: defaults < YAML file < environment variables (.env included).
package config

import "time"

// LLM provider names.
const (
	ProviderGroq    = "groq"
	ProviderGemini  = "gemini"
	ProviderLiteLLM = "litellm"
	ProviderFake    = "fake"
)

// Config holds all runtime configuration for the TripCrew service.
type Config struct {
	Server   Server   `yaml:"server"`
	LLM      LLM      `yaml:"llm"`
	Crew     Crew     `yaml:"crew"`
	Postgres Postgres `yaml:"postgres"`
	NATS     NATS     `yaml:"nats"`
	Logging  Logging  `yaml:"logging"`
	Breaker  Breaker  `yaml:"breaker"`
	Rate     Rate     `yaml:"rate"`
	Cache    Cache    `yaml:"cache"`
	Artifact Artifact `yaml:"artifact"`
	MCP      MCP      `yaml:"mcp"`
	OTEL     OTEL     `yaml:"otel"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port            string        `yaml:"port"`
	CORSOrigin      string        `yaml:"cors_origin"`
	RequestTimeout  time.Duration `yaml:"request_timeout"` // covers a whole crew run
	BodyLimit       int64         `yaml:"body_limit"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LLM holds the language-model provider shared by all agents.
type LLM struct {
	Provider     string        `yaml:"provider"` // groq | gemini | litellm | fake
	Model        string        `yaml:"model"`
	Temperature  float64       `yaml:"temperature"`
	BaseURL      string        `yaml:"base_url"` // litellm proxy URL; groq uses its public API when empty
	GroqAPIKey   string        `yaml:"groq_api_key"`
	GeminiAPIKey string        `yaml:"gemini_api_key"`
	LiteLLMKey   string        `yaml:"litellm_key"`
	Timeout      time.Duration `yaml:"timeout"`
}

// APIKey returns the key for the configured provider.
func (l *LLM) APIKey() string {
	switch l.Provider {
	case ProviderGroq:
		return l.GroqAPIKey
	case ProviderGemini:
		return l.GeminiAPIKey
	case ProviderLiteLLM:
		return l.LiteLLMKey
	}
	return ""
}

// Crew holds pipeline settings.
type Crew struct {
	Destination       string `yaml:"destination"`
	AgentsFile        string `yaml:"agents_file"`
	MaxConcurrentRuns int64  `yaml:"max_concurrent_runs"` // 0 = unlimited
}

// Postgres holds PostgreSQL connection configuration. An empty DSN disables run history.
type Postgres struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	HealthCheck     time.Duration `yaml:"health_check"`
}

// NATS holds NATS JetStream configuration. An empty URL disables run events.
type NATS struct {
	URL string `yaml:"url"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level      string `yaml:"level"`
	Service    string `yaml:"service"`
	Async      bool   `yaml:"async"`
	BufferSize int    `yaml:"buffer_size"`
	Workers    int    `yaml:"workers"`
}

// Breaker holds circuit breaker configuration.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Rate holds the per-IP rate limiter for plan submissions.
type Rate struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	MaxIdleTime       time.Duration `yaml:"max_idle_time"`
}

// Cache holds the run record cache configuration. L2 is used only when NATS is enabled.
type Cache struct {
	L1MaxSizeMB int64         `yaml:"l1_max_size_mb"`
	TTL         time.Duration `yaml:"ttl"`
	L2Bucket    string        `yaml:"l2_bucket"`
	L2TTL       time.Duration `yaml:"l2_ttl"`
}

// Artifact holds S3-compatible storage for plan exports. An empty endpoint disables it.
type Artifact struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// MCP holds the Model Context Protocol endpoint configuration.
type MCP struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
}

// OTEL holds OpenTelemetry exporter configuration.
type OTEL struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	Insecure    bool    `yaml:"insecure"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:            "8080",
			CORSOrigin:      "http://localhost:8080",
			RequestTimeout:  5 * time.Minute,
			BodyLimit:       1 << 20,
			ShutdownTimeout: 15 * time.Second,
		},
		LLM: LLM{
			Provider:    ProviderGroq,
			Model:       "llama-3.3-70b-versatile",
			Temperature: 0.7,
			Timeout:     2 * time.Minute,
		},
		Crew: Crew{
			Destination: "Paris",
		},
		Postgres: Postgres{
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
			HealthCheck:     time.Minute,
		},
		Logging: Logging{
			Level:      "info",
			Service:    "tripcrew",
			BufferSize: 1024,
			Workers:    2,
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Rate: Rate{
			RequestsPerSecond: 0.2,
			Burst:             5,
			CleanupInterval:   5 * time.Minute,
			MaxIdleTime:       10 * time.Minute,
		},
		Cache: Cache{
			L1MaxSizeMB: 32,
			TTL:         24 * time.Hour,
			L2Bucket:    "tripcrew_runs",
			L2TTL:       24 * time.Hour,
		},
		Artifact: Artifact{
			Bucket: "tripcrew-plans",
			Region: "us-east-1",
		},
		MCP: MCP{
			Enabled: true,
		},
		OTEL: OTEL{
			Endpoint:    "localhost:4317",
			ServiceName: "tripcrew",
			Insecure:    true,
			SampleRate:  1.0,
		},
	}
}
