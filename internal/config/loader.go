package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "tripcrew.yaml"

// DefaultEnvFile is the dotenv file loaded before the environment is read.
const DefaultEnvFile = ".env"

var providers = []string{ProviderGroq, ProviderGemini, ProviderLiteLLM, ProviderFake}

// Load returns a Config using the hierarchy: defaults < YAML < ENV, after
// loading .env into the process environment. Both files are optional.
func Load() (*Config, error) {
	if err := LoadDotEnv(DefaultEnvFile); err != nil {
		return nil, err
	}
	return LoadFrom(DefaultConfigFile)
}

// LoadDotEnv loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config dotenv %s: %w", path, err)
	}
	return nil
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "TRIPCREW_PORT")
	setString(&cfg.Server.CORSOrigin, "TRIPCREW_CORS_ORIGIN")
	setDuration(&cfg.Server.RequestTimeout, "TRIPCREW_REQUEST_TIMEOUT")
	setInt64(&cfg.Server.BodyLimit, "TRIPCREW_BODY_LIMIT")
	setDuration(&cfg.Server.ShutdownTimeout, "TRIPCREW_SHUTDOWN_TIMEOUT")

	// LLM
	setString(&cfg.LLM.Provider, "TRIPCREW_LLM_PROVIDER")
	setString(&cfg.LLM.Model, "TRIPCREW_LLM_MODEL")
	setFloat64(&cfg.LLM.Temperature, "TRIPCREW_LLM_TEMPERATURE")
	setString(&cfg.LLM.BaseURL, "LITELLM_URL")
	setString(&cfg.LLM.LiteLLMKey, "LITELLM_MASTER_KEY")
	setString(&cfg.LLM.GroqAPIKey, "GROQ_API_KEY")
	setString(&cfg.LLM.GeminiAPIKey, "GOOGLE_API_KEY")
	setString(&cfg.LLM.GeminiAPIKey, "GEMINI_API_KEY")
	setDuration(&cfg.LLM.Timeout, "TRIPCREW_LLM_TIMEOUT")

	// Crew
	setString(&cfg.Crew.Destination, "TRIPCREW_DESTINATION")
	setString(&cfg.Crew.AgentsFile, "TRIPCREW_AGENTS_FILE")
	setInt64(&cfg.Crew.MaxConcurrentRuns, "TRIPCREW_MAX_CONCURRENT_RUNS")

	// Storage and messaging
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "TRIPCREW_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "TRIPCREW_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "TRIPCREW_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "TRIPCREW_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "TRIPCREW_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")

	// Logging
	setString(&cfg.Logging.Level, "TRIPCREW_LOG_LEVEL")
	setString(&cfg.Logging.Service, "TRIPCREW_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "TRIPCREW_LOG_ASYNC")

	// Resilience and limits
	setInt(&cfg.Breaker.MaxFailures, "TRIPCREW_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "TRIPCREW_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "TRIPCREW_RATE_RPS")
	setInt(&cfg.Rate.Burst, "TRIPCREW_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "TRIPCREW_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "TRIPCREW_RATE_MAX_IDLE_TIME")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "TRIPCREW_CACHE_L1_SIZE_MB")
	setDuration(&cfg.Cache.TTL, "TRIPCREW_CACHE_TTL")
	setString(&cfg.Cache.L2Bucket, "TRIPCREW_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "TRIPCREW_CACHE_L2_TTL")

	// Artifact store
	setString(&cfg.Artifact.Endpoint, "TRIPCREW_S3_ENDPOINT")
	setString(&cfg.Artifact.AccessKey, "TRIPCREW_S3_ACCESS_KEY")
	setString(&cfg.Artifact.SecretKey, "TRIPCREW_S3_SECRET_KEY")
	setString(&cfg.Artifact.Bucket, "TRIPCREW_S3_BUCKET")
	setString(&cfg.Artifact.Region, "TRIPCREW_S3_REGION")
	setBool(&cfg.Artifact.UseSSL, "TRIPCREW_S3_USE_SSL")

	// MCP
	setBool(&cfg.MCP.Enabled, "TRIPCREW_MCP_ENABLED")
	setString(&cfg.MCP.APIKey, "TRIPCREW_MCP_API_KEY")

	// OpenTelemetry
	setBool(&cfg.OTEL.Enabled, "TRIPCREW_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
	setBool(&cfg.OTEL.Insecure, "TRIPCREW_OTEL_INSECURE")
	setFloat64(&cfg.OTEL.SampleRate, "TRIPCREW_OTEL_SAMPLE_RATE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Server.BodyLimit < 1 {
		return errors.New("server.body_limit must be >= 1")
	}
	if !slices.Contains(providers, cfg.LLM.Provider) {
		return fmt.Errorf("llm.provider must be one of %v, got %q", providers, cfg.LLM.Provider)
	}
	if cfg.LLM.Provider != ProviderFake && cfg.LLM.Model == "" {
		return errors.New("llm.model is required")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be within [0, 2]")
	}
	if cfg.Crew.Destination == "" {
		return errors.New("crew.destination is required")
	}
	if cfg.Crew.MaxConcurrentRuns < 0 {
		return errors.New("crew.max_concurrent_runs must be >= 0")
	}
	if cfg.Postgres.DSN != "" && cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Rate.RequestsPerSecond <= 0 {
		return errors.New("rate.requests_per_second must be > 0")
	}
	if cfg.Cache.L1MaxSizeMB < 1 {
		return errors.New("cache.l1_max_size_mb must be >= 1")
	}
	if cfg.Artifact.Endpoint != "" && cfg.Artifact.Bucket == "" {
		return errors.New("artifact.bucket is required when artifact.endpoint is set")
	}
	if cfg.OTEL.SampleRate < 0 || cfg.OTEL.SampleRate > 1 {
		return errors.New("otel.sample_rate must be within [0, 1]")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
