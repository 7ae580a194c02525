package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	JWT           JWTConfig           `yaml:"jwt"`
	Engine        EngineConfig        `yaml:"engine"`
	Assist        AssistConfig        `yaml:"assist"`
	GPSD          GPSDConfig          `yaml:"gpsd"`
	Queue         QueueConfig         `yaml:"queue"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration. An empty URL keeps round events in-process.
type NATSConfig struct {
	URL       string `yaml:"url"`
	JetStream bool   `yaml:"jetstream"`
	// NKeySeed authenticates with a user nkey when set.
	NKeySeed string `yaml:"nkey_seed"`
}

// HTTPConfig holds the API server configuration.
type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// RateLimit is requests per second per client IP on the voice and ask endpoints.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// JWTConfig holds bearer token validation settings.
type JWTConfig struct {
	Secret   string `yaml:"secret"`
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
}

// EngineConfig tunes the round state machine.
type EngineConfig struct {
	AccuracyThresholdM float64       `yaml:"accuracy_threshold_m"`
	PositionTimeout    time.Duration `yaml:"position_timeout"`
}

// AssistConfig configures the OpenAI-compatible coach and transcription clients.
type AssistConfig struct {
	BaseURL            string        `yaml:"base_url"`
	APIKey             string        `yaml:"api_key"`
	ChatModel          string        `yaml:"chat_model"`
	TranscriptionModel string        `yaml:"transcription_model"`
	Timeout            time.Duration `yaml:"timeout"`
	MaxTokens          int           `yaml:"max_tokens"`
	Temperature        float64       `yaml:"temperature"`
}

// GPSDConfig points the terminal session at a gpsd daemon.
type GPSDConfig struct {
	Addr string `yaml:"addr"`
}

// QueueConfig holds River job queue settings.
type QueueConfig struct {
	Enabled bool `yaml:"enabled"`
	// StaleRoundAfter is how long a round may stay active before it is abandoned.
	StaleRoundAfter time.Duration `yaml:"stale_round_after"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
	LogLevel       string `yaml:"log_level"`
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("NATS_JETSTREAM"); v != "" {
		cfg.NATS.JetStream = v == "true"
	}
	if v := os.Getenv("NATS_NKEY_SEED"); v != "" {
		cfg.NATS.NKeySeed = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		cfg.JWT.Issuer = v
	}
	if v := os.Getenv("ACCURACY_THRESHOLD_M"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid ACCURACY_THRESHOLD_M value: %w", err)
		}
		cfg.Engine.AccuracyThresholdM = f
	}
	if v := os.Getenv("POSITION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid POSITION_TIMEOUT value: %w", err)
		}
		cfg.Engine.PositionTimeout = d
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Assist.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Assist.BaseURL = v
	}
	if v := os.Getenv("GPSD_ADDR"); v != "" {
		cfg.GPSD.Addr = v
	}
	if v := os.Getenv("QUEUE_ENABLED"); v != "" {
		cfg.Queue.Enabled = v == "true"
	}
	if v := os.Getenv("STALE_ROUND_AFTER"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid STALE_ROUND_AFTER value: %w", err)
		}
		cfg.Queue.StaleRoundAfter = d
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.RateLimit <= 0 {
		cfg.HTTP.RateLimit = 2
	}
	if cfg.HTTP.RateBurst <= 0 {
		cfg.HTTP.RateBurst = 5
	}
	if cfg.Engine.AccuracyThresholdM <= 0 {
		cfg.Engine.AccuracyThresholdM = 15
	}
	if cfg.Engine.PositionTimeout <= 0 {
		cfg.Engine.PositionTimeout = 10 * time.Second
	}
	if cfg.Assist.BaseURL == "" {
		cfg.Assist.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Assist.ChatModel == "" {
		cfg.Assist.ChatModel = "gpt-4o-mini"
	}
	if cfg.Assist.TranscriptionModel == "" {
		cfg.Assist.TranscriptionModel = "whisper-1"
	}
	if cfg.Assist.Timeout <= 0 {
		cfg.Assist.Timeout = 30 * time.Second
	}
	if cfg.Assist.MaxTokens <= 0 {
		cfg.Assist.MaxTokens = 300
	}
	if cfg.Assist.Temperature <= 0 {
		cfg.Assist.Temperature = 0.3
	}
	if cfg.GPSD.Addr == "" {
		cfg.GPSD.Addr = "localhost:2947"
	}
	if cfg.Queue.StaleRoundAfter <= 0 {
		cfg.Queue.StaleRoundAfter = 12 * time.Hour
	}
	if cfg.Observability.Environment == "" {
		cfg.Observability.Environment = "production"
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
