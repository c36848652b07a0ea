package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the intake agent service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8000"`

	// Base URL of the intake backend, used by the edge proxy to forward
	// /api/intake/* requests. The backend itself ignores this value.
	IntakeAPIURL string `envconfig:"INTAKE_API_URL" default:"http://localhost:8000/api/intake"`

	// Path the proxy serves connection details on (never forwarded upstream)
	ConnDetailsEndpoint string `envconfig:"CONN_DETAILS_ENDPOINT" default:"/api/connection-details"`

	// OpenAI LLM configuration
	OpenAIAPIKey      string  `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIModel       string  `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAITemperature float64 `envconfig:"OPENAI_TEMPERATURE" default:"0.7"`
	OpenAIMaxTokens   int     `envconfig:"OPENAI_MAX_TOKENS" default:"500"`
	OpenAITimeout     int     `envconfig:"OPENAI_TIMEOUT" default:"30"` // seconds

	// Deepgram STT configuration (voice mode)
	DeepgramAPIKey   string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel    string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`
	DeepgramLanguage string `envconfig:"DEEPGRAM_LANGUAGE" default:"en"`

	// Cartesia TTS configuration (voice mode)
	CartesiaAPIKey  string `envconfig:"CARTESIA_API_KEY" default:""`
	CartesiaVoiceID string `envconfig:"CARTESIA_VOICE_ID" default:"sonic-english"`
	CartesiaModelID string `envconfig:"CARTESIA_MODEL_ID" default:"sonic"`

	// LiveKit credentials for minting participant tokens
	LiveKitURL       string `envconfig:"LIVEKIT_URL" default:"ws://localhost:7880"`
	LiveKitAPIKey    string `envconfig:"LIVEKIT_API_KEY" default:""`
	LiveKitAPISecret string `envconfig:"LIVEKIT_API_SECRET" default:""`
	TokenTTLMinutes  int    `envconfig:"TOKEN_TTL_MINUTES" default:"15"`

	// Session store configuration
	SessionStore    string `envconfig:"SESSION_STORE" default:"memory"` // memory or redis
	RedisAddr       string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword   string `envconfig:"REDIS_PASSWORD" default:""`
	SessionTTLHours int    `envconfig:"SESSION_TTL_HOURS" default:"24"`

	// History sent to the LLM is capped to this many trailing messages
	HistoryWindow int `envconfig:"HISTORY_WINDOW" default:"10"`

	// Audio buffering for the voice gateway
	AudioBufferSize    int     `envconfig:"AUDIO_BUFFER_SIZE" default:"8192"`
	VADEnergyThreshold float64 `envconfig:"VAD_ENERGY_THRESHOLD" default:"500.0"`
	VADSilenceFrames   int     `envconfig:"VAD_SILENCE_FRAMES" default:"10"`

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // seconds
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"` // milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads configuration from environment variables.
// It first attempts to load from a .env file if one exists, then from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load a .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.SessionStore != "memory" && cfg.SessionStore != "redis" {
		return nil, fmt.Errorf("SESSION_STORE must be memory or redis, got %q", cfg.SessionStore)
	}

	return &cfg, nil
}

// ProxyConfig holds configuration for the edge proxy binary. The proxy only
// needs the upstream base URL and the LiveKit credentials for token minting.
type ProxyConfig struct {
	Port                string `envconfig:"PROXY_PORT" default:"3000"`
	IntakeAPIURL        string `envconfig:"INTAKE_API_URL" default:"http://localhost:8000/api/intake"`
	ConnDetailsEndpoint string `envconfig:"CONN_DETAILS_ENDPOINT" default:"/api/connection-details"`
	LiveKitURL          string `envconfig:"LIVEKIT_URL" default:"ws://localhost:7880"`
	LiveKitAPIKey       string `envconfig:"LIVEKIT_API_KEY" default:""`
	LiveKitAPISecret    string `envconfig:"LIVEKIT_API_SECRET" default:""`
	TokenTTLMinutes     int    `envconfig:"TOKEN_TTL_MINUTES" default:"15"`
	LogLevel            string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty           bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// LoadProxy reads the proxy configuration from the environment.
func LoadProxy() (*ProxyConfig, error) {
	_ = godotenv.Load()

	var cfg ProxyConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load proxy config: %w", err)
	}
	return &cfg, nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
