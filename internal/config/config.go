// File: internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the request proxy configuration.
type Config struct {
	ServerPort  string
	Environment string

	// Upstream API. A missing key is reported per request, not at start-up.
	OpenAIAPIKey           string
	OpenAIBaseURL          string
	UpstreamTimeout        time.Duration
	DefaultChatModel       string
	DefaultTranscribeModel string

	// Caller credentials.
	AnonKey          string
	SessionJWTSecret string

	RateLimitPerMinute int
}

// Load reads configuration from environment variables or .env file.
func Load() *Config {
	env := loadDotEnv()

	cfg := &Config{
		ServerPort:             getEnv("SERVER_PORT", "8080"),
		Environment:            env,
		OpenAIAPIKey:           getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:          getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		UpstreamTimeout:        getEnvAsDuration("UPSTREAM_TIMEOUT", 5*time.Minute),
		DefaultChatModel:       getEnv("DEFAULT_CHAT_MODEL", "gpt-4.1"),
		DefaultTranscribeModel: getEnv("DEFAULT_TRANSCRIBE_MODEL", "gpt-4o-mini-transcribe"),
		AnonKey:                getEnv("PROXY_ANON_KEY", ""),
		SessionJWTSecret:       getEnv("SESSION_JWT_SECRET", ""),
		RateLimitPerMinute:     getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY is not set; every proxy request will fail with 500")
	}
	return cfg
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Validate enforces the production requirements.
func (c *Config) Validate() error {
	if !c.IsProduction() {
		return nil
	}
	missing := []string{}
	if c.AnonKey == "" {
		missing = append(missing, "PROXY_ANON_KEY")
	}
	if c.SessionJWTSecret == "" {
		missing = append(missing, "SESSION_JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required production environment variables: %v", missing)
	}
	return nil
}

// ClientConfig is the terminal client configuration.
type ClientConfig struct {
	ProxyURL        string
	AnonKey         string
	SessionToken    string
	StoreBackend    string
	StorePath       string
	ChatModel       string
	TranscribeModel string
	RequestTimeout  time.Duration
}

// Store backends understood by the client.
const (
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// LoadClient reads the client configuration from the environment or .env file.
func LoadClient() (*ClientConfig, error) {
	loadDotEnv()

	cfg := &ClientConfig{
		ProxyURL:        getEnv("PROXY_URL", "http://localhost:8080/"),
		AnonKey:         getEnv("PROXY_ANON_KEY", ""),
		SessionToken:    getEnv("SESSION_TOKEN", ""),
		StoreBackend:    strings.ToLower(getEnv("STORE_BACKEND", BackendBolt)),
		StorePath:       getEnv("STORE_PATH", ""),
		ChatModel:       getEnv("CHAT_MODEL", "gpt-4.1"),
		TranscribeModel: getEnv("TRANSCRIBE_MODEL", "gpt-4o-mini-transcribe"),
		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 0),
	}

	switch cfg.StoreBackend {
	case BackendBolt:
		if cfg.StorePath == "" {
			cfg.StorePath = "iakadir.db"
		}
	case BackendSQLite:
		if cfg.StorePath == "" {
			cfg.StorePath = "iakadir.sqlite"
		}
	case BackendMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q (want bolt, sqlite or memory)", cfg.StoreBackend)
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("PROXY_ANON_KEY is required")
	}
	return cfg, nil
}

// loadDotEnv loads .env outside production and returns ENV.
func loadDotEnv() string {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}
	return env
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Warning: could not parse env var %s as duration. Using default value.", key)
	return defaultValue
}
