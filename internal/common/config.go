package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	AI       AIConfig
	Pipeline PipelineConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds the prompt-template store configuration.
// Driver is "pgx" for Postgres or "sqlite" for the embedded default.
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// AIConfig holds generative-model configuration.
type AIConfig struct {
	APIKey         string
	BaseURL        string
	PrimaryModel   string
	FallbackModel  string
	MaxAttempts    int
	BackoffBase    time.Duration
	CallTimeout    time.Duration
	MaxPromptChars int
	Stub           bool
}

// PipelineConfig holds the digitization pipeline switches.
type PipelineConfig struct {
	DataDir           string
	AllowedRoots      []string
	Strict            bool
	ForceInclusao     bool
	ChunkSize         int
	Workers           int
	QueueSize         int
	PreviewChars      int
	InclusoesPrimeiro bool
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    getEnv("DB_DSN", "file:acervo.db?_pragma=busy_timeout(5000)"),
		},
		AI: AIConfig{
			APIKey:         getEnv("AI_API_KEY", ""),
			BaseURL:        getEnv("AI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			PrimaryModel:   getEnv("AI_PRIMARY_MODEL", "gemini-2.5-flash"),
			FallbackModel:  getEnv("AI_FALLBACK_MODEL", "gemini-2.0-flash"),
			MaxAttempts:    getEnvAsInt("AI_MAX_ATTEMPTS", 3),
			BackoffBase:    getEnvAsDuration("AI_BACKOFF_BASE", 500*time.Millisecond),
			CallTimeout:    getEnvAsDuration("AI_CALL_TIMEOUT", 90*time.Second),
			MaxPromptChars: getEnvAsInt("AI_MAX_PROMPT_CHARS", 12000),
			Stub:           getEnvAsBool("AI_STUB", false),
		},
		Pipeline: PipelineConfig{
			DataDir:           getEnv("DATA_DIR", "./data"),
			AllowedRoots:      getEnvAsList("ALLOWED_ROOTS", nil),
			Strict:            getEnvAsBool("STRICT_MODE", false),
			ForceInclusao:     getEnvAsBool("FORCE_INCLUSAO", true),
			ChunkSize:         getEnvAsInt("CHUNK_SIZE", 50),
			Workers:           getEnvAsInt("JOB_WORKERS", 4),
			QueueSize:         getEnvAsInt("JOB_QUEUE_SIZE", 64),
			PreviewChars:      getEnvAsInt("TEXT_PREVIEW_CHARS", 300),
			InclusoesPrimeiro: getEnvAsBool("INCLUSOES_PRIMEIRO", true),
		},
	}
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.AI.APIKey == "" && !c.AI.Stub {
		return NewAppError("CONFIG_ERROR", "AI_API_KEY is required unless AI_STUB=true", ErrInvalidInput)
	}
	if c.Pipeline.ChunkSize < 1 {
		return NewAppError("CONFIG_ERROR", "CHUNK_SIZE must be >= 1", ErrInvalidInput)
	}
	if c.Database.Driver != "pgx" && c.Database.Driver != "sqlite" {
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be pgx or sqlite", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
