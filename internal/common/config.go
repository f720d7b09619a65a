package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	LLM      LLMConfig
	Supabase SupabaseConfig
	Ingest   IngestConfig
}

// LLMConfig holds OpenAI-related configuration
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// SupabaseConfig holds Supabase-related configuration
type SupabaseConfig struct {
	URL string
	Key string
}

// IngestConfig holds run behavior for the extraction pipeline
type IngestConfig struct {
	// MaxRetries is the number of additional extraction attempts after the
	// first failure. MaxRetries=2 means up to 3 attempts total.
	MaxRetries int
	RetrySleep time.Duration
	// MetasStagingTable receives metas that could not be linked to a
	// programa. Empty means unlinked metas are logged and dropped.
	MetasStagingTable string
	// MetasPayloadColumn is the JSONB column holding the meta metric values.
	MetasPayloadColumn string
	LogDir             string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 90*time.Second),
		},
		Supabase: SupabaseConfig{
			URL: getEnv("SUPABASE_URL", ""),
			Key: getEnv("SUPABASE_KEY", ""),
		},
		Ingest: IngestConfig{
			MaxRetries:         getEnvAsInt("INGEST_MAX_RETRIES", 2),
			RetrySleep:         getEnvAsSeconds("INGEST_RETRY_SLEEP_SEC", 2500*time.Millisecond),
			MetasStagingTable:  getEnv("METAS_STAGING_TABLE", ""),
			MetasPayloadColumn: getEnv("METAS_PAYLOAD_COLUMN", "Meta_Valores"),
			LogDir:             getEnv("INGEST_LOG_DIR", "logs"),
		},
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	var missing []string
	if c.LLM.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.Supabase.URL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if c.Supabase.Key == "" {
		missing = append(missing, "SUPABASE_KEY")
	}
	if len(missing) > 0 {
		return NewConfigError("missing required environment variables: " + strings.Join(missing, ", "))
	}
	if c.Ingest.MaxRetries < 0 {
		return NewConfigError("INGEST_MAX_RETRIES must be >= 0")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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

// getEnvAsSeconds reads a plain number of seconds, fractions allowed, so
// INGEST_RETRY_SLEEP_SEC=2.5 means 2.5s.
func getEnvAsSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.ParseFloat(value, 64); err == nil && secs >= 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return defaultValue
}
