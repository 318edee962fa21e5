package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
	}

	// Database configuration (primary entity store)
	Database struct {
		Path     string
		MaxConns int
		Timeout  time.Duration
	}

	// Legacy flat-store blobs consumed by the one-time startup migration
	Legacy struct {
		CharactersPath string
		StoriesPath    string
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
		MaxBodySize    int64
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Generation service (LLM proxy) settings
	Generation struct {
		Endpoint    string
		APIKey      string
		Model       string
		MaxTokens   int
		Temperature float64
		Timeout     time.Duration
	}

	// Feature limits
	Features struct {
		MaxImportBytes   int64
		MaxCastPerStory  int
		MaxIntroMessages int
	}

	// Cache settings
	Cache struct {
		Enabled     bool
		TTL         time.Duration
		MaxSize     int
		PurgeWindow time.Duration
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "8081")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)

		// Database config
		instance.Database.Path = getEnvString("DB_PATH", "data/mastercreator.db")
		instance.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 4)
		instance.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)

		// Legacy store blobs
		instance.Legacy.CharactersPath = getEnvString("LEGACY_CHARACTERS_PATH", "data/characters.legacy.json")
		instance.Legacy.StoriesPath = getEnvString("LEGACY_STORIES_PATH", "data/stories.legacy.json")

		// Security config
		instance.Security.RateLimit = float64(getEnvInt("RATE_LIMIT", 20))
		instance.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 40)
		instance.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})
		instance.Security.MaxBodySize = getEnvInt64("MAX_BODY_SIZE", 10<<20) // 10MB

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")

		// Generation service config
		instance.Generation.Endpoint = getEnvString("GENERATION_ENDPOINT", "")
		instance.Generation.APIKey = getEnvString("GENERATION_API_KEY", "")
		instance.Generation.Model = getEnvString("GENERATION_MODEL", "")
		instance.Generation.MaxTokens = getEnvInt("GENERATION_MAX_TOKENS", 512)
		instance.Generation.Temperature = getEnvFloat("GENERATION_TEMPERATURE", 0.9)
		instance.Generation.Timeout = getEnvDuration("GENERATION_TIMEOUT", 60*time.Second)

		// Feature limits
		instance.Features.MaxImportBytes = getEnvInt64("MAX_IMPORT_BYTES", 5<<20) // 5MB
		instance.Features.MaxCastPerStory = getEnvInt("MAX_CAST_PER_STORY", 50)
		instance.Features.MaxIntroMessages = getEnvInt("MAX_INTRO_MESSAGES", 20)

		// Cache settings
		instance.Cache.Enabled = getEnvBool("CACHE_ENABLED", true)
		instance.Cache.TTL = getEnvDuration("CACHE_TTL", 5*time.Minute)
		instance.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 1000)
		instance.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
