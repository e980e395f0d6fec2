package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Keys     APIKeys
	Ai       AIConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	FeedLogFilePath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	LocalStorePath     string
	ConversationTTL    time.Duration
}

type DatabaseConfig struct {
	Connection  string
	AutoMigrate bool
}

type AuthConfig struct {
	// SharedPassword is compared directly; SharedPasswordHash (bcrypt) wins when both are set.
	SharedPassword     string
	SharedPasswordHash string
	JWTSecret          string
	TokenTTL           time.Duration
}

type APIKeys struct {
	Grok         string
	GooglePlaces string
}

type AIConfig struct {
	LLMProvider   string // "grok" or "ollama"
	LLMModel      string
	GrokBaseURL   string
	OllamaBaseURL string
	Timeout       time.Duration
	EnableSearch  bool
	Temperature   float64
	MaxTokens     int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			FeedLogFilePath:    getEnv("FEED_LOG_FILE_PATH", "logs/feed.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3001"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			LocalStorePath:     getEnv("LOCAL_STORE_PATH", "data/friendlist_items.gob"),
			ConversationTTL:    getEnvAsDuration("CONVERSATION_TTL", 2*time.Hour),
		},
		Database: DatabaseConfig{
			Connection:  getEnv("DB_CONNECTION_STRING", ""),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Auth: AuthConfig{
			SharedPassword:     getEnv("SHARED_PASSWORD", ""),
			SharedPasswordHash: getEnv("SHARED_PASSWORD_HASH", ""),
			JWTSecret:          getEnv("JWT_SECRET", ""),
			TokenTTL:           getEnvAsDuration("SESSION_TTL", 30*24*time.Hour),
		},
		Keys: APIKeys{
			Grok:         getEnv("GROK_API_KEY", ""),
			GooglePlaces: getEnv("GOOGLE_PLACES_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "grok"),
			LLMModel:      getEnv("LLM_MODEL", "grok-4-1-fast-non-reasoning"),
			GrokBaseURL:   getEnv("GROK_BASE_URL", "https://api.x.ai/v1"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			EnableSearch:  getEnvAsBool("LLM_ENABLE_SEARCH", true),
			Temperature:   getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:     getEnvAsInt("LLM_MAX_TOKENS", 2048),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or bare seconds ("90").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
