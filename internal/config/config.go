package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/arslanaka/GDPR-Explainer/internal/pkg/logger"
)

type Config struct {
	Environment string

	HTTP   HTTPConfig
	Redis  RedisConfig
	Neo4j  Neo4jConfig
	Qdrant QdrantConfig
	LLM    LLMConfig
	Cache  CacheConfig
	Log    logger.LogConfig
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RedisConfig struct {
	Host         string
	Port         int
	DB           int
	Password     string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Neo4jConfig struct {
	URI      string
	Username string
	Password string
}

type QdrantConfig struct {
	URL            string
	Collection     string
	RequestTimeout time.Duration
}

type LLMConfig struct {
	DefaultProvider string
	OpenAIAPIKey    string
	OpenAIModel     string
	EmbeddingModel  string
	GeminiAPIKey    string
	GeminiModel     string
	RequestTimeout  time.Duration
}

// CacheConfig holds the per-namespace default TTLs.
type CacheConfig struct {
	ChatTTL        time.Duration
	SearchTTL      time.Duration
	ArticleTTL     time.Duration
	ExplanationTTL time.Duration
}

func Load() *Config {
	// .env is optional outside local development
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		HTTP: HTTPConfig{
			Port:         getEnv("PORT", "8000"),
			ReadTimeout:  getDurationEnv("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT", 300*time.Second),
			IdleTimeout:  getDurationEnv("HTTP_IDLE_TIMEOUT", 120*time.Second),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getIntEnv("REDIS_PORT", 6379),
			DB:           getIntEnv("REDIS_DB", 0),
			Password:     os.Getenv("REDIS_PASSWORD"),
			PoolSize:     getIntEnv("REDIS_MAX_CONNECTIONS", 50),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 5*time.Second),
		},
		Neo4j: Neo4jConfig{
			URI:      getEnv("NEO4J_URI", "bolt://localhost:7687"),
			Username: getEnv("NEO4J_USERNAME", "neo4j"),
			Password: getEnv("NEO4J_PASSWORD", "password"),
		},
		Qdrant: QdrantConfig{
			URL:            getEnv("QDRANT_URL", "http://localhost:6333"),
			Collection:     getEnv("QDRANT_COLLECTION", "gdpr_articles"),
			RequestTimeout: getDurationEnv("QDRANT_REQUEST_TIMEOUT", 10*time.Second),
		},
		LLM: LLMConfig{
			DefaultProvider: getEnv("LLM_PROVIDER", "openai"),
			OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4-turbo-preview"),
			EmbeddingModel:  getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			GeminiAPIKey:    os.Getenv("GOOGLE_API_KEY"),
			GeminiModel:     getEnv("GEMINI_MODEL", "gemini-pro"),
			RequestTimeout:  getDurationEnv("LLM_REQUEST_TIMEOUT", 120*time.Second),
		},
		Cache: CacheConfig{
			ChatTTL:        getTTLEnv("CACHE_TTL_CHAT", 3600),
			SearchTTL:      getTTLEnv("CACHE_TTL_SEARCH", 7200),
			ArticleTTL:     getTTLEnv("CACHE_TTL_ARTICLE", 86400),
			ExplanationTTL: getTTLEnv("CACHE_TTL_EXPLANATION", 43200),
		},
		Log: logger.LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Format:   getEnv("LOG_FORMAT", "json"),
			Output:   getEnv("LOG_OUTPUT", "stdout"),
			FilePath: getEnv("LOG_FILE_PATH", "logs/gdpr-explainer.log"),
		},
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("Error parsing %s: %v", key, err)
	}
	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("Error parsing %s: %v", key, err)
	}
	return parsed
}

// TTLs are configured in whole seconds, matching the cache store.
func getTTLEnv(key string, fallbackSeconds int) time.Duration {
	return time.Duration(getIntEnv(key, fallbackSeconds)) * time.Second
}
