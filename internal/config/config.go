package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Vector     VectorConfig
	LLM        LLMConfig
	Bandit     BanditConfig
	Clusterer  ClustererConfig
	Decision   DecisionConfig
	Query      QueryConfig
	Log        LogConfig
}

// ServerConfig holds process-level configuration for the demo entry point
type ServerConfig struct {
	Env string
}

// DatabaseConfig holds database configuration for the relational store
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration for the query-engine cache
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// VectorConfig holds configuration for the sqlite-vec backed vector index
type VectorConfig struct {
	Path string
	Dim  int
}

// LLMConfig holds configuration for the feedback-parsing LLM adapter
type LLMConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// BanditConfig holds configuration for the warm-started FG-TS bandit core
type BanditConfig struct {
	WarmScale float64
	LambdaFG  float64
	Seed      int64
}

// ClustererConfig holds configuration for the candidate clusterer
type ClustererConfig struct {
	KMin  int
	KMax  int
	NInit int
	Seed  int64
}

// DecisionConfig holds configuration for the phone-screen decision engine
type DecisionConfig struct {
	SimilarityThreshold    float64
	ConfidenceThreshold    float64
	MustHaveStrictness     float64
}

// QueryConfig holds configuration for the hybrid query engine
type QueryConfig struct {
	HybridSearchDeadline time.Duration
	FilterCacheTTL       time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Env: getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "talentgraph"),
			Password:        getEnv("DB_PASSWORD", "talentgraph"),
			DBName:          getEnv("DB_NAME", "talentgraph"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Vector: VectorConfig{
			Path: getEnv("VECTOR_DB_PATH", "talentgraph_vectors.db"),
			Dim:  getEnvAsInt("VECTOR_DIM", 768),
		},
		LLM: LLMConfig{
			APIKey:  getEnv("ANTHROPIC_API_KEY", ""),
			Model:   getEnv("LLM_MODEL", "claude-3-5-haiku-20241022"),
			Timeout: getEnvAsDuration("LLM_TIMEOUT", 5*time.Second),
		},
		Bandit: BanditConfig{
			WarmScale: getEnvAsFloat("BANDIT_WARM_SCALE", 8.0),
			LambdaFG:  getEnvAsFloat("BANDIT_LAMBDA_FG", 1.0),
			Seed:      int64(getEnvAsInt("BANDIT_SEED", 42)),
		},
		Clusterer: ClustererConfig{
			KMin:  getEnvAsInt("CLUSTERER_K_MIN", 5),
			KMax:  getEnvAsInt("CLUSTERER_K_MAX", 10),
			NInit: getEnvAsInt("CLUSTERER_N_INIT", 10),
			Seed:  int64(getEnvAsInt("CLUSTERER_SEED", 42)),
		},
		Decision: DecisionConfig{
			SimilarityThreshold: getEnvAsFloat("DECISION_SIMILARITY_THRESHOLD", 0.65),
			ConfidenceThreshold: getEnvAsFloat("DECISION_CONFIDENCE_THRESHOLD", 0.70),
			MustHaveStrictness:  getEnvAsFloat("DECISION_MUST_HAVE_STRICTNESS", 1.0),
		},
		Query: QueryConfig{
			HybridSearchDeadline: getEnvAsDuration("HYBRID_SEARCH_DEADLINE", 3*time.Second),
			FilterCacheTTL:       getEnvAsDuration("FILTER_CACHE_TTL", 30*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if cfg.Vector.Dim <= 0 {
		return nil, fmt.Errorf("VECTOR_DIM must be positive")
	}
	if cfg.Clusterer.KMin <= 0 || cfg.Clusterer.KMax < cfg.Clusterer.KMin {
		return nil, fmt.Errorf("CLUSTERER_K_MIN/CLUSTERER_K_MAX must satisfy 0 < k_min <= k_max")
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Addr returns the Redis address
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions

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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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
