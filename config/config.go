package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/HSouheill/catalog_backend/logger"
)

type Config struct {
	Env      string
	Port     string
	Store    string // mongo or memory
	Mongo    MongoConfig
	Redis    RedisConfig
	Media    MediaPolicy
	Render   RenderConfig
	Mutation MutationConfig
	CORS     []string
	Log      logger.LogConfig
}

type MongoConfig struct {
	URI     string
	DBName  string
	Timeout time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// MediaPolicy drives the system media field of every composed schema.
type MediaPolicy struct {
	MaxCount     int
	MaxSizeMB    int
	AllowedTypes []string
}

type RenderConfig struct {
	CacheTTL time.Duration
}

// MutationConfig bounds the retries of non-transactional tree mutations.
type MutationConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxElapsed      time.Duration
}

// LoadEnv reads configuration from the environment. Call godotenv.Load first
// to pick up a .env file.
func LoadEnv() *Config {
	env := getEnv("ENV", "development")

	mongoURI := getEnv("MONGO_URI", "")
	if mongoURI == "" {
		mongoURI = getEnv("MONGODB_URI", "mongodb://localhost:27017")
	}

	logCfg := logger.DefaultConfig(env)
	logCfg.Level = strings.ToLower(getEnv("LOG_LEVEL", logCfg.Level))
	logCfg.Format = strings.ToLower(getEnv("LOG_FORMAT", logCfg.Format))
	logCfg.Output = strings.ToLower(getEnv("LOG_OUTPUT", logCfg.Output))
	logCfg.Path = getEnv("LOG_PATH", logCfg.Path)
	logCfg.MaxSize = getEnvInt("LOG_MAX_SIZE", logCfg.MaxSize)
	logCfg.MaxBackups = getEnvInt("LOG_MAX_BACKUPS", logCfg.MaxBackups)
	logCfg.MaxAge = getEnvInt("LOG_MAX_AGE", logCfg.MaxAge)
	logCfg.Compress = getEnvBool("LOG_COMPRESS", logCfg.Compress)

	return &Config{
		Env:   env,
		Port:  getEnv("PORT", "8080"),
		Store: strings.ToLower(getEnv("STORE", "mongo")),
		Mongo: MongoConfig{
			URI:     mongoURI,
			DBName:  getEnv("DB_NAME", "catalog"),
			Timeout: time.Duration(getEnvInt("MONGO_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Media: MediaPolicy{
			MaxCount:     getEnvInt("MEDIA_MAX_IMAGES", 8),
			MaxSizeMB:    getEnvInt("MEDIA_MAX_SIZE_MB", 5),
			AllowedTypes: getEnvSlice("MEDIA_ALLOWED_TYPES", []string{"image/jpeg", "image/png", "image/webp"}),
		},
		Render: RenderConfig{
			CacheTTL: time.Duration(getEnvInt("RENDER_CACHE_TTL_SECONDS", 600)) * time.Second,
		},
		Mutation: MutationConfig{
			MaxAttempts:     getEnvInt("MUTATION_RETRY_ATTEMPTS", 5),
			InitialInterval: time.Duration(getEnvInt("MUTATION_RETRY_INITIAL_MS", 100)) * time.Millisecond,
			MaxElapsed:      time.Duration(getEnvInt("MUTATION_RETRY_MAX_ELAPSED_MS", 10000)) * time.Millisecond,
		},
		CORS: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		Log:  logCfg,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
