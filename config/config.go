package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig groups every runtime setting. Values come from the environment,
// optionally seeded from a .env file.
type AppConfig struct {
	HTTPAddr    string
	GinMode     string
	CORSOrigins []string

	DBDriver string
	DBDSN    string

	JWTSecret string
	JWTTTL    time.Duration

	// Location is the zone promotion end dates are extended to end-of-day in.
	Location         *time.Location
	DiscountCacheTTL time.Duration

	// Redis backs the discount cache and login rate limit when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Kafka carries catalog change events between instances when set.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	StorageDriver  string
	UploadDir      string
	PublicBaseURL  string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	LoginRateLimit  int
	LoginRateWindow time.Duration

	AdminEmail    string
	AdminPassword string

	LogDir   string
	LogDebug bool
}

// Load reads .env when present and validates the environment.
func Load() (AppConfig, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return AppConfig{}, fmt.Errorf("load .env: %w", err)
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:          getEnv("DB_DSN", "flower_shop.db"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:   splitCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "flower-shop-catalog"),
		KafkaGroupID:   getEnv("KAFKA_GROUP_ID", "flower-shop-cache"),
		StorageDriver:  strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "flower-shop-images"),
		AdminEmail:     getEnv("ADMIN_EMAIL", ""),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
		LogDir:         getEnv("LOG_DIR", ""),
	}

	if cfg.JWTSecret == "" {
		return AppConfig{}, errors.New("JWT_SECRET must not be empty")
	}

	switch cfg.DBDriver {
	case "sqlite", "mysql", "postgres":
	default:
		return AppConfig{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	ttlHours, err := getEnvInt("JWT_TTL_HOURS", 24)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid JWT_TTL_HOURS: %w", err)
	}
	if ttlHours <= 0 {
		return AppConfig{}, errors.New("JWT_TTL_HOURS must be > 0")
	}
	cfg.JWTTTL = time.Duration(ttlHours) * time.Hour

	cfg.Location = time.Local
	if tz := getEnv("TIMEZONE", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return AppConfig{}, fmt.Errorf("invalid TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}

	cacheSec, err := getEnvInt("DISCOUNT_CACHE_TTL_SEC", 60)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid DISCOUNT_CACHE_TTL_SEC: %w", err)
	}
	if cacheSec < 0 {
		return AppConfig{}, errors.New("DISCOUNT_CACHE_TTL_SEC must be >= 0")
	}
	cfg.DiscountCacheTTL = time.Duration(cacheSec) * time.Second

	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return AppConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	if len(cfg.KafkaBrokers) > 0 {
		if cfg.KafkaTopic == "" {
			return AppConfig{}, errors.New("KAFKA_TOPIC must not be empty")
		}
		if cfg.KafkaGroupID == "" {
			return AppConfig{}, errors.New("KAFKA_GROUP_ID must not be empty")
		}
	}

	switch cfg.StorageDriver {
	case "local":
		if cfg.UploadDir == "" {
			return AppConfig{}, errors.New("UPLOAD_DIR must not be empty")
		}
	case "minio":
		if cfg.MinioEndpoint == "" || cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" {
			return AppConfig{}, errors.New("MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for STORAGE_DRIVER=minio")
		}
	default:
		return AppConfig{}, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.MinioUseSSL, err = getEnvBool("MINIO_USE_SSL", false); err != nil {
		return AppConfig{}, fmt.Errorf("invalid MINIO_USE_SSL: %w", err)
	}

	limit, err := getEnvInt("LOGIN_RATE_LIMIT", 10)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid LOGIN_RATE_LIMIT: %w", err)
	}
	if limit <= 0 {
		return AppConfig{}, errors.New("LOGIN_RATE_LIMIT must be > 0")
	}
	cfg.LoginRateLimit = limit

	windowSec, err := getEnvInt("LOGIN_RATE_WINDOW_SEC", 60)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid LOGIN_RATE_WINDOW_SEC: %w", err)
	}
	if windowSec <= 0 {
		return AppConfig{}, errors.New("LOGIN_RATE_WINDOW_SEC must be > 0")
	}
	cfg.LoginRateWindow = time.Duration(windowSec) * time.Second

	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return AppConfig{}, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	if cfg.LogDebug, err = getEnvBool("LOG_DEBUG", false); err != nil {
		return AppConfig{}, fmt.Errorf("invalid LOG_DEBUG: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
