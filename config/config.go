package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Session stores.
const (
	SessionRedis  = "redis"
	SessionMemory = "memory"
)

// DefaultSessionSecret signs session cookies when SESSION_SECRET is unset. It is
// public, so anyone can forge cookies for a server that runs with it.
const DefaultSessionSecret = "change-me-in-production"

// Upload backends.
const (
	UploadDisk = "disk"
	UploadS3   = "s3"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Upload   UploadConfig
	AWS      AWSConfig
	// DefaultLocale is given to organizations created during admin signup.
	DefaultLocale string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:3000,http://localhost:3001)
	MaxBodyMB          int
}

// MaxBodyBytes returns the request body cap in bytes.
func (c ServerConfig) MaxBodyBytes() int64 {
	return int64(c.MaxBodyMB) << 20
}

// StoreConfig selects the document store driver.
type StoreConfig struct {
	Driver string // postgres or memory
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/eventboard?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SessionConfig holds login session settings.
type SessionConfig struct {
	Store         string // redis or memory
	Secret        string
	CookieName    string
	CookieSecure  bool
	TTLHours      int
	PurgeInterval time.Duration // memory store only
}

// InsecureSecret reports whether cookies are signed with DefaultSessionSecret.
func (c SessionConfig) InsecureSecret() bool {
	return c.Secret == DefaultSessionSecret
}

// TTL returns the session lifetime.
func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// UploadConfig selects where uploaded images go.
type UploadConfig struct {
	Backend string // disk or s3
	Dir     string // disk backend root, served under PublicPath
	// PublicPath is the URL prefix disk uploads are served from.
	PublicPath string
}

// AWSConfig holds AWS credentials and the images bucket.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ImagesBucket    string
	PublicBaseURL   string
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			MaxBodyMB:          getEnvInt("MAX_BODY_MB", 50),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", StorePostgres)),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "eventboard"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 0)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 0)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Session: SessionConfig{
			Store:         strings.ToLower(getEnv("SESSION_STORE", SessionRedis)),
			Secret:        getEnv("SESSION_SECRET", DefaultSessionSecret),
			CookieName:    getEnv("SESSION_COOKIE_NAME", "sid"),
			CookieSecure:  getEnvBool("SESSION_COOKIE_SECURE", false),
			TTLHours:      getEnvInt("SESSION_TTL_HOURS", 24),
			PurgeInterval: time.Duration(getEnvInt("SESSION_PURGE_INTERVAL_MIN", 1)) * time.Minute,
		},
		Upload: UploadConfig{
			Backend:    strings.ToLower(getEnv("UPLOAD_BACKEND", UploadDisk)),
			Dir:        getEnv("UPLOAD_DIR", "data/uploads"),
			PublicPath: getEnv("UPLOAD_PUBLIC_PATH", "/uploads/files"),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ImagesBucket:    getEnv("AWS_S3_IMAGES_BUCKET", ""),
			PublicBaseURL:   getEnv("AWS_S3_PUBLIC_BASE_URL", ""),
		},
		DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store.Driver)
	}
	switch c.Session.Store {
	case SessionRedis, SessionMemory:
	default:
		return fmt.Errorf("SESSION_STORE must be %q or %q, got %q", SessionRedis, SessionMemory, c.Session.Store)
	}
	switch c.Upload.Backend {
	case UploadDisk, UploadS3:
	default:
		return fmt.Errorf("UPLOAD_BACKEND must be %q or %q, got %q", UploadDisk, UploadS3, c.Upload.Backend)
	}
	if c.Upload.Backend == UploadS3 && c.AWS.ImagesBucket == "" {
		return fmt.Errorf("AWS_S3_IMAGES_BUCKET is required when UPLOAD_BACKEND=%s", UploadS3)
	}
	if c.Session.TTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	if len(c.DefaultLocale) > 2 {
		return fmt.Errorf("DEFAULT_LOCALE must be at most 2 characters, got %q", c.DefaultLocale)
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
