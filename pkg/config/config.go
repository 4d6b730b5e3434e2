package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret signs sessions when JWT_SECRET is unset. It is only
// accepted outside production.
const DefaultJWTSecret = "supersecretjwtkey"

// ErrInsecureJWTSecret is returned by Validate for a production config that
// still signs sessions with the built-in secret.
var ErrInsecureJWTSecret = errors.New("JWT_SECRET must be set to a non-default value when APP_ENV=production")

// Config aggregates runtime configuration for the site.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Media    MediaConfig
	Logger   LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name        string
	Env         string
	Port        string
	CSRFEnabled bool
}

// DatabaseConfig selects the gorm dialect and connection pool settings.
type DatabaseConfig struct {
	Driver       string
	DSN          string
	AutoMigrate  bool
	MaxOpenConns int
	MaxIdleConns int
}

// AuthConfig holds session and password hashing parameters.
type AuthConfig struct {
	JWTSecret       string
	SessionTTLHours int
	BcryptCost      int
	CookieSecure    bool
}

// MediaConfig describes where uploaded images live.
type MediaConfig struct {
	Root          string
	URLPrefix     string
	ThumbnailSize int
	MaxUploadMB   int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from the environment, loading a .env file first if one exists.
func Load() *Config {
	_ = godotenv.Load()

	dsn := getEnv("DB_DSN", "")
	if dsn == "" {
		dsn = getEnv("POSTGRES_CONN_STR", "host=localhost user=postgres dbname=litreview port=5432 sslmode=disable")
	}

	return &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "litreview"),
			Env:         getEnv("APP_ENV", "development"),
			Port:        getEnv("PORT", "8080"),
			CSRFEnabled: getEnvAsBool("CSRF_ENABLED", true),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			DSN:          dsn,
			AutoMigrate:  getEnvAsBool("DB_AUTO_MIGRATE", true),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", DefaultJWTSecret),
			SessionTTLHours: getEnvAsInt("SESSION_TTL_HOURS", 72),
			BcryptCost:      getEnvAsInt("BCRYPT_COST", 12),
			CookieSecure:    getEnvAsBool("COOKIE_SECURE", false),
		},
		Media: MediaConfig{
			Root:          getEnv("MEDIA_ROOT", "media"),
			URLPrefix:     getEnv("MEDIA_URL", "/media"),
			ThumbnailSize: getEnvAsInt("THUMBNAIL_SIZE", 200),
			MaxUploadMB:   getEnvAsInt("MAX_UPLOAD_MB", 10),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
	}
}

// Validate rejects settings the server must not start with.
func (c *Config) Validate() error {
	if strings.EqualFold(c.App.Env, "production") {
		secret := strings.TrimSpace(c.Auth.JWTSecret)
		if secret == "" || secret == DefaultJWTSecret {
			return ErrInsecureJWTSecret
		}
	}
	return nil
}

// SessionTTL returns how long an issued session token stays valid.
func (a AuthConfig) SessionTTL() time.Duration {
	if a.SessionTTLHours <= 0 {
		return 72 * time.Hour
	}
	return time.Duration(a.SessionTTLHours) * time.Hour
}

// MaxUploadBytes returns the per-request upload ceiling in bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(m.MaxUploadMB) << 20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
