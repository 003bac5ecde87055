package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultAlgorithm      = "HS256"
	defaultTokenTTLMinute = 30
	defaultPort           = "8080"
)

// Config is read once at startup and never mutated afterwards.
type Config struct {
	DatabaseURL string
	Port        string
	AppEnv      string
	Release     string
	SentryDSN   string

	SecretKey  string
	Algorithm  string
	TokenTTL   time.Duration
	BcryptCost int

	AdminUsername string
	AdminPassword string

	RunMigrations bool

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
}

// Load reads the process environment. When loadDotEnv is set, a .env file in
// the working directory is merged in first without overriding real variables.
func Load(loadDotEnv bool) (Config, error) {
	if loadDotEnv {
		_ = godotenv.Load()
	}

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return Config{}, err
	}
	secretKey, err := mustEnv("SECRET_KEY")
	if err != nil {
		return Config{}, err
	}

	return Config{
		DatabaseURL: databaseURL,
		Port:        envOrDefault("PORT", defaultPort),
		AppEnv:      envOrDefault("APP_ENV", "development"),
		Release:     envOrDefault("APP_RELEASE", ""),
		SentryDSN:   envOrDefault("SENTRY_DSN", ""),

		SecretKey:  secretKey,
		Algorithm:  envOrDefault("ALGORITHM", defaultAlgorithm),
		TokenTTL:   envMinutesOrDefault("ACCESS_TOKEN_EXPIRE_MINUTES", defaultTokenTTLMinute),
		BcryptCost: envIntOrDefault("BCRYPT_COST", bcrypt.DefaultCost),

		AdminUsername: strings.TrimSpace(os.Getenv("ADMIN_USERNAME")),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		RunMigrations: EnvBoolOrDefault("RUN_MIGRATIONS_ON_STARTUP", true),

		DBMaxOpenConns:    envIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:    envIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30),
		DBConnMaxIdleTime: envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10),
	}, nil
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
