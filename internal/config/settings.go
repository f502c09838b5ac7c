package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
	logrus "github.com/sirupsen/logrus"
)

// Settings is everything the server reads from the environment.
type Settings struct {
	Port           string
	Store          string // "postgres" or "memory"
	SeedFile       string // optional JSON fixture for the memory store
	DatabaseDSN    string
	IdentityHeader string
	JWTSecret      string // empty disables bearer tokens

	DefaultPageSize    int
	MaxPageSize        int
	QueryTimeout       time.Duration
	EventWindow        time.Duration
	SlowQueryThreshold time.Duration

	LogFile  string
	LogLevel string
}

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Load reads a .env file when present and then the process environment.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, relying on env vars")
	}

	s := Settings{
		Port:           getEnv("PORT", "8080"),
		Store:          getEnv("STORE", StorePostgres),
		SeedFile:       getEnv("SEED_FILE", ""),
		IdentityHeader: getEnv("IDENTITY_HEADER", "X-User-Email"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		LogFile:        getEnv("LOG_FILE", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if s.DefaultPageSize, err = getInt("DEFAULT_PAGE_SIZE", 10); err != nil {
		return Settings{}, err
	}
	if s.MaxPageSize, err = getInt("MAX_PAGE_SIZE", 100); err != nil {
		return Settings{}, err
	}
	if s.DefaultPageSize <= 0 || s.MaxPageSize < s.DefaultPageSize {
		return Settings{}, fmt.Errorf("page sizes must satisfy 0 < DEFAULT_PAGE_SIZE (%d) <= MAX_PAGE_SIZE (%d)", s.DefaultPageSize, s.MaxPageSize)
	}
	if s.QueryTimeout, err = getDuration("QUERY_TIMEOUT", 5*time.Second); err != nil {
		return Settings{}, err
	}
	if s.EventWindow, err = getDuration("EVENT_WINDOW", 24*time.Hour); err != nil {
		return Settings{}, err
	}
	if s.SlowQueryThreshold, err = getDuration("SLOW_QUERY_THRESHOLD", 200*time.Millisecond); err != nil {
		return Settings{}, err
	}

	switch s.Store {
	case StoreMemory:
	case StorePostgres:
		if s.DatabaseDSN, err = databaseDSN(); err != nil {
			return Settings{}, err
		}
	default:
		return Settings{}, fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, s.Store)
	}
	return s, nil
}

// databaseDSN prefers DATABASE_URL and otherwise builds a key/value DSN from
// the DB_* variables.
func databaseDSN() (string, error) {
	if url := getEnv("DATABASE_URL", ""); url != "" {
		dsn, err := pq.ParseURL(url)
		if err != nil {
			return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		return dsn, nil
	}

	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "password")
	dbname := getEnv("DB_NAME", "rides")
	sslmode := getEnv("DB_SSLMODE", "disable")
	timezone := getEnv("DB_TIMEZONE", "UTC")

	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		host, user, password, dbname, port, sslmode, timezone,
	), nil
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
