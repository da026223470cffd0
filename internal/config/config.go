package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string
	// DBConfigured is false when DBURL was built purely from defaults.
	DBConfigured bool
	// DBMaxConns caps the pgx pool.
	DBMaxConns     int
	MigrateOnStart bool

	JWTSecret string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	AdminEmail    string
	AdminPassword string
	AdminName     string

	OTelEnabled  bool
	OTelEndpoint string

	CORSAllowedOrigins []string
	SignupRatePerMin   int
	BcryptCost         int

	// DisplayLocation is the zone public timestamps are rendered in.
	DisplayLocation *time.Location
}

// Load reads the environment, after merging an optional .env file.
func Load() Config {
	// a missing .env is fine; real env vars always win
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 8080)
	dbURL := getEnv("DATABASE_URL", "")

	if dbURL == "" {
		dbURL = buildDBURL()
	}

	return Config{
		Env:                env,
		Port:               port,
		DBURL:              dbURL,
		DBConfigured:       os.Getenv("DATABASE_URL") != "" || os.Getenv("DB_HOST") != "",
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 5),
		MigrateOnStart:     getEnvBool("MIGRATE_ON_START", true),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		CacheTTL:           time.Duration(getEnvInt("CACHE_TTL_SECONDS", 300)) * time.Second,
		AdminEmail:         getEnv("ADMIN_EMAIL", ""),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		AdminName:          getEnv("ADMIN_NAME", "Administrator"),
		OTelEnabled:        getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		SignupRatePerMin:   getEnvInt("SIGNUP_RATE_PER_MIN", 10),
		BcryptCost:         getEnvInt("BCRYPT_COST", 10),
		DisplayLocation:    loadLocation(getEnv("DISPLAY_TZ", "")),
	}
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required outside dev")

func (c Config) Validate() error {
	if c.Env != "dev" && c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}

	return nil
}

// UseMemoryStore reports whether users live in process: dev with no database
// configured.
func (c Config) UseMemoryStore() bool {
	return c.Env == "dev" && !c.DBConfigured
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "accounthub")
	pass := getEnv("DB_PASSWORD", "accounthub")
	name := getEnv("DB_NAME", "accounthub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)

		if err != nil {
			slog.Warn("invalid boolean env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return b
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string

	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}

func loadLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("unknown DISPLAY_TZ, using local time", "value", name, "err", err)
		return time.Local
	}

	return loc
}
