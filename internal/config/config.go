package config

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	DBURL string

	JWTSecret           string
	JWTAccessTTLMinutes int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTLPEndpoint string

	AllowedOrigins []string

	// When true, POST /posts and POST /authors require a bearer token and
	// created posts take the caller's id as authorId. ProtectDelete gates
	// DELETE /posts/:id separately; it defaults to the open surface.
	ProtectWrites bool
	ProtectDelete bool

	RateLimit         int
	RateWindowSeconds int
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is not set")

func Load() (Config, error) {
	// best effort, env vars win over the file
	_ = godotenv.Load()

	cfg := Config{
		Env:                 getEnv("APP_ENV", "dev"),
		Port:                getEnvInt("PORT", 8080),
		DBURL:               buildDBURL(),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 60),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		OTLPEndpoint:        os.Getenv("OTLP_ENDPOINT"),
		AllowedOrigins:      splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		ProtectWrites:       getEnvBool("AUTH_PROTECT_WRITES", true),
		ProtectDelete:       getEnvBool("AUTH_PROTECT_DELETE", false),
		RateLimit:           getEnvInt("RATE_LIMIT", 60),
		RateWindowSeconds:   getEnvInt("RATE_WINDOW_SECONDS", 60),
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "dev" {
			cfg.JWTSecret = "dev-only-secret"
		} else {
			return Config{}, ErrMissingJWTSecret
		}
	}

	return cfg, nil
}

// DBURL is empty when no DB_HOST is set so the caller can fall back to the
// in-memory store for local bring-up.
func buildDBURL() string {
	host := os.Getenv("DB_HOST")

	if host == "" {
		return ""
	}

	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "blogapi")
	pass := getEnv("DB_PASSWORD", "blogapi")
	name := getEnv("DB_NAME", "blogapi")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
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
			return fallback
		}

		return b
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
