// Package config loads application configuration from environment
// variables. A .env file in the working directory is applied first when
// present, so local development does not need exported variables.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Database fields are only required when the
// MySQL store driver is selected.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	StoreDriver  string // snapshot store: "redis" (default) or "mysql"
	DBUser       string // database username (mysql driver only)
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	JWTSecret    string // secret used to sign operator JWTs
	AccessTTLMin int    // access token time-to-live in minutes
	OperatorUser string // operator login name
	OperatorHash string // bcrypt hash of the operator password
	EventsOn     bool   // publish booking.changed events to RabbitMQ
}

// Load reads configuration values from the environment and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	// Missing .env is fine; real deployments export variables directly.
	_ = godotenv.Load()

	cfg := Config{
		Env:          must("APP_ENV"),
		Port:         must("APP_PORT"),
		StoreDriver:  envOr("STORE_DRIVER", "redis"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"),
		OperatorUser: must("OPERATOR_USER"),
		OperatorHash: must("OPERATOR_PASSWORD_HASH"),
		EventsOn:     envOr("EVENTS_ENABLED", "true") == "true",
	}
	if cfg.StoreDriver == "mysql" {
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an
// integer. If conversion fails, the application logs a fatal error and
// exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
