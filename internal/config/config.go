package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	JWTSecret    string // secret used to verify access tokens
	AccessTTLMin int    // lifetime of tokens issued by the `token` command

	HoldTTL       time.Duration // default lifetime of a pending hold
	SweepInterval time.Duration // how often the expiry sweeper runs
	SweepBatch    int           // expired holds loaded per sweeper query
	StoreTimeout  time.Duration // bound on every store call
	RefundTiers   string        // "168:100,48:50"; empty uses the default policy

	LogLevel       string // zap level; empty picks one from Env
	AMQPURL        string // RabbitMQ URL; empty disables event publishing
	EventsConsumer bool   // run the booking.events log consumer in-process
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first when
// present; real environment variables win over it.  Required variables are
// enforced by must() and missing values cause the program to exit.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Env:          must("APP_ENV"),
		Port:         must("APP_PORT"),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),

		HoldTTL:       envDur("HOLD_TTL", 15*time.Minute),
		SweepInterval: envDur("SWEEP_INTERVAL", time.Minute),
		SweepBatch:    envInt("SWEEP_BATCH", 500),
		StoreTimeout:  envDur("STORE_TIMEOUT", 5*time.Second),
		RefundTiers:   os.Getenv("REFUND_TIERS"),

		LogLevel:       os.Getenv("LOG_LEVEL"),
		AMQPURL:        amqpURL(),
		EventsConsumer: envBool("EVENTS_CONSUMER", false),
	}
}

// amqpURL prefers RABBITMQ_URL and falls back to AMQP_URL.
func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
