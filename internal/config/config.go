package config // package config loads application configuration from environment variables

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends understood by StoreConfig.Backend.
const (
	BackendMySQL  = "mysql"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Secrets (SMTP credentials, generation API key)
// are supplied externally and never embedded.
type Config struct {
	Env              string   // application environment (e.g. "dev", "prod")
	Port             string   // HTTP port to listen on
	LogLevel         string   // debug, info, warn, error
	Store            StoreConfig
	JWTSecret        string   // secret used to sign JWTs
	AccessTTLMin     int      // access token time‑to‑live in minutes
	RefreshTTLDays   int      // refresh token time‑to‑live in days
	BcryptCost       int      // bcrypt cost for password hashing
	AdminSignupCode  string   // code required to create an admin account; empty disables admin signup
	BookingStrict    bool     // run the booking conflict check and insert in one transaction
	PresenceBackend  string   // sql or redis
	CORSOrigins      []string // allowed origins for the public endpoints
	PlaceholdersPath string   // YAML file with placeholder event templates
	AMQPURL          string   // RabbitMQ URL; empty disables the broker
	AuditLogPath     string   // file the event consumer appends to
	NotifyBookings   bool     // email users when their booking is confirmed
	SMTP             SMTPConfig
	GenAI            GenAIConfig
}

// StoreConfig selects and parameterizes the repository backend.
type StoreConfig struct {
	Backend    string // mysql or sqlite
	SQLitePath string // database file for the sqlite backend
	DBUser     string
	DBPass     string
	DBHost     string
	DBPort     string
	DBName     string
}

// SMTPConfig describes the relay used by the email dispatcher.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// GenAIConfig configures the suggestion dispatcher.
type GenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Load reads configuration values from the environment (after merging an
// optional .env file) and returns a Config.  Required variables are
// enforced by must() and missing values cause the program to exit.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}

	cfg := Config{
		Env:              envStr("APP_ENV", "dev"),
		Port:             envStr("APP_PORT", "8080"),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		JWTSecret:        must("JWT_SECRET"),
		AccessTTLMin:     envInt("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays:   envInt("REFRESH_TOKEN_TTL_DAYS", 30),
		BcryptCost:       envInt("BCRYPT_COST", 10),
		AdminSignupCode:  os.Getenv("ADMIN_SIGNUP_CODE"),
		BookingStrict:    envBool("BOOKING_STRICT", false),
		PresenceBackend:  strings.ToLower(envStr("PRESENCE_BACKEND", "sql")),
		CORSOrigins:      splitList(envStr("CORS_ORIGINS", "*")),
		PlaceholdersPath: os.Getenv("PLACEHOLDERS_PATH"),
		AMQPURL:          amqpURL(),
		AuditLogPath:     envStr("AUDIT_LOG_PATH", "logs/audit.log"),
		NotifyBookings:   envBool("NOTIFY_BOOKINGS", false),
		SMTP: SMTPConfig{
			Host: os.Getenv("SMTP_HOST"),
			Port: envInt("SMTP_PORT", 587),
			User: os.Getenv("SMTP_USER"),
			Pass: os.Getenv("SMTP_PASS"),
			From: os.Getenv("SMTP_FROM"),
		},
		GenAI: GenAIConfig{
			APIKey:  firstEnv("GENAI_API_KEY", "GEMINI_API_KEY"),
			Model:   envStr("GENAI_MODEL", "gemini-2.5-flash"),
			BaseURL: envStr("GENAI_BASE_URL", "https://generativelanguage.googleapis.com"),
			Timeout: envDur("GENAI_TIMEOUT", 30*time.Second),
		},
	}
	cfg.Store = loadStore()
	return cfg
}

func loadStore() StoreConfig {
	sc := StoreConfig{
		Backend:    strings.ToLower(envStr("STORE_BACKEND", BackendSQLite)),
		SQLitePath: envStr("SQLITE_PATH", "data/hub.db"),
	}
	if sc.Backend == BackendMySQL {
		sc.DBUser = must("DB_USER")
		sc.DBPass = os.Getenv("DB_PASS") // empty allowed
		sc.DBHost = must("DB_HOST")
		sc.DBPort = envStr("DB_PORT", "3306")
		sc.DBName = must("DB_NAME")
	}
	return sc
}

// amqpURL keeps the RABBITMQ_URL / AMQP_URL aliases.  Unlike the old
// publisher there is no implicit localhost default: an empty value turns
// the broker off.
func amqpURL() string {
	return firstEnv("RABBITMQ_URL", "AMQP_URL")
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

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" { return d }
	switch v {
	case "1","true","TRUE","True","yes","YES","on","ON": return true
	case "0","false","FALSE","False","no","NO","off","OFF": return false
	}
	return d
}
func envInt(k string, d int) int {
	v := os.Getenv(k); if v == "" { return d }
	if n, err := strconv.Atoi(v); err == nil { return n }
	return d
}
func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k); if v == "" { return d }
	if dur, err := time.ParseDuration(v); err == nil { return dur }
	return d
}
