package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration for the scheduler daemon and the
// CLI trigger tool. Everything is loaded from the environment (plus an
// optional .env file for local development).
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTLPEndpoint string
	LogLevel     string
	LogFormat    string

	ExportsDir string

	// PosBaseURL is the POS vendor API's base URL. Each store carries its
	// own API key, supplied per request rather than here.
	PosBaseURL string

	// OdooSyncEnabled toggles the optional odoo-sync queue (§4.8). Its
	// processor always stays a stub: the ERP write-back itself is an
	// external collaborator, out of scope for this service.
	OdooSyncEnabled bool

	// JobRunCompleteCap and JobRunFailedCap bound how many completed and
	// failed Job Run Ledger rows are retained per queue (§4.8); the
	// oldest rows beyond the cap are evicted after every run.
	JobRunCompleteCap int
	JobRunFailedCap   int
}

// Load reads configuration from the environment, applying defaults that
// match a single-box local/dev deployment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "glsync"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		DBType:            getenv("DB_TYPE", "postgres"),
		DBHost:            getenv("DB_HOST", "localhost"),
		DBPort:            getenv("DB_PORT", "5432"),
		DBName:            getenv("DB_NAME", "glsync"),
		DBUser:            getenv("DB_USER", "postgres"),
		DBPassword:        getenv("DB_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DB_SSL_MODE", "disable"),
		DBMaxIdleConn:     getenvInt("DB_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DB_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		DBConnMaxIdleTime: getenvDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvInt("REDIS_DB", 0),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFormat:    getenv("LOG_FORMAT", "json"),

		ExportsDir: getenv("EXPORTS_DIR", "./exports"),
		PosBaseURL: getenv("POS_BASE_URL", "https://api.pos-vendor.example.com"),

		OdooSyncEnabled: getenvBool("ODOO_SYNC_ENABLED", false),

		JobRunCompleteCap: getenvInt("JOB_RUN_COMPLETE_CAP", 50),
		JobRunFailedCap:   getenvInt("JOB_RUN_FAILED_CAP", 50),
	}
}

// Module provides Config to the fx graph.
var Module = fx.Module("config",
	fx.Provide(Load),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
