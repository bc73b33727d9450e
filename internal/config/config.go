package config // package config loads application configuration from environment variables

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/student-task-portal/internal/utils"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string        // application environment (development, production)
	Port           string        // HTTP port to listen on
	DBUser         string        // database username
	DBPass         string        // database password (optional)
	DBHost         string        // database host address
	DBPort         string        // database port number
	DBName         string        // database name
	DBMigrate      bool          // apply embedded migrations at startup
	JWTSecret      string        // secret used to sign session tokens
	JWTExpiresIn   time.Duration // exp claim embedded in each token
	SessionTTL     time.Duration // lifetime of the session row backing a token
	BcryptCost     int           // bcrypt cost for password hashing
	LogLevel       string        // logrus level name
	LogFormat      string        // "json" or "text"
	MetricsEnabled bool          // expose /metrics
}

// Load reads configuration values from the environment, after merging a
// .env file when one exists.  Required variables are enforced by must()
// and missing values cause the program to exit with a fatal log message.
func Load() Config {
	LoadDotEnv()

	cost := envInt("BCRYPT_COST", utils.MinBcryptCost)
	if cost < utils.MinBcryptCost {
		cost = utils.MinBcryptCost
	}
	level, format := LoadLogConfig()
	return Config{
		Env:            envStr("APP_ENV", "development"),
		Port:           envStr("APP_PORT", "3000"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		DBMigrate:      envBool("DB_MIGRATE", true),
		JWTSecret:      must("JWT_SECRET"),
		JWTExpiresIn:   envDur("JWT_EXPIRES_IN", 24*time.Hour),
		SessionTTL:     envDur("SESSION_TTL", 24*time.Hour),
		BcryptCost:     cost,
		LogLevel:       level,
		LogFormat:      format,
		MetricsEnabled: envBool("METRICS_ENABLED", true),
	}
}

// IsProduction reports whether error details should be hidden from clients.
func (c Config) IsProduction() bool { return isProduction(c.Env) }

func isProduction(env string) bool {
	return strings.EqualFold(env, "production") || strings.EqualFold(env, "prod")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logrus.WithField("key", key).Fatal("missing required env var")
	}
	return v
}
