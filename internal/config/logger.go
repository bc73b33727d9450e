package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// LoadDotEnv merges a .env file into the environment when one exists.
// Variables already set win.
func LoadDotEnv() { _ = godotenv.Load() }

// LoadLogConfig reads LOG_LEVEL and LOG_FORMAT.  The format defaults to
// json in production and text elsewhere.
func LoadLogConfig() (level, format string) {
	def := "text"
	if isProduction(envStr("APP_ENV", "development")) {
		def = "json"
	}
	return envStr("LOG_LEVEL", "info"), envStr("LOG_FORMAT", def)
}

// NewLogger builds the process logger.  Unknown levels fall back to info.
func NewLogger(level, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if strings.EqualFold(format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}
