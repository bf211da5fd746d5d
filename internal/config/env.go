// Package config loads application settings from defaults, config files,
// environment variables and an optional .env file.
package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"

	"fjacquet/case-categorizer/internal/logging"
)

var once sync.Once

// LoadEnv loads environment variables from a .env file if one exists in the
// current or parent directory. Variables already set are not overridden.
// Only the first call has any effect.
func LoadEnv(logger logging.Logger) {
	once.Do(func() {
		loadEnvFile(logger)
	})
}

func loadEnvFile(logger logging.Logger) {
	if logger == nil {
		logger = logging.GetLogger()
	}

	envFile := findEnvFile(".env", filepath.Join("..", ".env"))
	if envFile == "" {
		logger.Debug("No .env file found, using environment variables")
		return
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.WithError(err).Warn("Error loading .env file",
			logging.Field{Key: logging.FieldFile, Value: envFile})
		return
	}
	logger.Debug("Loaded environment variables",
		logging.Field{Key: logging.FieldFile, Value: envFile})
}

func findEnvFile(candidates ...string) string {
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
