package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the given .env files (default ".env") into the process
// environment. Variables already set win. Missing files are ignored.
func Load(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// GetEnv returns the value of key or fallback when unset or blank
func GetEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

// GetEnvInt returns key parsed as an int, or fallback
func GetEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(GetEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

// GetEnvDuration returns key parsed with time.ParseDuration, or fallback
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(GetEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

// GetEnvBool returns key parsed with strconv.ParseBool, or fallback
func GetEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(GetEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}
