package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Progress store kinds
const (
	StoreLessons  = "lessons"
	StoreProfiles = "profiles"
	StoreDatabase = "database"
)

// Config holds application configuration
type Config struct {
	ContentPath      string
	ProgressStore    string
	ProfilesPath     string
	DatabaseType     string
	DatabasePath     string
	DatabaseURL      string
	RetentionPolicy  string
	RetentionDamping float64
	StarThresholds   []float64
	SpokenLanguage   string
	LearnedLanguage  string
}

// Load reads configuration from a .env file, when present, and environment
// variables with sensible defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	damping, err := getEnvAsFloat("RETENTION_DAMPING", 0)
	if err != nil {
		return nil, err
	}
	thresholds, err := getEnvAsFloatList("STAR_THRESHOLDS", nil)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ContentPath:      getEnv("CONTENT_PATH", "./content"),
		ProgressStore:    strings.ToLower(getEnv("PROGRESS_STORE", StoreProfiles)),
		ProfilesPath:     getEnv("PROFILES_PATH", "./profiles"),
		DatabaseType:     getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:     getEnv("DB_PATH", "./bilingual.db"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RetentionPolicy:  getEnv("RETENTION_POLICY", "success-rate"),
		RetentionDamping: damping,
		StarThresholds:   thresholds,
		SpokenLanguage:   getEnv("SPOKEN_LANGUAGE", ""),
		LearnedLanguage:  getEnv("LEARNED_LANGUAGE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	switch c.ProgressStore {
	case StoreLessons, StoreProfiles, StoreDatabase:
	default:
		return fmt.Errorf("PROGRESS_STORE must be one of %s, %s, %s; got %q", StoreLessons, StoreProfiles, StoreDatabase, c.ProgressStore)
	}

	if c.ProgressStore == StoreDatabase && c.DatabaseType != "sqlite" && c.DatabaseType != "sqlite3" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for DATABASE_TYPE=%s", c.DatabaseType)
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsFloat reads a float environment variable
func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

// getEnvAsFloatList reads a comma separated list of floats
func getEnvAsFloatList(key string, defaultValue []float64) ([]float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parts := strings.Split(value, ",")
	list := make([]float64, 0, len(parts))
	for _, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		list = append(list, f)
	}
	return list, nil
}
