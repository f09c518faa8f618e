// Package config provides configuration management for installment-sync.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Actual ActualConfig
	Cache  CacheConfig
	Debug  bool
}

// ActualConfig represents the ledger server connection configuration.
type ActualConfig struct {
	ServerURL string
	Password  string
	BudgetID  string
	DataDir   string
}

// CacheConfig represents local cache configuration.
type CacheConfig struct {
	DBPath     string
	NamingFile string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	// Load .env file
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	config := &Config{
		Actual: ActualConfig{
			ServerURL: getEnvOrDefault("ACTUAL_SERVER_URL", "http://localhost:5006"),
			Password:  os.Getenv("ACTUAL_PASSWORD"),
			BudgetID:  os.Getenv("ACTUAL_BUDGET_ID"),
			DataDir:   getEnvOrDefault("ACTUAL_DATA_DIR", "/tmp/budget"),
		},
		Cache: CacheConfig{
			DBPath:     os.Getenv("ACTUAL_DB_PATH"),
			NamingFile: os.Getenv("NAMING_CONFIG"),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "actual":
			switch path[1] {
			case "serverUrl":
				value = c.Actual.ServerURL
			case "password":
				value = c.Actual.Password
			case "budgetId":
				value = c.Actual.BudgetID
			case "dataDir":
				value = c.Actual.DataDir
			}
		case "cache":
			switch path[1] {
			case "dbPath":
				value = c.Cache.DBPath
			case "namingFile":
				value = c.Cache.NamingFile
			}
		}

		if value == "" {
			missing = append(missing, joinPath(path))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// joinPath joins a path slice into a dot-separated string.
func joinPath(path []string) string {
	result := ""
	for i, p := range path {
		if i > 0 {
			result += "."
		}
		result += p
	}
	return result
}
