// Package pathutil provides centralized path management under the budget
// data directory.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathResolver manages paths for the local budget cache and the
// link-history database.
type PathResolver struct {
	dataDir      string
	databasePath string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// DataDir is the local cache directory for downloaded budgets
	// (e.g. /tmp/budget), with one subdirectory per budget file.
	DataDir string
	// DatabasePath is the path to the SQLite link-history database.
	DatabasePath string
}

// New creates a new PathResolver with the given configuration.
// If DatabasePath is empty, it defaults to {DataDir}/.sync/links.db
func New(config Config) *PathResolver {
	dbPath := config.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(config.DataDir, ".sync", "links.db")
	}

	return &PathResolver{
		dataDir:      config.DataDir,
		databasePath: dbPath,
	}
}

// GetDataDir returns the budget cache root directory.
func (p *PathResolver) GetDataDir() string {
	return p.dataDir
}

// GetDatabasePath returns the link-history database file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.databasePath
}

// GetBudgetCacheDir returns the cache directory for a budget file.
// Example: /tmp/budget/aaaaaaaa-1111-2222-3333-bbbbbbbbbbbb
func (p *PathResolver) GetBudgetCacheDir(budgetID string) (string, error) {
	if budgetID == "" {
		return "", fmt.Errorf("budget id is required")
	}
	return filepath.Join(p.dataDir, budgetID), nil
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
