package migrations

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// MigrationsDir can be overridden in tests or by the application
	MigrationsDir = "scripts/migrations"
)

// LoadSchema reads every .sql file under the migrations directory in
// lexical order and returns them joined as one script. Files are named
// with a numeric prefix (001_, 002_, ...) so lexical order is apply order.
func LoadSchema() (string, error) {
	dir, err := locateMigrationsDir()
	if err != nil {
		return "", err
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return "", fmt.Errorf("failed to scan migrations dir: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no migration files found in %s", dir)
	}
	sort.Strings(matches)

	var parts []string
	for _, path := range matches {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read migration %s: %w", filepath.Base(path), err)
		}
		parts = append(parts, string(content))
	}

	return strings.Join(parts, "\n"), nil
}

// locateMigrationsDir resolves MigrationsDir relative to the working
// directory, walking up two levels so tests run from package dirs still
// find the repo-level scripts/migrations.
func locateMigrationsDir() (string, error) {
	candidates := []string{
		MigrationsDir,
		filepath.Join("..", MigrationsDir),
		filepath.Join("..", "..", MigrationsDir),
	}

	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}

	return "", fmt.Errorf("migrations directory %s not found", MigrationsDir)
}
