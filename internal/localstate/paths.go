// Package localstate locates on-disk state for local builds.
package localstate

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	envHome = "ORDER_SERVICE_HOME" // override for tests
	dirName = ".dwq-legal"         // default under $HOME

	// DBFilename is the SQLite file kept inside DataDir.
	DBFilename = "orders.db"
)

// DataDir returns the directory where local state is stored (~/.dwq-legal),
// creating it with 0700 permissions when missing.
func DataDir() (string, error) {
	if custom := os.Getenv(envHome); custom != "" {
		if err := os.MkdirAll(custom, 0o700); err != nil {
			return "", err
		}
		return custom, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user home: %w", err)
	}
	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
