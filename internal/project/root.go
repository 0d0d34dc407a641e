// Package project locates the directory holding semsql.ini so commands run
// from a nested directory pick up the same configuration.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shipq/semsql/internal/config"
)

// ErrNotFound is returned when no directory up to the filesystem root holds
// semsql.ini.
var ErrNotFound = errors.New("semsql project not found")

// FindRoot searches upward from startDir (or the CWD if empty) for
// semsql.ini and returns the directory containing it.
// found is false when the search reaches the filesystem root; err is set only
// for filesystem errors.
func FindRoot(startDir string) (dir string, found bool, err error) {
	if startDir == "" {
		startDir, err = os.Getwd()
		if err != nil {
			return "", false, fmt.Errorf("failed to get current directory: %w", err)
		}
	}

	dir, err = filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	for {
		configPath := filepath.Join(dir, config.ConfigFilename)
		info, err := os.Stat(configPath)
		if err == nil && !info.IsDir() {
			return dir, true, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", false, fmt.Errorf("failed to check %s: %w", configPath, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Resolve returns override when it is set, checking that it is a directory.
// Otherwise it searches upward from the CWD and fails with ErrNotFound.
func Resolve(override string) (string, error) {
	if override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return "", fmt.Errorf("failed to resolve config directory: %w", err)
		}
		info, err := os.Stat(abs)
		if os.IsNotExist(err) {
			return "", fmt.Errorf("config directory does not exist: %s", override)
		}
		if err != nil {
			return "", fmt.Errorf("failed to access config directory: %w", err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("config directory is not a directory: %s", override)
		}
		return abs, nil
	}

	dir, found, err := FindRoot("")
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("%w: no %s in this directory or any parent\n"+
			"  Run 'semsql init' or use --dir to specify the path",
			ErrNotFound, config.ConfigFilename)
	}
	return dir, nil
}
