// Package home manages the inkplan home directory layout.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the inkplan home directory.
	DefaultDirName = ".inkplan"

	// DataDirName is the subdirectory for job state and plan storage.
	DataDirName = "data"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// StoreFileName is the SQLite database holding plans, locks, and
	// chunk status.
	StoreFileName = "inkplan.db"
)

// Dir represents the inkplan home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.inkplan).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DataPath returns the path to the data directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// StorePath returns the path to the SQLite store file.
func (d *Dir) StorePath() string {
	return filepath.Join(d.DataPath(), StoreFileName)
}

// KVDir returns the directory used by the file-based store backend.
func (d *Dir) KVDir() string {
	return filepath.Join(d.DataPath(), "kv")
}

// ScriptsDir returns the directory for exported scripts and plans.
func (d *Dir) ScriptsDir() string {
	return filepath.Join(d.path, "scripts")
}

// ScriptPath returns the export path for a job's final script.
func (d *Dir) ScriptPath(jobID string) string {
	return filepath.Join(d.ScriptsDir(), fmt.Sprintf("%s.yaml", jobID))
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	// Create data directory (this also creates the parent)
	if err := os.MkdirAll(d.DataPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(d.ScriptsDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create scripts directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
