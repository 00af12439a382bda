// Package appdir locates nsolver's per-user files.
package appdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Name is the directory name used under the OS config root.
const Name = "nsolver"

// GeoIPFile is the database file name looked up when no --geoip-db is given.
const GeoIPFile = "GeoLite2-ASN.mmdb"

// ConfigDir returns the OS-specific config directory for nsolver.
// Linux: $XDG_CONFIG_HOME/nsolver  macOS: ~/Library/Application Support/nsolver
// Windows: %AppData%/nsolver
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting user config dir: %w", err)
	}
	return filepath.Join(base, Name), nil
}

// GeoIPPath returns the default location of the MaxMind ASN database,
// next to the config file.
func GeoIPPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, GeoIPFile), nil
}

// EnsureFile creates path and its parent directories if they do not exist.
// The file is created empty with 0600 permissions; an existing file is left
// untouched.
func EnsureFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return fmt.Errorf("creating config file: %w", err)
	}
	return f.Close()
}
