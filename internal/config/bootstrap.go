package config

import (
	"errors"
	"os"
	"path/filepath"
)

// EnsureUserConfig writes the default config to <dataDir>/config.yml if
// no config exists there yet. It reports whether the file was created.
func EnsureUserConfig(dataDir string) (string, bool, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", false, err
	}

	cfg := Default()
	cfg.App.DataDir = dataDir
	if err := SaveAtomic(userPath, cfg); err != nil {
		return "", false, err
	}
	return userPath, true, nil
}
