package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv names the environment variable that overrides the home directory
const HomeEnv = "MPCDATA_HOME"

// GetHome returns the mpcdata home directory, creating it if needed.
// Priority: $MPCDATA_HOME, then ~/.mpcdata, then .mpcdata in the working
// directory when no user home is available.
func GetHome() (string, error) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err == nil && userHome != "" {
			home = filepath.Join(userHome, ".mpcdata")
		} else {
			cwd, err := os.Getwd()
			if err != nil {
				return "", fmt.Errorf("get working directory: %w", err)
			}
			home = filepath.Join(cwd, ".mpcdata")
		}
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create mpcdata home directory: %w", err)
	}
	return home, nil
}

// GetStorePath returns the catalog path: store.db_path when set, otherwise
// sessions.db in the home directory
func (c *Config) GetStorePath() (string, error) {
	if c.Store.DBPath != "" {
		return c.Store.DBPath, nil
	}
	home, err := GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "sessions.db"), nil
}

// GetLogDir returns log_dir, defaulting to logs/ in the home directory
func (c *Config) GetLogDir() (string, error) {
	if c.LogDir != "" {
		return c.LogDir, nil
	}
	home, err := GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "logs"), nil
}
