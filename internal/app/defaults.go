package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - SEALFS_CONFIG_PATH: config file location (default: ~/.config/sealfs/config.toml)
//   - SEALFS_HOME: base directory for sealfs data (default: ~/.local/share/sealfs)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking SEALFS_CONFIG_PATH env var first,
// then falling back to the default ~/.config/sealfs/config.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("SEALFS_CONFIG_PATH"); path != "" {
		return path, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(configDir, "sealfs", "config.toml"), nil
}

// getBaseDir returns the base directory for sealfs data, checking SEALFS_HOME env var first,
// then falling back to the XDG default ~/.local/share/sealfs.
func getBaseDir() (string, error) {
	if path := os.Getenv("SEALFS_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "sealfs"), nil
}
