package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - DRAWER_CONFIG_PATH: config file location (default: ~/.config/drawer.toml)
//   - DRAWER_HOME: base directory for drawer data (default: ~/.local/share/drawer)
//   - DRAWER_OWNER: default owner (default: $USER)
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
		"owner":       getOwner(),
	}, nil
}

// ResolveOwner picks the owner for a command: an explicit flag wins, then
// DRAWER_OWNER, then the config's default_owner.
func ResolveOwner(flag, configured string) (string, error) {
	for _, owner := range []string{flag, os.Getenv("DRAWER_OWNER"), configured} {
		if owner != "" {
			return owner, nil
		}
	}
	return "", fmt.Errorf("no owner: pass --owner, set DRAWER_OWNER or default_owner in config")
}

func getConfigPath() (string, error) {
	if path := os.Getenv("DRAWER_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "drawer.toml"), nil
}

func getBaseDir() (string, error) {
	if path := os.Getenv("DRAWER_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "drawer"), nil
}

func getOwner() string {
	if owner := os.Getenv("DRAWER_OWNER"); owner != "" {
		return owner
	}
	return os.Getenv("USER")
}
