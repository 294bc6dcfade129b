package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configDir is the per-user directory under $HOME holding config overrides.
const configDir = ".t2048"

// LoadT2048 loads 2048 configuration.
// Search order: customPath -> ~/.t2048/configs/t2048.yaml -> ./configs/t2048.yaml -> embedded default.
// Settings missing from a file keep their default values.
func LoadT2048(customPath string) (T2048Config, error) {
	base := DefaultT2048Config()
	if err := yaml.Unmarshal(defaultT2048YAML, &base); err != nil {
		base = DefaultT2048Config()
	}

	// An explicit path must exist and parse
	if customPath != "" {
		cfg, err := readT2048(customPath, base)
		if err != nil {
			return base, err
		}
		if err := cfg.Validate(); err != nil {
			return base, fmt.Errorf("invalid config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	candidates := []string{userConfigPath("t2048.yaml"), filepath.Join("configs", "t2048.yaml")}
	for _, path := range candidates {
		if path == "" {
			continue
		}
		cfg, err := readT2048(path, base)
		if err != nil {
			continue
		}
		if cfg.Validate() == nil {
			return cfg, nil
		}
	}

	return base, nil
}

func readT2048(path string, base T2048Config) (T2048Config, error) {
	cfg := base
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// userConfigPath returns the path to a user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDir, "configs", filename)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
