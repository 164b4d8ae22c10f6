package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

const (
	configFile = "config.toml"

	// dirName is the stacks configuration directory under $HOME (or the
	// explicit override).
	dirName = ".stacks"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

// Configer loads and saves the persistent configuration file.
type Configer struct {
	targetPath string
}

// NewConfiger resolves the configuration directory and returns a Configer.
// An explicit override wins; otherwise $STACKS_HOME, then ~/.stacks.
func NewConfiger(override string) (*Configer, error) {
	dir, err := Dir(override)
	if err != nil {
		return nil, err
	}

	return &Configer{targetPath: filepath.Join(dir, configFile)}, nil
}

// Dir resolves the stacks configuration directory without requiring it to
// exist.
func Dir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if env := os.Getenv("STACKS_HOME"); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Path returns the resolved config file path.
func (c *Configer) Path() string {
	return c.targetPath
}

// LoadConfig reads the config file, applying defaults for anything unset.
// A missing file yields pure defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	cfg := NewDefaultConfig()

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Version > CurrentV {
		return nil, fmt.Errorf("config version %d is newer than supported version %d", cfg.Version, CurrentV)
	}

	return cfg, nil
}

// SaveConfig writes the config file, creating the directory if needed.
func (c *Configer) SaveConfig(cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(c.targetPath), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Get returns the value for a dotted config key.
func (c *Config) Get(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	return info.get(c), nil
}

// Set assigns the value for a dotted config key.
func (c *Config) Set(key, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	return info.set(c, value)
}

// IsValidConfigKey reports whether the dotted key is a supported
// configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

// ValidConfigKeys returns the sorted list of all supported configuration key
// names.
func ValidConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
