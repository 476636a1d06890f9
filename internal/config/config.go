package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	API         APIConfig      `yaml:"api"`
	Events      EventsConfig   `yaml:"events"`
	Cache       CacheConfig    `yaml:"cache"`
	Pipeline    PipelineConfig `yaml:"pipeline"`
	KeyMappings KeyMappings    `yaml:"key_mappings"`
	ColorScheme ColorScheme    `yaml:"theme"`
}

// APIConfig points at the CRM REST API.
type APIConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
	// Token may also come from PIPEBOARD_TOKEN, which wins over the file.
	Token string `yaml:"token"`
}

// Duration is a time.Duration that reads "15s" / "2m" from yaml.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// EventsConfig points at the push channel endpoint.
type EventsConfig struct {
	Network string `yaml:"network"` // "unix" or "tcp"
	Addr    string `yaml:"addr"`
}

// CacheConfig locates the local board snapshot cache.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// PipelineConfig selects which pipeline the board shows.
type PipelineConfig struct {
	ID string `yaml:"id"`
}

// Load loads config from the user's config directory
// Returns default config if file doesn't exist
func Load() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		// Return default config if we can't determine config path
		config := &Config{
			KeyMappings: DefaultKeyMappings(),
			ColorScheme: DefaultColorScheme(),
		}
		config.applyDefaults()
		return config, nil
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := &Config{
			KeyMappings: DefaultKeyMappings(),
			ColorScheme: DefaultColorScheme(),
		}
		config.applyDefaults()
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	// Fill in any missing values with defaults
	config.applyDefaults()

	return &config, nil
}

// Save saves the config to the user's config directory
func (c *Config) Save() error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0o644)
}

// getConfigPath returns the path to the config file.
// PIPEBOARD_CONFIG wins, then XDG_CONFIG_HOME, then ~/.config.
func getConfigPath() (string, error) {
	if explicit := os.Getenv("PIPEBOARD_CONFIG"); explicit != "" {
		return explicit, nil
	}

	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "pipeboard", "config.yaml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".config", "pipeboard", "config.yaml"), nil
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8080"
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = Duration(15 * time.Second)
	}
	if token := os.Getenv("PIPEBOARD_TOKEN"); token != "" {
		c.API.Token = token
	}
	if c.Events.Network == "" {
		c.Events.Network = "tcp"
	}
	if c.Events.Addr == "" {
		c.Events.Addr = "localhost:8081"
	}
	c.KeyMappings.applyDefaults()
	c.ColorScheme.ApplyDefaults()
}
