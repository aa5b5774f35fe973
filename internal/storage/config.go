package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/nikbrunner/bmsort/internal/ai"
	"github.com/nikbrunner/bmsort/internal/model"
)

// Config holds application configuration.
type Config struct {
	BaseURL        string         `json:"baseURL"`
	Model          string         `json:"model"`
	TimeoutSeconds int            `json:"timeoutSeconds"`
	TargetFolder   string         `json:"targetFolder"`
	Storage        string         `json:"storage,omitempty"`
	LogLevel       string         `json:"logLevel,omitempty"`
	Classification model.Settings `json:"classification"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:        ai.DefaultBaseURL,
		Model:          ai.DefaultModel,
		TimeoutSeconds: int(ai.DefaultTimeout / time.Second),
		TargetFolder:   model.BarFolderID,
		Classification: model.DefaultSettings(),
	}
}

// Timeout returns the classifier request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoadConfig reads config from the JSON file.
// Creates the file with defaults if it doesn't exist.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			config := DefaultConfig()
			// Non-fatal: return defaults even if save fails
			_ = SaveConfig(path, &config)
			return &config, nil
		}
		return nil, err
	}

	// Decoding on top of the defaults keeps them for absent fields.
	config := DefaultConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if config.TargetFolder == "" {
		config.TargetFolder = defaults.TargetFolder
	}
	config.Classification = config.Classification.Normalize()

	return &config, nil
}

// SaveConfig writes config to the JSON file.
// Creates the directory if it doesn't exist.
func SaveConfig(path string, config *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfigFilePath returns the default config path: ~/.config/bmsort/config.json
func DefaultConfigFilePath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}
