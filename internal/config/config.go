package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

const (
	configDirName = "smart-summary"
	defaultConfig = ".config"

	// BaseURLEnv overrides the configured service URL.
	BaseURLEnv = "SMART_SUMMARY_API_URL"
)

var configFiles = []string{
	"config.yaml",
	"config.yml",
}

// Config represents the structure of the configuration file used by the application.
type Config struct {
	BaseURL   string        `yaml:"base_url" default:"https://smart-summary-backend.onrender.com"`
	MaxLength int           `yaml:"max_length" default:"150"`
	Timeout   time.Duration `yaml:"timeout" default:"60s"`
	LogLevel  string        `yaml:"log_level" default:"warn"`
	Render    RenderConfig  `yaml:"render"`
}

// RenderConfig controls terminal output.
type RenderConfig struct {
	Format string `yaml:"format" default:"markdown"`
	Wrap   int    `yaml:"wrap" default:"120"`
	Theme  string `yaml:"theme"`
}

// configResult is a struct used to return the configuration and any error that occurs during loading.
type configResult struct {
	config *Config
	err    error
}

// newDefaultConfig creates a configuration with every default applied.
func newDefaultConfig() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that cannot be corrected later by flags.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url %q", c.BaseURL)
	}
	if c.MaxLength < 50 || c.MaxLength > 500 {
		return fmt.Errorf("invalid max_length %d: must be between 50 and 500", c.MaxLength)
	}
	if c.Timeout < 0 {
		return errors.New("invalid timeout: must not be negative")
	}
	switch c.Render.Format {
	case "markdown", "plain":
	default:
		return fmt.Errorf("invalid render.format %q: must be markdown or plain", c.Render.Format)
	}
	return nil
}

// getConfigPath retrieves the path to the configuration directory based on the XDG_CONFIG_HOME environment variable.
func getConfigPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configHome = filepath.Join(home, defaultConfig)
	}

	return filepath.Join(configHome, configDirName), nil
}

// tryLoadConfig attempts to load a configuration file from the specified path.
func tryLoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := newDefaultConfig()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadConfig loads the configuration from the user's config directory, with a timeout,
// applies the environment override and validates the result.
func LoadConfig(ctx context.Context) (*Config, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result := make(chan configResult, 1)

	go func() {
		cfg, err := loadConfigFiles(ctx)
		result <- configResult{config: cfg, err: err}
	}()

	done := ctx.Done()
	select {
	case <-done:
		return nil, ctx.Err()
	case r := <-result:
		if r.err != nil {
			return nil, r.err
		}
		if baseURL := strings.TrimSpace(os.Getenv(BaseURLEnv)); baseURL != "" {
			r.config.BaseURL = baseURL
		}
		if err := r.config.Validate(); err != nil {
			return nil, err
		}
		return r.config, nil
	}
}

// loadConfigFiles loads configuration files from the user's config directory.
func loadConfigFiles(ctx context.Context) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error before loading config: %w", err)
	}

	configDir, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	// Return default config early if directory doesn't exist
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return newDefaultConfig()
	}

	for _, filename := range configFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cfg, err := tryLoadConfig(filepath.Join(configDir, filename))
		if err == nil {
			return cfg, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config from %s: %w", filename, err)
		}
	}

	return newDefaultConfig()
}
