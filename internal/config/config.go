// Package config loads the kanban CLI settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the merged CLI configuration.
type Config struct {
	// Server is the base URL of the remote task service.
	Server    string        `mapstructure:"server" yaml:"server"`
	UserToken int64         `mapstructure:"user_token" yaml:"user_token"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	LogLevel  string        `mapstructure:"log_level" yaml:"log_level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server:    "http://localhost:8080",
		UserToken: 1,
		Timeout:   10 * time.Second,
		LogLevel:  "warn",
	}
}

// Validate reports settings the CLI cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server) == "" {
		return errors.New("server is required")
	}
	if c.UserToken == 0 {
		return errors.New("user_token is required")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

// Load merges defaults, the global config, the project config and KANBAN_*
// environment variables, later sources winning. When path is set only that
// file is read instead of the global and project files.
func Load(path string) (*Config, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("server", def.Server)
	v.SetDefault("user_token", def.UserToken)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix("KANBAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if err := mergeFile(v, path); err != nil {
			return nil, err
		}
	} else {
		for _, p := range []string{GlobalConfigPath(), ProjectConfigPath()} {
			if err := mergeFile(v, p); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func mergeFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

// WriteDefault writes cfg as YAML to path, creating parent directories.
func WriteDefault(path string, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := "# kanban CLI configuration\n" + string(data)
	return os.WriteFile(path, []byte(content), 0644)
}

// GlobalConfigPath returns the path to the global config file
func GlobalConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".kanban", "config.yaml")
}

// ProjectConfigPath returns the path to the project config file
func ProjectConfigPath() string {
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, ".kanban", "config.yaml")
}
