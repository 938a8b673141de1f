package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds everything the bootstrapper needs: the account to run as,
// the data tree to repair, and the delegate to hand off to.
type Config struct {
	Identity IdentityConfig `yaml:"identity"`
	Data     DataConfig     `yaml:"data"`
	Delegate DelegateConfig `yaml:"delegate"`
	LogLevel string         `yaml:"log_level"`
}

type IdentityConfig struct {
	User  string `yaml:"user"`
	Group string `yaml:"group"`
}

type DataConfig struct {
	Path string `yaml:"path"`
}

type DelegateConfig struct {
	Path string   `yaml:"path"`
	Args []string `yaml:"args"`
}

// Default returns the fixed contract baked into the search image.
func Default() *Config {
	return &Config{
		Identity: IdentityConfig{
			User:  "elasticsearch",
			Group: "elasticsearch",
		},
		Data: DataConfig{
			Path: "/usr/share/elasticsearch/data",
		},
		Delegate: DelegateConfig{
			Path: "/usr/local/bin/docker-entrypoint.sh",
			Args: []string{"eswrapper"},
		},
		LogLevel: "info",
	}
}

// Load reads an optional YAML file over the defaults. A missing file is not
// an error; the baked-in contract applies.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks the parts the bootstrapper cannot run without.
func (c *Config) Validate() error {
	if c.Identity.User == "" || c.Identity.Group == "" {
		return fmt.Errorf("config: service user and group required")
	}
	if c.Data.Path == "" {
		return fmt.Errorf("config: data path required")
	}
	if c.Delegate.Path == "" {
		return fmt.Errorf("config: delegate path required")
	}
	return nil
}
