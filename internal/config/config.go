// Package config loads and validates veritrail.yml.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the conventional config file name in a project root.
const DefaultFileName = "veritrail.yml"

// DefaultRedisAddr is used when the redis section omits an address.
const DefaultRedisAddr = "localhost:6379"

// VeritrailConfig represents the top-level veritrail.yml configuration.
type VeritrailConfig struct {
	Version string        `yaml:"version"`
	Project string        `yaml:"project"`
	Redis   *RedisConfig  `yaml:"redis,omitempty"`
	GitHub  *GitHubConfig `yaml:"github,omitempty"`
}

// RedisConfig holds the state store connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// GitHubConfig names the external repository used for issue mirroring and
// commit ingestion. The access token is never stored in the file; it comes
// from the GITHUB_TOKEN environment variable.
type GitHubConfig struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
}

// Validate performs strict validation on the configuration and applies
// defaults for optional sections.
func (c *VeritrailConfig) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}
	if c.Project == "" {
		return fmt.Errorf("no project name defined")
	}

	if c.Redis == nil {
		c.Redis = &RedisConfig{}
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = DefaultRedisAddr
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis db must not be negative, got %d", c.Redis.DB)
	}

	if c.GitHub != nil {
		if c.GitHub.Owner == "" {
			return fmt.Errorf("github section requires an owner")
		}
		if c.GitHub.Repo == "" {
			return fmt.Errorf("github section requires a repo")
		}
	}

	return nil
}

// Load reads, parses and validates a veritrail.yml file.
func Load(path string) (*VeritrailConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config VeritrailConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
