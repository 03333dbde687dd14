package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, DefaultFileName)

	validConfig := `version: "1.0"
project: "payments-api"
redis:
  addr: "redis.internal:6380"
  db: 2
github:
  owner: "acme"
  repo: "payments-api"
`
	err := os.WriteFile(configPath, []byte(validConfig), 0644)
	require.NoError(t, err)

	config, err := Load(configPath)
	require.NoError(t, err)
	assert.NotNil(t, config)
	assert.Equal(t, "1.0", config.Version)
	assert.Equal(t, "payments-api", config.Project)
	assert.Equal(t, "redis.internal:6380", config.Redis.Addr)
	assert.Equal(t, 2, config.Redis.DB)
	require.NotNil(t, config.GitHub)
	assert.Equal(t, "acme", config.GitHub.Owner)
	assert.Equal(t, "payments-api", config.GitHub.Repo)
}

func TestLoad_MinimalConfigAppliesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, DefaultFileName)

	minimalConfig := `version: "1.0"
project: "payments-api"
`
	err := os.WriteFile(configPath, []byte(minimalConfig), 0644)
	require.NoError(t, err)

	config, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, config.Redis)
	assert.Equal(t, DefaultRedisAddr, config.Redis.Addr)
	assert.Equal(t, 0, config.Redis.DB)
	assert.Nil(t, config.GitHub)
}

func TestLoad_FileNotFound(t *testing.T) {
	config, err := Load("/nonexistent/veritrail.yml")
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, DefaultFileName)

	invalidYAML := `version: "1.0"
project:
  - this is invalid
    yaml syntax
`
	err := os.WriteFile(configPath, []byte(invalidYAML), 0644)
	require.NoError(t, err)

	config, err := Load(configPath)
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidate_UnsupportedVersion(t *testing.T) {
	config := &VeritrailConfig{Version: "2.0", Project: "p"}
	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported version")
}

func TestValidate_MissingProject(t *testing.T) {
	config := &VeritrailConfig{Version: "1.0"}
	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no project name")
}

func TestValidate_NegativeRedisDB(t *testing.T) {
	config := &VeritrailConfig{
		Version: "1.0",
		Project: "p",
		Redis:   &RedisConfig{DB: -1},
	}
	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis db")
}

func TestValidate_IncompleteGitHubSection(t *testing.T) {
	config := &VeritrailConfig{
		Version: "1.0",
		Project: "p",
		GitHub:  &GitHubConfig{Owner: "acme"},
	}
	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires a repo")

	config.GitHub = &GitHubConfig{Repo: "payments-api"}
	err = config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires an owner")
}
