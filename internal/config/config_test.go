package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCfg() *Config {
	return &Config{
		Grid: GridConfig{
			Dir:         "/tmp/grid",
			Delimiter:   ",",
			MappingFile: DefaultMappingFile,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		API:     APIConfig{ListenAddr: ":8080"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GRIDKIT_GRID_DIR", "")
	t.Setenv("GRIDKIT_GRID_DELIMITER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Grid.Dir)
	assert.Equal(t, ',', cfg.Grid.Comma())
	assert.Equal(t, DefaultMappingFile, cfg.Grid.MappingFile)
	assert.True(t, cfg.Grid.IncludePrimary)
	assert.Equal(t, ":8080", cfg.API.ListenAddr)
	assert.Equal(t, "neo4j://localhost:7687", cfg.Neo4j.URI)
	assert.Equal(t, "neo4j", cfg.Neo4j.Database)
	assert.Equal(t, "eu-central-1", cfg.S3.Region)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Claude.Model)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("GRIDKIT_GRID_DIR", "/data/grid")
	t.Setenv("GRIDKIT_GRID_DELIMITER", ";")
	t.Setenv("GRIDKIT_S3_BUCKET", "grids")
	t.Setenv("ANTHROPIC_API_KEY", "test-key-12345")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/grid", cfg.Grid.Dir)
	assert.Equal(t, ';', cfg.Grid.Comma())
	assert.Equal(t, "/data/grid/ext_mapping.csv", cfg.Grid.MappingPath())
	assert.Equal(t, "grids", cfg.S3.Bucket)
	assert.Equal(t, "test-key-12345", cfg.Claude.APIKey)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("GRIDKIT_GRID_DELIMITER", ";;")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grid.delimiter")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty dir", func(c *Config) { c.Grid.Dir = "" }, "grid.dir"},
		{"empty delimiter", func(c *Config) { c.Grid.Delimiter = "" }, "grid.delimiter"},
		{"long delimiter", func(c *Config) { c.Grid.Delimiter = "||" }, "grid.delimiter"},
		{"quote delimiter", func(c *Config) { c.Grid.Delimiter = `"` }, "grid.delimiter"},
		{"empty mapping file", func(c *Config) { c.Grid.MappingFile = "" }, "grid.mapping_file"},
		{"mapping file with directory", func(c *Config) { c.Grid.MappingFile = "sub/ext.csv" }, "grid.mapping_file"},
		{"empty listen addr", func(c *Config) { c.API.ListenAddr = "" }, "api.listen_addr"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validCfg()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	require.NoError(t, validCfg().Validate())
}

func TestSecretsAreMasked(t *testing.T) {
	claude := ClaudeConfig{APIKey: "sk-ant-1234567890abcdef", Model: "claude-haiku-4-5-20251001"}
	s := claude.String()
	assert.Contains(t, s, "sk-a")
	assert.NotContains(t, s, "1234567890")

	s3 := S3Config{Bucket: "grids", AccessKey: "AKIAABCDEFGHIJKL", SecretKey: "short"}
	s = s3.String()
	assert.Contains(t, s, "grids")
	assert.NotContains(t, s, "ABCDEFGH")
	assert.NotContains(t, s, "short")
}
