package config

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/viper"
)

const (
	// DefaultDelimiter is the default CSV field separator.
	DefaultDelimiter = ","

	// DefaultMappingFile is the default name of the external mapping file.
	DefaultMappingFile = "ext_mapping.csv"
)

// Config holds all configuration for gridkit.
type Config struct {
	Grid    GridConfig    `mapstructure:"grid"`
	Logging LoggingConfig `mapstructure:"logging"`
	API     APIConfig     `mapstructure:"api"`
	Neo4j   Neo4jConfig   `mapstructure:"neo4j"`
	S3      S3Config      `mapstructure:"s3"`
	Claude  ClaudeConfig  `mapstructure:"claude"`
}

// GridConfig locates the grid data set on disk.
type GridConfig struct {
	Dir            string `mapstructure:"dir"`
	Delimiter      string `mapstructure:"delimiter"`
	MappingFile    string `mapstructure:"mapping_file"`
	IncludePrimary bool   `mapstructure:"include_primary"`
}

// Comma returns the delimiter as a rune.
func (g GridConfig) Comma() rune {
	r, _ := utf8.DecodeRuneInString(g.Delimiter)
	return r
}

// MappingPath returns the mapping file path inside the grid directory.
func (g GridConfig) MappingPath() string {
	return filepath.Join(g.Dir, g.MappingFile)
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	AuthToken  string `mapstructure:"auth_token"`
}

// Neo4jConfig holds graph database connection settings.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// S3Config holds archive bucket settings. Endpoint is only needed for
// S3-compatible stores such as MinIO.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// String returns a safe representation of S3Config with the keys masked.
func (c S3Config) String() string {
	return fmt.Sprintf("S3Config{Region:%s, Endpoint:%s, Bucket:%s, AccessKey:%s, SecretKey:%s}",
		c.Region, c.Endpoint, c.Bucket, maskAPIKey(c.AccessKey), maskAPIKey(c.SecretKey))
}

// ClaudeConfig holds Anthropic Claude API settings.
type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// String returns a safe representation of ClaudeConfig with the API key masked.
func (c ClaudeConfig) String() string {
	masked := maskAPIKey(c.APIKey)
	return fmt.Sprintf("ClaudeConfig{APIKey:%s, Model:%s}", masked, c.Model)
}

// maskAPIKey shows first 4 + last 4 chars, replacing the middle with asterisks.
func maskAPIKey(key string) string {
	const visible = 4
	if len(key) <= visible*2 {
		return "***"
	}
	return key[:visible] + "****" + key[len(key)-visible:]
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("grid.dir", ".")
	v.SetDefault("grid.delimiter", DefaultDelimiter)
	v.SetDefault("grid.mapping_file", DefaultMappingFile)
	v.SetDefault("grid.include_primary", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.auth_token", "")

	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", "neo4j")

	v.SetDefault("s3.region", "eu-central-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.bucket", "")

	v.SetDefault("claude.model", "claude-haiku-4-5-20251001")

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(homeDir(), ".gridkit"))
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("GRIDKIT")
	v.AutomaticEnv()

	// Map specific env vars
	_ = v.BindEnv("claude.api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("grid.dir", "GRIDKIT_GRID_DIR")
	_ = v.BindEnv("grid.delimiter", "GRIDKIT_GRID_DELIMITER")
	_ = v.BindEnv("api.listen_addr", "GRIDKIT_API_LISTEN_ADDR")
	_ = v.BindEnv("api.auth_token", "GRIDKIT_API_AUTH_TOKEN")
	_ = v.BindEnv("neo4j.uri", "GRIDKIT_NEO4J_URI")
	_ = v.BindEnv("neo4j.password", "GRIDKIT_NEO4J_PASSWORD")
	_ = v.BindEnv("s3.bucket", "GRIDKIT_S3_BUCKET")
	_ = v.BindEnv("s3.endpoint", "GRIDKIT_S3_ENDPOINT")
	_ = v.BindEnv("s3.access_key", "AWS_ACCESS_KEY_ID")
	_ = v.BindEnv("s3.secret_key", "AWS_SECRET_ACCESS_KEY")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are set and consistent.
func (c *Config) Validate() error {
	if c.Grid.Dir == "" {
		return fmt.Errorf("grid.dir must not be empty")
	}
	if utf8.RuneCountInString(c.Grid.Delimiter) != 1 {
		return fmt.Errorf("grid.delimiter must be a single character, got %q", c.Grid.Delimiter)
	}
	if d := c.Grid.Comma(); d == '"' || d == '\n' || d == '\r' || d == utf8.RuneError {
		return fmt.Errorf("grid.delimiter %q is not a valid CSV separator", c.Grid.Delimiter)
	}
	if c.Grid.MappingFile == "" {
		return fmt.Errorf("grid.mapping_file must not be empty")
	}
	if filepath.Base(c.Grid.MappingFile) != c.Grid.MappingFile {
		return fmt.Errorf("grid.mapping_file must be a file name, got %q", c.Grid.MappingFile)
	}
	if c.API.ListenAddr == "" {
		return fmt.Errorf("api.listen_addr must not be empty")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
