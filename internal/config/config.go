// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (SNOWFLAKE_* for credentials, SNOWCHAT_* for overrides)
//  2. Config file (~/.snowchat/config.yaml, or ./config.yaml)
//  3. Default values
//
// A .env file in the working directory is loaded first via godotenv, so secrets
// can live next to the project during development without being exported.
//
// Security: the Snowflake password is never logged; MarshalJSON masks it.
// Validation: all six connection parameters are required; everything else has
// a sensible default and a range check. Sentinel errors support errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	sf "github.com/snowflakedb/gosnowflake"
	"github.com/spf13/viper"
)

var (
	// ErrMissingAccount indicates the Snowflake account identifier is not set.
	ErrMissingAccount = errors.New("missing Snowflake account")

	// ErrMissingUser indicates the Snowflake user is not set.
	ErrMissingUser = errors.New("missing Snowflake user")

	// ErrMissingPassword indicates the Snowflake password is not set.
	ErrMissingPassword = errors.New("missing Snowflake password")

	// ErrMissingWarehouse indicates the Snowflake warehouse is not set.
	ErrMissingWarehouse = errors.New("missing Snowflake warehouse")

	// ErrMissingDatabase indicates the Snowflake database is not set.
	ErrMissingDatabase = errors.New("missing Snowflake database")

	// ErrMissingSchema indicates the Snowflake schema is not set.
	ErrMissingSchema = errors.New("missing Snowflake schema")

	// ErrInvalidModel indicates the completion model is not in the supported set.
	ErrInvalidModel = errors.New("invalid completion model")

	// ErrInvalidIdentifier indicates a stage or table name is not a plain SQL identifier.
	ErrInvalidIdentifier = errors.New("invalid SQL identifier")

	// ErrInvalidNumChunks indicates the retrieval top-K is out of range.
	ErrInvalidNumChunks = errors.New("invalid num_chunks")

	// ErrInvalidSlideWindow indicates the history window size is out of range.
	ErrInvalidSlideWindow = errors.New("invalid slide_window")
)

// Defaults mirror the values the assistant was tuned with.
const (
	// DefaultNumChunks is the number of chunks retrieved per question.
	DefaultNumChunks = 3

	// MaxNumChunks bounds retrieval to keep prompts within model context.
	MaxNumChunks = 20

	// DefaultSlideWindow is the number of prior messages considered as history.
	DefaultSlideWindow = 7

	// MaxSlideWindow bounds the history window.
	MaxSlideWindow = 50

	// DefaultEmbeddingModel is the server-side embedding model identifier.
	// EMBED_TEXT_768 requires a 768-dimension model; the chunk table schema
	// (warehouse/migrations) matches it.
	DefaultEmbeddingModel = "e5-base-v2"
)

// Config stores application configuration.
// SECURITY: the password is explicitly masked in MarshalJSON().
type Config struct {
	// Snowflake connection parameters (all required)
	Account   string `mapstructure:"account" json:"account"`
	User      string `mapstructure:"user" json:"user"`
	Password  string `mapstructure:"password" json:"password"` // SENSITIVE: masked in MarshalJSON
	Warehouse string `mapstructure:"warehouse" json:"warehouse"`
	Database  string `mapstructure:"database" json:"database"`
	Schema    string `mapstructure:"schema" json:"schema"`

	// Warehouse objects
	Stage      string `mapstructure:"stage" json:"stage"`
	ChunkTable string `mapstructure:"chunk_table" json:"chunk_table"`

	// Cortex models
	ModelName      string `mapstructure:"model_name" json:"model_name"`
	EmbeddingModel string `mapstructure:"embedding_model" json:"embedding_model"`

	// Retrieval and history tuning
	NumChunks   int `mapstructure:"num_chunks" json:"num_chunks"`
	SlideWindow int `mapstructure:"slide_window" json:"slide_window"`

	// Session toggles (mutable at runtime through the UI)
	UseChatHistory bool `mapstructure:"use_chat_history" json:"use_chat_history"`
	Debug          bool `mapstructure:"debug" json:"debug"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	// Development convenience: pick up a local .env before env binding.
	// Missing .env is not an error.
	_ = godotenv.Load()

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".snowchat")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DEBUG env enables the debug toggle regardless of config file.
	if os.Getenv("DEBUG") != "" {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("stage", "docs")
	v.SetDefault("chunk_table", "docs_chunks_table")
	v.SetDefault("model_name", "mixtral-8x7b")
	v.SetDefault("embedding_model", DefaultEmbeddingModel)
	v.SetDefault("num_chunks", DefaultNumChunks)
	v.SetDefault("slide_window", DefaultSlideWindow)
	v.SetDefault("use_chat_history", true)
	v.SetDefault("debug", false)
}

// bindEnvVariables binds environment variables explicitly.
// Connection secrets use the conventional SNOWFLAKE_* names; runtime
// overrides use SNOWCHAT_*.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime condition.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("account", "SNOWFLAKE_ACCOUNT")
	mustBind("user", "SNOWFLAKE_USER")
	mustBind("password", "SNOWFLAKE_PASSWORD")
	mustBind("warehouse", "SNOWFLAKE_WAREHOUSE")
	mustBind("database", "SNOWFLAKE_DATABASE")
	mustBind("schema", "SNOWFLAKE_SCHEMA")

	mustBind("stage", "SNOWCHAT_STAGE")
	mustBind("chunk_table", "SNOWCHAT_CHUNK_TABLE")
	mustBind("model_name", "SNOWCHAT_MODEL_NAME")
	mustBind("use_chat_history", "SNOWCHAT_USE_CHAT_HISTORY")
}

// DSN builds the gosnowflake connection string from the six connection
// parameters. The driver handles quoting and URL encoding.
func (c *Config) DSN() (string, error) {
	dsn, err := sf.DSN(&sf.Config{
		Account:   c.Account,
		User:      c.User,
		Password:  c.Password,
		Warehouse: c.Warehouse,
		Database:  c.Database,
		Schema:    c.Schema,
	})
	if err != nil {
		return "", fmt.Errorf("building Snowflake DSN: %w", err)
	}
	return dsn, nil
}

// maskedValue replaces the password in serialized output.
const maskedValue = "********"

// MarshalJSON implements json.Marshaler with the password masked, so a Config
// can be logged or dumped in debug views without leaking the secret.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config // shed the method to avoid recursion
	masked := alias(c)
	if masked.Password != "" {
		masked.Password = maskedValue
	}
	return json.Marshal(masked)
}
