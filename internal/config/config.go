// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (COURSEPILOT_* runtime override)
//  2. Config file (~/.coursepilot/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - AI: provider, model, embedder model, max tool rounds
//   - Index: chunk size/overlap, store path, search top-k
//   - Session: max conversation history
//   - Server: HTTP listen address
//
// Error handling uses sentinel errors so callers can check with errors.Is()
// and wrap with fmt.Errorf("%w: details", ErrXxx).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidChunkSize indicates the chunk size is out of range.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidChunkOverlap indicates the overlap is negative or >= chunk size.
	ErrInvalidChunkOverlap = errors.New("invalid chunk overlap")

	// ErrInvalidMaxHistory indicates the history bound is out of range.
	ErrInvalidMaxHistory = errors.New("invalid max history")

	// ErrInvalidToolRounds indicates the tool round bound is out of range.
	ErrInvalidToolRounds = errors.New("invalid max tool rounds")

	// ErrInvalidTopK indicates the search top-k is out of range.
	ErrInvalidTopK = errors.New("invalid search top k")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")
)

const (
	// DefaultModelName is the default generation model.
	DefaultModelName = "googleai/gemini-2.5-flash"

	// DefaultEmbedderModel is the default embedding model.
	DefaultEmbedderModel = "text-embedding-004"

	// DefaultChunkSize is the target chunk size in characters.
	DefaultChunkSize = 800

	// DefaultChunkOverlap is the overlap repeated from the previous chunk.
	DefaultChunkOverlap = 100

	// DefaultMinChunk is the threshold below which a trailing fragment is
	// merged into the previous chunk instead of emitted alone.
	DefaultMinChunk = 120

	// DefaultSearchTopK is the number of chunks returned per search.
	DefaultSearchTopK = 5

	// DefaultMaxHistory is the number of (query, answer) exchanges kept per
	// session. Bounds the prompt size sent to the model.
	DefaultMaxHistory = 2

	// DefaultMaxToolRounds bounds the tool-calling loop per query.
	// Explicit and finite: the round after the last one is made without
	// tools so the model must synthesize.
	DefaultMaxToolRounds = 2

	// MaxAllowedHistory is the absolute history cap to prevent unbounded prompts.
	MaxAllowedHistory = 50

	// MaxAllowedToolRounds is the absolute cap on tool rounds per query.
	MaxAllowedToolRounds = 10

	// MaxAllowedTopK is the absolute cap on search top-k.
	MaxAllowedTopK = 20
)

// Config stores application configuration.
type Config struct {
	// AI model configuration
	Provider      string `mapstructure:"provider" json:"provider"`             // "googleai" (default)
	ModelName     string `mapstructure:"model_name" json:"model_name"`         // e.g. "googleai/gemini-2.5-flash"
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"` // e.g. "text-embedding-004"
	MaxToolRounds int    `mapstructure:"max_tool_rounds" json:"max_tool_rounds"`

	// Document ingestion and index configuration
	DocsDir      string `mapstructure:"docs_dir" json:"docs_dir"`
	StorePath    string `mapstructure:"store_path" json:"store_path"`
	ChunkSize    int    `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap" json:"chunk_overlap"`
	MinChunk     int    `mapstructure:"min_chunk" json:"min_chunk"`
	SearchTopK   int    `mapstructure:"search_top_k" json:"search_top_k"`

	// Conversation configuration
	MaxHistory int `mapstructure:"max_history" json:"max_history"`

	// HTTP server configuration
	ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level" json:"log_level"` // "debug", "info", "warn", "error"
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// configDirName is the per-user configuration directory under $HOME.
const configDirName = ".coursepilot"

// Dir returns the per-user coursepilot directory (~/.coursepilot),
// creating it if necessary.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	dir := filepath.Join(home, configDirName)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// Load reads configuration from defaults, the optional config file and
// COURSEPILOT_* environment variables, then validates the result.
// An absent config file is not an error; defaults apply.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("COURSEPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else if dir, err := Dir(); err == nil {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file: fall through to defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.StorePath == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		cfg.StorePath = filepath.Join(dir, "index")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers default values for all settings.
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "googleai")
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("max_tool_rounds", DefaultMaxToolRounds)

	v.SetDefault("docs_dir", "./docs")
	v.SetDefault("store_path", "") // resolved to ~/.coursepilot/index in Load
	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("chunk_overlap", DefaultChunkOverlap)
	v.SetDefault("min_chunk", DefaultMinChunk)
	v.SetDefault("search_top_k", DefaultSearchTopK)

	v.SetDefault("max_history", DefaultMaxHistory)

	v.SetDefault("listen_addr", "127.0.0.1:8000")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// Validate checks all configuration values and returns the first violation.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}
	if c.ModelName == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}
	if c.ChunkSize < 100 || c.ChunkSize > 100_000 {
		return fmt.Errorf("%w: %d (must be 100..100000)", ErrInvalidChunkSize, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: %d (must be 0..chunk_size-1)", ErrInvalidChunkOverlap, c.ChunkOverlap)
	}
	if c.MaxHistory < 1 || c.MaxHistory > MaxAllowedHistory {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidMaxHistory, c.MaxHistory, MaxAllowedHistory)
	}
	if c.MaxToolRounds < 1 || c.MaxToolRounds > MaxAllowedToolRounds {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidToolRounds, c.MaxToolRounds, MaxAllowedToolRounds)
	}
	if c.SearchTopK < 1 || c.SearchTopK > MaxAllowedTopK {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidTopK, c.SearchTopK, MaxAllowedTopK)
	}
	return nil
}

// SlogLevel converts the configured log level string to a slog.Level.
// Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
