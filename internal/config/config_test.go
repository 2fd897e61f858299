package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "googleai", cfg.Provider)
	assert.Equal(t, DefaultModelName, cfg.ModelName)
	assert.Equal(t, DefaultEmbedderModel, cfg.EmbedderModel)
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, DefaultChunkOverlap, cfg.ChunkOverlap)
	assert.Equal(t, DefaultSearchTopK, cfg.SearchTopK)
	assert.Equal(t, DefaultMaxHistory, cfg.MaxHistory)
	assert.Equal(t, DefaultMaxToolRounds, cfg.MaxToolRounds)
	assert.Equal(t, "127.0.0.1:8000", cfg.ListenAddr)
	assert.True(t, strings.HasSuffix(cfg.StorePath, filepath.Join(".coursepilot", "index")))
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "chunk_size: 1000\nchunk_overlap: 200\nmax_tool_rounds: 3\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 3, cfg.MaxToolRounds)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	// Untouched keys keep their defaults.
	assert.Equal(t, DefaultModelName, cfg.ModelName)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("COURSEPILOT_CHUNK_SIZE", "2000")
	t.Setenv("COURSEPILOT_MODEL_NAME", "googleai/gemini-2.5-pro")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2000, cfg.ChunkSize)
	assert.Equal(t, "googleai/gemini-2.5-pro", cfg.ModelName)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ModelName:     DefaultModelName,
			ChunkSize:     DefaultChunkSize,
			ChunkOverlap:  DefaultChunkOverlap,
			MinChunk:      DefaultMinChunk,
			SearchTopK:    DefaultSearchTopK,
			MaxHistory:    DefaultMaxHistory,
			MaxToolRounds: DefaultMaxToolRounds,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"empty model", func(c *Config) { c.ModelName = "" }, ErrInvalidModelName},
		{"chunk size too small", func(c *Config) { c.ChunkSize = 10 }, ErrInvalidChunkSize},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }, ErrInvalidChunkOverlap},
		{"overlap >= size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }, ErrInvalidChunkOverlap},
		{"zero history", func(c *Config) { c.MaxHistory = 0 }, ErrInvalidMaxHistory},
		{"history over cap", func(c *Config) { c.MaxHistory = MaxAllowedHistory + 1 }, ErrInvalidMaxHistory},
		{"zero tool rounds", func(c *Config) { c.MaxToolRounds = 0 }, ErrInvalidToolRounds},
		{"rounds over cap", func(c *Config) { c.MaxToolRounds = MaxAllowedToolRounds + 1 }, ErrInvalidToolRounds},
		{"zero top k", func(c *Config) { c.SearchTopK = 0 }, ErrInvalidTopK},
		{"top k over cap", func(c *Config) { c.SearchTopK = MaxAllowedTopK + 1 }, ErrInvalidTopK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	var cfg *Config
	assert.ErrorIs(t, cfg.Validate(), ErrConfigNil)
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.in}
		assert.Equal(t, tt.want, cfg.SlogLevel(), "level %q", tt.in)
	}
}
