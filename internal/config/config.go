package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the top-level application configuration
type Config struct {
	Server        ServerConfig        `toml:"server"`
	Media         MediaConfig         `toml:"media"`
	Transcription TranscriptionConfig `toml:"transcription"`
	PostProcess   PostProcessConfig   `toml:"post_processing"`
	Storage       StorageConfig       `toml:"storage"`
	Logging       LoggingConfig       `toml:"logging"`
}

// ServerConfig represents the HTTP API server configuration
type ServerConfig struct {
	ListenAddr         string   `toml:"listen_addr" env:"VOXSPLIT_LISTEN_ADDR"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	ShutdownTimeoutSec int      `toml:"shutdown_timeout_sec"`
}

// MediaConfig represents ffmpeg/ffprobe and scratch space configuration
type MediaConfig struct {
	FFmpegPath   string `toml:"ffmpeg_path"`
	FFprobePath  string `toml:"ffprobe_path"`
	ScratchDir   string `toml:"scratch_dir"`
	KeepSegments bool   `toml:"keep_segments"`
	SampleRate   int    `toml:"sample_rate"`
	Channels     int    `toml:"channels"`
	Bitrate      string `toml:"bitrate"`
}

// TranscriptionConfig represents the recognition service configuration
type TranscriptionConfig struct {
	OpenAIAPIKey      string  `toml:"openai_api_key" env:"OPENAI_API_KEY"`
	BaseURL           string  `toml:"base_url"`
	Model             string  `toml:"model"`
	Language          string  `toml:"language"`
	Temperature       float64 `toml:"temperature"`
	MaxAttempts       int     `toml:"max_attempts"`
	RetryDelayMs      int     `toml:"retry_delay_ms"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	ChunkSizeLimitMB  int     `toml:"chunk_size_limit_mb"`
	ContextTokenLimit int     `toml:"context_token_limit"`
}

// RetryDelay returns the inter-attempt delay as a duration
func (c TranscriptionConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// Timeout returns the per-request HTTP timeout as a duration
func (c TranscriptionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ChunkSizeLimitBytes returns the segment size limit in bytes
func (c TranscriptionConfig) ChunkSizeLimitBytes() int64 {
	return int64(c.ChunkSizeLimitMB) * 1024 * 1024
}

// PostProcessConfig represents the optional LLM cleanup pass configuration
type PostProcessConfig struct {
	Enabled        bool    `toml:"enabled"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// StorageConfig represents the SQLite run-history configuration
type StorageConfig struct {
	Enabled bool   `toml:"enabled"`
	DBPath  string `toml:"db_path" env:"VOXSPLIT_DB_PATH"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `toml:"level" env:"VOXSPLIT_LOG_LEVEL"`
	Format string `toml:"format"`
}

// Default returns a configuration populated with sane defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:         ":8080",
			CORSAllowedOrigins: []string{"*"},
			ShutdownTimeoutSec: 10,
		},
		Media: MediaConfig{
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
			ScratchDir:  os.TempDir(),
			SampleRate:  16000,
			Channels:    1,
			Bitrate:     "64k",
		},
		Transcription: TranscriptionConfig{
			BaseURL:           "https://api.openai.com/v1",
			Model:             "whisper-1",
			Language:          "en",
			Temperature:       0.0,
			MaxAttempts:       3,
			RetryDelayMs:      2000,
			TimeoutSeconds:    300,
			ChunkSizeLimitMB:  25,
			ContextTokenLimit: 100,
		},
		PostProcess: PostProcessConfig{
			Enabled:        false,
			Model:          "gpt-4o-mini",
			Temperature:    0.2,
			TimeoutSeconds: 60,
		},
		Storage: StorageConfig{
			Enabled: true,
			DBPath:  "voxsplit.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from the given TOML file (if non-empty), applies
// environment overrides, and validates the result. Components never read the
// environment themselves; everything flows from here.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Transcription.ChunkSizeLimitMB <= 0 {
		return fmt.Errorf("transcription.chunk_size_limit_mb must be positive, got %d", c.Transcription.ChunkSizeLimitMB)
	}
	if c.Transcription.MaxAttempts < 1 {
		return fmt.Errorf("transcription.max_attempts must be at least 1, got %d", c.Transcription.MaxAttempts)
	}
	if c.Transcription.Temperature < 0 || c.Transcription.Temperature > 1 {
		return fmt.Errorf("transcription.temperature must be in [0,1], got %f", c.Transcription.Temperature)
	}
	if c.Transcription.ContextTokenLimit < 0 {
		return fmt.Errorf("transcription.context_token_limit must not be negative, got %d", c.Transcription.ContextTokenLimit)
	}
	return nil
}
