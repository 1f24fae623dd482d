package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Transcription.ChunkSizeLimitBytes() != 25*1024*1024 {
		t.Errorf("unexpected default chunk limit: %d", cfg.Transcription.ChunkSizeLimitBytes())
	}
	if cfg.Transcription.MaxAttempts != 3 {
		t.Errorf("unexpected default max attempts: %d", cfg.Transcription.MaxAttempts)
	}
	if cfg.Transcription.ContextTokenLimit != 100 {
		t.Errorf("unexpected default context token limit: %d", cfg.Transcription.ContextTokenLimit)
	}
}

func TestLoadFromTOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[transcription]
model = "whisper-large"
language = "de"
chunk_size_limit_mb = 10
retry_delay_ms = 500

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Transcription.Model != "whisper-large" {
		t.Errorf("unexpected model: %s", cfg.Transcription.Model)
	}
	if cfg.Transcription.Language != "de" {
		t.Errorf("unexpected language: %s", cfg.Transcription.Language)
	}
	if cfg.Transcription.ChunkSizeLimitMB != 10 {
		t.Errorf("unexpected chunk limit: %d", cfg.Transcription.ChunkSizeLimitMB)
	}
	if cfg.Transcription.RetryDelay().Milliseconds() != 500 {
		t.Errorf("unexpected retry delay: %v", cfg.Transcription.RetryDelay())
	}
	// defaults survive a partial file
	if cfg.Transcription.MaxAttempts != 3 {
		t.Errorf("expected default max attempts, got %d", cfg.Transcription.MaxAttempts)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("unexpected log level: %s", cfg.Logging.Level)
	}
}

func TestEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Transcription.OpenAIAPIKey != "sk-from-env" {
		t.Errorf("expected the env var to override the key, got %q", cfg.Transcription.OpenAIAPIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk limit", func(c *Config) { c.Transcription.ChunkSizeLimitMB = 0 }},
		{"zero attempts", func(c *Config) { c.Transcription.MaxAttempts = 0 }},
		{"temperature above one", func(c *Config) { c.Transcription.Temperature = 1.5 }},
		{"negative context limit", func(c *Config) { c.Transcription.ContextTokenLimit = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation to fail")
			}
		})
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load("/nonexistent/config.toml"); err == nil {
		t.Error("expected an error for a missing config file")
	}
}
