package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func validTestConfig(t *testing.T) *Config {
	t.Helper()
	cfg := Default()
	cfg.Transcription.APIKey = "test-key"
	return cfg
}

func TestDefaultsValidate(t *testing.T) {
	t.Setenv("ASSEMBLYAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := validTestConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults with API key should validate, got: %v", err)
	}
}

func TestDefaultConfigContentParses(t *testing.T) {
	cfg := Default()
	if _, err := toml.Decode(defaultConfigContent, cfg); err != nil {
		t.Fatalf("shipped default config does not parse: %v", err)
	}
	if cfg.Pipeline.ShutdownGrace != 5*time.Second {
		t.Errorf("shutdown_grace = %v, want 5s", cfg.Pipeline.ShutdownGrace)
	}
	if cfg.Capture.RestartBackoff != time.Second {
		t.Errorf("restart_backoff = %v, want 1s", cfg.Capture.RestartBackoff)
	}
}

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transcription.Provider != "assemblyai" {
		t.Errorf("provider = %s, want default", cfg.Transcription.Provider)
	}
	if _, err := os.Stat(filepath.Join(dir, "lingopipe", "config.toml")); err != nil {
		t.Errorf("default config file not written: %v", err)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[transcription]
  api_key = "abc123"
  language = "de"

[translation]
  target_language = "fr"
  timeout = "3s"

[pipeline]
  max_backlog = 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Transcription.Language != "de" || cfg.Translation.TargetLanguage != "fr" {
		t.Errorf("languages = %s -> %s", cfg.Transcription.Language, cfg.Translation.TargetLanguage)
	}
	if cfg.Translation.Timeout != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", cfg.Translation.Timeout)
	}
	if cfg.Pipeline.MaxBacklog != 4 {
		t.Errorf("max_backlog = %d, want 4", cfg.Pipeline.MaxBacklog)
	}

	// Untouched sections keep their defaults.
	if cfg.Playback.SampleRate != 22050 {
		t.Errorf("playback.sample_rate = %d, want default 22050", cfg.Playback.SampleRate)
	}
	if cfg.Transcription.APIKey != "abc123" {
		t.Errorf("api_key not loaded")
	}
}

func TestValidateRejections(t *testing.T) {
	t.Setenv("ASSEMBLYAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing api key", func(c *Config) { c.Transcription.APIKey = "" }, "API key"},
		{"bad provider", func(c *Config) { c.Transcription.Provider = "whisper" }, "transcription.provider"},
		{"bad language", func(c *Config) { c.Transcription.Language = "english" }, "transcription.language"},
		{"bad target", func(c *Config) { c.Translation.TargetLanguage = "xx" }, "target_language"},
		{"same pair", func(c *Config) { c.Translation.TargetLanguage = c.Transcription.Language }, "nothing to translate"},
		{"bad translator", func(c *Config) { c.Translation.Provider = "deepl" }, "translation.provider"},
		{"openai without key", func(c *Config) { c.Translation.Provider = "openai" }, "OpenAI API key"},
		{"empty synthesis endpoint", func(c *Config) { c.Synthesis.Endpoint = "" }, "synthesis.endpoint"},
		{"zero backlog", func(c *Config) { c.Pipeline.MaxBacklog = 0 }, "max_backlog"},
		{"zero grace", func(c *Config) { c.Pipeline.ShutdownGrace = 0 }, "shutdown_grace"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"zero sample rate", func(c *Config) { c.Capture.SampleRate = 0 }, "sample_rate"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validTestConfig(t)
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate accepted invalid config")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestValidateAcceptsEnvKeys(t *testing.T) {
	t.Setenv("ASSEMBLYAI_API_KEY", "from-env")
	t.Setenv("OPENAI_API_KEY", "from-env")

	cfg := Default()
	cfg.Translation.Provider = "openai"
	if err := cfg.Validate(); err != nil {
		t.Errorf("env-provided keys should validate, got: %v", err)
	}
}

func TestConverters(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.Playback.SampleRate = 48000

	if got := cfg.ToCoquiConfig().OutputRate; got != 48000 {
		t.Errorf("coqui output rate = %d, want the playback rate", got)
	}
	if got := cfg.ToPipelineConfig(); got.SourceLanguage != "en" || got.TargetLanguage != "es" {
		t.Errorf("pipeline languages = %s -> %s", got.SourceLanguage, got.TargetLanguage)
	}
	if got := cfg.ToSessionConfig(); got.Language != "en" || got.MinFinalLen != 3 {
		t.Errorf("session config = %+v", got)
	}
}

func TestAssemblyAIKeyEnvFallback(t *testing.T) {
	t.Setenv("ASSEMBLYAI_API_KEY", "env-key")

	cfg := Default()
	if got := cfg.ToAssemblyAIConfig().APIKey; got != "env-key" {
		t.Errorf("APIKey = %q, want env fallback", got)
	}

	cfg.Transcription.APIKey = "file-key"
	if got := cfg.ToAssemblyAIConfig().APIKey; got != "file-key" {
		t.Errorf("APIKey = %q, config file must win over env", got)
	}
}
