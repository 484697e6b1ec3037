package config

import (
	"os"
	"time"

	"github.com/lingopipe/lingopipe/internal/capture"
	"github.com/lingopipe/lingopipe/internal/logging"
	"github.com/lingopipe/lingopipe/internal/pipeline"
	"github.com/lingopipe/lingopipe/internal/playback"
	"github.com/lingopipe/lingopipe/internal/synthesizer"
	"github.com/lingopipe/lingopipe/internal/transcriber"
	"github.com/lingopipe/lingopipe/internal/translator"
)

// Config is the process-wide configuration, read once at startup and passed
// into each adapter's constructor. Nothing reads it through a global.
type Config struct {
	Capture       CaptureConfig       `toml:"capture"`
	Transcription TranscriptionConfig `toml:"transcription"`
	Translation   TranslationConfig   `toml:"translation"`
	Synthesis     SynthesisConfig     `toml:"synthesis"`
	Playback      PlaybackConfig      `toml:"playback"`
	Pipeline      PipelineConfig      `toml:"pipeline"`
	Logging       logging.Config      `toml:"logging"`
}

type CaptureConfig struct {
	SampleRate        int           `toml:"sample_rate"`
	Channels          int           `toml:"channels"`
	Format            string        `toml:"format"`
	BufferSize        int           `toml:"buffer_size"`
	Device            string        `toml:"device"`
	ChannelBufferSize int           `toml:"channel_buffer_size"`
	MaxRestarts       int           `toml:"max_restarts"`
	RestartBackoff    time.Duration `toml:"restart_backoff"`
}

type TranscriptionConfig struct {
	Provider string `toml:"provider"` // "assemblyai" only currently
	APIKey   string `toml:"api_key"`
	Language string `toml:"language"` // source language code
	Endpoint string `toml:"endpoint"`
}

type TranslationConfig struct {
	Provider       string        `toml:"provider"` // "libretranslate" or "openai"
	TargetLanguage string        `toml:"target_language"`
	Endpoint       string        `toml:"endpoint"`
	APIKey         string        `toml:"api_key"`
	Model          string        `toml:"model"` // openai provider only
	Timeout        time.Duration `toml:"timeout"`
}

type SynthesisConfig struct {
	Endpoint   string        `toml:"endpoint"`
	Model      string        `toml:"model"`
	SpeakerID  string        `toml:"speaker_id"`
	LanguageID string        `toml:"language_id"`
	Timeout    time.Duration `toml:"timeout"`
}

type PlaybackConfig struct {
	SampleRate int    `toml:"sample_rate"`
	Channels   int    `toml:"channels"`
	Device     string `toml:"device"`
}

type PipelineConfig struct {
	MaxBacklog    int           `toml:"max_backlog"`
	ShutdownGrace time.Duration `toml:"shutdown_grace"`
	MinFinalLen   int           `toml:"min_final_len"`
}

func (c *Config) ToCaptureConfig() capture.Config {
	return capture.Config{
		SampleRate:        c.Capture.SampleRate,
		Channels:          c.Capture.Channels,
		Format:            c.Capture.Format,
		BufferSize:        c.Capture.BufferSize,
		Device:            c.Capture.Device,
		ChannelBufferSize: c.Capture.ChannelBufferSize,
	}
}

func (c *Config) ToSessionConfig() capture.SessionConfig {
	return capture.SessionConfig{
		Language:       c.Transcription.Language,
		MinFinalLen:    c.Pipeline.MinFinalLen,
		MaxRestarts:    c.Capture.MaxRestarts,
		RestartBackoff: c.Capture.RestartBackoff,
	}
}

func (c *Config) ToAssemblyAIConfig() transcriber.AssemblyAIConfig {
	apiKey := c.Transcription.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ASSEMBLYAI_API_KEY")
	}
	return transcriber.AssemblyAIConfig{
		BaseURL:    c.Transcription.Endpoint,
		APIKey:     apiKey,
		SampleRate: c.Capture.SampleRate,
	}
}

func (c *Config) ToLibreTranslateConfig() translator.LibreTranslateConfig {
	return translator.LibreTranslateConfig{
		BaseURL: c.Translation.Endpoint,
		APIKey:  c.Translation.APIKey,
		Timeout: c.Translation.Timeout,
	}
}

func (c *Config) ToOpenAITranslatorConfig() translator.OpenAIConfig {
	apiKey := c.Translation.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	return translator.OpenAIConfig{
		APIKey: apiKey,
		Model:  c.Translation.Model,
	}
}

func (c *Config) ToCoquiConfig() synthesizer.CoquiConfig {
	return synthesizer.CoquiConfig{
		BaseURL:        c.Synthesis.Endpoint,
		ModelID:        c.Synthesis.Model,
		SpeakerID:      c.Synthesis.SpeakerID,
		LanguageID:     c.Synthesis.LanguageID,
		OutputRate:     c.Playback.SampleRate,
		OutputChannels: c.Playback.Channels,
		Timeout:        c.Synthesis.Timeout,
	}
}

func (c *Config) ToPlaybackConfig() playback.Config {
	return playback.Config{
		SampleRate: c.Playback.SampleRate,
		Channels:   c.Playback.Channels,
		Device:     c.Playback.Device,
	}
}

func (c *Config) ToPipelineConfig() pipeline.Config {
	return pipeline.Config{
		SourceLanguage: c.Transcription.Language,
		TargetLanguage: c.Translation.TargetLanguage,
		MaxBacklog:     c.Pipeline.MaxBacklog,
		ShutdownGrace:  c.Pipeline.ShutdownGrace,
	}
}
