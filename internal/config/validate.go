package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) Validate() error {
	// Capture
	if c.Capture.SampleRate <= 0 {
		return fmt.Errorf("invalid capture.sample_rate: %d", c.Capture.SampleRate)
	}
	if c.Capture.Channels <= 0 {
		return fmt.Errorf("invalid capture.channels: %d", c.Capture.Channels)
	}
	if c.Capture.BufferSize <= 0 {
		return fmt.Errorf("invalid capture.buffer_size: %d", c.Capture.BufferSize)
	}
	if c.Capture.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid capture.channel_buffer_size: %d", c.Capture.ChannelBufferSize)
	}
	if c.Capture.Format == "" {
		return fmt.Errorf("invalid capture.format: empty")
	}
	if c.Capture.MaxRestarts <= 0 {
		return fmt.Errorf("invalid capture.max_restarts: %d", c.Capture.MaxRestarts)
	}

	// Transcription
	if c.Transcription.Provider != "assemblyai" {
		return fmt.Errorf("invalid transcription.provider: %s (only assemblyai is supported)", c.Transcription.Provider)
	}
	apiKey := c.Transcription.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ASSEMBLYAI_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("AssemblyAI API key required: set transcription.api_key or the ASSEMBLYAI_API_KEY environment variable")
	}
	if !isValidLanguageCode(c.Transcription.Language) {
		return fmt.Errorf("invalid transcription.language: %q (use ISO-639-1 codes like 'en', 'es', 'fr')", c.Transcription.Language)
	}

	// Translation
	switch c.Translation.Provider {
	case "libretranslate":
		if c.Translation.Endpoint == "" {
			return fmt.Errorf("invalid translation.endpoint: empty")
		}
	case "openai":
		key := c.Translation.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" {
			return fmt.Errorf("OpenAI API key required: set translation.api_key or the OPENAI_API_KEY environment variable")
		}
	default:
		return fmt.Errorf("invalid translation.provider: %s (must be libretranslate or openai)", c.Translation.Provider)
	}
	if !isValidLanguageCode(c.Translation.TargetLanguage) {
		return fmt.Errorf("invalid translation.target_language: %q", c.Translation.TargetLanguage)
	}
	if c.Translation.TargetLanguage == c.Transcription.Language {
		return fmt.Errorf("translation.target_language equals transcription.language (%s): nothing to translate", c.Translation.TargetLanguage)
	}

	// Synthesis
	if c.Synthesis.Endpoint == "" {
		return fmt.Errorf("invalid synthesis.endpoint: empty")
	}
	if c.Synthesis.Model == "" {
		return fmt.Errorf("invalid synthesis.model: empty")
	}

	// Playback
	if c.Playback.SampleRate <= 0 {
		return fmt.Errorf("invalid playback.sample_rate: %d", c.Playback.SampleRate)
	}
	if c.Playback.Channels <= 0 {
		return fmt.Errorf("invalid playback.channels: %d", c.Playback.Channels)
	}

	// Pipeline
	if c.Pipeline.MaxBacklog <= 0 {
		return fmt.Errorf("invalid pipeline.max_backlog: %d", c.Pipeline.MaxBacklog)
	}
	if c.Pipeline.ShutdownGrace <= 0 {
		return fmt.Errorf("invalid pipeline.shutdown_grace: %v", c.Pipeline.ShutdownGrace)
	}

	// Logging
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid logging.format: %s (must be console or json)", c.Logging.Format)
	}

	return nil
}

func isValidLanguageCode(code string) bool {
	validCodes := map[string]bool{
		"en": true, "es": true, "fr": true, "de": true, "it": true, "pt": true,
		"ru": true, "ja": true, "ko": true, "zh": true, "ar": true, "hi": true,
		"nl": true, "sv": true, "da": true, "no": true, "fi": true, "pl": true,
		"tr": true, "he": true, "th": true, "vi": true, "id": true, "ms": true,
		"uk": true, "cs": true, "hu": true, "ro": true, "bg": true, "hr": true,
		"sk": true, "sl": true, "et": true, "lv": true, "lt": true, "ga": true,
		"eu": true, "ca": true, "gl": true, "is": true, "mk": true, "sq": true,
		"az": true, "be": true, "ka": true, "hy": true, "kk": true, "ky": true,
		"uz": true, "mn": true, "ne": true, "si": true, "km": true, "lo": true,
		"my": true, "fa": true, "ps": true, "ur": true, "bn": true, "ta": true,
		"te": true, "ml": true, "kn": true, "gu": true, "pa": true, "mr": true,
		"sw": true, "yo": true, "ig": true, "ha": true, "zu": true, "xh": true,
		"af": true, "am": true, "so": true, "sn": true, "rw": true, "mg": true,
	}
	return validCodes[code]
}
