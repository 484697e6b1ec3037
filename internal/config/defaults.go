package config

import (
	"time"

	"github.com/lingopipe/lingopipe/internal/logging"
)

func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			SampleRate:        16000,
			Channels:          1,
			Format:            "s16",
			BufferSize:        4096,
			Device:            "",
			ChannelBufferSize: 30,
			MaxRestarts:       3,
			RestartBackoff:    time.Second,
		},
		Transcription: TranscriptionConfig{
			Provider: "assemblyai",
			Language: "en",
			Endpoint: "wss://streaming.assemblyai.com",
		},
		Translation: TranslationConfig{
			Provider:       "libretranslate",
			TargetLanguage: "es",
			Endpoint:       "http://127.0.0.1:5000",
			Model:          "gpt-4o-mini",
			Timeout:        15 * time.Second,
		},
		Synthesis: SynthesisConfig{
			Endpoint: "http://127.0.0.1:5002",
			Model:    "tts_models/es/css10/vits",
			Timeout:  30 * time.Second,
		},
		Playback: PlaybackConfig{
			SampleRate: 22050,
			Channels:   1,
			Device:     "",
		},
		Pipeline: PipelineConfig{
			MaxBacklog:    8,
			ShutdownGrace: 5 * time.Second,
			MinFinalLen:   3,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "console",
		},
	}
}

// defaultConfigContent is written on first run. Comments double as the
// setup documentation for the two local engines.
const defaultConfigContent = `# lingopipe configuration
# Generated with defaults. Changes are picked up without a daemon restart.

# Microphone capture (PipeWire)
[capture]
  sample_rate = 16000          # capture rate in Hz (16000 recommended for speech)
  channels = 1                 # 1 = mono, 2 = stereo
  format = "s16"               # 16-bit signed PCM
  buffer_size = 4096           # device read size in bytes
  device = ""                  # PipeWire source (empty = default microphone)
  channel_buffer_size = 30     # frames buffered between device and session
  max_restarts = 3             # consecutive capture restarts before giving up
  restart_backoff = "1s"       # wait between capture restarts

# Streaming speech-to-text
[transcription]
  provider = "assemblyai"      # streaming STT service
  api_key = ""                 # or set ASSEMBLYAI_API_KEY
  language = "en"              # source language code
  endpoint = "wss://streaming.assemblyai.com"

# Text translation
[translation]
  provider = "libretranslate"  # "libretranslate" (local) or "openai" (cloud)
  target_language = "es"       # translated speech language
  endpoint = "http://127.0.0.1:5000"  # local LibreTranslate server
  api_key = ""                 # LibreTranslate key if set, or OPENAI_API_KEY
  model = "gpt-4o-mini"        # openai provider only
  timeout = "15s"

# Speech synthesis (Coqui TTS server: tts-server --model_name <model>)
[synthesis]
  endpoint = "http://127.0.0.1:5002"
  model = "tts_models/es/css10/vits"  # must match the loaded server model
  speaker_id = ""              # multi-speaker models only
  language_id = ""             # multi-lingual models only
  timeout = "30s"

# Speaker output (PipeWire)
[playback]
  sample_rate = 22050          # everything is resampled to this rate
  channels = 1
  device = ""                  # PipeWire sink (empty = default output)

# Pipeline sequencing
[pipeline]
  max_backlog = 8              # queued utterances before the oldest is dropped
  shutdown_grace = "5s"        # wait for the in-flight utterance on shutdown
  min_final_len = 3            # finals shorter than this are discarded

[logging]
  level = "info"               # debug, info, warn, error
  format = "console"           # "console" or "json"
  file = ""                    # optional log file in addition to stderr
`
