package synthesizer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lingopipe/lingopipe/internal/logging"
)

// CoquiConfig configures the adapter for a locally running Coqui TTS server
// (tts-server). The server loads one model at startup; ModelID is recorded
// for logs and the self test only.
type CoquiConfig struct {
	BaseURL    string
	ModelID    string
	SpeakerID  string
	LanguageID string
	OutputRate     int // target playback rate; engine output is resampled to it
	OutputChannels int // target playback channel count
	Timeout        time.Duration
}

func DefaultCoquiConfig() CoquiConfig {
	return CoquiConfig{
		BaseURL:        "http://127.0.0.1:5002",
		ModelID:        "tts_models/es/css10/vits",
		OutputRate:     22050,
		OutputChannels: 1,
		Timeout:        30 * time.Second,
	}
}

// CoquiAdapter synthesizes speech through the Coqui TTS server HTTP API.
type CoquiAdapter struct {
	cfg    CoquiConfig
	client *http.Client
	log    zerolog.Logger
}

func NewCoquiAdapter(cfg CoquiConfig) *CoquiAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultCoquiConfig().BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCoquiConfig().Timeout
	}
	return &CoquiAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    logging.Component("coqui"),
	}
}

// Synthesize asks the server for a WAV rendering of text and returns PCM at
// the configured output rate.
func (a *CoquiAdapter) Synthesize(ctx context.Context, text string) (*Audio, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewEngineError(fmt.Errorf("empty text"))
	}

	reqURL, err := a.buildURL(text)
	if err != nil {
		return nil, NewEngineError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, NewEngineError(err)
	}

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, NewEngineError(fmt.Errorf("tts request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewEngineError(fmt.Errorf("tts server status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewEngineError(fmt.Errorf("read tts response: %w", err))
	}

	audio, err := decodeWAV(wav)
	if err != nil {
		return nil, NewEngineError(fmt.Errorf("decode tts wav: %w", err))
	}

	nativeRate := audio.SampleRate
	if a.cfg.OutputChannels > 0 && audio.Channels != a.cfg.OutputChannels {
		audio = ConvertChannels(audio, a.cfg.OutputChannels)
	}
	if a.cfg.OutputRate > 0 && audio.SampleRate != a.cfg.OutputRate {
		audio = Resample(audio, a.cfg.OutputRate)
	}

	a.log.Debug().
		Int("native_rate", nativeRate).
		Int("rate", audio.SampleRate).
		Dur("elapsed", time.Since(start)).
		Dur("audio", audio.Duration()).
		Msg("synthesized")

	return audio, nil
}

func (a *CoquiAdapter) buildURL(text string) (string, error) {
	u, err := url.Parse(a.cfg.BaseURL + "/api/tts")
	if err != nil {
		return "", fmt.Errorf("parse tts url: %w", err)
	}
	q := u.Query()
	q.Set("text", text)
	if a.cfg.SpeakerID != "" {
		q.Set("speaker_id", a.cfg.SpeakerID)
	}
	if a.cfg.LanguageID != "" {
		q.Set("language_id", a.cfg.LanguageID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
