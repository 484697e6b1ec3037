package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lingopipe/lingopipe/internal/logging"
)

// LibreTranslateConfig points the adapter at a locally running
// LibreTranslate instance serving the installed Argos language-pair models.
type LibreTranslateConfig struct {
	BaseURL string
	APIKey  string // optional, most local installs run without one
	Timeout time.Duration
}

func DefaultLibreTranslateConfig() LibreTranslateConfig {
	return LibreTranslateConfig{
		BaseURL: "http://127.0.0.1:5000",
		Timeout: 15 * time.Second,
	}
}

// LibreTranslateAdapter implements Translator against the /translate
// endpoint of a local LibreTranslate server.
type LibreTranslateAdapter struct {
	cfg    LibreTranslateConfig
	client *http.Client
	log    zerolog.Logger
}

func NewLibreTranslateAdapter(cfg LibreTranslateConfig) *LibreTranslateAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultLibreTranslateConfig().BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLibreTranslateConfig().Timeout
	}
	return &LibreTranslateAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    logging.Component("libretranslate"),
	}
}

type libreTranslateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreTranslateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

func (a *LibreTranslateAdapter) Translate(ctx context.Context, text, source, target string) (string, error) {
	body, err := json.Marshal(libreTranslateRequest{
		Q:      text,
		Source: source,
		Target: target,
		Format: "text",
		APIKey: a.cfg.APIKey,
	})
	if err != nil {
		return "", NewEngineError(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", NewEngineError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return "", NewEngineError(fmt.Errorf("translate request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", NewEngineError(fmt.Errorf("read response: %w", err))
	}

	var parsed libreTranslateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", NewEngineError(fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err))
	}

	if resp.StatusCode != http.StatusOK {
		msg := parsed.Error
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		// The server answers 400 with "... is not supported" when the
		// language pair has no installed model.
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(msg), "not supported") {
			return "", fmt.Errorf("%w: %s->%s", ErrUnavailable, source, target)
		}
		return "", NewEngineError(fmt.Errorf("server status %d: %s", resp.StatusCode, msg))
	}

	a.log.Debug().
		Str("source", source).
		Str("target", target).
		Dur("elapsed", time.Since(start)).
		Msg("translated")

	return parsed.TranslatedText, nil
}
