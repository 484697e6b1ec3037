package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/lingopipe/lingopipe/internal/logging"
)

// OpenAIConfig configures the cloud fallback translator. Used when no local
// model is installed for the requested pair.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // optional, for OpenAI-compatible endpoints
	Model   string
}

// OpenAIAdapter implements Translator with a chat completion. Temperature is
// pinned to zero so identical input yields identical output.
type OpenAIAdapter struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

func NewOpenAIAdapter(cfg OpenAIConfig) (*OpenAIAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai translator: API key required")
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		log:    logging.Component("openai-translator"),
	}, nil
}

func (a *OpenAIAdapter) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	system := fmt.Sprintf(
		"You are a translation engine. Translate the user's text from %s to %s. "+
			"Reply with the translation only, no quotes, no commentary.",
		source, target)

	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", NewEngineError(fmt.Errorf("chat completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", NewEngineError(fmt.Errorf("chat completion: no choices"))
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	a.log.Debug().
		Str("source", source).
		Str("target", target).
		Dur("elapsed", time.Since(start)).
		Msg("translated")
	return out, nil
}
