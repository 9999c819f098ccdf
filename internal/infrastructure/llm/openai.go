package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"CityPodcast/internal/config"
	"CityPodcast/internal/domain"
	"CityPodcast/internal/ports"
	"CityPodcast/internal/script"
)

// OpenAIWriter implements ports.ScriptWriter backed by the OpenAI chat completions API.
type OpenAIWriter struct {
	client *openai.Client
	model  string
	apiKey string
}

var _ ports.ScriptWriter = (*OpenAIWriter)(nil)

// NewOpenAIWriter builds a writer from configuration.
func NewOpenAIWriter(cfg config.OpenAIConfig) *OpenAIWriter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIWriter{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		apiKey: cfg.APIKey,
	}
}

// Write asks the model for a radio script and returns its text verbatim.
func (w *OpenAIWriter) Write(ctx context.Context, city string, articles []domain.Article) (string, error) {
	if w == nil || w.client == nil {
		return "", fmt.Errorf("openai writer is nil")
	}
	if w.apiKey == "" {
		return "", fmt.Errorf("openai api key is not configured")
	}

	resp, err := w.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: w.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: script.SystemPersona},
			{Role: openai.ChatMessageRoleUser, Content: script.BuildPrompt(city, articles)},
		},
		Temperature: script.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
