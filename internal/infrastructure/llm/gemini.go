package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"CityPodcast/internal/config"
	"CityPodcast/internal/domain"
	"CityPodcast/internal/ports"
	"CityPodcast/internal/script"
)

// GeminiWriter implements ports.ScriptWriter backed by Google Gemini.
// The client is created on first use and reused afterwards.
type GeminiWriter struct {
	model     string
	apiKey    string
	newClient func(ctx context.Context, opts ...option.ClientOption) (*genai.Client, error)

	mu     sync.Mutex
	client *genai.Client
}

var _ ports.ScriptWriter = (*GeminiWriter)(nil)

// NewGeminiWriter builds a writer from configuration.
func NewGeminiWriter(cfg config.GeminiConfig) *GeminiWriter {
	return &GeminiWriter{model: cfg.Model, apiKey: cfg.APIKey, newClient: genai.NewClient}
}

// Close releases the underlying client, if one was created.
func (w *GeminiWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.client == nil {
		return nil
	}
	err := w.client.Close()
	w.client = nil
	return err
}

func (w *GeminiWriter) getClient(ctx context.Context) (*genai.Client, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.client != nil {
		return w.client, nil
	}
	client, err := w.newClient(context.WithoutCancel(ctx), option.WithAPIKey(w.apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	w.client = client
	return client, nil
}

// Write asks Gemini for a radio script and returns its text verbatim.
func (w *GeminiWriter) Write(ctx context.Context, city string, articles []domain.Article) (string, error) {
	if w.apiKey == "" {
		return "", fmt.Errorf("gemini api key is not configured")
	}

	client, err := w.getClient(ctx)
	if err != nil {
		return "", err
	}

	model := client.GenerativeModel(w.model)
	model.SetTemperature(script.Temperature)
	model.SystemInstruction = genai.NewUserContent(genai.Text(script.SystemPersona))

	resp, err := model.GenerateContent(ctx, genai.Text(script.BuildPrompt(city, articles)))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return extractText(resp)
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("gemini candidate has no content")
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("gemini candidate has no text parts")
	}
	return b.String(), nil
}
