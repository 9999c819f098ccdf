package llm

import (
	"fmt"
	"strings"

	"CityPodcast/internal/config"
	"CityPodcast/internal/ports"
)

// NewWriter picks the script writer named by cfg.Provider.
func NewWriter(cfg config.LLMConfig) (ports.ScriptWriter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai":
		return NewOpenAIWriter(cfg.OpenAI), nil
	case "gemini":
		return NewGeminiWriter(cfg.Gemini), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
