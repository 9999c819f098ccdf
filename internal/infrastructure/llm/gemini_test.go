package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"CityPodcast/internal/config"
	"CityPodcast/internal/domain"
)

func TestExtractText(t *testing.T) {
	t.Parallel()

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("Good morning, "),
				genai.Blob{MIMEType: "image/png", Data: []byte{1}},
				genai.Text("Denver!"),
			}},
		}},
	}

	text, err := extractText(resp)
	require.NoError(t, err)
	assert.Equal(t, "Good morning, Denver!", text)
}

func TestExtractTextRejectsEmptyResponses(t *testing.T) {
	t.Parallel()

	for name, resp := range map[string]*genai.GenerateContentResponse{
		"nil":           nil,
		"no candidates": {},
		"nil content":   {Candidates: []*genai.Candidate{{}}},
		"no text": {Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "audio/mpeg"}}},
		}}},
	} {
		_, err := extractText(resp)
		assert.Error(t, err, name)
	}
}

func TestGeminiWriterRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewGeminiWriter(config.GeminiConfig{Model: "gemini-2.0-flash"}).
		Write(context.Background(), "Denver", []domain.Article{{Title: "t"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}

func TestGeminiWriterReusesClient(t *testing.T) {
	t.Parallel()

	var created int
	w := NewGeminiWriter(config.GeminiConfig{Model: "gemini-2.0-flash", APIKey: "key"})
	w.newClient = func(context.Context, ...option.ClientOption) (*genai.Client, error) {
		created++
		return &genai.Client{}, nil
	}

	first, err := w.getClient(context.Background())
	require.NoError(t, err)
	second, err := w.getClient(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, created)
}

func TestGeminiWriterRetriesFailedClientCreation(t *testing.T) {
	t.Parallel()

	var created int
	w := NewGeminiWriter(config.GeminiConfig{Model: "gemini-2.0-flash", APIKey: "key"})
	w.newClient = func(context.Context, ...option.ClientOption) (*genai.Client, error) {
		created++
		if created == 1 {
			return nil, errors.New("dial failed")
		}
		return &genai.Client{}, nil
	}

	_, err := w.getClient(context.Background())
	require.Error(t, err)
	_, err = w.getClient(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, created)
}
