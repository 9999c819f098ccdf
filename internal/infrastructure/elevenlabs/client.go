package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"CityPodcast/internal/config"
	"CityPodcast/internal/ports"
)

// ModelID is the synthesis quality tier used for every podcast.
const ModelID = "eleven_turbo_v2_5"

// VoiceSettings is the fixed tuning profile applied to every voice.
var VoiceSettings = voiceSettings{
	Stability:       0.5,
	SimilarityBoost: 0.75,
	Style:           0.5,
	UseSpeakerBoost: true,
}

// ErrEmptyAudio is returned when the provider streams no bytes.
var ErrEmptyAudio = errors.New("speech provider returned no audio")

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Client streams text-to-speech audio from ElevenLabs into files.
type Client struct {
	endpoint     string
	apiKey       string
	outputFormat string
	voices       map[string]string
	http         *http.Client
	logger       *slog.Logger
}

var _ ports.SpeechSynthesizer = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(cfg config.SpeechConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	voices := make(map[string]string, len(cfg.Voices))
	for alias, id := range cfg.Voices {
		voices[alias] = id
	}
	return &Client{
		endpoint:     strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		outputFormat: cfg.OutputFormat,
		voices:       voices,
		http:         &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// ResolveVoice maps a configured alias (e.g. "Rachel") to its voice id.
// Unknown values are assumed to be voice ids already.
func (c *Client) ResolveVoice(voiceID string) string {
	if id, ok := c.voices[voiceID]; ok {
		return id
	}
	return voiceID
}

// Synthesize sends text in one request and streams the audio into destination,
// replacing any existing file. A failed or empty stream leaves no file behind.
func (c *Client) Synthesize(ctx context.Context, text, voiceID, destination string) (int64, error) {
	if c.apiKey == "" {
		return 0, fmt.Errorf("elevenlabs api key is not configured")
	}
	if strings.TrimSpace(voiceID) == "" {
		return 0, fmt.Errorf("voice id is required")
	}

	resp, err := c.stream(ctx, text, c.ResolveVoice(voiceID))
	if err != nil {
		return 0, err
	}
	defer resp.Close()

	written, err := writeFile(destination, resp)
	if err != nil {
		return 0, err
	}

	if c.logger != nil {
		c.logger.Debug("speech synthesized", "voice", voiceID, "path", destination, "size_bytes", written)
	}
	return written, nil
}

func (c *Client) stream(ctx context.Context, text, voice string) (io.ReadCloser, error) {
	body, err := json.Marshal(speechRequest{
		Text:          text,
		ModelID:       ModelID,
		VoiceSettings: VoiceSettings,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal speech request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s/stream", c.endpoint, url.PathEscape(voice))
	if c.outputFormat != "" {
		endpoint += "?output_format=" + url.QueryEscape(c.outputFormat)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("elevenlabs error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	return resp.Body, nil
}

// writeFile copies chunks into destination as they arrive.
func writeFile(destination string, src io.Reader) (written int64, err error) {
	out, err := os.Create(destination)
	if err != nil {
		return 0, fmt.Errorf("create audio file: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close audio file: %w", closeErr)
		}
		if err != nil {
			_ = os.Remove(destination)
		}
	}()

	written, err = io.Copy(out, src)
	if err != nil {
		return written, fmt.Errorf("write audio stream: %w", err)
	}
	if written == 0 {
		return 0, ErrEmptyAudio
	}
	return written, nil
}
