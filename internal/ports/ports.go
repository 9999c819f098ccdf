package ports

import (
	"context"
	"time"

	"CityPodcast/internal/domain"
)

// NewsSource pulls recent local articles for a city.
type NewsSource interface {
	Fetch(ctx context.Context, city string) ([]domain.Article, error)
}

// ScriptWriter turns articles into a narrated radio script (OpenAI, Gemini, etc.).
type ScriptWriter interface {
	Write(ctx context.Context, city string, articles []domain.Article) (string, error)
}

// SpeechSynthesizer streams narrated audio for text into destination.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID, destination string) (int64, error)
}

// AudioStore owns the audio storage directory.
type AudioStore interface {
	Reserve(base, ext string) (domain.AudioArtifact, error)
	Discard(artifact domain.AudioArtifact) error
	Open(filename string) (string, error)
}

// CityDirectory answers autocomplete lookups.
type CityDirectory interface {
	Search(query string, limit int) []string
}

// Job is a unit of scheduled work; trigger is the minute it was due.
type Job func(ctx context.Context, trigger time.Time)

// Scheduler keeps at most one recurring job per key.
type Scheduler interface {
	Upsert(key, expr string, job Job) error
	Remove(key string) bool
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
