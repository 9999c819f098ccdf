package usecase

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"CityPodcast/internal/domain"
	"CityPodcast/internal/ports"
)

const (
	audioExt        = "mp3"
	audioURLPrefix  = "/audio/"
	timestampLayout = "20060102_150405"
	scheduledTag    = "scheduled"
	citySeparator   = "_"
)

// Pipeline stages, used to label collaborator failures.
const (
	StageFetch      = "fetch news"
	StageScript     = "generate script"
	StageStore      = "store audio"
	StageSynthesize = "synthesize audio"
)

// PipelineDeps wires all driven adapters into the podcast pipeline.
type PipelineDeps struct {
	News         ports.NewsSource
	Writer       ports.ScriptWriter
	Synthesizer  ports.SpeechSynthesizer
	Store        ports.AudioStore
	Logger       *slog.Logger
	DefaultVoice string
	Location     *time.Location
	Now          func() time.Time
}

// Pipeline fetches news, writes the script and synthesizes audio for one city.
type Pipeline struct {
	news         ports.NewsSource
	writer       ports.ScriptWriter
	synthesizer  ports.SpeechSynthesizer
	store        ports.AudioStore
	logger       *slog.Logger
	defaultVoice string
	loc          *time.Location
	now          func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		news:         deps.News,
		writer:       deps.Writer,
		synthesizer:  deps.Synthesizer,
		store:        deps.Store,
		logger:       deps.Logger,
		defaultVoice: deps.DefaultVoice,
		loc:          deps.Location,
		now:          deps.Now,
	}
	if p.defaultVoice == "" {
		p.defaultVoice = "Rachel"
	}
	if p.loc == nil {
		p.loc = time.Local
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// CityKey replaces spaces so a city name can be used in file names and job keys.
func CityKey(city string) string {
	return strings.ReplaceAll(city, " ", citySeparator)
}

// CheckCity rejects a blank city or one that cannot be embedded in an audio file name.
func CheckCity(city string) error {
	if city == "" {
		return domain.InvalidInput("city", "City is required")
	}
	if strings.ContainsAny(city, "/\\\x00") || strings.Contains(city, "..") {
		return domain.InvalidInput("city", "City must not contain path separators or '..'")
	}
	return nil
}

// AudioBaseName derives the file name (without extension) for a run started at ts.
func AudioBaseName(city string, mode domain.RunMode, ts time.Time) string {
	parts := []string{CityKey(city)}
	if mode == domain.ModeScheduled {
		parts = append(parts, scheduledTag)
	}
	parts = append(parts, ts.Format(timestampLayout))
	return strings.Join(parts, citySeparator)
}

// Run executes the pipeline for one request. No step starts before the previous one succeeded.
func (p *Pipeline) Run(ctx context.Context, req domain.Request) (domain.Episode, error) {
	city := strings.TrimSpace(req.City)
	if err := CheckCity(city); err != nil {
		return domain.Episode{}, err
	}
	voice := strings.TrimSpace(req.VoiceID)
	if voice == "" {
		voice = p.defaultVoice
	}
	mode := req.Mode
	if mode == "" {
		mode = domain.ModeInteractive
	}
	started := p.now().In(p.loc)

	articles, err := p.news.Fetch(ctx, city)
	if err != nil {
		return domain.Episode{}, domain.CollaboratorFailure(StageFetch, err)
	}
	if len(articles) == 0 {
		return domain.Episode{}, domain.NoNewsFound(city)
	}
	p.debug("news fetched", "city", city, "articles", len(articles))

	text, err := p.writer.Write(ctx, city, articles)
	if err != nil {
		return domain.Episode{}, domain.CollaboratorFailure(StageScript, err)
	}
	p.debug("script generated", "city", city, "chars", len(text))

	artifact, err := p.store.Reserve(AudioBaseName(city, mode, started), audioExt)
	if err != nil {
		return domain.Episode{}, domain.CollaboratorFailure(StageStore, err)
	}

	size, err := p.synthesizer.Synthesize(ctx, text, voice, artifact.Path)
	if err != nil {
		if discardErr := p.store.Discard(artifact); discardErr != nil && p.logger != nil {
			p.logger.Warn("cannot discard audio file", "file", artifact.Filename, "error", discardErr)
		}
		return domain.Episode{}, domain.CollaboratorFailure(StageSynthesize, err)
	}
	artifact.Size = size

	return domain.Episode{
		City:      city,
		VoiceID:   voice,
		Script:    text,
		Audio:     artifact,
		AudioURL:  audioURLPrefix + url.PathEscape(artifact.Filename),
		Mode:      mode,
		CreatedAt: started,
	}, nil
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
