package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"CityPodcast/internal/cities"
	"CityPodcast/internal/config"
	"CityPodcast/internal/httpapi"
	"CityPodcast/internal/infrastructure/elevenlabs"
	"CityPodcast/internal/infrastructure/llm"
	"CityPodcast/internal/infrastructure/newsapi"
	"CityPodcast/internal/infrastructure/scheduler"
	"CityPodcast/internal/infrastructure/storage"
	"CityPodcast/internal/logging"
	"CityPodcast/internal/ports"
	"CityPodcast/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	cities    *cities.Directory
	store     *storage.FileStore
	writer    ports.ScriptWriter
	pipeline  *usecase.Pipeline
	scheduler *usecase.PodcastScheduler
	http      *fiber.App
}

// New builds every component from cfg. Missing credentials are not fatal here;
// the affected collaborator fails on first use.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	store, err := storage.NewFileStore(cfg.Server.AudioDir)
	if err != nil {
		return nil, err
	}

	writer, err := llm.NewWriter(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("script writer: %w", err)
	}

	loc := cfg.Scheduler.Location()
	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		News:         newsapi.NewClient(cfg.News, nil, baseLogger.With("component", "newsapi")),
		Writer:       writer,
		Synthesizer:  elevenlabs.NewClient(cfg.Speech, baseLogger.With("component", "elevenlabs")),
		Store:        store,
		Logger:       baseLogger.With("component", "pipeline"),
		DefaultVoice: cfg.Speech.DefaultVoice,
		Location:     loc,
	})

	podcasts := usecase.NewScheduler(usecase.SchedulerDeps{
		Driver:       scheduler.NewCronScheduler(loc, baseLogger.With("component", "cron")),
		Runner:       pipeline,
		Logger:       baseLogger.With("component", "scheduler"),
		DefaultVoice: cfg.Speech.DefaultVoice,
		DefaultTime:  cfg.Scheduler.DefaultTime,
		RunTimeout:   cfg.Scheduler.RunTimeout,
	})

	directory := cities.Default()
	handler := httpapi.NewHandler(httpapi.Deps{
		Cities:    directory,
		Generator: pipeline,
		Scheduler: podcasts,
		Audio:     store,
		Logger:    baseLogger.With("component", "http"),
	})

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		cities:    directory,
		store:     store,
		writer:    writer,
		pipeline:  pipeline,
		scheduler: podcasts,
		http:      httpapi.NewApp(handler),
	}, nil
}

// Pipeline exposes the podcast pipeline for one-shot runs.
func (a *Application) Pipeline() *usecase.Pipeline {
	return a.pipeline
}

// Cities exposes the city directory.
func (a *Application) Cities() *cities.Directory {
	return a.cities
}

// Run starts the scheduler and serves HTTP until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	listenErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.Server.Addr, "audio_dir", a.store.Dir())
		listenErr <- a.http.Listen(a.cfg.Server.Addr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-listenErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	return errors.Join(runErr, a.shutdown())
}

func (a *Application) shutdown() error {
	a.logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.http.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop http server: %w", err))
	}
	if err := a.scheduler.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if closer, ok := a.writer.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close script writer: %w", err))
		}
	}
	return errors.Join(errs...)
}
