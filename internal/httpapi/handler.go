package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"CityPodcast/internal/domain"
	"CityPodcast/internal/infrastructure/storage"
	"CityPodcast/internal/ports"
)

// Generator runs the podcast pipeline for one request.
type Generator interface {
	Run(ctx context.Context, req domain.Request) (domain.Episode, error)
}

// Scheduler installs daily podcast jobs.
type Scheduler interface {
	Schedule(city, voiceID, clock string) (domain.ScheduledJob, error)
}

// AudioFiles resolves stored audio by file name.
type AudioFiles interface {
	Open(filename string) (string, error)
}

// Deps bundles what the HTTP handlers need.
type Deps struct {
	Cities    ports.CityDirectory
	Generator Generator
	Scheduler Scheduler
	Audio     AudioFiles
	Logger    *slog.Logger
}

// Handler serves the podcast API.
type Handler struct {
	cities    ports.CityDirectory
	generator Generator
	scheduler Scheduler
	audio     AudioFiles
	logger    *slog.Logger
}

type generateRequest struct {
	City    string `json:"city"`
	VoiceID string `json:"voice_id"`
}

type generateResponse struct {
	Success  bool   `json:"success"`
	Script   string `json:"script"`
	AudioURL string `json:"audio_url"`
	City     string `json:"city"`
}

type scheduleRequest struct {
	City    string `json:"city"`
	VoiceID string `json:"voice_id"`
	Time    string `json:"time"`
}

type scheduleResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewHandler builds the API handler.
func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cities:    deps.Cities,
		generator: deps.Generator,
		scheduler: deps.Scheduler,
		audio:     deps.Audio,
		logger:    logger,
	}
}

// NewApp returns a fiber app with middleware and every route registered.
func NewApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "citypodcast",
		DisableStartupMessage: true,
		ErrorHandler:          h.handleError,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(h.accessLog)
	h.Register(app)
	return app
}

// Register registers routes to app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/api/search-cities", h.searchCities)
	app.Post("/api/generate-podcast", h.generatePodcast)
	app.Post("/api/schedule-podcast", h.schedulePodcast)
	app.Get("/audio/:filename", h.serveAudio)
}

func (h *Handler) searchCities(c *fiber.Ctx) error {
	cities := h.cities.Search(c.Query("q"), 0)
	if cities == nil {
		cities = []string{}
	}
	return c.JSON(fiber.Map{"cities": cities})
}

func (h *Handler) generatePodcast(c *fiber.Ctx) error {
	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.InvalidInput("body", "Invalid JSON body")
	}

	ep, err := h.generator.Run(c.UserContext(), domain.Request{
		City:    req.City,
		VoiceID: req.VoiceID,
		Mode:    domain.ModeInteractive,
	})
	if err != nil {
		return err
	}

	h.logger.Info("podcast generated", "city", ep.City, "file", ep.Audio.Filename, "bytes", ep.Audio.Size)
	return c.JSON(generateResponse{
		Success:  true,
		Script:   ep.Script,
		AudioURL: ep.AudioURL,
		City:     req.City,
	})
}

func (h *Handler) schedulePodcast(c *fiber.Ctx) error {
	var req scheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.InvalidInput("body", "Invalid JSON body")
	}

	job, err := h.scheduler.Schedule(req.City, req.VoiceID, req.Time)
	if err != nil {
		return err
	}

	return c.JSON(scheduleResponse{
		Success: true,
		Message: fmt.Sprintf("Podcast scheduled for %s at %02d:%02d daily", job.City, job.Hour, job.Minute),
	})
}

func (h *Handler) serveAudio(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("filename"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "Audio file not found"})
	}
	path, err := h.audio.Open(name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "Audio file not found"})
		}
		return err
	}
	if err := c.SendFile(path); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return nil
}

// handleError renders every failure as {error, code} with a status derived from the domain condition.
func (h *Handler) handleError(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(errorResponse{Error: fiberErr.Message})
	}

	code := domain.Code(err)
	status := statusFor(code)
	if status >= fiber.StatusInternalServerError {
		h.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "code", code, "error", err)
	}
	return c.Status(status).JSON(errorResponse{Error: err.Error(), Code: code})
}

func statusFor(code string) int {
	switch code {
	case domain.CodeInvalidInput:
		return fiber.StatusBadRequest
	case domain.CodeNoNewsFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handler) accessLog(c *fiber.Ctx) error {
	started := time.Now()
	err := c.Next()
	if err != nil {
		if hErr := h.handleError(c, err); hErr != nil {
			return hErr
		}
	}
	if !strings.HasPrefix(c.Path(), "/healthz") {
		h.logger.Debug("http request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(started),
		)
	}
	return nil
}
