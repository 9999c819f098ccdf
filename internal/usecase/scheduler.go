package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"CityPodcast/internal/domain"
	"CityPodcast/internal/ports"
)

const jobKeyPrefix = "podcast_"

// Runner is the part of the pipeline the scheduler replays.
type Runner interface {
	Run(ctx context.Context, req domain.Request) (domain.Episode, error)
}

// Firing is the outcome of one scheduled pipeline run.
type Firing struct {
	RunID    string
	Key      string
	City     string
	VoiceID  string
	Trigger  time.Time
	Duration time.Duration
	Episode  domain.Episode
	Err      error
}

// SchedulerDeps wires the podcast scheduler.
type SchedulerDeps struct {
	Driver       ports.Scheduler
	Runner       Runner
	Logger       *slog.Logger
	DefaultVoice string
	DefaultTime  string
	RunTimeout   time.Duration
	// OnFiring observes every firing after it was logged.
	OnFiring func(Firing)
}

// PodcastScheduler keeps at most one daily podcast job per city.
type PodcastScheduler struct {
	driver       ports.Scheduler
	runner       Runner
	logger       *slog.Logger
	defaultVoice string
	defaultTime  string
	runTimeout   time.Duration
	onFiring     func(Firing)

	mu   sync.Mutex
	jobs map[string]domain.ScheduledJob
}

// NewScheduler returns the podcast scheduling service.
func NewScheduler(deps SchedulerDeps) *PodcastScheduler {
	s := &PodcastScheduler{
		driver:       deps.Driver,
		runner:       deps.Runner,
		logger:       deps.Logger,
		defaultVoice: deps.DefaultVoice,
		defaultTime:  deps.DefaultTime,
		runTimeout:   deps.RunTimeout,
		onFiring:     deps.OnFiring,
		jobs:         map[string]domain.ScheduledJob{},
	}
	if s.defaultVoice == "" {
		s.defaultVoice = "Rachel"
	}
	if s.defaultTime == "" {
		s.defaultTime = "07:00"
	}
	return s
}

// JobKey derives the scheduler key for city.
func JobKey(city string) string {
	return jobKeyPrefix + CityKey(city)
}

// ParseClock parses "HH:MM" (a single-digit hour is accepted).
func ParseClock(value string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok || len(m) != 2 || len(h) == 0 || len(h) > 2 {
		return 0, 0, domain.InvalidInput("time", fmt.Sprintf("Invalid time %q, expected HH:MM", value))
	}
	hour, hErr := strconv.Atoi(h)
	minute, mErr := strconv.Atoi(m)
	if hErr != nil || mErr != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, domain.InvalidInput("time", fmt.Sprintf("Invalid time %q, expected HH:MM", value))
	}
	return hour, minute, nil
}

// DefaultTime is the trigger used when a request omits one.
func (s *PodcastScheduler) DefaultTime() string {
	return s.defaultTime
}

// Schedule installs (or replaces) the daily job for city at clock ("HH:MM").
func (s *PodcastScheduler) Schedule(city, voiceID, clock string) (domain.ScheduledJob, error) {
	city = strings.TrimSpace(city)
	if err := CheckCity(city); err != nil {
		return domain.ScheduledJob{}, err
	}
	voiceID = strings.TrimSpace(voiceID)
	if voiceID == "" {
		voiceID = s.defaultVoice
	}
	if strings.TrimSpace(clock) == "" {
		clock = s.defaultTime
	}
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return domain.ScheduledJob{}, err
	}

	job := domain.ScheduledJob{
		Key:     JobKey(city),
		City:    city,
		VoiceID: voiceID,
		Hour:    hour,
		Minute:  minute,
	}
	expr := fmt.Sprintf("%d %d * * *", minute, hour)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.driver.Upsert(job.Key, expr, s.jobFunc(job)); err != nil {
		return domain.ScheduledJob{}, fmt.Errorf("register job %s: %w", job.Key, err)
	}
	s.jobs[job.Key] = job

	if s.logger != nil {
		s.logger.Info("podcast scheduled", "key", job.Key, "city", city, "voice", voiceID, "time", fmt.Sprintf("%02d:%02d", hour, minute))
	}
	return job, nil
}

// Unschedule removes the daily job for city.
func (s *PodcastScheduler) Unschedule(city string) bool {
	key := JobKey(strings.TrimSpace(city))

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, key)
	return s.driver.Remove(key)
}

// Jobs lists scheduled podcasts ordered by key.
func (s *PodcastScheduler) Jobs() []domain.ScheduledJob {
	s.mu.Lock()
	out := make([]domain.ScheduledJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Start begins firing scheduled jobs.
func (s *PodcastScheduler) Start(ctx context.Context) error {
	return s.driver.Start(ctx)
}

// Stop tears down the underlying scheduler.
func (s *PodcastScheduler) Stop(ctx context.Context) error {
	return s.driver.Stop(ctx)
}

func (s *PodcastScheduler) jobFunc(job domain.ScheduledJob) ports.Job {
	return func(ctx context.Context, trigger time.Time) {
		firing := s.fire(ctx, job, trigger)
		s.report(firing)
		if s.onFiring != nil {
			s.onFiring(firing)
		}
	}
}

func (s *PodcastScheduler) fire(ctx context.Context, job domain.ScheduledJob, trigger time.Time) Firing {
	firing := Firing{
		RunID:   uuid.NewString(),
		Key:     job.Key,
		City:    job.City,
		VoiceID: job.VoiceID,
		Trigger: trigger,
	}

	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	started := time.Now()
	firing.Episode, firing.Err = s.runner.Run(ctx, domain.Request{
		City:    job.City,
		VoiceID: job.VoiceID,
		Mode:    domain.ModeScheduled,
	})
	firing.Duration = time.Since(started)

	s.mu.Lock()
	if current, ok := s.jobs[job.Key]; ok && sameTrigger(current, job) {
		current.LastRun = trigger
		s.jobs[job.Key] = current
	}
	s.mu.Unlock()

	return firing
}

func sameTrigger(a, b domain.ScheduledJob) bool {
	return a.Hour == b.Hour && a.Minute == b.Minute && a.VoiceID == b.VoiceID
}

// report is the only sink for scheduled failures; nothing is propagated.
func (s *PodcastScheduler) report(f Firing) {
	if s.logger == nil {
		return
	}
	attrs := []any{"run_id", f.RunID, "key", f.Key, "city", f.City, "trigger", f.Trigger, "duration", f.Duration}

	switch {
	case f.Err == nil:
		s.logger.Info("scheduled podcast generated", append(attrs, "file", f.Episode.Audio.Filename)...)
	case errors.Is(f.Err, domain.ErrNoNewsFound):
		s.logger.Warn("no news found for scheduled podcast", attrs...)
	default:
		s.logger.Error("scheduled podcast failed", append(attrs, "code", domain.Code(f.Err), "error", f.Err)...)
	}
}
