package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CityPodcast/internal/domain"
	"CityPodcast/internal/logging"
	"CityPodcast/internal/ports"
)

type fakeDriver struct {
	mu      sync.Mutex
	exprs   map[string]string
	jobs    map[string]ports.Job
	started bool
	stopped bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{exprs: map[string]string{}, jobs: map[string]ports.Job{}}
}

func (d *fakeDriver) Upsert(key, expr string, job ports.Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.exprs[key] = expr
	d.jobs[key] = job
	return nil
}

func (d *fakeDriver) Remove(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.jobs[key]
	delete(d.jobs, key)
	delete(d.exprs, key)
	return ok
}

func (d *fakeDriver) Start(context.Context) error { d.started = true; return nil }
func (d *fakeDriver) Stop(context.Context) error  { d.stopped = true; return nil }

func (d *fakeDriver) fire(t *testing.T, key string, trigger time.Time) {
	t.Helper()
	d.mu.Lock()
	job, ok := d.jobs[key]
	d.mu.Unlock()
	require.True(t, ok, "job %s is not registered", key)
	job(context.Background(), trigger)
}

type fakeRunner struct {
	mu   sync.Mutex
	reqs []domain.Request
	err  error
}

func (r *fakeRunner) Run(_ context.Context, req domain.Request) (domain.Episode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
	if r.err != nil {
		return domain.Episode{}, r.err
	}
	return domain.Episode{City: req.City, Audio: domain.AudioArtifact{Filename: CityKey(req.City) + "_scheduled_x.mp3"}}, nil
}

func TestScheduleReplacesJobForSameCity(t *testing.T) {
	t.Parallel()

	driver := newFakeDriver()
	s := NewScheduler(SchedulerDeps{Driver: driver, Runner: &fakeRunner{}})

	_, err := s.Schedule("Austin", "", "07:00")
	require.NoError(t, err)
	job, err := s.Schedule("Austin", "", "08:30")
	require.NoError(t, err)

	assert.Equal(t, "podcast_Austin", job.Key)
	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "podcast_Austin", jobs[0].Key)
	assert.Equal(t, 8, jobs[0].Hour)
	assert.Equal(t, 30, jobs[0].Minute)
	assert.Equal(t, map[string]string{"podcast_Austin": "30 8 * * *"}, driver.exprs)
}

func TestScheduleDefaults(t *testing.T) {
	t.Parallel()

	driver := newFakeDriver()
	s := NewScheduler(SchedulerDeps{Driver: driver, Runner: &fakeRunner{}, DefaultVoice: "Adam", DefaultTime: "06:15"})

	job, err := s.Schedule("  Kansas City ", "", "")
	require.NoError(t, err)
	assert.Equal(t, "Kansas City", job.City)
	assert.Equal(t, "podcast_Kansas_City", job.Key)
	assert.Equal(t, "Adam", job.VoiceID)
	assert.Equal(t, 6, job.Hour)
	assert.Equal(t, 15, job.Minute)
	assert.Equal(t, "06:15", s.DefaultTime())
	assert.Equal(t, "15 6 * * *", driver.exprs["podcast_Kansas_City"])
}

func TestScheduleRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	driver := newFakeDriver()
	s := NewScheduler(SchedulerDeps{Driver: driver, Runner: &fakeRunner{}})

	for _, city := range []string{" ", "../x", "a/b"} {
		_, err := s.Schedule(city, "", "07:00")
		assert.ErrorIs(t, err, domain.ErrInvalidInput, city)
	}

	for _, clock := range []string{"25:00", "7", "07:60", "ab:cd", "07:5", "007:00"} {
		_, err := s.Schedule("Austin", "", clock)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, clock)
	}
	assert.Empty(t, s.Jobs())
	assert.Empty(t, driver.exprs)
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in           string
		hour, minute int
	}{
		{"07:00", 7, 0},
		{"7:05", 7, 5},
		{"23:59", 23, 59},
		{" 00:00 ", 0, 0},
	}
	for _, tc := range cases {
		h, m, err := ParseClock(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.hour, h, tc.in)
		assert.Equal(t, tc.minute, m, tc.in)
	}
}

func TestFiringRunsScheduledMode(t *testing.T) {
	t.Parallel()

	driver := newFakeDriver()
	runner := &fakeRunner{}
	var got []Firing
	s := NewScheduler(SchedulerDeps{
		Driver:   driver,
		Runner:   runner,
		OnFiring: func(f Firing) { got = append(got, f) },
	})

	_, err := s.Schedule("Fort Worth", "Adam", "07:00")
	require.NoError(t, err)

	trigger := time.Date(2025, time.November, 8, 7, 0, 0, 0, time.UTC)
	driver.fire(t, "podcast_Fort_Worth", trigger)

	require.Len(t, runner.reqs, 1)
	assert.Equal(t, domain.Request{City: "Fort Worth", VoiceID: "Adam", Mode: domain.ModeScheduled}, runner.reqs[0])
	require.Len(t, got, 1)
	assert.NoError(t, got[0].Err)
	assert.NotEmpty(t, got[0].RunID)
	assert.Equal(t, trigger, got[0].Trigger)

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, trigger, jobs[0].LastRun)
}

func TestFailingFiringIsLoggedAndJobKept(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	driver := newFakeDriver()
	runner := &fakeRunner{err: domain.CollaboratorFailure(StageSynthesize, errors.New("quota exceeded"))}
	var got []Firing
	s := NewScheduler(SchedulerDeps{
		Driver:   driver,
		Runner:   runner,
		Logger:   logging.NewWithWriter(&buf, "info", "text"),
		OnFiring: func(f Firing) { got = append(got, f) },
	})

	_, err := s.Schedule("Miami", "", "07:00")
	require.NoError(t, err)

	driver.fire(t, "podcast_Miami", time.Date(2025, time.November, 8, 7, 0, 0, 0, time.UTC))
	driver.fire(t, "podcast_Miami", time.Date(2025, time.November, 9, 7, 0, 0, 0, time.UTC))

	require.Len(t, got, 2)
	assert.Equal(t, domain.CodeCollaboratorFailure, domain.Code(got[0].Err))
	assert.Contains(t, buf.String(), "scheduled podcast failed")
	assert.Contains(t, buf.String(), "code=collaborator_failure")
	assert.Len(t, s.Jobs(), 1)
	assert.Contains(t, driver.exprs, "podcast_Miami")
}

func TestNoNewsFiringIsWarning(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	driver := newFakeDriver()
	s := NewScheduler(SchedulerDeps{
		Driver: driver,
		Runner: &fakeRunner{err: domain.NoNewsFound("Boise")},
		Logger: logging.NewWithWriter(&buf, "info", "text"),
	})

	_, err := s.Schedule("Boise", "", "")
	require.NoError(t, err)
	driver.fire(t, "podcast_Boise", time.Now())

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "no news found for scheduled podcast")
}

func TestUnscheduleAndLifecycle(t *testing.T) {
	t.Parallel()

	driver := newFakeDriver()
	s := NewScheduler(SchedulerDeps{Driver: driver, Runner: &fakeRunner{}})

	for i, city := range []string{"Tampa", "Omaha"} {
		_, err := s.Schedule(city, "", fmt.Sprintf("0%d:00", i+5))
		require.NoError(t, err)
	}
	assert.True(t, s.Unschedule("Tampa"))
	assert.False(t, s.Unschedule("Tampa"))

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "podcast_Omaha", jobs[0].Key)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, driver.started)
	assert.True(t, driver.stopped)
}
