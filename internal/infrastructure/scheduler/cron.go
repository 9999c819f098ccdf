package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"CityPodcast/internal/ports"
)

// CronScheduler keeps one cron job per key and fires due jobs at minute boundaries.
type CronScheduler struct {
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger

	mu       sync.Mutex
	entries  map[string]*entry
	lastTick time.Time
	stop     chan struct{}
	done     chan struct{}
	cancel   context.CancelFunc
	inflight sync.WaitGroup
}

type entry struct {
	expr string
	job  ports.Job
	next time.Time
	last time.Time
}

// Entry is a read-only view of a registered job.
type Entry struct {
	Key  string
	Expr string
	Next time.Time
	Last time.Time
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler evaluating expressions in loc.
func NewCronScheduler(loc *time.Location, logger *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &CronScheduler{
		loc:     loc,
		now:     time.Now,
		logger:  logger,
		entries: map[string]*entry{},
	}
}

// Upsert installs job under key, replacing any previous job in one step.
func (c *CronScheduler) Upsert(key, expr string, job ports.Job) error {
	if key == "" {
		return fmt.Errorf("job key is required")
	}
	if job == nil {
		return fmt.Errorf("job %s: nil job", key)
	}
	gron := gronx.New()
	if !gron.IsValid(expr) {
		return fmt.Errorf("job %s: invalid cron expression %q", key, expr)
	}
	next, err := gronx.NextTickAfter(expr, c.now().In(c.loc), false)
	if err != nil {
		return fmt.Errorf("job %s: next tick: %w", key, err)
	}

	c.mu.Lock()
	_, replaced := c.entries[key]
	c.entries[key] = &entry{expr: expr, job: job, next: next}
	c.mu.Unlock()

	c.debug("job registered", "key", key, "expr", expr, "next", next, "replaced", replaced)
	return nil
}

// Remove drops the job under key and reports whether one existed.
func (c *CronScheduler) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

// Lookup returns the job registered under key.
func (c *CronScheduler) Lookup(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	return Entry{Key: key, Expr: e.expr, Next: e.next, Last: e.last}, true
}

// Entries lists registered jobs ordered by key.
func (c *CronScheduler) Entries() []Entry {
	c.mu.Lock()
	out := make([]Entry, 0, len(c.entries))
	for key, e := range c.entries {
		out = append(out, Entry{Key: key, Expr: e.expr, Next: e.next, Last: e.last})
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Start launches the background loop; calling it twice is a no-op.
func (c *CronScheduler) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	go c.loop(runCtx, c.stop, c.done)
	c.debug("scheduler started", "location", c.loc.String())
	return nil
}

// Stop halts the loop and waits for in-flight jobs until ctx expires,
// after which their context is cancelled.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.stop == nil {
		c.mu.Unlock()
		return nil
	}
	stop, done, cancel := c.stop, c.done, c.cancel
	c.stop, c.done, c.cancel = nil, nil, nil
	c.mu.Unlock()

	close(stop)
	<-done

	drained := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		cancel()
		return nil
	case <-ctx.Done():
		cancel()
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

func (c *CronScheduler) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		now := c.now()
		wait := now.Truncate(time.Minute).Add(time.Minute).Sub(now)
		timer := time.NewTimer(wait)

		select {
		case <-timer.C:
			c.dispatch(ctx, c.now())
		case <-stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// dispatch fires every job due at the minute containing t, each in its own goroutine.
func (c *CronScheduler) dispatch(ctx context.Context, t time.Time) {
	minute := t.In(c.loc).Truncate(time.Minute)
	gron := gronx.New()

	type due struct {
		key string
		job ports.Job
	}
	var fire []due

	c.mu.Lock()
	if !minute.After(c.lastTick) {
		c.mu.Unlock()
		return
	}
	c.lastTick = minute
	for key, e := range c.entries {
		ok, err := gron.IsDue(e.expr, minute)
		if err != nil {
			c.warn("cannot evaluate job", "key", key, "expr", e.expr, "error", err)
			continue
		}
		if !ok {
			continue
		}
		e.last = minute
		if next, err := gronx.NextTickAfter(e.expr, minute, false); err == nil {
			e.next = next
		}
		fire = append(fire, due{key: key, job: e.job})
	}
	c.mu.Unlock()

	for _, d := range fire {
		c.inflight.Add(1)
		go c.run(ctx, d.key, d.job, minute)
	}
}

func (c *CronScheduler) run(ctx context.Context, key string, job ports.Job, trigger time.Time) {
	defer c.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			if c.logger != nil {
				c.logger.Error("scheduled job panicked", "key", key, "trigger", trigger, "panic", r)
			}
		}
	}()
	job(ctx, trigger)
}

func (c *CronScheduler) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *CronScheduler) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
