// Package jobs runs named background jobs on cron schedules.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const defaultTimeout = 5 * time.Minute

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSpec reports whether spec is a five-field cron expression or a
// descriptor such as "@daily".
func ValidateSpec(spec string) error {
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Runner owns a cron scheduler. Job failures are logged and never stop the
// runner.
type Runner struct {
	mu      sync.Mutex
	c       *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
	ids     map[string]cron.EntryID

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a runner that evaluates schedules in loc.
func New(loc *time.Location, logger *slog.Logger) *Runner {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		c:       cron.New(cron.WithParser(parser), cron.WithLocation(loc)),
		logger:  logger,
		timeout: defaultTimeout,
		ids:     make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add registers job under name. Each run gets a context that is cancelled
// after the runner's timeout or when the runner stops.
func (r *Runner) Add(name, spec string, job func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[name]; ok {
		return fmt.Errorf("job %q already registered", name)
	}
	id, err := r.c.AddFunc(spec, func() { r.run(name, job) })
	if err != nil {
		return fmt.Errorf("schedule %q: %w", name, err)
	}
	r.ids[name] = id
	r.logger.Info("job scheduled", "job", name, "spec", spec)
	return nil
}

func (r *Runner) run(name string, job func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		r.logger.Error("job failed", "job", name, "duration", time.Since(start), "error", err)
		return
	}
	r.logger.Info("job finished", "job", name, "duration", time.Since(start))
}

// Next returns the next scheduled run of the named job.
func (r *Runner) Next(name string) (time.Time, bool) {
	r.mu.Lock()
	id, ok := r.ids[name]
	r.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return r.c.Entry(id).Next, true
}

// Start begins running jobs in the background.
func (r *Runner) Start() {
	r.c.Start()
}

// Stop halts the schedule, cancels running jobs and waits for them to
// return or for ctx to expire.
func (r *Runner) Stop(ctx context.Context) {
	done := r.c.Stop()
	r.cancel()
	select {
	case <-done.Done():
	case <-ctx.Done():
		r.logger.Warn("jobs still running at shutdown")
	}
}
