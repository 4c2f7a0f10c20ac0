// internal/app/system/tasks/runner.go
package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownJob is returned by RunOnce for a name that was never registered.
var ErrUnknownJob = errors.New("tasks: unknown job")

// ErrAlreadyRunning is returned by RunOnce while the same job is executing.
var ErrAlreadyRunning = errors.New("tasks: job already running")

// Job is a background task run every Interval.
type Job struct {
	Name     string
	Interval time.Duration
	// SkipInitial delays the first run by one Interval instead of running
	// on Start.
	SkipInitial bool
	Run         func(ctx context.Context) error
}

// Runner executes registered jobs on their intervals. A job never runs
// concurrently with itself; a tick that lands while the previous run (or a
// RunOnce call) is still busy is skipped.
type Runner struct {
	logger *zap.Logger
	jobs   map[string]Job
	order  []string

	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu   sync.Mutex
	busy map[string]bool
}

// New creates a new task runner.
func New(logger *zap.Logger) *Runner {
	return &Runner{
		logger: logger,
		jobs:   make(map[string]Job),
		busy:   make(map[string]bool),
	}
}

// Register adds a job. Jobs with a non-positive interval are ignored so
// callers can pass a disabled interval straight from config.
func (r *Runner) Register(job Job) {
	if job.Interval <= 0 {
		r.logger.Info("job disabled", zap.String("job", job.Name))
		return
	}
	if _, dup := r.jobs[job.Name]; !dup {
		r.order = append(r.order, job.Name)
	}
	r.jobs[job.Name] = job
}

// Jobs returns the registered job names in registration order.
func (r *Runner) Jobs() []string {
	return append([]string(nil), r.order...)
}

// Start begins executing all registered jobs. Call Stop to shut down.
func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	for _, name := range r.order {
		r.wg.Add(1)
		go r.loop(ctx, r.jobs[name])
	}

	r.logger.Info("background task runner started",
		zap.Int("job_count", len(r.order)))
}

// Stop cancels the jobs and waits for them within ctx's deadline. It
// returns ctx.Err() when the deadline passes first.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("background task runner stopped gracefully")
		return nil
	case <-ctx.Done():
		r.logger.Warn("background task runner shutdown timed out",
			zap.Strings("jobs_still_running", r.running()))
		return ctx.Err()
	}
}

func (r *Runner) running() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, name := range r.order {
		if r.busy[name] {
			names = append(names, name)
		}
	}
	return names
}

func (r *Runner) acquire(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy[name] {
		return false
	}
	r.busy[name] = true
	return true
}

func (r *Runner) release(name string) {
	r.mu.Lock()
	delete(r.busy, name)
	r.mu.Unlock()
}

func (r *Runner) loop(ctx context.Context, job Job) {
	defer r.wg.Done()

	if !job.SkipInitial {
		r.tick(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("job stopped", zap.String("job", job.Name))
			return
		case <-ticker.C:
			r.tick(ctx, job)
		}
	}
}

func (r *Runner) tick(ctx context.Context, job Job) {
	if !r.acquire(job.Name) {
		r.logger.Debug("job still running, tick skipped", zap.String("job", job.Name))
		return
	}
	defer r.release(job.Name)
	r.execute(ctx, job)
}

func (r *Runner) execute(ctx context.Context, job Job) error {
	start := time.Now()
	r.logger.Debug("job starting", zap.String("job", job.Name))

	err := job.Run(ctx)
	switch {
	case err != nil && ctx.Err() != nil:
		r.logger.Debug("job cancelled",
			zap.String("job", job.Name),
			zap.Duration("duration", time.Since(start)))
	case err != nil:
		r.logger.Error("job failed",
			zap.String("job", job.Name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
	default:
		r.logger.Debug("job completed",
			zap.String("job", job.Name),
			zap.Duration("duration", time.Since(start)))
	}
	return err
}

// RunOnce runs the named job now on ctx and returns its error.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	job, ok := r.jobs[name]
	if !ok {
		return ErrUnknownJob
	}
	if !r.acquire(name) {
		return ErrAlreadyRunning
	}
	defer r.release(name)
	return r.execute(ctx, job)
}
