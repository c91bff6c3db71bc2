// Package tasks runs periodic maintenance jobs inside the server process.
package tasks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownJob is returned by RunOnce for a name that was never registered.
var ErrUnknownJob = errors.New("unknown job")

// Job is a named function run every Interval. A positive Timeout bounds
// each run.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Status is the last known outcome of a job.
type Status struct {
	Name      string        `json:"name"`
	Running   bool          `json:"running"`
	Runs      int           `json:"runs"`
	LastStart time.Time     `json:"last_start"`
	LastTook  time.Duration `json:"last_took_ns"`
	LastError string        `json:"last_error,omitempty"`
}

// Runner owns the job goroutines. A nil Runner has no jobs.
type Runner struct {
	logger *zap.Logger
	jobs   []Job
	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu     sync.Mutex
	status map[string]*Status
}

// New creates an empty Runner.
func New(logger *zap.Logger) *Runner {
	return &Runner{logger: logger, status: map[string]*Status{}}
}

// Register adds a job. Call before Start.
func (r *Runner) Register(job Job) {
	r.jobs = append(r.jobs, job)
	r.mu.Lock()
	r.status[job.Name] = &Status{Name: job.Name}
	r.mu.Unlock()
}

// Start runs every job once and then on its interval until Stop.
func (r *Runner) Start() {
	if r == nil || len(r.jobs) == 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, job)
	}
	r.logger.Info("maintenance tasks started", zap.Int("jobs", len(r.jobs)))
}

// Stop cancels the jobs and waits for running ones to return, or for ctx.
func (r *Runner) Stop(ctx context.Context) error {
	if r == nil || r.cancel == nil {
		return nil
	}
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("maintenance tasks stopped")
		return nil
	case <-ctx.Done():
		var running []string
		for _, s := range r.Statuses() {
			if s.Running {
				running = append(running, s.Name)
			}
		}
		r.logger.Warn("maintenance tasks did not stop in time", zap.Strings("running", running))
		return ctx.Err()
	}
}

func (r *Runner) loop(ctx context.Context, job Job) {
	defer r.wg.Done()

	r.execute(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.execute(ctx, job)
		}
	}
}

func (r *Runner) execute(ctx context.Context, job Job) error {
	start := time.Now()
	r.update(job.Name, func(s *Status) {
		s.Running = true
		s.LastStart = start
	})

	runCtx := ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}
	err := job.Run(runCtx)
	took := time.Since(start)

	r.update(job.Name, func(s *Status) {
		s.Running = false
		s.Runs++
		s.LastTook = took
		s.LastError = ""
		if err != nil {
			s.LastError = err.Error()
		}
	})

	switch {
	case err != nil && ctx.Err() != nil:
		r.logger.Debug("task cancelled at shutdown", zap.String("job", job.Name))
	case err != nil:
		r.logger.Error("task failed", zap.String("job", job.Name), zap.Duration("took", took), zap.Error(err))
	default:
		r.logger.Debug("task completed", zap.String("job", job.Name), zap.Duration("took", took))
	}
	return err
}

func (r *Runner) update(name string, fn func(*Status)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.status[name]
	if !ok {
		s = &Status{Name: name}
		r.status[name] = s
	}
	fn(s)
}

// RunOnce runs the named job now, outside its schedule.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	if r != nil {
		for _, job := range r.jobs {
			if job.Name == name {
				return r.execute(ctx, job)
			}
		}
	}
	return ErrUnknownJob
}

// Statuses returns a snapshot of every job's status sorted by name.
func (r *Runner) Statuses() []Status {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	out := make([]Status, 0, len(r.status))
	for _, s := range r.status {
		out = append(out, *s)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
