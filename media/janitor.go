package media

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AltairaLabs/MediaKit/logger"
)

const defaultSweepSchedule = "@every 10m"

// Janitor runs unreferenced-media sweeps on a cron schedule. Runs never
// overlap: a sweep still going when the next tick fires delays it.
type Janitor struct {
	store    *Store
	cron     *cron.Cron
	schedule string
	timeout  time.Duration
}

// JanitorOption configures a Janitor.
type JanitorOption func(*Janitor)

// WithSchedule sets the sweep schedule in cron syntax or @every form.
// Default is "@every 10m".
func WithSchedule(schedule string) JanitorOption {
	return func(j *Janitor) {
		j.schedule = schedule
	}
}

// WithSweepTimeout bounds each sweep run. Default is no bound.
func WithSweepTimeout(d time.Duration) JanitorOption {
	return func(j *Janitor) {
		j.timeout = d
	}
}

// NewJanitor creates a janitor for the store. Nothing runs until Start.
func NewJanitor(store *Store, opts ...JanitorOption) *Janitor {
	j := &Janitor{
		store:    store,
		schedule: defaultSweepSchedule,
	}
	for _, opt := range opts {
		opt(j)
	}

	j.cron = cron.New(cron.WithChain(
		recoverWrapper(),
		cron.DelayIfStillRunning(cronLogger{}),
	))
	return j
}

// Start schedules the sweep job and starts the scheduler. Call it once.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.sweep); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", j.schedule, err)
	}
	j.cron.Start()
	logger.Info("🧽 Media Janitor Started", "schedule", j.schedule)
	return nil
}

// Stop stops the scheduler and waits for an in-flight sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
	logger.Info("🧽 Media Janitor Stopped")
}

func (j *Janitor) sweep() {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	removed, err := j.store.CleanupUnreferenced(ctx)
	if err != nil {
		logger.Error("Scheduled sweep aborted", "removed", removed, "error", err)
	}
}

// recoverWrapper keeps a panicking sweep from killing the scheduler.
func recoverWrapper() cron.JobWrapper {
	return func(job cron.Job) cron.Job {
		return cron.FuncJob(func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Sweep panicked",
						"panic", r,
						"stack_trace", string(debug.Stack()),
					)
				}
			}()
			job.Run()
		})
	}
}

// cronLogger adapts the package logger to the cron.Logger interface.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{"error", err}, keysAndValues...)
	logger.Error(msg, args...)
}
