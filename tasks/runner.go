// Package tasks schedules the store's background work, such as materializing
// media content after registration has already returned.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AltairaLabs/MediaKit/logger"
	"golang.org/x/sync/semaphore"
)

// Error constants
var (
	ErrShuttingDown = errors.New("task pool is shutting down")
	ErrNilTask      = errors.New("nil task")
)

// Error message format strings
const (
	errFailedToAcquireSlot = "failed to acquire task slot: %w"
	errShutdownTimeout     = "shutdown timeout after %v"
)

// Task is a unit of background work.
type Task func(ctx context.Context) error

// Runner schedules background work. Go returns once the task has been
// accepted; the task's own failure is logged by the runner rather than
// returned. An error from Go means the task was never scheduled.
type Runner interface {
	Go(ctx context.Context, name string, task Task) error
}

// PoolConfig controls Pool concurrency and shutdown behavior.
type PoolConfig struct {
	// MaxConcurrent caps simultaneously running tasks.
	MaxConcurrent int
	// TaskTimeout bounds each task's execution. Negative disables the limit.
	TaskTimeout time.Duration
	// ShutdownTimeout bounds how long Shutdown waits for in-flight tasks.
	ShutdownTimeout time.Duration
}

// DefaultPoolConfig returns sensible defaults for media materialization work.
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxConcurrent:   16,
		TaskTimeout:     5 * time.Minute,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Pool runs tasks on background goroutines, capped by a weighted semaphore.
type Pool struct {
	config     *PoolConfig
	semaphore  *semaphore.Weighted
	wg         sync.WaitGroup
	baseCtx    context.Context
	baseStop   context.CancelFunc
	shutdownMu sync.RWMutex
	isShutdown bool
}

var _ Runner = (*Pool)(nil)

// NewPool creates a pool with the given configuration. A nil config or
// zero-valued fields fall back to DefaultPoolConfig values.
func NewPool(config *PoolConfig) *Pool {
	defaults := DefaultPoolConfig()
	if config == nil {
		config = defaults
	} else {
		if config.MaxConcurrent <= 0 {
			config.MaxConcurrent = defaults.MaxConcurrent
		}
		if config.TaskTimeout == 0 {
			config.TaskTimeout = defaults.TaskTimeout
		}
		if config.ShutdownTimeout == 0 {
			config.ShutdownTimeout = defaults.ShutdownTimeout
		}
	}

	baseCtx, baseStop := context.WithCancel(context.Background())
	return &Pool{
		config:    config,
		semaphore: semaphore.NewWeighted(int64(config.MaxConcurrent)),
		baseCtx:   baseCtx,
		baseStop:  baseStop,
	}
}

// Go schedules task to run in the background. The task keeps the values of
// ctx (logging fields, trace context) but not its cancellation: a registered
// upload must finish its save even when the registering request has already
// returned. The slot is acquired inside the goroutine so a saturated pool
// never blocks the caller.
func (p *Pool) Go(ctx context.Context, name string, task Task) error {
	if task == nil {
		return ErrNilTask
	}

	p.shutdownMu.RLock()
	if p.isShutdown {
		p.shutdownMu.RUnlock()
		return ErrShuttingDown
	}
	// Add under the lock so Shutdown cannot finish waiting between the
	// check above and this registration.
	p.wg.Add(1)
	p.shutdownMu.RUnlock()

	taskCtx := context.WithoutCancel(ctx)

	go func() {
		defer p.wg.Done()

		// baseCtx is cancelled when Shutdown gives up, so queued tasks
		// stop waiting for slots instead of leaking.
		if err := p.semaphore.Acquire(p.baseCtx, 1); err != nil {
			logger.WarnContext(taskCtx, "Background task never started",
				"task", name,
				"error", fmt.Errorf(errFailedToAcquireSlot, err))
			return
		}
		defer p.semaphore.Release(1)

		runCtx := taskCtx
		if p.config.TaskTimeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(taskCtx, p.config.TaskTimeout)
			defer cancel()
		}

		runTask(runCtx, name, task)
	}()

	return nil
}

// Shutdown stops accepting tasks and waits for in-flight ones to complete.
// Returns an error if draining exceeds ShutdownTimeout; tasks still waiting
// for a slot at that point are abandoned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.shutdownMu.Lock()
	if p.isShutdown {
		p.shutdownMu.Unlock()
		return nil // Already shut down
	}
	p.isShutdown = true
	p.shutdownMu.Unlock()

	// Wait for in-flight tasks with timeout
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	shutdownCtx, cancel := context.WithTimeout(ctx, p.config.ShutdownTimeout)
	defer cancel()

	select {
	case <-done:
		p.baseStop()
		return nil
	case <-shutdownCtx.Done():
		p.baseStop()
		return fmt.Errorf(errShutdownTimeout, p.config.ShutdownTimeout)
	}
}

// Inline runs each task on the calling goroutine before Go returns. It is
// the Runner for callers that want registration to materialize eagerly, and
// for tests.
type Inline struct{}

var _ Runner = Inline{}

// Go runs the task immediately. Like Pool, the task's failure is logged
// rather than returned.
func (Inline) Go(ctx context.Context, name string, task Task) error {
	if task == nil {
		return ErrNilTask
	}
	runTask(ctx, name, task)
	return nil
}

func runTask(ctx context.Context, name string, task Task) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Background task panicked",
				"task", name,
				"panic", r,
				"duration", time.Since(start))
		}
	}()

	if err := task(ctx); err != nil {
		logger.ErrorContext(ctx, "Background task failed",
			"task", name,
			"error", err,
			"duration", time.Since(start))
		return
	}

	logger.DebugContext(ctx, "Background task completed",
		"task", name,
		"duration", time.Since(start))
}
