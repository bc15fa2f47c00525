package work

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Func is a unit of deferred work.
type Func func(ctx context.Context)

// Config configures a Worker.
type Config struct {
	// Name identifies the worker in log output.
	Name string

	// Logger for dropped items. Nil disables logging.
	Logger *slog.Logger
}

// Worker runs submitted functions on a single goroutine.
type Worker struct {
	cfg Config

	mu      sync.Mutex
	busy    bool
	stopped bool
	items   chan Func

	cancel context.CancelFunc
	done   chan struct{}

	dropped atomic.Uint64
	ran     atomic.Uint64
}

// New returns a stopped worker. Call Start before submitting.
func New(cfg Config) *Worker {
	return &Worker{
		cfg:   cfg,
		items: make(chan Func, 1),
		done:  make(chan struct{}),
	}
}

// Start runs the worker goroutine until ctx is done or Stop is called.
// Starting twice has no effect.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.cancel != nil || w.stopped {
		w.mu.Unlock()
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	go w.run(ctx)
}

// Stop cancels the running item's context and waits for the goroutine.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.stopped = true
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-w.done
}

// Submit hands fn to the worker. It returns false, and fn never runs, when
// an item is already pending or running or the worker is stopped.
func (w *Worker) Submit(fn Func) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return false
	}
	if w.busy {
		w.dropped.Add(1)
		if w.cfg.Logger != nil {
			w.cfg.Logger.Debug("work item dropped, worker busy", "worker", w.cfg.Name)
		}
		return false
	}
	w.busy = true
	w.items <- fn
	return true
}

// Busy reports whether an item is pending or running.
func (w *Worker) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

// Dropped returns the number of submissions rejected because the worker
// was busy.
func (w *Worker) Dropped() uint64 {
	return w.dropped.Load()
}

// Completed returns the number of items that ran to completion.
func (w *Worker) Completed() uint64 {
	return w.ran.Load()
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-w.items:
			w.runItem(ctx, fn)
		}
	}
}

// runItem runs fn and marks the worker idle afterwards. A panicking item is
// logged and does not count as completed.
func (w *Worker) runItem(ctx context.Context, fn Func) {
	defer func() {
		if r := recover(); r != nil && w.cfg.Logger != nil {
			w.cfg.Logger.Error("work item panicked", "worker", w.cfg.Name, "panic", r)
		}
		w.mu.Lock()
		w.busy = false
		w.mu.Unlock()
	}()
	fn(ctx)
	w.ran.Add(1)
}
