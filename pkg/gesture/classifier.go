package gesture

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lucamoroz/mesh-go/pkg/work"
)

// ErrNoWorker is returned by New without a worker.
var ErrNoWorker = errors.New("gesture: worker required")

// Handler is called on the worker for every accepted click.
type Handler func(ctx context.Context, c Click)

// Config configures a Classifier.
type Config struct {
	// Worker runs the handler. Required.
	Worker *work.Worker

	// OnClick handles clicks.
	OnClick Handler

	// Debounce defaults to DebounceDelay.
	Debounce time.Duration

	// Now defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// Classifier is the button state machine.
type Classifier struct {
	cfg Config

	mu       sync.Mutex
	lastEdge time.Time
	down     time.Time
	pressed  bool
}

// New returns a classifier.
func New(cfg Config) (*Classifier, error) {
	if cfg.Worker == nil {
		return nil, ErrNoWorker
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DebounceDelay
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Classifier{cfg: cfg}, nil
}

// Edge reports a button transition. active is true when the button goes
// down. It returns the submitted click, or 0 when nothing was submitted.
func (c *Classifier) Edge(active bool) Click {
	now := c.cfg.Now()

	c.mu.Lock()
	bounce := !c.lastEdge.IsZero() && now.Sub(c.lastEdge) < c.cfg.Debounce
	c.lastEdge = now
	if bounce {
		c.mu.Unlock()
		return 0
	}
	if active {
		c.pressed = true
		c.down = now
		c.mu.Unlock()
		return 0
	}
	if !c.pressed {
		c.mu.Unlock()
		return 0
	}
	c.pressed = false
	held := now.Sub(c.down)
	c.mu.Unlock()

	click := Classify(held)
	handler := c.cfg.OnClick
	if !c.cfg.Worker.Submit(func(ctx context.Context) {
		if handler != nil {
			handler(ctx, click)
		}
	}) {
		c.debugLog("click dropped, previous click still running", "click", click.String())
		return 0
	}
	c.debugLog("click", "click", click.String(), "held", held)
	return click
}

// Press is Edge(true).
func (c *Classifier) Press() { c.Edge(true) }

// Release is Edge(false).
func (c *Classifier) Release() Click { return c.Edge(false) }

// Busy reports whether a click is still being handled.
func (c *Classifier) Busy() bool {
	return c.cfg.Worker.Busy()
}

func (c *Classifier) debugLog(msg string, args ...any) {
	if c.cfg.Logger != nil {
		c.cfg.Logger.Debug(msg, args...)
	}
}

// EdgeSource is a hardware button feeding a Classifier.
type EdgeSource interface {
	Close() error
}
