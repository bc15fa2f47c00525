package work

import (
	"context"
	"sync"
	"time"
)

// Periodic submits a function to a Worker on every tick.
type Periodic struct {
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// Every starts submitting fn to w every d until ctx is done or Stop.
// A tick that finds the worker busy is dropped.
func Every(ctx context.Context, d time.Duration, w *Worker, fn Func) *Periodic {
	p := &Periodic{stop: make(chan struct{})}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.stop:
				return
			case <-ticker.C:
				w.Submit(fn)
			}
		}
	}()
	return p
}

// Stop ends the ticker and waits for its goroutine.
func (p *Periodic) Stop() {
	p.once.Do(func() { close(p.stop) })
	p.wg.Wait()
}

// Delayed is a pending single submission.
type Delayed struct {
	timer *time.Timer
}

// After submits fn to w once d has elapsed.
func After(d time.Duration, w *Worker, fn Func) *Delayed {
	return &Delayed{timer: time.AfterFunc(d, func() { w.Submit(fn) })}
}

// Stop cancels the submission. It reports whether it was still pending.
func (d *Delayed) Stop() bool {
	return d.timer.Stop()
}
