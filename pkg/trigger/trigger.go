// Package trigger aggregates per-source threshold flags into one alarm.
package trigger

import (
	"log/slog"
	"sync"
)

// Defaults.
const (
	DefaultCapacity     = 128
	DefaultGasThreshold = 800
)

// Alarm is the aggregated state.
type Alarm bool

const (
	AlarmOff Alarm = false
	AlarmOn  Alarm = true
)

func (a Alarm) String() string {
	if a {
		return "on"
	}
	return "off"
}

// Config configures an Aggregator.
type Config struct {
	// Capacity bounds the source ids. Defaults to DefaultCapacity.
	Capacity int

	// OnAlarm runs every time a source becomes flagged.
	OnAlarm func()

	// OffAlarm runs when the last flagged source clears.
	OffAlarm func()

	Logger *slog.Logger
}

// Aggregator keeps one flag per source id.
type Aggregator struct {
	cfg Config

	mu    sync.Mutex
	flags []bool
}

// NewAggregator returns an aggregator with every flag clear.
func NewAggregator(cfg Config) *Aggregator {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	return &Aggregator{cfg: cfg, flags: make([]bool, cfg.Capacity)}
}

// Capacity returns the number of source slots.
func (a *Aggregator) Capacity() int {
	return a.cfg.Capacity
}

// Update records whether src is above its threshold and returns the
// aggregated alarm. Sources outside the table are logged and ignored.
//
// OnAlarm fires when src goes from clear to flagged, even if other sources
// already hold the alarm. OffAlarm fires only when clearing src leaves no
// source flagged. The callbacks run after the table lock is released.
func (a *Aggregator) Update(src uint16, above bool) Alarm {
	if int(src) >= a.cfg.Capacity {
		if a.cfg.Logger != nil {
			a.cfg.Logger.Warn("trigger source out of range, ignoring",
				"src", src, "capacity", a.cfg.Capacity)
		}
		return a.Active()
	}

	a.mu.Lock()
	was := a.flags[src]
	a.flags[src] = above
	active := a.activeLocked()
	a.mu.Unlock()

	switch {
	case above && !was:
		if a.cfg.OnAlarm != nil {
			a.cfg.OnAlarm()
		}
	case !above && was && !active:
		if a.cfg.OffAlarm != nil {
			a.cfg.OffAlarm()
		}
	}
	return Alarm(active)
}

// Active reports whether any source is flagged.
func (a *Aggregator) Active() Alarm {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Alarm(a.activeLocked())
}

func (a *Aggregator) activeLocked() bool {
	for _, f := range a.flags {
		if f {
			return true
		}
	}
	return false
}

// Flagged returns the flagged source ids in ascending order.
func (a *Aggregator) Flagged() []uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []uint16
	for i, f := range a.flags {
		if f {
			out = append(out, uint16(i))
		}
	}
	return out
}

// Threshold feeds ppm readings into an Aggregator.
type Threshold struct {
	Aggregator *Aggregator

	// PPM is the limit a reading must exceed. Zero means
	// DefaultGasThreshold.
	PPM uint16
}

// UpdatePPM flags src when ppm is strictly greater than the threshold.
func (t Threshold) UpdatePPM(src uint16, ppm uint16) Alarm {
	limit := t.PPM
	if limit == 0 {
		limit = DefaultGasThreshold
	}
	return t.Aggregator.Update(src, ppm > limit)
}
