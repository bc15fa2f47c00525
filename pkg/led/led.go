// Package led drives the node's RGB indicator.
//
// The LED is shared by the message path (on/off and colour changes), the
// attention timer and the gesture worker (feedback blinks). A blink holds
// the LED for its whole sequence and restores the previous colour.
package led

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lucamoroz/mesh-go/pkg/color"
)

// Output is the hardware behind an LED.
type Output interface {
	SetColor(c color.RGB) error
}

// ErrNumberRange is returned by ShowNumber for values above 999.
var ErrNumberRange = errors.New("led: number out of range")

// Pin display timing.
const (
	PinLeadIn   = 2 * time.Second
	PinDigitGap = 2 * time.Second
	PinOn       = 500 * time.Millisecond
	PinOff      = 200 * time.Millisecond
	MaxPin      = 999
)

// Config configures an LED.
type Config struct {
	// Output is required.
	Output Output

	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error

	Logger *slog.Logger
}

// LED is the shared indicator.
type LED struct {
	cfg Config

	mu      sync.Mutex
	current color.RGB
}

// New returns an LED. The output is not touched until the first call.
func New(cfg Config) *LED {
	if cfg.Sleep == nil {
		cfg.Sleep = sleep
	}
	return &LED{cfg: cfg}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// On shows c.
func (l *LED) On(c color.RGB) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.setLocked(c)
}

// Off turns the LED off.
func (l *LED) Off() error {
	return l.On(color.Black)
}

// Current returns the steady colour, ignoring any blink in progress.
func (l *LED) Current() color.RGB {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

func (l *LED) setLocked(c color.RGB) error {
	if err := l.cfg.Output.SetColor(c); err != nil {
		return fmt.Errorf("set led %s: %w", c, err)
	}
	l.current = c
	return nil
}

// Blink flashes c times times, on for on and off for off, then restores the
// colour shown before. There is no off delay after the last flash. The LED
// stays locked for the whole sequence; cancelling ctx cuts the sequence
// short but the restore still happens.
func (l *LED) Blink(ctx context.Context, times int, on, off time.Duration, c color.RGB) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	saved := l.current
	err := l.cycle(ctx, times, on, off, c)

	if rerr := l.cfg.Output.SetColor(saved); rerr != nil {
		err = errors.Join(err, fmt.Errorf("restore led %s: %w", saved, rerr))
	}
	return err
}

func (l *LED) cycle(ctx context.Context, times int, on, off time.Duration, c color.RGB) error {
	for i := 0; i < times; i++ {
		if err := l.cfg.Output.SetColor(c); err != nil {
			return err
		}
		if err := l.cfg.Sleep(ctx, on); err != nil {
			return err
		}
		if err := l.cfg.Output.SetColor(color.Black); err != nil {
			return err
		}
		if i == times-1 {
			break
		}
		if err := l.cfg.Sleep(ctx, off); err != nil {
			return err
		}
	}
	return nil
}

// ShowNumber blinks the three decimal digits of n, hundreds in red, tens in
// green and units in blue. A zero digit produces no flashes, only the gap.
func (l *LED) ShowNumber(ctx context.Context, n int) error {
	if n < 0 || n > MaxPin {
		return fmt.Errorf("%w: %d", ErrNumberRange, n)
	}
	digits := []struct {
		n int
		c color.RGB
	}{
		{n / 100, color.Red},
		{n / 10 % 10, color.Green},
		{n % 10, color.Blue},
	}

	if l.cfg.Logger != nil {
		l.cfg.Logger.Info("showing pin", "pin", fmt.Sprintf("%03d", n))
	}
	if err := l.cfg.Sleep(ctx, PinLeadIn); err != nil {
		return err
	}
	for i, d := range digits {
		if i > 0 {
			if err := l.cfg.Sleep(ctx, PinDigitGap); err != nil {
				return err
			}
		}
		if err := l.Blink(ctx, d.n, PinOn, PinOff, d.c); err != nil {
			return err
		}
	}
	return nil
}
