//go:build linux

package gesture

import (
	"fmt"

	gpiod "github.com/warthog618/go-gpiocdev"
)

// GPIOConfig selects a button line.
type GPIOConfig struct {
	// Chip is the GPIO chip, e.g. "gpiochip0".
	Chip string

	// Offset is the line offset on the chip.
	Offset int

	// ActiveLow is set for buttons that pull the line to ground.
	ActiveLow bool

	// PullUp enables the internal pull-up bias.
	PullUp bool
}

var _ EdgeSource = (*GPIOButton)(nil)

// GPIOButton feeds edges from a GPIO line into a Classifier.
type GPIOButton struct {
	line *gpiod.Line
}

// OpenGPIOButton requests the line with both-edge detection. Debouncing is
// left to the Classifier.
func OpenGPIOButton(cfg GPIOConfig, c *Classifier) (*GPIOButton, error) {
	opts := []gpiod.LineReqOption{
		gpiod.AsInput,
		gpiod.WithBothEdges,
		gpiod.WithEventHandler(func(evt gpiod.LineEvent) {
			c.Edge(pressedFromEdge(evt.Type, cfg.ActiveLow))
		}),
	}
	if cfg.PullUp {
		opts = append(opts, gpiod.WithPullUp)
	}

	line, err := gpiod.RequestLine(cfg.Chip, cfg.Offset, opts...)
	if err != nil {
		return nil, fmt.Errorf("request button line %s:%d: %w", cfg.Chip, cfg.Offset, err)
	}
	return &GPIOButton{line: line}, nil
}

// Close releases the line.
func (b *GPIOButton) Close() error {
	return b.line.Close()
}

func pressedFromEdge(t gpiod.LineEventType, activeLow bool) bool {
	if activeLow {
		return t == gpiod.LineEventFallingEdge
	}
	return t == gpiod.LineEventRisingEdge
}
