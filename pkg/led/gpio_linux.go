//go:build linux

package led

import (
	"errors"
	"fmt"

	gpiod "github.com/warthog618/go-gpiocdev"

	"github.com/lucamoroz/mesh-go/pkg/color"
)

// GPIOConfig selects the three LED lines.
type GPIOConfig struct {
	Chip             string
	Red, Green, Blue int
}

// GPIOOutput drives an active-low RGB LED. A channel is lit only at full
// intensity; anything below 255 leaves it dark.
type GPIOOutput struct {
	chip  *gpiod.Chip
	lines [3]*gpiod.Line
}

var _ Output = (*GPIOOutput)(nil)

// OpenGPIO requests the lines as outputs, initially dark.
func OpenGPIO(cfg GPIOConfig) (*GPIOOutput, error) {
	chip, err := gpiod.NewChip(cfg.Chip)
	if err != nil {
		return nil, fmt.Errorf("open chip %s: %w", cfg.Chip, err)
	}
	o := &GPIOOutput{chip: chip}
	for i, pin := range []int{cfg.Red, cfg.Green, cfg.Blue} {
		line, err := chip.RequestLine(pin, gpiod.AsOutput(1))
		if err != nil {
			o.Close()
			return nil, fmt.Errorf("request led line %d: %w", pin, err)
		}
		o.lines[i] = line
	}
	return o, nil
}

func (o *GPIOOutput) SetColor(c color.RGB) error {
	r, g, b := c.Binary()
	var errs []error
	for i, lit := range []bool{r, g, b} {
		if err := o.lines[i].SetValue(activeLow(lit)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases the lines and the chip.
func (o *GPIOOutput) Close() error {
	var errs []error
	for _, l := range o.lines {
		if l != nil {
			errs = append(errs, l.Close())
		}
	}
	if o.chip != nil {
		errs = append(errs, o.chip.Close())
	}
	return errors.Join(errs...)
}

func activeLow(lit bool) int {
	if lit {
		return 0
	}
	return 1
}
