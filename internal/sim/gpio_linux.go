//go:build linux

package sim

import (
	"io"

	"github.com/lucamoroz/mesh-go/pkg/config"
	"github.com/lucamoroz/mesh-go/pkg/gesture"
	"github.com/lucamoroz/mesh-go/pkg/led"
)

func openLED(g config.GPIO) (led.Output, io.Closer, error) {
	out, err := led.OpenGPIO(led.GPIOConfig{Chip: g.Chip, Red: g.Red, Green: g.Green, Blue: g.Blue})
	if err != nil {
		return nil, nil, err
	}
	return out, out, nil
}

func openButton(g config.GPIO, c *gesture.Classifier) (io.Closer, error) {
	return gesture.OpenGPIOButton(gesture.GPIOConfig{
		Chip:      g.Chip,
		Offset:    g.Button,
		ActiveLow: g.ActiveLow,
		PullUp:    g.PullUp,
	}, c)
}
