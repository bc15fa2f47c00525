//go:build !linux

package sim

import (
	"io"

	"github.com/lucamoroz/mesh-go/pkg/config"
	"github.com/lucamoroz/mesh-go/pkg/gesture"
	"github.com/lucamoroz/mesh-go/pkg/led"
)

func openLED(config.GPIO) (led.Output, io.Closer, error) {
	return nil, nil, ErrGPIOUnsupported
}

func openButton(config.GPIO, *gesture.Classifier) (io.Closer, error) {
	return nil, ErrGPIOUnsupported
}
