package node

import (
	"context"

	"github.com/lucamoroz/mesh-go/pkg/color"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/models"
	"github.com/lucamoroz/mesh-go/pkg/wire"
)

// lightTemperature is the fixed reading of the light's temperature sensor,
// which has no peripheral behind it.
const lightTemperature = 23

// buildLight: one element with on/off, HSL and a temperature sensor.
func (n *Node) buildLight() error {
	e := n.comp.AddElement()
	n.onoff = model.NewOnOffState(false)
	n.hsl = model.NewHSLState(color.HSL{Lightness: 0xFFFF})

	if err := n.addHealth(e, color.Red); err != nil {
		return err
	}

	b, err := n.base(e, model.GenOnOffServer)
	if err != nil {
		return err
	}
	n.onoffSrv = &models.OnOffServer{
		Base:      b,
		State:     n.onoff,
		Indicator: n.led,
		Color:     n.hsl.RGB,
		OnChange:  func(bool) { n.persist() },
	}

	if b, err = n.base(e, model.LightHSLServer); err != nil {
		return err
	}
	n.hslSrv = &models.HSLServer{
		Base:      b,
		State:     n.hsl,
		OnOff:     n.onoff,
		Indicator: n.led,
		OnChange:  func(color.HSL) { n.persist() },
	}

	if b, err = n.base(e, model.SensorServer); err != nil {
		return err
	}
	n.temp = &models.SensorServer{
		Base: b,
		Name: "temperature",
		Reader: models.ReaderFunc(func(context.Context) ([]wire.Reading, error) {
			return []wire.Reading{wire.TemperatureReading(lightTemperature)}, nil
		}),
	}

	return n.register(n.onoffSrv, n.hslSrv, n.temp)
}
