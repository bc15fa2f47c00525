package node

import (
	"context"
	"errors"
	"time"

	"github.com/lucamoroz/mesh-go/pkg/color"
	"github.com/lucamoroz/mesh-go/pkg/log"
	"github.com/lucamoroz/mesh-go/pkg/mesh"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/models"
	"github.com/lucamoroz/mesh-go/pkg/trigger"
	"github.com/lucamoroz/mesh-go/pkg/wire"
)

// sensorReady is how long the sensor node shows blue after boot.
const sensorReady = time.Second

// ErrNoReader is returned when a sensor node has no peripheral reader.
var ErrNoReader = errors.New("node: sensor reader required")

// buildSensor: element 0 with on/off and the THP sensor, element 1 with
// the gas sensor.
func (n *Node) buildSensor() error {
	if n.deps.THP == nil || n.deps.Gas == nil {
		return ErrNoReader
	}
	root := n.comp.AddElement()
	gasElem := n.comp.AddElement()
	n.onoff = model.NewOnOffState(false)

	if err := n.addHealth(root, color.Red); err != nil {
		return err
	}

	b, err := n.base(root, model.GenOnOffServer)
	if err != nil {
		return err
	}
	n.onoffSrv = &models.OnOffServer{
		Base:      b,
		State:     n.onoff,
		Indicator: n.led,
		OnChange:  func(bool) { n.persist() },
	}

	if b, err = n.base(root, model.SensorServer); err != nil {
		return err
	}
	n.thp = &models.SensorServer{Base: b, Name: "thp", Reader: n.deps.THP, RejectPropertyID: true}

	if b, err = n.base(gasElem, model.SensorServer); err != nil {
		return err
	}
	n.gas = &models.SensorServer{Base: b, Name: "gas", Reader: n.deps.Gas}

	n.ready = func(ctx context.Context) error {
		return n.led.Blink(ctx, 1, sensorReady, 0, color.Blue)
	}
	return n.register(n.onoffSrv, n.thp, n.gas)
}

// GasTrigger is the gas peripheral's threshold interrupt. The LED shows
// red while ppm is above the threshold, then the reading is published.
// The work runs on the background worker and is dropped if it is busy.
func (n *Node) GasTrigger(ppm uint16) error {
	if n.gas == nil {
		return ErrNotSupported
	}
	n.mu.Lock()
	started := n.started
	n.mu.Unlock()
	if !started {
		return ErrNotStarted
	}

	n.submitBackground("gas trigger", func(ctx context.Context) {
		limit := n.cfg.GasThreshold
		if limit == 0 {
			limit = trigger.DefaultGasThreshold
		}
		var err error
		above := ppm > limit
		if above {
			n.infoLog("gas above threshold", "ppm", ppm, "threshold", limit)
			err = n.led.On(color.Red)
		} else {
			n.infoLog("gas below threshold", "ppm", ppm, "threshold", limit)
			err = n.led.Off()
		}
		if err != nil {
			n.warnLog("gas indication failed", "error", err)
		}
		n.capture.State(log.LayerNode, log.StateChangeEvent{
			Entity:   log.StateEntityAlarm,
			NewState: trigger.Alarm(above).String(),
			Reason:   "gas trigger",
		})

		err = n.gas.Report(ctx, wire.GasReading(ppm))
		if err != nil && !errors.Is(err, mesh.ErrUnassignedAddress) {
			n.warnLog("gas publish failed", "error", err)
		}
	})
	return nil
}

// PublishSensors forces a publication of every sensor server.
func (n *Node) PublishSensors(ctx context.Context) error {
	var errs []error
	for _, s := range []*models.SensorServer{n.temp, n.thp, n.gas} {
		if s == nil {
			continue
		}
		if err := s.PublishNow(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if n.temp == nil && n.thp == nil && n.gas == nil {
		return ErrNotSupported
	}
	return errors.Join(errs...)
}
