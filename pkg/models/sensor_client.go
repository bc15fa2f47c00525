package models

import (
	"context"
	"fmt"

	"github.com/lucamoroz/mesh-go/pkg/interaction"
	"github.com/lucamoroz/mesh-go/pkg/log"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/wire"
)

// Relayer re-broadcasts a received sensor status.
type Relayer interface {
	Relay(ctx context.Context, payload []byte, originalDst model.Address) error
}

// SensorClient receives Sensor Status and sends Sensor Get.
type SensorClient struct {
	Base

	// Relay, when set, sees every valid status before the callbacks. A
	// relay failure is logged and the callbacks still run.
	Relay Relayer

	OnGas func(ctx context.Context, ppm uint16, from Origin)
	OnTHP func(ctx context.Context, temperature, humidity, pressure float64, from Origin)
}

// Register installs the Status handler.
func (c *SensorClient) Register(d *interaction.Dispatcher) error {
	c.Model.AddOpcodes(wire.OpSensorStatus)
	return d.Register(c.Element, wire.OpSensorStatus, wire.GasStatusLen, c.handleStatus)
}

func (c *SensorClient) handleStatus(ctx context.Context, req interaction.Request) error {
	st, err := wire.DecodeSensorStatus(req.Payload)
	if err != nil {
		c.debugLog("dropping sensor status", "src", req.Msg.Src.String(), "len", len(req.Payload), "reason", err.Error())
		c.Capture.Error(log.LayerModel, err, "sensor status")
		return nil
	}

	if c.Relay != nil {
		if err := c.Relay.Relay(ctx, req.Payload, req.Msg.Dst); err != nil && c.Logger != nil {
			c.Logger.Warn("relay failed", "src", req.Msg.Src.String(), "error", err)
		}
	}

	from := originOf(req)
	switch {
	case st.IsGas():
		ppm := st.Readings[0].Raw
		c.infoLog("gas status", "ppm", ppm, "src", from.Src.String(), "dst", from.Dst.String())
		if c.OnGas != nil {
			c.OnGas(ctx, ppm, from)
		}
	case st.IsTHP():
		t, h, p := st.Readings[0].Value(), st.Readings[1].Value(), st.Readings[2].Value()
		c.infoLog("thp status", "temperature", t, "humidity", h, "pressure", p,
			"src", from.Src.String(), "dst", from.Dst.String())
		if c.OnTHP != nil {
			c.OnTHP(ctx, t, h, p, from)
		}
	default:
		// A single temperature, humidity or pressure reading.
		c.debugLog("sensor status without handler", "reading", st.Readings[0].ID.String())
	}
	return nil
}

// Get publishes a Sensor Get for all properties.
func (c *SensorClient) Get(ctx context.Context) error {
	if err := c.Resolver.Publish(ctx, c.src(), c.Model.Publication(), wire.OpSensorGet, nil); err != nil {
		return fmt.Errorf("sensor client get: %w", err)
	}
	return nil
}
