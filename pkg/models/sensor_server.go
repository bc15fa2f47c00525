package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lucamoroz/mesh-go/pkg/interaction"
	"github.com/lucamoroz/mesh-go/pkg/mesh"
	"github.com/lucamoroz/mesh-go/pkg/wire"
	"github.com/lucamoroz/mesh-go/pkg/work"
)

// ErrReadFailed wraps sensor peripheral errors.
var ErrReadFailed = errors.New("sensor read failed")

// Reader reads the current sensor values.
type Reader interface {
	Read(ctx context.Context) ([]wire.Reading, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(ctx context.Context) ([]wire.Reading, error)

func (f ReaderFunc) Read(ctx context.Context) ([]wire.Reading, error) { return f(ctx) }

// THPReaderFunc adapts a temperature/humidity/pressure read to Reader.
func THPReaderFunc(read func(ctx context.Context) (temperature, humidity, pressure float64, err error)) Reader {
	return ReaderFunc(func(ctx context.Context) ([]wire.Reading, error) {
		t, h, p, err := read(ctx)
		if err != nil {
			return nil, err
		}
		return []wire.Reading{
			wire.TemperatureReading(t),
			wire.HumidityReading(h),
			wire.PressureReading(p),
		}, nil
	})
}

// GasReaderFunc adapts a ppm read to Reader.
func GasReaderFunc(read func(ctx context.Context) (uint16, error)) Reader {
	return ReaderFunc(func(ctx context.Context) ([]wire.Reading, error) {
		ppm, err := read(ctx)
		if err != nil {
			return nil, err
		}
		return []wire.Reading{wire.GasReading(ppm)}, nil
	})
}

// SensorServer answers Sensor Get by publishing a fresh Sensor Status.
// Status always goes through the publication, also for Gets.
type SensorServer struct {
	Base

	// Reader is required.
	Reader Reader

	// Name labels log output, e.g. "thp" or "gas".
	Name string

	// RejectPropertyID ignores Gets that name a property. The THP sensor
	// only answers whole-sensor Gets.
	RejectPropertyID bool
}

// Register installs the Get handler.
func (s *SensorServer) Register(d *interaction.Dispatcher) error {
	s.Model.AddOpcodes(wire.OpSensorGet)
	return d.Register(s.Element, wire.OpSensorGet, 0, s.handleGet)
}

func (s *SensorServer) handleGet(ctx context.Context, req interaction.Request) error {
	if s.RejectPropertyID && len(req.Payload) > 0 {
		s.debugLog("sensor get with property id not supported", "sensor", s.Name, "len", len(req.Payload))
		return nil
	}
	err := s.PublishNow(ctx)
	if errors.Is(err, mesh.ErrUnassignedAddress) {
		return nil
	}
	return err
}

// PublishNow reads the sensor and publishes the result. A read failure
// aborts the publish and is returned; nothing is retried.
func (s *SensorServer) PublishNow(ctx context.Context) error {
	if !s.Model.Publication().Configured() {
		s.debugLog("no publish address for sensor", "sensor", s.Name)
		return mesh.ErrUnassignedAddress
	}
	readings, err := s.Reader.Read(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", s.Name, ErrReadFailed, err)
	}
	return s.Report(ctx, readings...)
}

// Report publishes readings that were already taken, as the gas
// threshold interrupt does.
func (s *SensorServer) Report(ctx context.Context, readings ...wire.Reading) error {
	payload := wire.EncodeSensorStatus(readings...)
	if err := s.Resolver.Publish(ctx, s.src(), s.Model.Publication(), wire.OpSensorStatus, payload); err != nil {
		return fmt.Errorf("%s status: %w", s.Name, err)
	}
	s.debugLog("sensor status published", "sensor", s.Name, "readings", len(readings))
	return nil
}

// StartPeriodic publishes through w every period. A zero period uses the
// publication period; if that is zero too nothing is started and nil is
// returned.
func (s *SensorServer) StartPeriodic(ctx context.Context, w *work.Worker, period time.Duration) *work.Periodic {
	if period <= 0 {
		period = s.Model.Publication().Period
	}
	if period <= 0 {
		return nil
	}
	return work.Every(ctx, period, w, func(ctx context.Context) {
		if err := s.PublishNow(ctx); err != nil && !errors.Is(err, mesh.ErrUnassignedAddress) {
			if s.Logger != nil {
				s.Logger.Warn("periodic sensor publish failed", "sensor", s.Name, "error", err)
			}
		}
	})
}
