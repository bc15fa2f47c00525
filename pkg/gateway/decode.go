package gateway

import (
	"errors"
	"fmt"

	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/wire"
)

// ErrUnknownMessage is returned for sensor statuses that carry neither a
// THP triple nor a gas reading.
var ErrUnknownMessage = errors.New("gateway: unknown message")

// Telemetry is one flat telemetry object.
type Telemetry map[string]float64

// Name returns the telemetry key suffix of addr: its entry in names, or the
// address as four lowercase hex digits.
func Name(addr model.Address, names map[model.Address]string) string {
	if n, ok := names[addr]; ok {
		return n
	}
	return fmt.Sprintf("%04x", uint16(addr))
}

// Decode turns a Sensor Status parameter block from src into telemetry. A
// relayed status is attributed to the destination carried in its trailer.
func Decode(src model.Address, payload []byte, names map[model.Address]string) (Telemetry, error) {
	var status wire.SensorStatus
	switch {
	case wire.IsRelayedLen(len(payload)):
		r, err := wire.DecodeRelayedStatus(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnknownMessage, err)
		}
		status, src = r.Status, model.Address(r.OriginalDst)
	case wire.ValidStatusLen(len(payload)):
		s, err := wire.DecodeSensorStatus(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnknownMessage, err)
		}
		status = s
	default:
		return nil, fmt.Errorf("%w: %d bytes", ErrUnknownMessage, len(payload))
	}

	name := Name(src, names)
	switch {
	case status.IsTHP():
		t := make(Telemetry, 3)
		for _, r := range status.Readings {
			switch r.ID {
			case wire.SensorTemperature:
				t["temperature_"+name] = r.Value()
			case wire.SensorHumidity:
				t["humidity_"+name] = r.Value()
			case wire.SensorPressure:
				t["pressure_"+name] = r.Value()
			}
		}
		return t, nil
	case status.IsGas():
		return Telemetry{"co2_ppm_" + name: status.Readings[0].Value()}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessage, status.Readings[0].ID)
	}
}
