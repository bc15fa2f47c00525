package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SensorID is the property id of a sensor reading.
type SensorID uint16

// Sensor property ids.
const (
	SensorTemperature SensorID = 0x2A10
	SensorHumidity    SensorID = 0x2A11
	SensorPressure    SensorID = 0x2A12
	SensorGas         SensorID = 0x2A13
)

// Sensor status lengths.
const (
	readingLen     = 4
	GasStatusLen   = readingLen
	THPStatusLen   = 3 * readingLen
	originalDstLen = 2
	RelayedGasLen  = GasStatusLen + originalDstLen
	RelayedTHPLen  = THPStatusLen + originalDstLen
	valueScale     = 100
)

// thpOrder is the reading order of a temperature/humidity/pressure status.
var thpOrder = [3]SensorID{SensorTemperature, SensorHumidity, SensorPressure}

// Known reports whether the id is one of the recognised sensor properties.
func (id SensorID) Known() bool {
	switch id {
	case SensorTemperature, SensorHumidity, SensorPressure, SensorGas:
		return true
	default:
		return false
	}
}

// String returns the sensor property name.
func (id SensorID) String() string {
	switch id {
	case SensorTemperature:
		return "TEMPERATURE"
	case SensorHumidity:
		return "HUMIDITY"
	case SensorPressure:
		return "PRESSURE"
	case SensorGas:
		return "GAS"
	default:
		return fmt.Sprintf("0x%04X", uint16(id))
	}
}

// Reading is a single sensor value as transmitted.
type Reading struct {
	ID  SensorID
	Raw uint16
}

// Value returns the reading in its natural unit. Temperature is signed and
// scaled by 100, humidity and pressure are unsigned and scaled by 100, gas is
// an unscaled ppm count.
func (r Reading) Value() float64 {
	switch r.ID {
	case SensorTemperature:
		return float64(int16(r.Raw)) / valueScale
	case SensorHumidity, SensorPressure:
		return float64(r.Raw) / valueScale
	default:
		return float64(r.Raw)
	}
}

// TemperatureReading builds a temperature reading from degrees Celsius.
func TemperatureReading(celsius float64) Reading {
	v := math.Round(celsius * valueScale)
	v = math.Max(math.MinInt16, math.Min(math.MaxInt16, v))
	return Reading{ID: SensorTemperature, Raw: uint16(int16(v))}
}

// HumidityReading builds a humidity reading from percent relative humidity.
func HumidityReading(percent float64) Reading {
	return Reading{ID: SensorHumidity, Raw: scaleUnsigned(percent)}
}

// PressureReading builds a pressure reading. The value is scaled by 100 and
// clamped to 16 bits.
func PressureReading(value float64) Reading {
	return Reading{ID: SensorPressure, Raw: scaleUnsigned(value)}
}

// GasReading builds a gas concentration reading in ppm.
func GasReading(ppm uint16) Reading {
	return Reading{ID: SensorGas, Raw: ppm}
}

func scaleUnsigned(f float64) uint16 {
	v := math.Round(f * valueScale)
	return uint16(math.Max(0, math.Min(math.MaxUint16, v)))
}

// SensorStatus is a decoded Sensor Status message.
type SensorStatus struct {
	Readings []Reading
}

// IsGas reports whether the status is a single gas reading.
func (s SensorStatus) IsGas() bool {
	return len(s.Readings) == 1 && s.Readings[0].ID == SensorGas
}

// IsTHP reports whether the status carries temperature, humidity and pressure.
func (s SensorStatus) IsTHP() bool {
	if len(s.Readings) != len(thpOrder) {
		return false
	}
	for i, r := range s.Readings {
		if r.ID != thpOrder[i] {
			return false
		}
	}
	return true
}

// Reading returns the reading with the given id.
func (s SensorStatus) Reading(id SensorID) (Reading, bool) {
	for _, r := range s.Readings {
		if r.ID == id {
			return r, true
		}
	}
	return Reading{}, false
}

// ValidStatusLen reports whether n is the length of a gas or THP status.
func ValidStatusLen(n int) bool {
	return n == GasStatusLen || n == THPStatusLen
}

// DecodeSensorStatus decodes a Sensor Status message. A 4-byte status carries
// one reading with a recognised id; a 12-byte status carries temperature,
// humidity and pressure in that order. Anything else is malformed.
func DecodeSensorStatus(p []byte) (SensorStatus, error) {
	switch len(p) {
	case GasStatusLen:
		r := decodeReading(p)
		if !r.ID.Known() {
			return SensorStatus{}, fmt.Errorf("%w: %s", ErrUnexpectedReading, r.ID)
		}
		return SensorStatus{Readings: []Reading{r}}, nil

	case THPStatusLen:
		readings := make([]Reading, len(thpOrder))
		for i, want := range thpOrder {
			r := decodeReading(p[i*readingLen:])
			if r.ID != want {
				return SensorStatus{}, fmt.Errorf("%w: got %s at position %d, want %s",
					ErrUnexpectedReading, r.ID, i, want)
			}
			readings[i] = r
		}
		return SensorStatus{Readings: readings}, nil

	default:
		return SensorStatus{}, lengthError("sensor status", len(p), "4 or 12")
	}
}

func decodeReading(p []byte) Reading {
	return Reading{
		ID:  SensorID(binary.LittleEndian.Uint16(p[0:2])),
		Raw: binary.LittleEndian.Uint16(p[2:4]),
	}
}

// EncodeSensorStatus encodes readings as a Sensor Status message.
func EncodeSensorStatus(readings ...Reading) []byte {
	buf := make([]byte, 0, len(readings)*readingLen+originalDstLen)
	for _, r := range readings {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(r.ID))
		buf = binary.LittleEndian.AppendUint16(buf, r.Raw)
	}
	return buf
}

// RelayedStatus is a Sensor Status re-broadcast with the destination the
// original message was sent to.
type RelayedStatus struct {
	Status      SensorStatus
	OriginalDst uint16
}

// IsRelayedLen reports whether n is the length of a relayed gas or THP status.
func IsRelayedLen(n int) bool {
	return n == RelayedGasLen || n == RelayedTHPLen
}

// DecodeRelayedStatus decodes a relayed Sensor Status.
func DecodeRelayedStatus(p []byte) (RelayedStatus, error) {
	if !IsRelayedLen(len(p)) {
		return RelayedStatus{}, lengthError("relayed sensor status", len(p), "6 or 14")
	}
	n := len(p) - originalDstLen
	status, err := DecodeSensorStatus(p[:n])
	if err != nil {
		return RelayedStatus{}, err
	}
	return RelayedStatus{
		Status:      status,
		OriginalDst: binary.LittleEndian.Uint16(p[n:]),
	}, nil
}

// EncodeRelayedStatus appends the original destination to an encoded status.
// The status bytes are copied; status is not modified.
func EncodeRelayedStatus(status []byte, originalDst uint16) []byte {
	buf := make([]byte, 0, len(status)+originalDstLen)
	buf = append(buf, status...)
	return binary.LittleEndian.AppendUint16(buf, originalDst)
}
