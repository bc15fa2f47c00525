package sim

import (
	"context"
	"sync"

	"github.com/lucamoroz/mesh-go/pkg/models"
)

// Default readings of a fresh sensor. Pressure is in kPa.
const (
	DefaultTemperature = 21.5
	DefaultHumidity    = 40.0
	DefaultPressure    = 101.32
	DefaultGas         = 420
)

// Peripherals are the simulated THP and gas sensors of a sensor node.
type Peripherals struct {
	mu          sync.Mutex
	temperature float64
	humidity    float64
	pressure    float64
	gas         uint16
}

// NewPeripherals returns sensors at the default readings.
func NewPeripherals() *Peripherals {
	return &Peripherals{
		temperature: DefaultTemperature,
		humidity:    DefaultHumidity,
		pressure:    DefaultPressure,
		gas:         DefaultGas,
	}
}

// SetTHP sets the next temperature, humidity and pressure reading.
func (p *Peripherals) SetTHP(temperature, humidity, pressure float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.temperature, p.humidity, p.pressure = temperature, humidity, pressure
}

// SetGas sets the next gas reading.
func (p *Peripherals) SetGas(ppm uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gas = ppm
}

// THP returns the current temperature, humidity and pressure.
func (p *Peripherals) THP() (temperature, humidity, pressure float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.temperature, p.humidity, p.pressure
}

// Gas returns the current gas reading.
func (p *Peripherals) Gas() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gas
}

// THPReader adapts the THP sensor to a models.Reader.
func (p *Peripherals) THPReader() models.Reader {
	return models.THPReaderFunc(func(context.Context) (float64, float64, float64, error) {
		t, h, pr := p.THP()
		return t, h, pr, nil
	})
}

// GasReader adapts the gas sensor to a models.Reader.
func (p *Peripherals) GasReader() models.Reader {
	return models.GasReaderFunc(func(context.Context) (uint16, error) {
		return p.Gas(), nil
	})
}
