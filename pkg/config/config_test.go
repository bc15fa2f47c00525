package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucamoroz/mesh-go/pkg/gateway"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/node"
	"github.com/lucamoroz/mesh-go/pkg/trigger"
)

const proxyYAML = `
role: proxy
serial: "0007"
address: 0x0001
debounce: 150ms
publications:
  - element: 0
    model: GenOnOffClient
    address: 0xC000
    retransmit:
      count: 2
      interval: 50ms
  - element: 0
    model: SensorClient
    address: 0xFFFF
    ttl: 3
subscriptions: [0xC001]
gpio:
  chip: gpiochip0
  button: 17
  active_low: true
  red: 5
  green: 6
  blue: 13
gateway:
  discover: true
  names:
    0x0031: kitchen
    0x0041: garage
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(proxyYAML))
	require.NoError(t, err)

	assert.Equal(t, "proxy", cfg.Role)
	assert.Equal(t, uint16(0x0001), cfg.Address)
	assert.Equal(t, 150*time.Millisecond, cfg.Debounce)
	assert.Equal(t, uint16(trigger.DefaultGasThreshold), cfg.GasThreshold, "default kept")
	assert.Equal(t, gateway.DefaultTelemetryTopic, cfg.Gateway.TelemetryTopic)

	bc := cfg.Gateway.BridgeConfig()
	assert.Equal(t, model.AddrAllNodes, bc.AlertTarget)
	assert.Equal(t, "kitchen", bc.Names[0x0031])
	assert.Equal(t, "tcp://found:1883", cfg.Gateway.ConnectConfig("tcp://found:1883").Broker)
	assert.True(t, cfg.Gateway.Discover)
	assert.Equal(t, []model.Address{0xC001}, cfg.Groups())
	assert.True(t, cfg.GPIO.Enabled())
	assert.Equal(t, GPIO{Chip: "gpiochip0", Button: 17, ActiveLow: true, Red: 5, Green: 6, Blue: 13}, cfg.GPIO)
	assert.Equal(t, map[model.Address]string{0x0031: "kitchen", 0x0041: "garage"}, cfg.Gateway.AddressNames())
}

func TestNodeConfig(t *testing.T) {
	cfg, err := Parse([]byte(proxyYAML))
	require.NoError(t, err)

	nc, err := cfg.NodeConfig()
	require.NoError(t, err)
	assert.Equal(t, node.RoleProxy, nc.Role)
	assert.Equal(t, model.Address(0x0001), nc.Address)
	require.Len(t, nc.Publications, 2)

	onoff := nc.Publications[0]
	assert.Equal(t, model.GenOnOffClient, onoff.Model)
	assert.Equal(t, model.Address(0xC000), onoff.Address)
	assert.Equal(t, model.DefaultTTL, onoff.TTL, "falls back to the node ttl")
	assert.Equal(t, model.Retransmit{Count: 2, Interval: 50 * time.Millisecond}, onoff.Retransmit)

	assert.Equal(t, uint8(3), nc.Publications[1].TTL)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "light.yaml")
	require.NoError(t, os.WriteFile(path, []byte("role: light\nlog_level: debug\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.Role)
	assert.Equal(t, "debug", cfg.LogLevel)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no role", "address: 1\n"},
		{"unknown role", "role: kettle\n"},
		{"group address", "role: light\naddress: 0xC000\n"},
		{"bad uuid", "role: light\nuuid: nope\n"},
		{"ttl", "role: light\nttl: 200\n"},
		{"log level", "role: light\nlog_level: loud\n"},
		{"model", "role: light\npublications:\n  - model: Toaster\n    address: 1\n"},
		{"unicast subscription", "role: light\nsubscriptions: [0x0010]\n"},
		{"gpio line", "role: light\ngpio:\n  chip: gpiochip0\n  red: -1\n"},
		{"syntax", "role: [light\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestValidateSentinels(t *testing.T) {
	cfg := Default(node.RoleSwitch)
	require.NoError(t, cfg.Validate())

	cfg.Publications = []Publication{{Model: "Toaster"}}
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]string{"": "INFO", "DEBUG": "DEBUG", "warning": "WARN", "error": "ERROR"} {
		l, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if l.String() != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, l, want)
		}
	}
}
