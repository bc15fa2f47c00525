// Package config loads the YAML configuration of a mesh node and of the
// gateway bridge.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/lucamoroz/mesh-go/pkg/gateway"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/node"
	"github.com/lucamoroz/mesh-go/pkg/trigger"
)

// Config errors.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrUnknownModel  = errors.New("unknown model name")
)

// Defaults.
const (
	DefaultLogLevel = "info"
	DefaultDebounce = 200 * time.Millisecond
)

// Config is one node configuration file.
type Config struct {
	Role   string `yaml:"role"`
	UUID   string `yaml:"uuid,omitempty"`
	Serial string `yaml:"serial,omitempty"`

	// Address provisions the node at boot. Zero waits for provisioning.
	Address uint16 `yaml:"address,omitempty"`
	TTL     uint8  `yaml:"ttl,omitempty"`

	Publications []Publication `yaml:"publications,omitempty"`

	// Subscriptions are the group addresses the node listens on.
	Subscriptions []uint16 `yaml:"subscriptions,omitempty"`

	GasThreshold    uint16        `yaml:"gas_threshold,omitempty"`
	TriggerCapacity int           `yaml:"trigger_capacity,omitempty"`
	Debounce        time.Duration `yaml:"debounce,omitempty"`
	SensorPeriod    time.Duration `yaml:"sensor_period,omitempty"`

	StateFile   string `yaml:"state_file,omitempty"`
	ProtocolLog string `yaml:"protocol_log,omitempty"`
	LogLevel    string `yaml:"log_level,omitempty"`

	GPIO GPIO `yaml:"gpio,omitempty"`

	Gateway Gateway `yaml:"gateway,omitempty"`
}

// GPIO wires the button and RGB LED to character device lines. An empty
// Chip keeps the node on simulated peripherals.
type GPIO struct {
	Chip      string `yaml:"chip,omitempty"`
	Button    int    `yaml:"button"`
	ActiveLow bool   `yaml:"active_low,omitempty"`
	PullUp    bool   `yaml:"pull_up,omitempty"`
	Red       int    `yaml:"red"`
	Green     int    `yaml:"green"`
	Blue      int    `yaml:"blue"`
}

// Enabled reports whether GPIO peripherals are configured.
func (g GPIO) Enabled() bool { return g.Chip != "" }

// Publication is the publication of one model, named as model.ModelID
// prints it, e.g. "GenOnOffClient".
type Publication struct {
	Element     int           `yaml:"element"`
	Model       string        `yaml:"model"`
	Address     uint16        `yaml:"address"`
	AppKeyIndex uint16        `yaml:"app_key_index,omitempty"`
	TTL         uint8         `yaml:"ttl,omitempty"`
	Retransmit  Retransmit    `yaml:"retransmit,omitempty"`
	Period      time.Duration `yaml:"period,omitempty"`
}

// Retransmit is the publish retransmission of a model.
type Retransmit struct {
	Count    uint8         `yaml:"count,omitempty"`
	Interval time.Duration `yaml:"interval,omitempty"`
}

// Gateway configures the MQTT bridge.
type Gateway struct {
	// Broker is the MQTT broker URL. Empty with Discover set browses mDNS.
	Broker   string `yaml:"broker,omitempty"`
	Discover bool   `yaml:"discover,omitempty"`
	ClientID string `yaml:"client_id,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	TelemetryTopic string `yaml:"telemetry_topic,omitempty"`
	RPCTopic       string `yaml:"rpc_topic,omitempty"`

	// Address is the gateway's mesh address.
	Address uint16 `yaml:"address,omitempty"`

	// AlertTarget receives the on/off alert RPC. Zero means all nodes.
	AlertTarget uint16 `yaml:"alert_target,omitempty"`

	// MetricsAddr serves Prometheus metrics, e.g. ":9100".
	MetricsAddr string `yaml:"metrics_addr,omitempty"`

	// Names maps node addresses to telemetry key suffixes.
	Names map[uint16]string `yaml:"names,omitempty"`
}

// Default returns the configuration of an unprovisioned node of role.
func Default(role node.Role) *Config {
	return &Config{
		Role:            string(role),
		TTL:             model.DefaultTTL,
		GasThreshold:    trigger.DefaultGasThreshold,
		TriggerCapacity: trigger.DefaultCapacity,
		Debounce:        DefaultDebounce,
		LogLevel:        DefaultLogLevel,
		Gateway: Gateway{
			TelemetryTopic: gateway.DefaultTelemetryTopic,
			RPCTopic:       gateway.DefaultRPCTopic,
			AlertTarget:    uint16(model.AddrAllNodes),
		},
	}
}

// Parse decodes YAML over the defaults of the role named in data.
func Parse(data []byte) (*Config, error) {
	var probe struct {
		Role string `yaml:"role"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	role, err := node.ParseRole(probe.Role)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg := Default(role)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Role = string(role)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Validate checks the configuration for values a node cannot run with.
func (c *Config) Validate() error {
	if _, err := node.ParseRole(c.Role); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.UUID != "" {
		if _, err := uuid.Parse(c.UUID); err != nil {
			return fmt.Errorf("%w: uuid %q: %w", ErrInvalidConfig, c.UUID, err)
		}
	}
	if a := model.Address(c.Address); !a.IsUnassigned() && !a.IsUnicast() {
		return fmt.Errorf("%w: address %s is not unicast", ErrInvalidConfig, a)
	}
	if c.TTL > 127 {
		return fmt.Errorf("%w: ttl %d above 127", ErrInvalidConfig, c.TTL)
	}
	if c.TriggerCapacity < 0 {
		return fmt.Errorf("%w: negative trigger capacity", ErrInvalidConfig)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for _, g := range c.Subscriptions {
		if !model.Address(g).IsGroup() {
			return fmt.Errorf("%w: subscription %s is not a group address", ErrInvalidConfig, model.Address(g))
		}
	}
	if c.GPIO.Enabled() {
		for _, pin := range []int{c.GPIO.Button, c.GPIO.Red, c.GPIO.Green, c.GPIO.Blue} {
			if pin < 0 {
				return fmt.Errorf("%w: negative gpio line %d", ErrInvalidConfig, pin)
			}
		}
	}
	for i, p := range c.Publications {
		if _, ok := model.ParseModelID(p.Model); !ok {
			return fmt.Errorf("%w: publication %d: %w %q", ErrInvalidConfig, i, ErrUnknownModel, p.Model)
		}
		if p.Element < 0 {
			return fmt.Errorf("%w: publication %d: negative element", ErrInvalidConfig, i)
		}
	}
	return nil
}

// NodeConfig maps the file to a node configuration.
func (c *Config) NodeConfig() (node.Config, error) {
	role, err := node.ParseRole(c.Role)
	if err != nil {
		return node.Config{}, err
	}
	nc := node.Config{
		Role:            role,
		Serial:          c.Serial,
		Address:         model.Address(c.Address),
		DefaultTTL:      c.TTL,
		GasThreshold:    c.GasThreshold,
		TriggerCapacity: c.TriggerCapacity,
		Debounce:        c.Debounce,
		SensorPeriod:    c.SensorPeriod,
	}
	if c.UUID != "" {
		if nc.UUID, err = uuid.Parse(c.UUID); err != nil {
			return node.Config{}, err
		}
	}
	for _, p := range c.Publications {
		id, ok := model.ParseModelID(p.Model)
		if !ok {
			return node.Config{}, fmt.Errorf("%w %q", ErrUnknownModel, p.Model)
		}
		ttl := p.TTL
		if ttl == 0 {
			ttl = c.TTL
		}
		nc.Publications = append(nc.Publications, node.PublicationConfig{
			Element: p.Element,
			Model:   id,
			Publication: model.Publication{
				Address:     model.Address(p.Address),
				AppKeyIndex: p.AppKeyIndex,
				TTL:         ttl,
				Retransmit:  model.Retransmit{Count: p.Retransmit.Count, Interval: p.Retransmit.Interval},
				Period:      p.Period,
			},
		})
	}
	return nc, nil
}

// Groups returns the subscriptions as addresses.
func (c *Config) Groups() []model.Address {
	out := make([]model.Address, 0, len(c.Subscriptions))
	for _, g := range c.Subscriptions {
		out = append(out, model.Address(g))
	}
	return out
}

// BridgeConfig maps the gateway section to a bridge configuration. The
// broker and transport are left to the caller.
func (g Gateway) BridgeConfig() gateway.Config {
	return gateway.Config{
		Address:        model.Address(g.Address),
		AlertTarget:    model.Address(g.AlertTarget),
		TelemetryTopic: g.TelemetryTopic,
		RPCTopic:       g.RPCTopic,
		Names:          g.AddressNames(),
	}
}

// ConnectConfig maps the gateway section to broker connection settings.
func (g Gateway) ConnectConfig(broker string) gateway.ConnectConfig {
	if broker == "" {
		broker = g.Broker
	}
	return gateway.ConnectConfig{
		Broker:   broker,
		ClientID: g.ClientID,
		Username: g.Username,
		Password: g.Password,
	}
}

// AddressNames returns the name map keyed by mesh address.
func (g Gateway) AddressNames() map[model.Address]string {
	out := make(map[model.Address]string, len(g.Names))
	for a, name := range g.Names {
		out[model.Address(a)] = name
	}
	return out
}

// ParseLevel parses a log level name. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
