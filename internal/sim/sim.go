package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lucamoroz/mesh-go/pkg/config"
	"github.com/lucamoroz/mesh-go/pkg/led"
	"github.com/lucamoroz/mesh-go/pkg/log"
	"github.com/lucamoroz/mesh-go/pkg/mesh"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/node"
	"github.com/lucamoroz/mesh-go/pkg/persistence"
)

// Errors.
var (
	ErrGPIOUnsupported = errors.New("gpio peripherals are only supported on linux")
	ErrNoNodes         = errors.New("no nodes configured")
	ErrUnknownNode     = errors.New("unknown node")
	ErrAmbiguousNode   = errors.New("ambiguous node name")
)

// Group addresses of the demo mesh.
const (
	LightGroup  model.Address = 0xC000
	SensorGroup model.Address = 0xC001
)

// Config configures a Mesh.
type Config struct {
	// Nodes are the node configurations, one per node. Required.
	Nodes []*config.Config

	Logger *slog.Logger

	// Protocol receives the capture of every node in addition to the
	// per-node protocol_log file.
	Protocol log.Logger

	// Sleep replaces the LED timing in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Member is one running node.
type Member struct {
	Name   string
	Config *config.Config
	Node   *node.Node
	Port   *mesh.Port

	// Sensors is set for sensor nodes on simulated peripherals.
	Sensors *Peripherals

	// Output is set when the LED is simulated.
	Output *led.MemoryOutput

	closers []io.Closer
}

// Mesh is a running set of nodes on one in-process network.
type Mesh struct {
	cfg Config
	net *mesh.Network

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	members []*Member
	closed  bool
}

// DefaultNodes returns the demo mesh: a switch driving a light through
// LightGroup, and a sensor reporting through SensorGroup to a proxy.
func DefaultNodes() []*config.Config {
	light := config.Default(node.RoleLight)
	light.Address = 0x0010
	light.Subscriptions = []uint16{uint16(LightGroup)}

	sw := config.Default(node.RoleSwitch)
	sw.Address = 0x0020
	sw.Publications = []config.Publication{
		{Element: 0, Model: model.GenOnOffClient.String(), Address: uint16(LightGroup)},
		{Element: 0, Model: model.LightHSLClient.String(), Address: uint16(LightGroup)},
	}

	sensor := config.Default(node.RoleSensor)
	sensor.Address = 0x0030
	sensor.Publications = []config.Publication{
		{Element: 0, Model: model.SensorServer.String(), Address: uint16(SensorGroup)},
		{Element: 1, Model: model.SensorServer.String(), Address: uint16(SensorGroup)},
	}

	proxy := config.Default(node.RoleProxy)
	proxy.Address = 0x0001
	proxy.Subscriptions = []uint16{uint16(SensorGroup)}

	return []*config.Config{proxy, light, sw, sensor}
}

// Start attaches and boots every node. The nodes run until Close or until
// ctx is done.
func Start(ctx context.Context, cfg Config) (*Mesh, error) {
	if len(cfg.Nodes) == 0 {
		return nil, ErrNoNodes
	}

	ctx, cancel := context.WithCancel(ctx)
	m := &Mesh{
		cfg:    cfg,
		net:    mesh.NewNetwork(mesh.NetworkConfig{Logger: cfg.Logger}),
		ctx:    ctx,
		cancel: cancel,
	}

	names := memberNames(cfg.Nodes)
	for i, nc := range cfg.Nodes {
		member, err := m.start(names[i], nc)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("node %s: %w", names[i], err)
		}
		m.mu.Lock()
		m.members = append(m.members, member)
		m.mu.Unlock()
	}
	return m, nil
}

// memberNames names nodes by role, numbering roles that occur more than once.
func memberNames(nodes []*config.Config) []string {
	count := make(map[string]int)
	for _, nc := range nodes {
		count[nc.Role]++
	}
	seen := make(map[string]int)
	out := make([]string, len(nodes))
	for i, nc := range nodes {
		if count[nc.Role] == 1 {
			out[i] = nc.Role
			continue
		}
		seen[nc.Role]++
		out[i] = nc.Role + "-" + strconv.Itoa(seen[nc.Role])
	}
	return out
}

func (m *Mesh) start(name string, fc *config.Config) (*Member, error) {
	nc, err := fc.NodeConfig()
	if err != nil {
		return nil, err
	}
	member := &Member{Name: name, Config: fc}

	var logger *slog.Logger
	if m.cfg.Logger != nil {
		logger = m.cfg.Logger.With("node", name)
	}

	// Group traffic can arrive before the node is built.
	var running atomic.Pointer[node.Node]
	member.Port = m.net.Attach(m.ctx, mesh.PortConfig{
		Name:   name,
		Groups: fc.Groups(),
		Receive: func(ctx context.Context, d mesh.Delivery) {
			if n := running.Load(); n != nil {
				n.Receive(ctx, d)
			}
		},
	})

	deps := node.Deps{
		Transport: member.Port,
		Logger:    logger,
		Sleep:     m.cfg.Sleep,
		OnProvisioned: func(addrs []model.Address) {
			member.Port.SetAddresses(addrs...)
		},
	}

	if fc.GPIO.Enabled() {
		out, closer, err := openLED(fc.GPIO)
		if err != nil {
			return nil, err
		}
		deps.Output = out
		member.closers = append(member.closers, closer)
	} else {
		member.Output = &led.MemoryOutput{}
		deps.Output = member.Output
	}

	if nc.Role == node.RoleSensor {
		member.Sensors = NewPeripherals()
		deps.THP = member.Sensors.THPReader()
		deps.Gas = member.Sensors.GasReader()
	}

	if fc.StateFile != "" {
		deps.Store = persistence.NewNodeStateStore(fc.StateFile)
	}

	var protocol []log.Logger
	if m.cfg.Protocol != nil {
		protocol = append(protocol, m.cfg.Protocol)
	}
	if fc.ProtocolLog != "" {
		fl, err := log.NewFileLogger(fc.ProtocolLog)
		if err != nil {
			member.close()
			return nil, fmt.Errorf("opening protocol log: %w", err)
		}
		protocol = append(protocol, fl)
		member.closers = append(member.closers, fl)
	}
	if len(protocol) > 0 {
		deps.Protocol = log.NewMultiLogger(protocol...)
	}

	n, err := node.New(nc, deps)
	if err != nil {
		member.close()
		return nil, err
	}
	member.Node = n
	running.Store(n)

	if fc.GPIO.Enabled() {
		button, err := openButton(fc.GPIO, n.Button())
		if err != nil {
			member.close()
			return nil, err
		}
		member.closers = append(member.closers, button)
	}

	if err := n.Start(m.ctx); err != nil {
		n.Stop()
		member.close()
		return nil, err
	}
	member.Port.SetAddresses(n.Addresses()...)
	return member, nil
}

func (mb *Member) close() error {
	var errs []error
	for i := len(mb.closers) - 1; i >= 0; i-- {
		if err := mb.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	mb.closers = nil
	return errors.Join(errs...)
}

// Network returns the underlying network, e.g. to attach a gateway port.
func (m *Mesh) Network() *mesh.Network { return m.net }

// Context returns the context the nodes run in.
func (m *Mesh) Context() context.Context { return m.ctx }

// Members returns the running nodes in configuration order.
func (m *Mesh) Members() []*Member {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Member(nil), m.members...)
}

// Lookup finds a member by name, by a unique role, or by one of its
// element addresses written in hex.
func (m *Mesh) Lookup(key string) (*Member, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	members := m.Members()

	for _, mb := range members {
		if mb.Name == key {
			return mb, nil
		}
	}

	var byRole []*Member
	for _, mb := range members {
		if mb.Config.Role == key {
			byRole = append(byRole, mb)
		}
	}
	switch len(byRole) {
	case 1:
		return byRole[0], nil
	case 0:
	default:
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousNode, key)
	}

	if v, err := strconv.ParseUint(key, 0, 16); err == nil {
		for _, mb := range members {
			for _, a := range mb.Node.Addresses() {
				if a == model.Address(v) {
					return mb, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownNode, key)
}

// Close stops every node and the network. It is safe to call twice.
func (m *Mesh) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	members := m.members
	m.mu.Unlock()

	m.cancel()
	var errs []error
	for _, mb := range members {
		mb.Node.Stop()
		if err := mb.close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.net.Close()
	return errors.Join(errs...)
}

// LoadNodes loads one node per configuration file, or the demo mesh when
// there are none. With stateDir set, nodes without a state file persist
// to <stateDir>/<role>-<index>.json.
func LoadNodes(paths []string, stateDir string) ([]*config.Config, error) {
	var nodes []*config.Config
	if len(paths) == 0 {
		nodes = DefaultNodes()
	}
	for _, path := range paths {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, cfg)
	}

	if stateDir != "" {
		if err := os.MkdirAll(stateDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating state dir: %w", err)
		}
		for i, cfg := range nodes {
			if cfg.StateFile == "" {
				cfg.StateFile = filepath.Join(stateDir, fmt.Sprintf("%s-%d.json", cfg.Role, i))
			}
		}
	}
	return nodes, nil
}
