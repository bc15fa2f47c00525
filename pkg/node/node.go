package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/lucamoroz/mesh-go/pkg/color"
	"github.com/lucamoroz/mesh-go/pkg/gesture"
	"github.com/lucamoroz/mesh-go/pkg/interaction"
	"github.com/lucamoroz/mesh-go/pkg/led"
	"github.com/lucamoroz/mesh-go/pkg/log"
	"github.com/lucamoroz/mesh-go/pkg/mesh"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/models"
	"github.com/lucamoroz/mesh-go/pkg/relay"
	"github.com/lucamoroz/mesh-go/pkg/trigger"
	"github.com/lucamoroz/mesh-go/pkg/work"
)

// Node errors.
var (
	ErrNoTransport  = errors.New("node: transport required")
	ErrNotSupported = errors.New("node: not supported by role")
	ErrNotStarted   = errors.New("node: not started")
)

// Node is one mesh node.
type Node struct {
	cfg  Config
	deps Deps

	comp     *model.Composition
	disp     *interaction.Dispatcher
	resolver *interaction.Resolver
	capture  *log.Capture

	led    *led.LED
	button *gesture.Classifier
	health *models.HealthServer

	// gestures runs click handlers; background runs sensor publication,
	// gas triggers and autoconf.
	gestures   *work.Worker
	background *work.Worker

	onoff    *model.OnOffState
	onoffSrv *models.OnOffServer
	hsl      *model.HSLState
	hslSrv   *models.HSLServer
	temp     *models.SensorServer
	thp      *models.SensorServer
	gas      *models.SensorServer

	onoffCli  *models.OnOffClient
	hslCli    *models.HSLClient
	sensorCli *models.SensorClient
	relay     *relay.Bridge
	trigger   *trigger.Aggregator

	onClick func(ctx context.Context, c gesture.Click)
	ready   func(ctx context.Context) error
	opID    atomic.Uint64

	mu       sync.Mutex
	started  bool
	periodic []*work.Periodic
	delayed  []*work.Delayed
}

// New builds a node for cfg.Role.
func New(cfg Config, deps Deps) (*Node, error) {
	if deps.Transport == nil {
		return nil, ErrNoTransport
	}
	if _, err := ParseRole(string(cfg.Role)); err != nil {
		return nil, err
	}
	if deps.Output == nil {
		deps.Output = &led.MemoryOutput{}
	}
	if cfg.UUID == uuid.Nil {
		cfg.UUID = model.DeviceUUID(string(cfg.Role), cfg.Serial)
	}

	n := &Node{cfg: cfg, deps: deps}
	n.comp = model.NewComposition(cfg.UUID)
	n.capture = log.NewCapture(deps.Protocol, string(cfg.Role))
	n.capture.Address = func() uint16 { return uint16(n.comp.Primary()) }

	n.disp = interaction.NewDispatcher(interaction.DispatcherConfig{
		Composition: n.comp,
		Logger:      deps.Logger,
		Capture:     n.capture,
	})
	n.resolver = interaction.NewResolver(interaction.ResolverConfig{
		Transport:  deps.Transport,
		DefaultTTL: cfg.DefaultTTL,
		Logger:     deps.Logger,
		Capture:    n.capture,
	})
	n.led = led.New(led.Config{Output: deps.Output, Sleep: deps.Sleep, Logger: deps.Logger})

	n.gestures = work.New(work.Config{Name: "gesture", Logger: deps.Logger})
	n.background = work.New(work.Config{Name: "background", Logger: deps.Logger})

	button, err := gesture.New(gesture.Config{
		Worker:   n.gestures,
		OnClick:  n.handleClick,
		Debounce: cfg.Debounce,
		Now:      deps.Now,
		Logger:   deps.Logger,
	})
	if err != nil {
		return nil, err
	}
	n.button = button

	var build func() error
	switch cfg.Role {
	case RoleLight:
		build = n.buildLight
	case RoleSwitch:
		build = n.buildSwitch
	case RoleSensor:
		build = n.buildSensor
	case RoleProxy:
		build = n.buildProxy
	}
	if err := build(); err != nil {
		return nil, fmt.Errorf("build %s node: %w", cfg.Role, err)
	}
	return n, nil
}

// base returns the model base for model id on element index, adding the
// model to the element.
func (n *Node) base(e *model.Element, id model.ModelID) (models.Base, error) {
	m := model.NewModel(id)
	if err := e.AddModel(m); err != nil {
		return models.Base{}, fmt.Errorf("add %s: %w", id, err)
	}
	return models.Base{
		Element:  e.Index(),
		Model:    m,
		Resolver: n.resolver,
		Logger:   n.deps.Logger,
		Capture:  n.capture,
	}, nil
}

type registrar interface {
	Register(d *interaction.Dispatcher) error
}

func (n *Node) register(rs ...registrar) error {
	for _, r := range rs {
		if err := r.Register(n.disp); err != nil {
			return err
		}
	}
	return nil
}

// addHealth adds the configuration and health servers to e.
func (n *Node) addHealth(e *model.Element, attention color.RGB) error {
	for _, id := range []model.ModelID{model.ConfigServer, model.HealthServer} {
		if err := e.AddModel(model.NewModel(id)); err != nil {
			return err
		}
	}
	n.health = &models.HealthServer{
		Indicator: n.led,
		Color:     attention,
		HSL:       n.hsl,
		Capture:   n.capture,
	}
	return nil
}

// Start runs the boot sequence: restore state, provision, show the ready
// indication and start periodic work. Start returns once booted; the
// workers run until ctx is done or Stop.
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	if n.started {
		n.mu.Unlock()
		return nil
	}
	n.started = true
	n.mu.Unlock()

	n.gestures.Start(ctx)
	n.background.Start(ctx)

	if err := n.restore(); err != nil {
		n.warnLog("restoring state failed", "error", err)
	}

	if n.Provisioned() {
		n.infoLog("node provisioned", "address", n.comp.Primary().String())
		n.notifyAddresses()
	} else {
		n.infoLog("node not provisioned, waiting for provisioning", "uuid", n.comp.UUID().String())
	}

	if n.ready != nil {
		if err := n.ready(ctx); err != nil {
			return fmt.Errorf("ready indication: %w", err)
		}
	}
	n.startPeriodic(ctx)
	return nil
}

// Stop cancels pending work and waits for the workers.
func (n *Node) Stop() {
	n.mu.Lock()
	periodic, delayed := n.periodic, n.delayed
	n.periodic, n.delayed = nil, nil
	n.mu.Unlock()

	for _, p := range periodic {
		p.Stop()
	}
	for _, d := range delayed {
		d.Stop()
	}
	n.gestures.Stop()
	n.background.Stop()
}

func (n *Node) startPeriodic(ctx context.Context) {
	if n.thp == nil {
		return
	}
	if p := n.thp.StartPeriodic(ctx, n.background, n.cfg.SensorPeriod); p != nil {
		n.mu.Lock()
		n.periodic = append(n.periodic, p)
		n.mu.Unlock()
	}
}

// Receive hands a delivery to the dispatcher. It has the signature of a
// mesh.Receiver.
func (n *Node) Receive(ctx context.Context, d mesh.Delivery) {
	_ = n.Handle(ctx, d.Access, interaction.MessageContext{
		NetIdx:  d.NetIdx,
		AppIdx:  d.AppIdx,
		Src:     d.Src,
		Dst:     d.Dst,
		RecvTTL: d.TTL,
	})
}

// Handle dispatches one access message and returns the handler result.
func (n *Node) Handle(ctx context.Context, access []byte, mc interaction.MessageContext) error {
	return n.disp.Receive(ctx, access, mc)
}

// Role returns the node role.
func (n *Node) Role() Role { return n.cfg.Role }

// Composition returns the element and model structure.
func (n *Node) Composition() *model.Composition { return n.comp }

// LED returns the indicator.
func (n *Node) LED() *led.LED { return n.led }

// Button returns the gesture classifier fed by the button.
func (n *Node) Button() *gesture.Classifier { return n.button }

// Provisioned reports whether the node has addresses.
func (n *Node) Provisioned() bool {
	if n.deps.Provisioner != nil {
		return n.deps.Provisioner.Provisioned() && !n.comp.Primary().IsUnassigned()
	}
	return !n.comp.Primary().IsUnassigned()
}

// Addresses returns the element addresses.
func (n *Node) Addresses() []model.Address { return n.comp.Addresses() }

// Provision assigns addresses starting at primary and persists them.
func (n *Node) Provision(primary model.Address) error {
	if err := n.comp.Provision(primary); err != nil {
		return err
	}
	n.capture.State(log.LayerNode, log.StateChangeEvent{
		Entity:   log.StateEntityProvisioning,
		NewState: "provisioned " + primary.String(),
	})
	n.infoLog("provisioning complete", "address", primary.String())
	n.notifyAddresses()
	n.persist()
	return nil
}

// Reset returns the node to the unprovisioned state. It is a user action,
// never an error recovery.
func (n *Node) Reset(ctx context.Context) error {
	if n.deps.Provisioner != nil {
		if err := n.deps.Provisioner.Reset(ctx); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	n.comp.Reset()
	n.capture.State(log.LayerNode, log.StateChangeEvent{
		Entity:   log.StateEntityProvisioning,
		NewState: "unprovisioned",
		Reason:   "reset",
	})
	if n.deps.Store != nil {
		if err := n.deps.Store.Clear(); err != nil {
			n.warnLog("clearing state failed", "error", err)
		}
	}
	n.infoLog("node reset")
	if n.deps.OnProvisioned != nil {
		n.deps.OnProvisioned(nil)
	}
	return nil
}

func (n *Node) notifyAddresses() {
	if n.deps.OnProvisioned != nil {
		n.deps.OnProvisioned(n.comp.Addresses())
	}
}

// SetPublication configures the publication of a model and persists it.
func (n *Node) SetPublication(element int, id model.ModelID, pub model.Publication) error {
	if err := n.applyPublication(element, id, pub); err != nil {
		return err
	}
	n.debugLog("publication set", "element", element, "model", id.String(), "address", pub.Address.String())
	n.persist()
	return nil
}

// Click runs the click handler for c on the gesture worker, as a button
// release would. It reports whether the click was accepted.
func (n *Node) Click(c gesture.Click) bool {
	return n.gestures.Submit(func(ctx context.Context) { n.handleClick(ctx, c) })
}

func (n *Node) handleClick(ctx context.Context, c gesture.Click) {
	n.capture.State(log.LayerNode, log.StateChangeEvent{
		Entity:   log.StateEntityGesture,
		NewState: c.String(),
	})
	if n.onClick == nil {
		n.debugLog("click ignored", "click", c.String())
		return
	}
	n.onClick(ctx, c)
}

// AttentionOn starts the attention indication.
func (n *Node) AttentionOn() error { return n.health.AttentionOn() }

// AttentionOff ends the attention indication.
func (n *Node) AttentionOff() error { return n.health.AttentionOff() }

// OutputPIN shows an out-of-band provisioning number on the LED. Only
// numbers up to three digits are shown; larger ones are ignored.
func (n *Node) OutputPIN(ctx context.Context, number int) error {
	if number > led.MaxPin {
		n.infoLog("pin not shown, more than three digits", "pin", number)
		return nil
	}
	return n.led.ShowNumber(ctx, number)
}

// submitBackground runs fn on the background worker.
func (n *Node) submitBackground(name string, fn work.Func) bool {
	if n.background.Submit(fn) {
		return true
	}
	n.debugLog("background work dropped", "work", name)
	return false
}

func (n *Node) debugLog(msg string, args ...any) { n.logAt(slog.LevelDebug, msg, args...) }
func (n *Node) infoLog(msg string, args ...any)  { n.logAt(slog.LevelInfo, msg, args...) }
func (n *Node) warnLog(msg string, args ...any)  { n.logAt(slog.LevelWarn, msg, args...) }

func (n *Node) logAt(level slog.Level, msg string, args ...any) {
	if n.deps.Logger == nil {
		return
	}
	n.deps.Logger.Log(context.Background(), level, msg, append([]any{"role", string(n.cfg.Role)}, args...)...)
}
