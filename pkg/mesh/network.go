package mesh

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/lucamoroz/mesh-go/pkg/model"
)

// DefaultInboxSize is the number of deliveries a port buffers.
const DefaultInboxSize = 64

// Stats counts substrate activity.
type Stats struct {
	Sent        uint64
	Published   uint64
	Retransmits uint64
	Delivered   uint64
	Dropped     uint64
}

// NetworkConfig configures a Network.
type NetworkConfig struct {
	// Logger for delivery diagnostics. Nil disables logging.
	Logger *slog.Logger
}

// Network is an in-memory mesh connecting ports.
type Network struct {
	cfg NetworkConfig

	mu    sync.RWMutex
	ports []*Port

	wg sync.WaitGroup

	sent, published, retransmits, delivered, dropped atomic.Uint64
}

// NewNetwork returns an empty network.
func NewNetwork(cfg NetworkConfig) *Network {
	return &Network{cfg: cfg}
}

// PortConfig configures a port attached to the network.
type PortConfig struct {
	// Name identifies the port in log output.
	Name string

	// Groups the port is subscribed to.
	Groups []model.Address

	// AllNodesOnly makes the port receive only messages sent to the
	// all-nodes address, like a listener that cannot subscribe to groups
	// or own unicast addresses.
	AllNodesOnly bool

	// InboxSize defaults to DefaultInboxSize.
	InboxSize int

	// Receive is called for every delivery on the port goroutine.
	Receive Receiver
}

// Attach connects a new port. Deliveries run until ctx is done or the port
// is closed.
func (n *Network) Attach(ctx context.Context, cfg PortConfig) *Port {
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = DefaultInboxSize
	}
	p := &Port{
		net:    n,
		cfg:    cfg,
		groups: make(map[model.Address]struct{}),
		inbox:  make(chan Delivery, cfg.InboxSize),
		done:   make(chan struct{}),
	}
	for _, g := range cfg.Groups {
		p.groups[g] = struct{}{}
	}

	n.mu.Lock()
	n.ports = append(n.ports, p)
	n.mu.Unlock()

	n.wg.Add(1)
	go p.run(ctx)
	return p
}

// Wait blocks until every port goroutine has exited.
func (n *Network) Wait() {
	n.wg.Wait()
}

// Close closes every port and waits for them.
func (n *Network) Close() {
	n.mu.RLock()
	ports := append([]*Port(nil), n.ports...)
	n.mu.RUnlock()

	for _, p := range ports {
		p.Close()
	}
	n.wg.Wait()
}

// Stats returns a snapshot of the counters.
func (n *Network) Stats() Stats {
	return Stats{
		Sent:        n.sent.Load(),
		Published:   n.published.Load(),
		Retransmits: n.retransmits.Load(),
		Delivered:   n.delivered.Load(),
		Dropped:     n.dropped.Load(),
	}
}

func (n *Network) debugLog(msg string, args ...any) {
	if n.cfg.Logger != nil {
		n.cfg.Logger.Debug(msg, args...)
	}
}

// route hands a message to every port that should see it. A TTL of zero
// keeps the message on the sending port.
func (n *Network) route(from *Port, d Delivery) {
	n.mu.RLock()
	ports := append([]*Port(nil), n.ports...)
	n.mu.RUnlock()

	for _, p := range ports {
		if d.TTL == 0 && p != from {
			continue
		}
		if !p.accepts(from, d.Dst) {
			continue
		}
		p.deliver(d)
	}
}

// Port is one node's attachment to a Network. It implements Transport.
type Port struct {
	net *Network
	cfg PortConfig

	mu     sync.RWMutex
	addrs  []model.Address
	groups map[model.Address]struct{}

	inbox     chan Delivery
	done      chan struct{}
	closeOnce sync.Once
}

var _ Transport = (*Port)(nil)

// Name returns the configured port name.
func (p *Port) Name() string {
	return p.cfg.Name
}

// SetAddresses replaces the unicast addresses owned by the port.
func (p *Port) SetAddresses(addrs ...model.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.addrs = append([]model.Address(nil), addrs...)
}

// Subscribe adds a group subscription.
func (p *Port) Subscribe(group model.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.groups[group] = struct{}{}
}

// Unsubscribe removes a group subscription.
func (p *Port) Unsubscribe(group model.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.groups, group)
}

// Send implements Transport.
func (p *Port) Send(ctx context.Context, sc SendContext, access []byte) error {
	if err := p.ready(ctx); err != nil {
		return err
	}
	if sc.Dst.IsUnassigned() {
		return ErrUnassignedAddress
	}
	p.net.sent.Add(1)
	p.net.route(p, Delivery{
		NetIdx: sc.NetIdx,
		AppIdx: sc.AppIdx,
		Src:    sc.Src,
		Dst:    sc.Dst,
		TTL:    sc.TTL,
		Access: append([]byte(nil), access...),
	})
	return nil
}

// Publish implements Transport. Retransmissions are counted but delivered
// once, as a receiver's network cache would discard the copies.
func (p *Port) Publish(ctx context.Context, src model.Address, pub model.Publication, access []byte) error {
	if err := p.ready(ctx); err != nil {
		return err
	}
	if !pub.Configured() {
		return ErrUnassignedAddress
	}
	p.net.published.Add(1)
	p.net.retransmits.Add(uint64(pub.Retransmit.Count))
	p.net.route(p, Delivery{
		AppIdx: pub.AppKeyIndex,
		Src:    src,
		Dst:    pub.Address,
		TTL:    pub.TTL,
		Access: append([]byte(nil), access...),
	})
	return nil
}

// Close detaches the port. Pending deliveries are discarded.
func (p *Port) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

func (p *Port) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-p.done:
		return ErrClosed
	default:
		return nil
	}
}

func (p *Port) accepts(from *Port, dst model.Address) bool {
	if dst == model.AddrAllNodes {
		return p != from
	}
	if p.cfg.AllNodesOnly {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if dst.IsGroup() {
		_, ok := p.groups[dst]
		return ok && p != from
	}
	for _, a := range p.addrs {
		if a == dst {
			return true
		}
	}
	return false
}

func (p *Port) deliver(d Delivery) {
	select {
	case <-p.done:
		return
	default:
	}

	select {
	case p.inbox <- d:
		p.net.delivered.Add(1)
	default:
		p.net.dropped.Add(1)
		p.net.debugLog("inbox full, delivery dropped",
			"port", p.cfg.Name, "src", d.Src.String(), "dst", d.Dst.String())
	}
}

func (p *Port) run(ctx context.Context) {
	defer p.net.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case d := <-p.inbox:
			if p.cfg.Receive != nil {
				p.cfg.Receive(ctx, d)
			}
		}
	}
}
