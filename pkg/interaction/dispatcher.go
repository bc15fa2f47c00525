package interaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/lucamoroz/mesh-go/pkg/log"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/wire"
)

// Dispatcher errors.
var (
	ErrPayloadTooShort  = errors.New("payload shorter than opcode minimum")
	ErrDuplicateHandler = errors.New("opcode already registered on element")
)

// Handler processes one access message.
type Handler func(ctx context.Context, req Request) error

type handlerKey struct {
	element int
	op      wire.Opcode
}

type entry struct {
	minLen  int
	handler Handler
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// Composition maps destination addresses to elements. Required.
	Composition *model.Composition

	// Logger for dropped messages. Nil disables logging.
	Logger *slog.Logger

	// Capture records inbound messages and drops. Nil disables capture.
	Capture *log.Capture
}

// Dispatcher maps (element, opcode) to handlers.
type Dispatcher struct {
	cfg DispatcherConfig

	mu       sync.RWMutex
	handlers map[handlerKey]entry
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		handlers: make(map[handlerKey]entry),
	}
}

// Register adds a handler for op on the element at composition index
// element. Messages with fewer than minLen parameter bytes never reach h.
func (d *Dispatcher) Register(element int, op wire.Opcode, minLen int, h Handler) error {
	if !op.Valid() {
		return fmt.Errorf("register %s: %w", op, wire.ErrInvalidOpcode)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	key := handlerKey{element: element, op: op}
	if _, exists := d.handlers[key]; exists {
		return fmt.Errorf("register %s on element %d: %w", op, element, ErrDuplicateHandler)
	}
	d.handlers[key] = entry{minLen: minLen, handler: h}
	return nil
}

// Handles reports whether any element handles op.
func (d *Dispatcher) Handles(op wire.Opcode) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for k := range d.handlers {
		if k.op == op {
			return true
		}
	}
	return false
}

// Receive splits the opcode from an access message and dispatches it.
func (d *Dispatcher) Receive(ctx context.Context, access []byte, mc MessageContext) error {
	op, params, err := wire.SplitOpcode(access)
	if err != nil {
		d.drop(mc, 0, len(access), err)
		return err
	}
	return d.Dispatch(ctx, op, params, mc)
}

// Dispatch runs the handlers for op on the elements the destination selects:
// the owning element for a unicast destination, otherwise every element
// with a handler, in composition order. Unknown opcodes return nil.
func (d *Dispatcher) Dispatch(ctx context.Context, op wire.Opcode, payload []byte, mc MessageContext) error {
	d.cfg.Capture.Message(log.DirectionIn, log.MessageEvent{
		Opcode:  op,
		Src:     uint16(mc.Src),
		Dst:     uint16(mc.Dst),
		TTL:     mc.RecvTTL,
		Payload: payload,
	})

	targets := d.targets(op, mc.Dst)
	if len(targets) == 0 {
		d.debugLog("ignoring opcode", "opcode", op.String(), "src", mc.Src.String(), "dst", mc.Dst.String())
		return nil
	}

	var errs []error
	for _, t := range targets {
		if len(payload) < t.minLen {
			err := fmt.Errorf("%s: %w (%d < %d)", op, ErrPayloadTooShort, len(payload), t.minLen)
			d.drop(mc, op, len(payload), err)
			return err
		}

		req := Request{Opcode: op, Payload: payload, Msg: mc, Element: t.addr}
		if err := t.handler(ctx, req); err != nil {
			d.warnLog("handler failed", "opcode", op.String(), "element", t.addr.String(), "error", err)
			d.cfg.Capture.Error(log.LayerModel, err, op.String())
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type target struct {
	entry
	addr model.Address
}

func (d *Dispatcher) targets(op wire.Opcode, dst model.Address) []target {
	comp := d.cfg.Composition

	d.mu.RLock()
	defer d.mu.RUnlock()

	if dst.IsUnicast() {
		e, err := comp.Element(dst)
		if err != nil {
			return nil
		}
		ent, ok := d.handlers[handlerKey{element: e.Index(), op: op}]
		if !ok {
			return nil
		}
		return []target{{entry: ent, addr: e.Address()}}
	}

	var out []target
	elements := comp.Elements()
	sort.Slice(elements, func(i, j int) bool { return elements[i].Index() < elements[j].Index() })
	for _, e := range elements {
		if ent, ok := d.handlers[handlerKey{element: e.Index(), op: op}]; ok {
			out = append(out, target{entry: ent, addr: e.Address()})
		}
	}
	return out
}

func (d *Dispatcher) drop(mc MessageContext, op wire.Opcode, n int, err error) {
	d.debugLog("dropping message",
		"opcode", op.String(),
		"src", mc.Src.String(),
		"dst", mc.Dst.String(),
		"len", n,
		"reason", err.Error())
	d.cfg.Capture.Error(log.LayerAccess, err, "dispatch")
}

func (d *Dispatcher) debugLog(msg string, args ...any) {
	if d.cfg.Logger != nil {
		d.cfg.Logger.Debug(msg, args...)
	}
}

func (d *Dispatcher) warnLog(msg string, args ...any) {
	if d.cfg.Logger != nil {
		d.cfg.Logger.Warn(msg, args...)
	}
}
