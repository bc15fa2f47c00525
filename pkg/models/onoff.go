package models

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lucamoroz/mesh-go/pkg/color"
	"github.com/lucamoroz/mesh-go/pkg/interaction"
	"github.com/lucamoroz/mesh-go/pkg/log"
	"github.com/lucamoroz/mesh-go/pkg/mesh"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/wire"
)

// OnOffServer is a Generic OnOff Server.
type OnOffServer struct {
	Base

	// State is required.
	State *model.OnOffState

	// Indicator is switched on and off with the state. Optional.
	Indicator Indicator

	// Color is the colour shown when on. Defaults to white.
	Color func() color.RGB

	// OnChange runs after every accepted change.
	OnChange func(on bool)
}

// Register installs the Get, Set and Set Unacknowledged handlers.
func (s *OnOffServer) Register(d *interaction.Dispatcher) error {
	s.Model.AddOpcodes(wire.OpOnOffGet, wire.OpOnOffSet, wire.OpOnOffSetUnack)
	if err := d.Register(s.Element, wire.OpOnOffGet, 0, s.handleGet); err != nil {
		return err
	}
	if err := d.Register(s.Element, wire.OpOnOffSet, wire.OnOffSetLen, s.handleSet); err != nil {
		return err
	}
	return d.Register(s.Element, wire.OpOnOffSetUnack, wire.OnOffSetLen, s.handleSetUnack)
}

func (s *OnOffServer) status() []byte {
	return wire.EncodeOnOffStatus(wire.OnOffStatus{On: s.State.On()})
}

func (s *OnOffServer) handleGet(ctx context.Context, req interaction.Request) error {
	return s.Resolver.Reply(ctx, req.Element, req.Requester(), wire.OpOnOffStatus, s.status())
}

func (s *OnOffServer) handleSet(ctx context.Context, req interaction.Request) error {
	return s.set(ctx, req, true)
}

func (s *OnOffServer) handleSetUnack(ctx context.Context, req interaction.Request) error {
	return s.set(ctx, req, false)
}

func (s *OnOffServer) set(ctx context.Context, req interaction.Request, ack bool) error {
	set, err := wire.DecodeOnOffSet(req.Payload)
	if err != nil {
		return err
	}

	if s.State.TrySet(set) == model.Unchanged {
		s.debugLog("onoff already set, ignoring", "on", set.On, "src", req.Msg.Src.String())
		return nil
	}
	s.infoLog("onoff set", "on", set.On, "tid", set.TID, "src", req.Msg.Src.String())
	s.Capture.State(log.LayerModel, log.StateChangeEvent{
		Entity:   log.StateEntityOnOff,
		Model:    uint16(model.GenOnOffServer),
		OldState: onOffString(!set.On),
		NewState: onOffString(set.On),
		Reason:   req.Opcode.String(),
	})

	var errs []error
	if err := s.drive(set.On); err != nil {
		errs = append(errs, err)
	}
	if s.OnChange != nil {
		s.OnChange(set.On)
	}

	err = s.Resolver.Respond(ctx, req.Element, interaction.Decision{
		Ack:         ack,
		Requester:   req.Requester(),
		Changed:     true,
		Publication: s.Model.Publication(),
	}, wire.OpOnOffStatus, s.status())
	if err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Refresh re-applies the current state to the indicator.
func (s *OnOffServer) Refresh() error {
	return s.drive(s.State.On())
}

func (s *OnOffServer) drive(on bool) error {
	if s.Indicator == nil {
		return nil
	}
	if !on {
		return s.Indicator.Off()
	}
	c := color.White
	if s.Color != nil {
		c = s.Color()
	}
	return s.Indicator.On(c)
}

// OnOffClient is a Generic OnOff Client. Every message goes through the
// model publication.
type OnOffClient struct {
	Base

	// OnStatus runs for every received Status.
	OnStatus func(ctx context.Context, on bool, from Origin)

	mu  sync.Mutex
	tid uint8
}

// Register installs the Status handler.
func (c *OnOffClient) Register(d *interaction.Dispatcher) error {
	c.Model.AddOpcodes(wire.OpOnOffStatus)
	return d.Register(c.Element, wire.OpOnOffStatus, wire.OnOffStatusLen, c.handleStatus)
}

func (c *OnOffClient) handleStatus(ctx context.Context, req interaction.Request) error {
	st, err := wire.DecodeOnOffStatus(req.Payload)
	if err != nil {
		return err
	}
	c.infoLog("onoff status", "on", st.On, "src", req.Msg.Src.String())
	if c.OnStatus != nil {
		c.OnStatus(ctx, st.On, originOf(req))
	}
	return nil
}

// Get publishes an OnOff Get.
func (c *OnOffClient) Get(ctx context.Context) error {
	return c.publish(ctx, wire.OpOnOffGet, nil)
}

// Set publishes an acknowledged OnOff Set.
func (c *OnOffClient) Set(ctx context.Context, on bool) error {
	return c.publishSet(ctx, wire.OpOnOffSet, on)
}

// SetUnack publishes an unacknowledged OnOff Set.
func (c *OnOffClient) SetUnack(ctx context.Context, on bool) error {
	return c.publishSet(ctx, wire.OpOnOffSetUnack, on)
}

func (c *OnOffClient) publishSet(ctx context.Context, op wire.Opcode, on bool) error {
	if !c.Model.Publication().Configured() {
		c.debugLog("no publish address for onoff client", "opcode", op.String())
		return mesh.ErrUnassignedAddress
	}
	payload := wire.EncodeOnOffSet(wire.OnOffSet{On: on, TID: c.nextTID()})
	return c.publish(ctx, op, payload)
}

// nextTID returns the transaction id for the next Set. It wraps at 255.
func (c *OnOffClient) nextTID() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	tid := c.tid
	c.tid++
	return tid
}

func (c *OnOffClient) publish(ctx context.Context, op wire.Opcode, payload []byte) error {
	if err := c.Resolver.Publish(ctx, c.src(), c.Model.Publication(), op, payload); err != nil {
		return fmt.Errorf("onoff client %s: %w", op, err)
	}
	return nil
}
