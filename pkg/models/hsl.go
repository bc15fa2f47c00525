package models

import (
	"context"
	"fmt"
	"sync"

	"github.com/lucamoroz/mesh-go/pkg/color"
	"github.com/lucamoroz/mesh-go/pkg/interaction"
	"github.com/lucamoroz/mesh-go/pkg/log"
	"github.com/lucamoroz/mesh-go/pkg/mesh"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/wire"
)

// HSLServer is a Light HSL Server. Set Unacknowledged only changes the
// local colour; no Status is sent.
type HSLServer struct {
	Base

	// State is required.
	State *model.HSLState

	// OnOff gates the indicator: a new colour is shown only while on.
	OnOff *model.OnOffState

	Indicator Indicator

	OnChange func(hsl color.HSL)
}

// Register installs the Set Unacknowledged handler. The transaction id is
// optional, so six bytes are enough.
func (s *HSLServer) Register(d *interaction.Dispatcher) error {
	s.Model.AddOpcodes(wire.OpHSLSetUnack)
	return d.Register(s.Element, wire.OpHSLSetUnack, wire.HSLSetLen, s.handleSetUnack)
}

func (s *HSLServer) handleSetUnack(_ context.Context, req interaction.Request) error {
	set, err := wire.DecodeHSLSet(req.Payload)
	if err != nil {
		return err
	}

	old := s.State.HSL()
	if s.State.TrySet(set) == model.Unchanged {
		s.debugLog("hsl already set, ignoring", "src", req.Msg.Src.String())
		return nil
	}
	rgb := s.State.RGB()
	s.infoLog("hsl set",
		"lightness", set.Lightness, "hue", set.Hue, "saturation", set.Saturation,
		"rgb", rgb.String())
	s.Capture.State(log.LayerModel, log.StateChangeEvent{
		Entity:   log.StateEntityHSL,
		Model:    uint16(model.LightHSLServer),
		OldState: hslString(old),
		NewState: hslString(s.State.HSL()),
		Reason:   req.Opcode.String(),
	})
	if s.OnChange != nil {
		s.OnChange(s.State.HSL())
	}

	if s.Indicator == nil || s.OnOff == nil || !s.OnOff.On() {
		return nil
	}
	return s.Indicator.On(rgb)
}

func hslString(h color.HSL) string {
	return fmt.Sprintf("h=%d s=%d l=%d", h.Hue, h.Saturation, h.Lightness)
}

// HSLClient is a Light HSL Client that walks a palette.
type HSLClient struct {
	Base

	// Palette defaults to color.DefaultColors starting at red.
	Palette *color.Palette

	once sync.Once
	mu   sync.Mutex
	tid  uint8
}

func (c *HSLClient) palette() *color.Palette {
	c.once.Do(func() {
		if c.Palette == nil {
			c.Palette = color.NewPalette(nil, 1)
		}
	})
	return c.Palette
}

// SetUnack publishes a Light HSL Set Unacknowledged for hsl.
func (c *HSLClient) SetUnack(ctx context.Context, hsl color.HSL) error {
	pub := c.Model.Publication()
	if !pub.Configured() {
		c.debugLog("no publish address for hsl client")
		return mesh.ErrUnassignedAddress
	}

	c.mu.Lock()
	tid := c.tid
	c.tid++
	c.mu.Unlock()

	payload := wire.EncodeHSLSet(wire.HSLSet{
		Lightness:  hsl.Lightness,
		Hue:        hsl.Hue,
		Saturation: hsl.Saturation,
		TID:        tid,
		HasTID:     true,
	})
	if err := c.Resolver.Publish(ctx, c.src(), pub, wire.OpHSLSetUnack, payload); err != nil {
		return fmt.Errorf("hsl client: %w", err)
	}
	return nil
}

// Cycle sends the current palette colour and moves to the next one. The
// palette only advances when the publish succeeds.
func (c *HSLClient) Cycle(ctx context.Context) (color.Named, error) {
	p := c.palette()
	cur := p.Current()
	if err := c.SetUnack(ctx, cur.HSL); err != nil {
		return cur, err
	}
	p.Next()
	c.infoLog("hsl colour sent", "color", cur.Name)
	return cur, nil
}
