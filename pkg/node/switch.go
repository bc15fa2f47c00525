package node

import (
	"context"
	"errors"

	"github.com/lucamoroz/mesh-go/pkg/color"
	"github.com/lucamoroz/mesh-go/pkg/gesture"
	"github.com/lucamoroz/mesh-go/pkg/mesh"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/models"
)

// buildSwitch: one element with an on/off client and an HSL client.
func (n *Node) buildSwitch() error {
	e := n.comp.AddElement()
	if err := n.addHealth(e, color.White); err != nil {
		return err
	}

	b, err := n.base(e, model.GenOnOffClient)
	if err != nil {
		return err
	}
	n.onoffCli = &models.OnOffClient{Base: b}

	if b, err = n.base(e, model.LightHSLClient); err != nil {
		return err
	}
	n.hslCli = &models.HSLClient{Base: b, Palette: color.NewPalette(nil, 1)}

	n.onClick = n.switchClick
	return n.register(n.onoffCli)
}

// switchClick: a short click walks off, on, get, next colour; a long click
// only sends the next colour.
func (n *Node) switchClick(ctx context.Context, c gesture.Click) {
	var err error
	switch c {
	case gesture.Short:
		step := (n.opID.Add(1) - 1) % 4
		err = n.switchStep(ctx, int(step))
	case gesture.Long:
		_, err = n.hslCli.Cycle(ctx)
	default:
		n.debugLog("click not handled by switch", "click", c.String())
		return
	}
	if err != nil && !errors.Is(err, mesh.ErrUnassignedAddress) {
		n.warnLog("switch action failed", "click", c.String(), "error", err)
	}
}

func (n *Node) switchStep(ctx context.Context, step int) error {
	switch step {
	case 0:
		return n.onoffCli.SetUnack(ctx, false)
	case 1:
		return n.onoffCli.SetUnack(ctx, true)
	case 2:
		return n.onoffCli.Get(ctx)
	default:
		_, err := n.hslCli.Cycle(ctx)
		return err
	}
}
