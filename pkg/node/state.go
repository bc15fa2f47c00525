package node

import (
	"fmt"

	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/persistence"
	"github.com/lucamoroz/mesh-go/pkg/wire"
)

// restore applies configured publications, then persisted state on top.
func (n *Node) restore() error {
	for _, pc := range n.cfg.Publications {
		if err := n.applyPublication(pc.Element, pc.Model, pc.Publication); err != nil {
			return err
		}
	}

	var state *persistence.NodeState
	if n.deps.Store != nil {
		s, err := n.deps.Store.Load()
		if err != nil {
			return err
		}
		if s != nil && s.Role != string(n.cfg.Role) {
			n.warnLog("ignoring persisted state of another role", "stored", s.Role)
			s = nil
		}
		state = s
	}

	addr := n.cfg.Address
	if state != nil && state.Address != 0 {
		addr = model.Address(state.Address)
	}
	if !addr.IsUnassigned() {
		if err := n.comp.Provision(addr); err != nil {
			return err
		}
	}
	if state == nil {
		return nil
	}

	for _, e := range n.comp.Elements() {
		for _, m := range e.Models() {
			if snap, ok := state.Publications[persistence.PublicationKey(e.Index(), m.ID())]; ok {
				m.SetPublication(snap.Publication())
			}
		}
	}
	if state.HSL != nil && n.hsl != nil {
		h := state.HSL.HSL()
		n.hsl.TrySet(wire.HSLSet{Hue: h.Hue, Saturation: h.Saturation, Lightness: h.Lightness})
	}
	if state.OnOff != nil && n.onoff != nil {
		n.onoff.TrySet(wire.OnOffSet{On: *state.OnOff})
		if n.onoffSrv != nil {
			if err := n.onoffSrv.Refresh(); err != nil {
				n.warnLog("restoring led failed", "error", err)
			}
		}
	}
	n.debugLog("state restored", "path", n.deps.Store.Path())
	return nil
}

func (n *Node) applyPublication(element int, id model.ModelID, pub model.Publication) error {
	e, err := n.comp.ElementAt(element)
	if err != nil {
		return fmt.Errorf("publication for element %d: %w", element, err)
	}
	m, err := e.Model(id)
	if err != nil {
		return fmt.Errorf("publication for element %d %s: %w", element, id, err)
	}
	m.SetPublication(pub)
	return nil
}

// Snapshot returns the persistable state.
func (n *Node) Snapshot() *persistence.NodeState {
	s := &persistence.NodeState{
		Role:         string(n.cfg.Role),
		Address:      uint16(n.comp.Primary()),
		Publications: make(map[string]persistence.PublicationSnapshot),
	}
	for _, e := range n.comp.Elements() {
		for _, m := range e.Models() {
			if pub := m.Publication(); pub.Configured() {
				s.Publications[persistence.PublicationKey(e.Index(), m.ID())] = persistence.SnapshotPublication(pub)
			}
		}
	}
	if n.onoff != nil {
		on := n.onoff.On()
		s.OnOff = &on
	}
	if n.hsl != nil {
		s.HSL = persistence.SnapshotHSL(n.hsl.HSL())
	}
	return s
}

func (n *Node) persist() {
	if n.deps.Store == nil {
		return
	}
	if err := n.deps.Store.Save(n.Snapshot()); err != nil {
		n.warnLog("saving state failed", "error", err)
	}
}
