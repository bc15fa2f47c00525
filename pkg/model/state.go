package model

import (
	"sync"

	"github.com/lucamoroz/mesh-go/pkg/color"
	"github.com/lucamoroz/mesh-go/pkg/wire"
)

// Result is the outcome of an idempotent set.
type Result uint8

const (
	// Unchanged means the incoming value equals the stored one. No side
	// effect, reply or publish follows.
	Unchanged Result = iota

	// Changed means the stored value was replaced.
	Changed
)

func (r Result) String() string {
	if r == Changed {
		return "changed"
	}
	return "unchanged"
}

// OnOffState is the state of a Generic OnOff Server.
type OnOffState struct {
	mu  sync.RWMutex
	on  bool
	tid uint8
}

// NewOnOffState returns a state initialised to on.
func NewOnOffState(on bool) *OnOffState {
	return &OnOffState{on: on}
}

// On returns the stored state.
func (s *OnOffState) On() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.on
}

// TID returns the transaction id of the last accepted Set.
func (s *OnOffState) TID() uint8 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tid
}

// TrySet applies a Set if it differs from the stored state. The transaction
// id is only recorded on a change.
func (s *OnOffState) TrySet(set wire.OnOffSet) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set.On == s.on {
		return Unchanged
	}
	s.on = set.On
	s.tid = set.TID
	return Changed
}

// HSLState is the state of a Light HSL Server. The RGB value is derived from
// the HSL triple on every change and can be temporarily replaced by an
// attention override.
type HSLState struct {
	mu       sync.RWMutex
	hsl      color.HSL
	rgb      color.RGB
	override *color.RGB
}

// NewHSLState returns a state holding the given triple.
func NewHSLState(hsl color.HSL) *HSLState {
	return &HSLState{hsl: hsl, rgb: hsl.RGB()}
}

// HSL returns the stored triple.
func (s *HSLState) HSL() color.HSL {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hsl
}

// RGB returns the colour to drive. It is the override when one is active,
// otherwise the conversion of the stored triple.
func (s *HSLState) RGB() color.RGB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.override != nil {
		return *s.override
	}
	return s.rgb
}

// TrySet applies a Set if any of lightness, hue or saturation differs.
func (s *HSLState) TrySet(set wire.HSLSet) Result {
	next := color.HSL{Hue: set.Hue, Saturation: set.Saturation, Lightness: set.Lightness}

	s.mu.Lock()
	defer s.mu.Unlock()
	if next == s.hsl {
		return Unchanged
	}
	s.hsl = next
	s.rgb = next.RGB()
	return Changed
}

// Override replaces the driven colour until ClearOverride.
func (s *HSLState) Override(rgb color.RGB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = &rgb
}

// ClearOverride drops the attention override.
func (s *HSLState) ClearOverride() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = nil
}

// Overridden reports whether an override is active.
func (s *HSLState) Overridden() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.override != nil
}
