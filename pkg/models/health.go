package models

import (
	"sync"
	"time"

	"github.com/lucamoroz/mesh-go/pkg/color"
	"github.com/lucamoroz/mesh-go/pkg/log"
	"github.com/lucamoroz/mesh-go/pkg/model"
)

// HealthServer handles attention: the indicator shows Color until
// attention ends, then goes dark.
type HealthServer struct {
	Indicator Indicator
	Color     color.RGB

	// HSL, when set, carries the attention colour as an override so the
	// light model reports the colour actually shown.
	HSL *model.HSLState

	Capture *log.Capture

	mu    sync.Mutex
	on    bool
	timer *time.Timer
}

// AttentionOn starts attention.
func (h *HealthServer) AttentionOn() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.on = true
	h.capture("on")
	if h.HSL != nil {
		h.HSL.Override(h.Color)
	}
	if h.Indicator == nil {
		return nil
	}
	return h.Indicator.On(h.Color)
}

// AttentionOff ends attention.
func (h *HealthServer) AttentionOff() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.on = false
	h.capture("off")
	if h.HSL != nil {
		h.HSL.ClearOverride()
	}
	if h.Indicator == nil {
		return nil
	}
	return h.Indicator.Off()
}

// AttentionFor starts attention and ends it after d.
func (h *HealthServer) AttentionFor(d time.Duration) error {
	if err := h.AttentionOn(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = time.AfterFunc(d, func() { _ = h.AttentionOff() })
	return nil
}

// Attention reports whether attention is active.
func (h *HealthServer) Attention() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.on
}

func (h *HealthServer) capture(state string) {
	h.Capture.State(log.LayerNode, log.StateChangeEvent{
		Entity:   log.StateEntityAttention,
		Model:    uint16(model.HealthServer),
		NewState: state,
	})
}
