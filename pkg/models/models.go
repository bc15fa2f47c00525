package models

import (
	"log/slog"

	"github.com/lucamoroz/mesh-go/pkg/color"
	"github.com/lucamoroz/mesh-go/pkg/interaction"
	"github.com/lucamoroz/mesh-go/pkg/log"
	"github.com/lucamoroz/mesh-go/pkg/model"
)

// Indicator is the output a model drives on a state change.
type Indicator interface {
	On(c color.RGB) error
	Off() error
}

// Origin identifies where a status came from.
type Origin struct {
	// Src is the sending element.
	Src model.Address

	// Dst is the address the status was sent to, often a group.
	Dst model.Address
}

func originOf(req interaction.Request) Origin {
	return Origin{Src: req.Msg.Src, Dst: req.Msg.Dst}
}

// Base holds what every model needs.
type Base struct {
	// Element is the composition index the model lives on.
	Element int

	// Model holds the publication. Required.
	Model *model.Model

	// Resolver emits replies and publications. Required.
	Resolver *interaction.Resolver

	Logger  *slog.Logger
	Capture *log.Capture
}

func (b Base) src() model.Address {
	return b.Model.Element()
}

func (b Base) debugLog(msg string, args ...any) {
	if b.Logger != nil {
		b.Logger.Debug(msg, args...)
	}
}

func (b Base) infoLog(msg string, args ...any) {
	if b.Logger != nil {
		b.Logger.Info(msg, args...)
	}
}

func onOffString(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
