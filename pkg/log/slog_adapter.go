package log

import (
	"context"
	"fmt"
	"log/slog"
)

// SlogAdapter renders capture events as slog records at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter returns an adapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.NodeRole != "" {
		attrs = append(attrs, slog.String("role", event.NodeRole))
	}
	if event.NodeAddress != 0 {
		attrs = append(attrs, slog.String("node", fmt.Sprintf("0x%04X", event.NodeAddress)))
	}

	switch {
	case event.Message != nil:
		m := event.Message
		attrs = append(attrs,
			slog.String("opcode", m.Opcode.String()),
			slog.String("src", fmt.Sprintf("0x%04X", m.Src)),
			slog.String("dst", fmt.Sprintf("0x%04X", m.Dst)),
			slog.Int("ttl", int(m.TTL)),
			slog.Int("len", len(m.Payload)),
		)
		if m.Published {
			attrs = append(attrs, slog.Bool("published", true))
		}
		if m.Relayed {
			attrs = append(attrs, slog.Bool("relayed", true))
		}
	case event.StateChange != nil:
		s := event.StateChange
		attrs = append(attrs,
			slog.String("entity", s.Entity.String()),
			slog.String("old_state", s.OldState),
			slog.String("new_state", s.NewState),
		)
		if s.Reason != "" {
			attrs = append(attrs, slog.String("reason", s.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
		)
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "protocol", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
