// Package relay re-broadcasts sensor status to all nodes.
//
// A gateway that only listens on the all-nodes address never sees sensor
// status published to a group. The proxy relays every status it receives
// to 0xFFFF with the destination it arrived on appended, so the gateway
// can still attribute the reading.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lucamoroz/mesh-go/pkg/log"
	"github.com/lucamoroz/mesh-go/pkg/mesh"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/wire"
)

// ErrUnrecognisedShape is returned for payloads that are neither a gas nor
// a THP status.
var ErrUnrecognisedShape = errors.New("relay: unrecognised sensor status shape")

// RelayTTL keeps relayed status within two hops of the proxy.
const RelayTTL uint8 = 2

// RelayRetransmit is the retransmission of relayed status.
var RelayRetransmit = model.Retransmit{Count: 1, Interval: 100 * time.Millisecond}

// Config configures a Bridge.
type Config struct {
	Transport mesh.Transport

	// Source returns the address relayed messages are sent from.
	Source func() model.Address

	// AppKeyIndex is the key the relayed status is published with.
	AppKeyIndex uint16

	Logger  *slog.Logger
	Capture *log.Capture
}

// Bridge relays sensor status.
type Bridge struct {
	cfg Config
}

// New returns a Bridge.
func New(cfg Config) *Bridge {
	return &Bridge{cfg: cfg}
}

// Publication is the publication used for relayed status.
func (b *Bridge) Publication() model.Publication {
	return model.Publication{AppKeyIndex: b.cfg.AppKeyIndex}.
		WithOverride(model.AddrAllNodes, RelayTTL, RelayRetransmit)
}

// Relay publishes payload, a Sensor Status parameter block, to all nodes
// with originalDst appended. payload is not modified.
func (b *Bridge) Relay(ctx context.Context, payload []byte, originalDst model.Address) error {
	if !wire.ValidStatusLen(len(payload)) {
		err := fmt.Errorf("%w: %d bytes", ErrUnrecognisedShape, len(payload))
		if b.cfg.Logger != nil {
			b.cfg.Logger.Debug("not relaying sensor status", "len", len(payload), "reason", err.Error())
		}
		b.cfg.Capture.Error(log.LayerModel, err, "relay")
		return err
	}

	params := wire.EncodeRelayedStatus(payload, uint16(originalDst))
	access, err := wire.NewMessage(wire.OpSensorStatus, params)
	if err != nil {
		return err
	}

	var src model.Address
	if b.cfg.Source != nil {
		src = b.cfg.Source()
	}
	pub := b.Publication()
	if err := b.cfg.Transport.Publish(ctx, src, pub, access); err != nil {
		if b.cfg.Logger != nil {
			b.cfg.Logger.Warn("relay publish failed", "src", src.String(), "error", err)
		}
		return fmt.Errorf("relay sensor status: %w", err)
	}

	b.cfg.Capture.Message(log.DirectionOut, log.MessageEvent{
		Opcode:    wire.OpSensorStatus,
		Src:       uint16(src),
		Dst:       uint16(pub.Address),
		TTL:       pub.TTL,
		Payload:   params,
		Published: true,
		Relayed:   true,
	})
	if b.cfg.Logger != nil {
		b.cfg.Logger.Debug("relayed sensor status", "len", len(payload), "dst", originalDst.String())
	}
	return nil
}
