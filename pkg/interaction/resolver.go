package interaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lucamoroz/mesh-go/pkg/log"
	"github.com/lucamoroz/mesh-go/pkg/mesh"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/wire"
)

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	// Transport sends the messages. Required.
	Transport mesh.Transport

	// DefaultTTL is used for replies. Zero means model.DefaultTTL.
	DefaultTTL uint8

	Logger  *slog.Logger
	Capture *log.Capture
}

// Resolver emits Status messages as replies and publications.
type Resolver struct {
	cfg ResolverConfig
}

// NewResolver returns a Resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = model.DefaultTTL
	}
	return &Resolver{cfg: cfg}
}

// Decision says why a Status is being emitted.
type Decision struct {
	// Ack is set for Gets and acknowledged Sets.
	Ack       bool
	Requester Requester

	// Changed is set when the state changed.
	Changed     bool
	Publication model.Publication
}

// Respond emits the Status for d: a unicast reply when Ack is set, and a
// publication when Changed is set and the publication is configured.
// An unconfigured publication is logged and skipped.
func (r *Resolver) Respond(ctx context.Context, src model.Address, d Decision, op wire.Opcode, payload []byte) error {
	var errs []error
	if d.Ack {
		if err := r.Reply(ctx, src, d.Requester, op, payload); err != nil {
			errs = append(errs, err)
		}
	}
	if d.Changed {
		err := r.Publish(ctx, src, d.Publication, op, payload)
		if err != nil && !errors.Is(err, mesh.ErrUnassignedAddress) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Reply sends a unicast message to the requester with the default TTL,
// regardless of any publication.
func (r *Resolver) Reply(ctx context.Context, src model.Address, to Requester, op wire.Opcode, payload []byte) error {
	access, err := wire.NewMessage(op, payload)
	if err != nil {
		return err
	}

	sc := mesh.SendContext{
		NetIdx: to.NetIdx,
		AppIdx: to.AppIdx,
		Src:    src,
		Dst:    to.Addr,
		TTL:    r.cfg.DefaultTTL,
	}
	if err := r.cfg.Transport.Send(ctx, sc, access); err != nil {
		r.warnLog("reply failed", "opcode", op.String(), "dst", to.Addr.String(), "error", err)
		return fmt.Errorf("reply %s to %s: %w", op, to.Addr, err)
	}

	r.cfg.Capture.Message(log.DirectionOut, log.MessageEvent{
		Opcode:  op,
		Src:     uint16(src),
		Dst:     uint16(to.Addr),
		TTL:     sc.TTL,
		Payload: payload,
	})
	return nil
}

// Publish sends a message through pub. An unconfigured publication returns
// mesh.ErrUnassignedAddress without sending.
func (r *Resolver) Publish(ctx context.Context, src model.Address, pub model.Publication, op wire.Opcode, payload []byte) error {
	if !pub.Configured() {
		r.debugLog("no publish address configured, skipping",
			"opcode", op.String(), "src", src.String())
		return mesh.ErrUnassignedAddress
	}

	access, err := wire.NewMessage(op, payload)
	if err != nil {
		return err
	}
	if err := r.cfg.Transport.Publish(ctx, src, pub, access); err != nil {
		r.warnLog("publish failed", "opcode", op.String(), "dst", pub.Address.String(), "error", err)
		return fmt.Errorf("publish %s to %s: %w", op, pub.Address, err)
	}

	r.cfg.Capture.Message(log.DirectionOut, log.MessageEvent{
		Opcode:    op,
		Src:       uint16(src),
		Dst:       uint16(pub.Address),
		TTL:       pub.TTL,
		Payload:   payload,
		Published: true,
	})
	return nil
}

func (r *Resolver) debugLog(msg string, args ...any) {
	if r.cfg.Logger != nil {
		r.cfg.Logger.Debug(msg, args...)
	}
}

func (r *Resolver) warnLog(msg string, args ...any) {
	if r.cfg.Logger != nil {
		r.cfg.Logger.Warn(msg, args...)
	}
}
