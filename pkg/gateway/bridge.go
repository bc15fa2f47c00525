package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/lucamoroz/mesh-go/pkg/mesh"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/wire"
)

// Topics.
const (
	DefaultTelemetryTopic = "v1/devices/me/telemetry"
	DefaultRPCTopic       = "v1/devices/me/rpc/request/+"
	rpcRequestPrefix      = "v1/devices/me/rpc/request/"
	rpcResponsePrefix     = "v1/devices/me/rpc/response/"
)

// DefaultAddress is the gateway's own mesh address.
const DefaultAddress model.Address = 0x7FFF

// MethodOnOffSet switches the alert target on or off.
const MethodOnOffSet = "onoff-set"

// RPC errors.
var (
	ErrBadRequest    = errors.New("gateway: malformed rpc request")
	ErrUnknownMethod = errors.New("gateway: unknown rpc method")
)

// Config configures a Bridge.
type Config struct {
	// Broker carries telemetry and RPCs. Required.
	Broker Broker

	// Transport sends alerts into the mesh. Required for onoff-set.
	Transport mesh.Transport

	// Address is the source of alerts. Zero means DefaultAddress.
	Address model.Address

	// AlertTarget receives alerts. Zero means all nodes.
	AlertTarget model.Address
	AlertTTL    uint8

	TelemetryTopic string
	RPCTopic       string

	Names map[model.Address]string

	Logger  *slog.Logger
	Metrics *Metrics
}

// Bridge forwards sensor telemetry to the broker and RPCs to the mesh.
type Bridge struct {
	cfg Config

	mu     sync.Mutex
	lastOn bool
	tid    uint8
}

// NewBridge returns a Bridge with defaults applied.
func NewBridge(cfg Config) *Bridge {
	if cfg.Address.IsUnassigned() {
		cfg.Address = DefaultAddress
	}
	if cfg.AlertTarget.IsUnassigned() {
		cfg.AlertTarget = model.AddrAllNodes
	}
	if cfg.AlertTTL == 0 {
		cfg.AlertTTL = model.DefaultTTL
	}
	if cfg.TelemetryTopic == "" {
		cfg.TelemetryTopic = DefaultTelemetryTopic
	}
	if cfg.RPCTopic == "" {
		cfg.RPCTopic = DefaultRPCTopic
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(nil)
	}
	return &Bridge{cfg: cfg}
}

// Start subscribes to the RPC topic.
func (b *Bridge) Start(ctx context.Context) error {
	return b.cfg.Broker.Subscribe(ctx, b.cfg.RPCTopic, func(topic string, payload []byte) {
		if err := b.HandleRPC(ctx, topic, payload); err != nil {
			b.warnLog("rpc failed", "topic", topic, "error", err)
		}
	})
}

// Receive handles one mesh delivery. It has the signature of a
// mesh.Receiver. Only Sensor Status messages are forwarded.
func (b *Bridge) Receive(ctx context.Context, d mesh.Delivery) {
	op, params, err := wire.SplitOpcode(d.Access)
	if err != nil || op != wire.OpSensorStatus {
		b.cfg.Metrics.Dropped.WithLabelValues(ReasonOpcode).Inc()
		return
	}
	if err := b.Forward(ctx, d.Src, params); err != nil {
		b.debugLog("telemetry not forwarded", "src", d.Src.String(), "len", len(params), "reason", err.Error())
	}
}

// Forward decodes a Sensor Status from src and publishes the telemetry.
func (b *Bridge) Forward(ctx context.Context, src model.Address, payload []byte) error {
	t, err := Decode(src, payload, b.cfg.Names)
	if err != nil {
		b.cfg.Metrics.Dropped.WithLabelValues(ReasonDecode).Inc()
		return err
	}
	b.cfg.Metrics.Decoded.Inc()

	body, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if err := b.cfg.Broker.Publish(ctx, b.cfg.TelemetryTopic, body); err != nil {
		b.cfg.Metrics.Dropped.WithLabelValues(ReasonPublish).Inc()
		return fmt.Errorf("publish telemetry: %w", err)
	}
	b.cfg.Metrics.Published.Inc()
	b.infoLog("telemetry published", "body", string(body))
	return nil
}

type rpcRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type onoffParams struct {
	OnOff int `json:"onoff"`
}

// HandleRPC handles one RPC request published on topic.
func (b *Bridge) HandleRPC(ctx context.Context, topic string, payload []byte) error {
	var req rpcRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		b.cfg.Metrics.Dropped.WithLabelValues(ReasonRPC).Inc()
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	b.cfg.Metrics.RPCReceived.WithLabelValues(req.Method).Inc()

	if req.Method != MethodOnOffSet {
		b.debugLog("ignoring rpc", "method", req.Method)
		return fmt.Errorf("%w: %q", ErrUnknownMethod, req.Method)
	}
	p, err := decodeParams(req.Params)
	if err != nil {
		b.cfg.Metrics.Dropped.WithLabelValues(ReasonRPC).Inc()
		return err
	}

	on := p.OnOff != 0
	if err := b.SetAlert(ctx, on); err != nil {
		return err
	}
	if id, ok := strings.CutPrefix(topic, rpcRequestPrefix); ok && id != "" {
		resp, _ := json.Marshal(onoffParams{OnOff: p.OnOff})
		if err := b.cfg.Broker.Publish(ctx, rpcResponsePrefix+id, resp); err != nil {
			b.debugLog("rpc response failed", "id", id, "error", err)
		}
	}
	return nil
}

// decodeParams accepts params either as an object or as a JSON string
// holding the object.
func decodeParams(raw json.RawMessage) (onoffParams, error) {
	var p onoffParams
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return p, fmt.Errorf("%w: params: %w", ErrBadRequest, err)
		}
		raw = json.RawMessage(s)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("%w: params: %w", ErrBadRequest, err)
	}
	return p, nil
}

// SetAlert sends an OnOff Set Unacknowledged to the alert target when on
// differs from the last value sent. The alert starts off.
func (b *Bridge) SetAlert(ctx context.Context, on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if on == b.lastOn {
		b.debugLog("alert unchanged, not sent", "on", on)
		return nil
	}
	if b.cfg.Transport == nil {
		return mesh.ErrUnassignedAddress
	}

	access, err := wire.NewMessage(wire.OpOnOffSetUnack, wire.EncodeOnOffSet(wire.OnOffSet{On: on, TID: b.tid}))
	if err != nil {
		return err
	}
	sc := mesh.SendContext{Src: b.cfg.Address, Dst: b.cfg.AlertTarget, TTL: b.cfg.AlertTTL}
	if err := b.cfg.Transport.Send(ctx, sc, access); err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	b.lastOn = on
	b.tid++
	b.cfg.Metrics.AlertsSent.Inc()
	b.infoLog("alert sent to mesh", "on", on, "dst", b.cfg.AlertTarget.String())
	return nil
}

// Alert returns the last value sent.
func (b *Bridge) Alert() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastOn
}

func (b *Bridge) debugLog(msg string, args ...any) {
	if b.cfg.Logger != nil {
		b.cfg.Logger.Debug(msg, args...)
	}
}

func (b *Bridge) infoLog(msg string, args ...any) {
	if b.cfg.Logger != nil {
		b.cfg.Logger.Info(msg, args...)
	}
}

func (b *Bridge) warnLog(msg string, args ...any) {
	if b.cfg.Logger != nil {
		b.cfg.Logger.Warn(msg, args...)
	}
}
