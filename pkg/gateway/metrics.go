package gateway

import "github.com/prometheus/client_golang/prometheus"

// Drop reasons.
const (
	ReasonDecode  = "decode"
	ReasonPublish = "publish"
	ReasonRPC     = "rpc"
	ReasonOpcode  = "opcode"
)

// Metrics counts bridge activity.
type Metrics struct {
	Decoded     prometheus.Counter
	Published   prometheus.Counter
	Dropped     *prometheus.CounterVec
	RPCReceived *prometheus.CounterVec
	AlertsSent  prometheus.Counter
}

// NewMetrics creates the bridge counters and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Decoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mesh",
			Subsystem: "gateway",
			Name:      "messages_decoded_total",
			Help:      "Sensor statuses decoded into telemetry.",
		}),
		Published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mesh",
			Subsystem: "gateway",
			Name:      "telemetry_published_total",
			Help:      "Telemetry objects published to the broker.",
		}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mesh",
			Subsystem: "gateway",
			Name:      "messages_dropped_total",
			Help:      "Messages dropped, by reason.",
		}, []string{"reason"}),
		RPCReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mesh",
			Subsystem: "gateway",
			Name:      "rpc_received_total",
			Help:      "RPC requests received, by method.",
		}, []string{"method"}),
		AlertsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mesh",
			Subsystem: "gateway",
			Name:      "alerts_sent_total",
			Help:      "On/off alerts sent to the mesh.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Decoded, m.Published, m.Dropped, m.RPCReceived, m.AlertsSent)
	}
	return m
}
