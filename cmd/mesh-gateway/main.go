// Command mesh-gateway bridges the sensor telemetry of a mesh to an MQTT
// broker and switches the alert target on broker RPCs.
//
// The gateway joins the in-process mesh of the configured nodes as an
// all-nodes listener. The gateway section of the first node configuration
// that names a broker, or asks for discovery, configures the bridge.
//
// Usage:
//
//	mesh-gateway [flags]
//
// Examples:
//
//	# Demo mesh, broker found over mDNS, metrics on :9100
//	mesh-gateway -discover -metrics-addr :9100
//
//	# Configured nodes and an explicit broker
//	mesh-gateway -config proxy.yaml -config sensor.yaml -broker tcp://10.0.0.2:1883
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lucamoroz/mesh-go/internal/sim"
	"github.com/lucamoroz/mesh-go/pkg/config"
	"github.com/lucamoroz/mesh-go/pkg/discovery"
	"github.com/lucamoroz/mesh-go/pkg/gateway"
	"github.com/lucamoroz/mesh-go/pkg/log"
	"github.com/lucamoroz/mesh-go/pkg/mesh"
)

type fileList []string

func (f *fileList) String() string     { return strings.Join(*f, ",") }
func (f *fileList) Set(v string) error { *f = append(*f, v); return nil }

var (
	configFiles fileList
	broker      string
	discover    bool
	iface       string
	metricsAddr string
	logLevel    string
	protocolLog string
)

func init() {
	flag.Var(&configFiles, "config", "Node configuration file (repeatable)")
	flag.StringVar(&broker, "broker", "", "MQTT broker URL, e.g. tcp://localhost:1883")
	flag.BoolVar(&discover, "discover", false, "Browse mDNS for the broker when none is given")
	flag.StringVar(&iface, "interface", "", "Network interface for mDNS discovery")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9100")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config, else info)")
	flag.StringVar(&protocolLog, "protocol-log", "", "Capture protocol traffic of every node to this .mlog file")
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	nodes, err := sim.LoadNodes(configFiles, "")
	if err != nil {
		return err
	}
	gw := gatewaySection(nodes)
	if discover {
		gw.Discover = true
	}
	if metricsAddr != "" {
		gw.MetricsAddr = metricsAddr
	}

	if logLevel == "" {
		logLevel = nodes[0].LogLevel
	}
	level, err := config.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	url, err := brokerURL(ctx, gw, logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := gateway.NewMetrics(reg)
	if gw.MetricsAddr != "" {
		srv := serveMetrics(gw.MetricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	cc := gw.ConnectConfig(url)
	cc.Logger = logger
	mqttBroker, err := gateway.Connect(ctx, cc)
	if err != nil {
		return err
	}
	defer mqttBroker.Close()

	cfg := sim.Config{Nodes: nodes, Logger: logger}
	if protocolLog != "" {
		fl, err := log.NewFileLogger(protocolLog)
		if err != nil {
			return fmt.Errorf("opening protocol log: %w", err)
		}
		defer fl.Close()
		cfg.Protocol = fl
	}
	m, err := sim.Start(ctx, cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	bc := gw.BridgeConfig()
	bc.Broker = gateway.NewBreakerBroker(mqttBroker, gateway.BreakerConfig{Logger: logger})
	bc.Logger = logger
	bc.Metrics = metrics

	var bridge atomic.Pointer[gateway.Bridge]
	port := m.Network().Attach(ctx, mesh.PortConfig{
		Name:         "gateway",
		AllNodesOnly: true,
		Receive: func(ctx context.Context, d mesh.Delivery) {
			if b := bridge.Load(); b != nil {
				b.Receive(ctx, d)
			}
		},
	})
	defer port.Close()
	bc.Transport = port

	b := gateway.NewBridge(bc)
	addr := bc.Address
	if addr.IsUnassigned() {
		addr = gateway.DefaultAddress
	}
	port.SetAddresses(addr)
	bridge.Store(b)

	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("subscribing rpc topic: %w", err)
	}
	logger.Info("gateway running", "broker", url, "address", addr.String(), "nodes", len(m.Members()))

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// gatewaySection picks the gateway section of the first node that names a
// broker or asks for discovery.
func gatewaySection(nodes []*config.Config) config.Gateway {
	for _, n := range nodes {
		if n.Gateway.Broker != "" || n.Gateway.Discover {
			return n.Gateway
		}
	}
	return nodes[0].Gateway
}

func brokerURL(ctx context.Context, gw config.Gateway, logger *slog.Logger) (string, error) {
	if broker != "" {
		return broker, nil
	}
	if gw.Broker != "" {
		return gw.Broker, nil
	}
	if !gw.Discover {
		return "", errors.New("no broker: set -broker, gateway.broker or -discover")
	}

	logger.Info("browsing for mqtt broker", "service", discovery.ServiceTypeMQTT)
	url, err := discovery.BrowseBroker(ctx, discovery.BrowserConfig{Interface: iface, Logger: logger})
	if err != nil {
		return "", fmt.Errorf("broker discovery: %w", err)
	}
	logger.Info("broker discovered", "broker", url)
	return url, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}
