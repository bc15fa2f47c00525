// Command mesh-node runs mesh nodes on an in-process network.
//
// Without -config it starts the demo mesh: a switch driving a light and a
// gas sensor reporting to a proxy. Each -config file adds one node.
//
// Usage:
//
//	mesh-node [flags]
//
// Flags:
//
//	-config file        Node configuration file (repeatable)
//	-log-level string   Log level: debug, info, warn, error (default "info")
//	-protocol-log file  Capture the protocol traffic of every node
//	-state-dir dir      Persist node state in dir
//	-interactive        Start the command console
//
// Examples:
//
//	# Demo mesh with the console
//	mesh-node -interactive
//
//	# Two configured nodes with a shared capture file
//	mesh-node -config light.yaml -config switch.yaml -protocol-log mesh.mlog
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/lucamoroz/mesh-go/cmd/mesh-node/interactive"
	"github.com/lucamoroz/mesh-go/internal/sim"
	"github.com/lucamoroz/mesh-go/pkg/config"
	"github.com/lucamoroz/mesh-go/pkg/log"
)

type fileList []string

func (f *fileList) String() string     { return strings.Join(*f, ",") }
func (f *fileList) Set(v string) error { *f = append(*f, v); return nil }

var (
	configFiles fileList
	logLevel    string
	protocolLog string
	stateDir    string
	interact    bool
)

func init() {
	flag.Var(&configFiles, "config", "Node configuration file (repeatable)")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config, else info)")
	flag.StringVar(&protocolLog, "protocol-log", "", "Capture protocol traffic of every node to this .mlog file")
	flag.StringVar(&stateDir, "state-dir", "", "Persist node state in this directory")
	flag.BoolVar(&interact, "interactive", false, "Start the command console")
}

// logWriter lets the console take over log output once it owns the terminal.
type logWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *logWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func (l *logWriter) set(w io.Writer) {
	l.mu.Lock()
	l.w = w
	l.mu.Unlock()
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	nodes, err := sim.LoadNodes(configFiles, stateDir)
	if err != nil {
		return err
	}

	if logLevel == "" {
		logLevel = nodes[0].LogLevel
	}
	level, err := config.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	out := &logWriter{w: os.Stderr}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	var protocol []log.Logger
	if protocolLog != "" {
		fl, err := log.NewFileLogger(protocolLog)
		if err != nil {
			return fmt.Errorf("opening protocol log: %w", err)
		}
		defer fl.Close()
		protocol = append(protocol, fl)
		logger.Info("protocol logging enabled", "file", protocolLog)
	}
	if level <= slog.LevelDebug {
		protocol = append(protocol, log.NewSlogAdapter(logger))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := sim.Config{Nodes: nodes, Logger: logger}
	if len(protocol) > 0 {
		cfg.Protocol = log.NewMultiLogger(protocol...)
	}
	m, err := sim.Start(ctx, cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	for _, mb := range m.Members() {
		logger.Info("node started", "node", mb.Name, "role", mb.Config.Role, "provisioned", mb.Node.Provisioned())
	}

	if interact {
		console, err := interactive.New(m)
		if err != nil {
			return err
		}
		out.set(console.Stderr())
		go console.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
	}
	out.set(os.Stderr)
	return nil
}
