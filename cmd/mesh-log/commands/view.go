// Package commands implements the mesh-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lucamoroz/mesh-go/pkg/log"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/wire"
)

// ViewOptions are the view and filter criteria given on the command line.
// Empty fields match everything.
type ViewOptions struct {
	Layer     string
	Direction string
	Category  string
	Role      string
	Opcode    string
	Address   string
	Session   string

	// TimeStart and TimeEnd are RFC3339 timestamps.
	TimeStart string
	TimeEnd   string
}

// Filter converts the options to a log.Filter.
func (o ViewOptions) Filter() (log.Filter, error) {
	var f log.Filter
	f.NodeRole = strings.ToLower(o.Role)
	f.SessionID = o.Session

	if o.Layer != "" {
		l, err := parseLayer(o.Layer)
		if err != nil {
			return f, err
		}
		f.Layer = &l
	}
	if o.Direction != "" {
		d, err := parseDirection(o.Direction)
		if err != nil {
			return f, err
		}
		f.Direction = &d
	}
	if o.Category != "" {
		c, err := parseCategory(o.Category)
		if err != nil {
			return f, err
		}
		f.Category = &c
	}
	if o.Opcode != "" {
		v, err := strconv.ParseUint(o.Opcode, 0, 32)
		if err != nil {
			return f, fmt.Errorf("invalid opcode: %s", o.Opcode)
		}
		op := wire.Opcode(v)
		f.Opcode = &op
	}
	if o.Address != "" {
		v, err := strconv.ParseUint(o.Address, 0, 16)
		if err != nil {
			return f, fmt.Errorf("invalid address: %s", o.Address)
		}
		a := uint16(v)
		f.Address = &a
	}
	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return f, fmt.Errorf("invalid time-start: %w", err)
		}
		f.TimeStart = &t
	}
	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return f, fmt.Errorf("invalid time-end: %w", err)
		}
		f.TimeEnd = &t
	}
	return f, nil
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")

	var typeLabel string
	switch {
	case event.Message != nil:
		typeLabel = event.Message.Opcode.String()
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	node := event.NodeRole
	if event.NodeAddress != 0 {
		node += "@" + model.Address(event.NodeAddress).String()
	}
	fmt.Fprintf(w, "%s [%s] %-3s %s %s\n", ts, node, event.Direction, event.Layer, typeLabel)

	switch {
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

func formatMessageDetails(w io.Writer, msg *log.MessageEvent) {
	fmt.Fprintf(w, "  %s -> %s  ttl=%d", model.Address(msg.Src), model.Address(msg.Dst), msg.TTL)
	switch {
	case msg.Relayed:
		fmt.Fprint(w, "  (relayed)")
	case msg.Published:
		fmt.Fprint(w, "  (published)")
	}
	fmt.Fprintln(w)

	if len(msg.Payload) > 0 {
		fmt.Fprintf(w, "  Payload: %s\n", hex.EncodeToString(msg.Payload))
	}
	if msg.Opcode == wire.OpSensorStatus {
		if s := describeSensor(msg.Payload); s != "" {
			fmt.Fprintf(w, "  Sensor: %s\n", s)
		}
	}
}

// describeSensor renders the readings of a plain or relayed sensor status.
func describeSensor(p []byte) string {
	var status wire.SensorStatus
	suffix := ""
	if wire.IsRelayedLen(len(p)) {
		r, err := wire.DecodeRelayedStatus(p)
		if err != nil {
			return ""
		}
		status = r.Status
		suffix = " for " + model.Address(r.OriginalDst).String()
	} else {
		s, err := wire.DecodeSensorStatus(p)
		if err != nil {
			return ""
		}
		status = s
	}

	parts := make([]string, 0, len(status.Readings))
	for _, r := range status.Readings {
		parts = append(parts, fmt.Sprintf("%s=%g", r.ID, r.Value()))
	}
	return strings.Join(parts, " ") + suffix
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s", sc.Entity)
	if sc.Model != 0 {
		fmt.Fprintf(w, " (%s)", model.ModelID(sc.Model))
	}
	fmt.Fprintln(w)
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

func parseLayer(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "access":
		return log.LayerAccess, nil
	case "model":
		return log.LayerModel, nil
	case "node":
		return log.LayerNode, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be access, model, or node)", s)
	}
}

func parseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be message, state, or error)", s)
	}
}

// RunView prints the events of path matching opts.
func RunView(path string, opts ViewOptions, output io.Writer) error {
	filter, err := opts.Filter()
	if err != nil {
		return err
	}
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
}

// RunFilter writes the events of path matching opts to a new capture file.
func RunFilter(path, output string, opts ViewOptions) (int, error) {
	filter, err := opts.Filter()
	if err != nil {
		return 0, err
	}
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("failed to read event: %w", err)
		}
		logger.Log(event)
		count++
	}
}
