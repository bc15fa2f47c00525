package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucamoroz/mesh-go/pkg/log"
	"github.com/lucamoroz/mesh-go/pkg/wire"
)

var t0 = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func sampleEvents() []log.Event {
	gas := wire.EncodeSensorStatus(wire.GasReading(1200))
	return []log.Event{
		{
			Timestamp:   t0,
			SessionID:   "sess-sensor-0001",
			Direction:   log.DirectionOut,
			Layer:       log.LayerAccess,
			Category:    log.CategoryMessage,
			NodeRole:    "sensor",
			NodeAddress: 0x0031,
			Message: &log.MessageEvent{
				Opcode: wire.OpSensorStatus, Src: 0x0031, Dst: 0xC001, TTL: 7,
				Payload: gas, Published: true,
			},
		},
		{
			Timestamp:   t0.Add(10 * time.Millisecond),
			SessionID:   "sess-proxy-0001",
			Direction:   log.DirectionOut,
			Layer:       log.LayerAccess,
			Category:    log.CategoryMessage,
			NodeRole:    "proxy",
			NodeAddress: 0x0001,
			Message: &log.MessageEvent{
				Opcode: wire.OpSensorStatus, Src: 0x0001, Dst: 0xFFFF, TTL: 2,
				Payload: wire.EncodeRelayedStatus(gas, 0xC001), Relayed: true,
			},
		},
		{
			Timestamp:   t0.Add(20 * time.Millisecond),
			SessionID:   "sess-proxy-0001",
			Direction:   log.DirectionOut,
			Layer:       log.LayerNode,
			Category:    log.CategoryState,
			NodeRole:    "proxy",
			NodeAddress: 0x0001,
			StateChange: &log.StateChangeEvent{
				Entity: log.StateEntityAlarm, OldState: "off", NewState: "on", Reason: "trigger from 0x0031",
			},
		},
		{
			Timestamp: t0.Add(time.Second),
			SessionID: "sess-light-0001",
			Direction: log.DirectionIn,
			Layer:     log.LayerModel,
			Category:  log.CategoryError,
			NodeRole:  "light",
			Error:     &log.ErrorEventData{Layer: log.LayerModel, Message: "payload shorter than opcode minimum", Context: "HSL_SET_UNACK"},
		},
	}
}

func writeLog(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.mlog")
	logger, err := log.NewFileLogger(path)
	require.NoError(t, err)
	for _, e := range events {
		logger.Log(e)
	}
	require.NoError(t, logger.Close())
	return path
}

func TestFormatMessageEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[0])
	output := buf.String()

	for _, want := range []string{
		"2026-03-02T09:30:00.000000Z",
		"[sensor@0x0031]",
		"OUT",
		"ACCESS",
		"SENSOR_STATUS",
		"0x0031 -> 0xC001",
		"(published)",
		"GAS=1200",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatRelayedEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[1])
	output := buf.String()

	if !strings.Contains(output, "(relayed)") {
		t.Errorf("expected relayed marker, got: %s", output)
	}
	if !strings.Contains(output, "GAS=1200 for 0xC001") {
		t.Errorf("expected original destination, got: %s", output)
	}
}

func TestFormatStateAndError(t *testing.T) {
	var buf bytes.Buffer
	events := sampleEvents()
	formatEvent(&buf, events[2])
	formatEvent(&buf, events[3])
	output := buf.String()

	for _, want := range []string{
		"Entity: ALARM",
		"off -> on",
		"Reason: trigger from 0x0031",
		"[light]",
		"Message: payload shorter than opcode minimum",
		"Context: HSL_SET_UNACK",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestViewOptionsFilter(t *testing.T) {
	f, err := ViewOptions{Layer: "node", Direction: "out", Category: "state", Opcode: "0x52", Address: "0xc001", Role: "Proxy"}.Filter()
	require.NoError(t, err)
	assert.Equal(t, log.LayerNode, *f.Layer)
	assert.Equal(t, log.DirectionOut, *f.Direction)
	assert.Equal(t, log.CategoryState, *f.Category)
	assert.Equal(t, wire.OpSensorStatus, *f.Opcode)
	assert.Equal(t, uint16(0xC001), *f.Address)
	assert.Equal(t, "proxy", f.NodeRole)

	bad := []ViewOptions{
		{Layer: "wire"},
		{Direction: "sideways"},
		{Category: "control"},
		{Opcode: "zz"},
		{Address: "0x10000"},
		{TimeStart: "yesterday"},
	}
	for _, o := range bad {
		_, err := o.Filter()
		assert.Error(t, err, "%+v", o)
	}
}

func TestRunView(t *testing.T) {
	path := writeLog(t, sampleEvents())

	t.Run("All", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RunView(path, ViewOptions{}, &buf))
		assert.Equal(t, 4, strings.Count(buf.String(), "2026-03-02T"))
	})

	t.Run("ByAddress", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RunView(path, ViewOptions{Address: "0xC001"}, &buf))
		assert.Equal(t, 1, strings.Count(buf.String(), "2026-03-02T"))
	})

	t.Run("ByRole", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RunView(path, ViewOptions{Role: "proxy"}, &buf))
		assert.Equal(t, 2, strings.Count(buf.String(), "2026-03-02T"))
	})

	t.Run("ByTime", func(t *testing.T) {
		var buf bytes.Buffer
		opts := ViewOptions{TimeStart: "2026-03-02T09:30:00.5Z"}
		require.NoError(t, RunView(path, opts, &buf))
		assert.Contains(t, buf.String(), "[light]")
		assert.Equal(t, 1, strings.Count(buf.String(), "2026-03-02T"))
	})

	t.Run("MissingFile", func(t *testing.T) {
		assert.Error(t, RunView(filepath.Join(t.TempDir(), "none.mlog"), ViewOptions{}, &bytes.Buffer{}))
	})
}

func TestRunFilter(t *testing.T) {
	path := writeLog(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.mlog")

	n, err := RunFilter(path, out, ViewOptions{Category: "message"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stats, err := Collect(out)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalEvents)
	assert.Equal(t, 1, stats.Relayed)
}

func TestCollect(t *testing.T) {
	stats, err := Collect(writeLog(t, sampleEvents()))
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalEvents)
	assert.Equal(t, 2, stats.EventsByLayer[log.LayerAccess])
	assert.Equal(t, 1, stats.EventsByCategory[log.CategoryError])
	assert.Equal(t, 3, stats.EventsByDirection[log.DirectionOut])
	assert.Equal(t, 2, stats.Opcodes[wire.OpSensorStatus])
	assert.Equal(t, 1, stats.Errors)
	assert.Len(t, stats.Sessions, 3)
	assert.Equal(t, 2, stats.Sessions["sess-proxy-0001"].Events)
	assert.Equal(t, uint16(0x0001), stats.Sessions["sess-proxy-0001"].Address)
	assert.True(t, t0.Equal(stats.TimeRange.Start), "start %v", stats.TimeRange.Start)
	assert.True(t, t0.Add(time.Second).Equal(stats.TimeRange.End), "end %v", stats.TimeRange.End)

	var buf bytes.Buffer
	printStats(&buf, stats)
	assert.Contains(t, buf.String(), "Total Events: 4")
	assert.Contains(t, buf.String(), "SENSOR_STATUS:")
	assert.Contains(t, buf.String(), "Errors: 1")
}

func TestExport(t *testing.T) {
	path := writeLog(t, sampleEvents())

	t.Run("JSONL", func(t *testing.T) {
		reader, err := log.NewReader(path)
		require.NoError(t, err)
		defer reader.Close()

		var buf bytes.Buffer
		require.NoError(t, export(reader, "jsonl", &buf))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 4)
		var first log.Event
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
		assert.Equal(t, "sensor", first.NodeRole)
		require.NotNil(t, first.Message)
		assert.Equal(t, wire.OpSensorStatus, first.Message.Opcode)
	})

	t.Run("CSV", func(t *testing.T) {
		reader, err := log.NewReader(path)
		require.NoError(t, err)
		defer reader.Close()

		var buf bytes.Buffer
		require.NoError(t, export(reader, "csv", &buf))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 5)
		assert.True(t, strings.HasPrefix(lines[0], "timestamp,session_id"))
		assert.Contains(t, lines[1], "SENSOR_STATUS,0x0031,0xC001")
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		reader, err := log.NewReader(path)
		require.NoError(t, err)
		defer reader.Close()
		assert.Error(t, export(reader, "xml", &bytes.Buffer{}))
	})
}
