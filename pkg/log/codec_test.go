package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/lucamoroz/mesh-go/pkg/wire"
)

func TestEncodeDecodeMessageEvent(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	event := Event{
		Timestamp: ts,
		SessionID: "session-1",
		Direction: DirectionOut,
		Layer:     LayerAccess,
		Category:  CategoryMessage,
		NodeRole:  "proxy",
		Message: &MessageEvent{
			Opcode:  wire.OpSensorStatus,
			Src:     0x0005,
			Dst:     0xFFFF,
			TTL:     2,
			Payload: []byte{0x13, 0x2A, 0x20, 0x03, 0x01, 0xC0},
			Relayed: true,
		},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !got.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v (nanoseconds must survive)", got.Timestamp, ts)
	}
	if got.Message == nil {
		t.Fatal("Message is nil")
	}
	if got.Message.Opcode != wire.OpSensorStatus {
		t.Errorf("Opcode = %v, want SENSOR_STATUS", got.Message.Opcode)
	}
	if !bytes.Equal(got.Message.Payload, event.Message.Payload) {
		t.Errorf("Payload = %x, want %x", got.Message.Payload, event.Message.Payload)
	}
	if !got.Message.Relayed {
		t.Error("Relayed = false, want true")
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	event := Event{
		Timestamp: time.Unix(0, 42),
		Category:  CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   StateEntityOnOff,
			Model:    0x1000,
			OldState: "off",
			NewState: "on",
		},
	}
	a, err := EncodeEvent(event)
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncodeEvent(event)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("encoding differs between runs")
	}
}

func TestDecodeEventGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xFF, 0x00}); err == nil {
		t.Error("DecodeEvent accepted garbage")
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{DirectionIn.String(), "IN"},
		{Direction(9).String(), "UNKNOWN"},
		{LayerModel.String(), "MODEL"},
		{CategoryError.String(), "ERROR"},
		{StateEntityAlarm.String(), "ALARM"},
		{StateEntity(99).String(), "UNKNOWN"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}
