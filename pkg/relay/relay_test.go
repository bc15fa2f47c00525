package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lucamoroz/mesh-go/internal/meshtest"
	"github.com/lucamoroz/mesh-go/pkg/log"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/wire"
)

type memLogger struct {
	events []log.Event
}

func (m *memLogger) Log(e log.Event) { m.events = append(m.events, e) }

func newBridge(tr *meshtest.Recorder, logger log.Logger) *Bridge {
	return New(Config{
		Transport: tr,
		Source:    func() model.Address { return 0x0010 },
		Capture:   log.NewCapture(logger, "proxy"),
	})
}

func TestRelayGas(t *testing.T) {
	rec := &meshtest.Recorder{}
	logs := &memLogger{}
	b := newBridge(rec, logs)

	payload := wire.EncodeSensorStatus(wire.GasReading(900))
	orig := append([]byte(nil), payload...)

	require.NoError(t, b.Relay(context.Background(), payload, 0xC001))
	assert.Equal(t, orig, payload, "input must be untouched")

	f, ok := rec.Last()
	require.True(t, ok)
	assert.True(t, f.Published)
	assert.Equal(t, model.Address(0x0010), f.Src)
	assert.Equal(t, model.AddrAllNodes, f.Dst)
	assert.Equal(t, RelayTTL, f.TTL)
	assert.Equal(t, RelayRetransmit, f.Publication.Retransmit)
	assert.Equal(t, wire.OpSensorStatus, f.Opcode)
	assert.Equal(t, append(orig, 0x01, 0xC0), f.Payload)

	require.Len(t, logs.events, 1)
	assert.True(t, logs.events[0].Message.Relayed)
}

func TestRelayTHP(t *testing.T) {
	rec := &meshtest.Recorder{}
	b := newBridge(rec, nil)

	payload := wire.EncodeSensorStatus(
		wire.TemperatureReading(21.5),
		wire.HumidityReading(40),
		wire.PressureReading(1013),
	)
	require.NoError(t, b.Relay(context.Background(), payload, 0xC002))

	f, _ := rec.Last()
	require.Len(t, f.Payload, wire.RelayedTHPLen)

	relayed, err := wire.DecodeRelayedStatus(f.Payload)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xC002), relayed.OriginalDst)
	assert.True(t, relayed.Status.IsTHP())
}

func TestRelayRejectsShape(t *testing.T) {
	rec := &meshtest.Recorder{}
	logs := &memLogger{}
	b := newBridge(rec, logs)

	for _, n := range []int{0, 3, 6, 14} {
		err := b.Relay(context.Background(), make([]byte, n), 0xC001)
		assert.ErrorIs(t, err, ErrUnrecognisedShape, "len %d", n)
	}
	assert.Zero(t, rec.Count())
	assert.Len(t, logs.events, 4)
}

func TestRelayTransportError(t *testing.T) {
	tr := meshtest.NewMockTransport(t)
	boom := errors.New("bearer down")
	tr.EXPECT().
		Publish(mock.Anything, model.Address(0), mock.MatchedBy(func(p model.Publication) bool {
			return p.Address == model.AddrAllNodes && p.TTL == RelayTTL
		}), mock.Anything).
		Return(boom)

	b := New(Config{Transport: tr})
	err := b.Relay(context.Background(), wire.EncodeSensorStatus(wire.GasReading(1)), 0xC001)
	assert.ErrorIs(t, err, boom)
}
