package interaction

import (
	"context"
	"errors"
	"testing"

	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoElementComposition(t *testing.T) *model.Composition {
	t.Helper()
	c := model.NewComposition(model.DeviceUUID("sensor", "test"))
	c.AddElement()
	c.AddElement()
	require.NoError(t, c.Provision(0x0010))
	return c
}

func TestDispatcherRegister(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Composition: twoElementComposition(t)})
	noop := func(context.Context, Request) error { return nil }

	require.NoError(t, d.Register(0, wire.OpOnOffSet, 2, noop))
	assert.ErrorIs(t, d.Register(0, wire.OpOnOffSet, 2, noop), ErrDuplicateHandler)
	require.NoError(t, d.Register(1, wire.OpOnOffSet, 2, noop), "same opcode on another element")
	assert.ErrorIs(t, d.Register(0, 0x7F, 0, noop), wire.ErrInvalidOpcode)

	assert.True(t, d.Handles(wire.OpOnOffSet))
	assert.False(t, d.Handles(wire.OpSensorGet))
}

func TestDispatcherDispatch(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Composition: twoElementComposition(t)})

	var got []Request
	record := func(_ context.Context, req Request) error {
		got = append(got, req)
		return nil
	}
	require.NoError(t, d.Register(0, wire.OpSensorGet, 0, record))
	require.NoError(t, d.Register(1, wire.OpSensorGet, 0, record))
	require.NoError(t, d.Register(0, wire.OpOnOffSet, 2, record))

	ctx := context.Background()

	t.Run("UnicastSelectsElement", func(t *testing.T) {
		got = nil
		mc := MessageContext{Src: 0x0002, Dst: 0x0011, AppIdx: 1}
		require.NoError(t, d.Dispatch(ctx, wire.OpSensorGet, nil, mc))
		require.Len(t, got, 1)
		assert.Equal(t, model.Address(0x0011), got[0].Element)
		assert.Equal(t, Requester{AppIdx: 1, Addr: 0x0002}, got[0].Requester())
	})

	t.Run("GroupReachesEveryElement", func(t *testing.T) {
		got = nil
		require.NoError(t, d.Dispatch(ctx, wire.OpSensorGet, nil, MessageContext{Src: 0x0002, Dst: 0xC000}))
		require.Len(t, got, 2)
		assert.Equal(t, model.Address(0x0010), got[0].Element)
		assert.Equal(t, model.Address(0x0011), got[1].Element)
	})

	t.Run("ShortPayloadDropped", func(t *testing.T) {
		got = nil
		err := d.Dispatch(ctx, wire.OpOnOffSet, []byte{1}, MessageContext{Dst: 0x0010})
		assert.ErrorIs(t, err, ErrPayloadTooShort)
		assert.Empty(t, got, "handler must not run")
	})

	t.Run("UnknownOpcodeIgnored", func(t *testing.T) {
		got = nil
		assert.NoError(t, d.Dispatch(ctx, wire.OpHSLSetUnack, make([]byte, 6), MessageContext{Dst: 0x0010}))
		assert.NoError(t, d.Dispatch(ctx, wire.OpOnOffSet, []byte{1, 0}, MessageContext{Dst: 0x0011}),
			"opcode not registered on that element")
		assert.NoError(t, d.Dispatch(ctx, wire.OpOnOffSet, []byte{1, 0}, MessageContext{Dst: 0x0042}),
			"address not ours")
		assert.Empty(t, got)
	})

	t.Run("Receive", func(t *testing.T) {
		got = nil
		require.NoError(t, d.Receive(ctx, []byte{0x82, 0x02, 0x01, 0x05}, MessageContext{Dst: 0x0010}))
		require.Len(t, got, 1)
		assert.Equal(t, []byte{0x01, 0x05}, got[0].Payload)

		assert.ErrorIs(t, d.Receive(ctx, []byte{0x82}, MessageContext{Dst: 0x0010}), wire.ErrInvalidOpcode)
	})
}

func TestDispatcherHandlerError(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Composition: twoElementComposition(t)})
	boom := errors.New("sensor read failed")
	require.NoError(t, d.Register(0, wire.OpSensorGet, 0, func(context.Context, Request) error { return boom }))

	err := d.Dispatch(context.Background(), wire.OpSensorGet, nil, MessageContext{Dst: 0x0010})
	assert.ErrorIs(t, err, boom)
}
