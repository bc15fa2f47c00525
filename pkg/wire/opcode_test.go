package wire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpcodeLen(t *testing.T) {
	tests := []struct {
		op   Opcode
		want int
	}{
		{OpSensorStatus, 1},
		{0x00, 1},
		{0x7E, 1},
		{0x7F, 0},
		{OpOnOffGet, 2},
		{OpHSLSetUnack, 2},
		{0xBFFF, 2},
		{0xC00000, 3},
		{0xFFFFFF, 3},
		{0xC000, 0},
		{0x1000000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.Len())
			assert.Equal(t, tt.want != 0, tt.op.Valid())
		})
	}
}

func TestAppendOpcode(t *testing.T) {
	tests := []struct {
		name string
		op   Opcode
		want []byte
	}{
		{"OneByte", OpSensorStatus, []byte{0x52}},
		{"TwoByte", OpOnOffSetUnack, []byte{0x82, 0x03}},
		{"Vendor", 0xC12345, []byte{0xC1, 0x23, 0x45}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AppendOpcode(nil, tt.op)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("Invalid", func(t *testing.T) {
		_, err := AppendOpcode(nil, 0x7F)
		assert.ErrorIs(t, err, ErrInvalidOpcode)
	})
}

func TestSplitOpcode(t *testing.T) {
	t.Run("TwoByteWithParams", func(t *testing.T) {
		op, params, err := SplitOpcode([]byte{0x82, 0x02, 0x01, 0x07})
		require.NoError(t, err)
		assert.Equal(t, OpOnOffSet, op)
		assert.Equal(t, []byte{0x01, 0x07}, params)
	})

	t.Run("OneByte", func(t *testing.T) {
		op, params, err := SplitOpcode([]byte{0x52, 0x13, 0x2A, 0x10, 0x00})
		require.NoError(t, err)
		assert.Equal(t, OpSensorStatus, op)
		assert.Len(t, params, 4)
	})

	t.Run("VendorParsed", func(t *testing.T) {
		op, params, err := SplitOpcode([]byte{0xC1, 0x02, 0x03})
		require.NoError(t, err)
		assert.Equal(t, Opcode(0xC10203), op)
		assert.Empty(t, params)
	})

	errs := map[string][]byte{
		"Empty":          nil,
		"Reserved":       {0x7F},
		"TruncatedTwo":   {0x82},
		"TruncatedThree": {0xC1, 0x02},
	}
	for name, in := range errs {
		t.Run(name, func(t *testing.T) {
			_, _, err := SplitOpcode(in)
			assert.True(t, errors.Is(err, ErrInvalidOpcode), "err = %v", err)
		})
	}
}

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage(OpOnOffStatus, EncodeOnOffStatus(OnOffStatus{On: true}))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x82, 0x04, 0x01}, msg)

	op, params, err := SplitOpcode(msg)
	require.NoError(t, err)
	assert.Equal(t, OpOnOffStatus, op)

	status, err := DecodeOnOffStatus(params)
	require.NoError(t, err)
	assert.True(t, status.On)
}

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "ONOFF_SET_UNACK", OpOnOffSetUnack.String())
	assert.Equal(t, "SENSOR_STATUS", OpSensorStatus.String())
	assert.Equal(t, "0x8299", Opcode(0x8299).String())
}
