package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromHSLGray(t *testing.T) {
	got := FromHSL(0, 0, 0x8000)
	assert.InDelta(t, 128, int(got.R), 1)
	assert.Equal(t, got.R, got.G)
	assert.Equal(t, got.R, got.B)

	assert.Equal(t, Black, FromHSL(0, 0, 0))
	assert.Equal(t, White, FromHSL(0, 0, 0xFFFF))
}

func TestFromHSLPrimaries(t *testing.T) {
	tests := []struct {
		name string
		hsl  HSL
		want RGB
	}{
		{"Red", HSL{0x0000, 0xFFFF, 0x7FFF}, Red},
		{"RedHalfLightness", HSL{0x0000, 0xFFFF, 0x8000}, Red},
		{"Green", HSL{0x5555, 0xFFFF, 0x7FFF}, Green},
		{"Blue", HSL{0xAAAA, 0xFFFF, 0x7FFF}, Blue},
		{"Yellow", HSL{0x2AAA, 0xFFFF, 0x7FFF}, RGB{R: 255, G: 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.hsl.RGB()
			assert.InDelta(t, int(tt.want.R), int(got.R), 1, "R")
			assert.InDelta(t, int(tt.want.G), int(got.G), 1, "G")
			assert.InDelta(t, int(tt.want.B), int(got.B), 1, "B")
		})
	}
}

func TestHue2RGBSectors(t *testing.T) {
	tests := []struct {
		name string
		vh   float64
		want float64
	}{
		{"RisingEdge", 1.0 / 12, 0.5},
		{"JustPastSixth", 1.0/6 + 1e-9, 1},
		{"Plateau", 0.25, 1},
		{"HalfStartsFalling", 0.5, 1},
		{"Falling", 7.0 / 12, 0.5},
		{"TwoThirds", 2.0/3 + 1e-9, 0},
		{"Tail", 0.9, 0},
		{"WrapNegative", -11.0 / 12, 0.5},
		{"WrapAboveOne", 1 + 1.0/12, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, hue2rgb(0, 1, tt.vh), 1e-6)
		})
	}
}

func TestScaleClamps(t *testing.T) {
	assert.Equal(t, uint8(255), scale(1))
	assert.Equal(t, uint8(0), scale(-0.1))
	assert.Equal(t, uint8(128), scale(0.5))
}

func TestBinary(t *testing.T) {
	r, g, b := RGB{R: 255, G: 254, B: 0}.Binary()
	assert.True(t, r)
	assert.False(t, g)
	assert.False(t, b)
	assert.True(t, Black.IsOff())
	assert.False(t, Red.IsOff())
}

func TestPalette(t *testing.T) {
	p := NewPalette(nil, 1)
	assert.Equal(t, "red", p.Current().Name)
	assert.Equal(t, "green", p.Next().Name)

	for i := 0; i < p.Len()-3; i++ {
		p.Next()
	}
	assert.Equal(t, "black", p.Next().Name, "palette wraps")
}
