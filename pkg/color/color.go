// Package color converts the HSL light state carried by Light HSL messages
// into the 8-bit RGB triple driven on an LED.
package color

import "fmt"

// RGB is an 8-bit per channel colour.
type RGB struct {
	R, G, B uint8
}

// Common colours.
var (
	Black = RGB{}
	Red   = RGB{R: 255}
	Green = RGB{G: 255}
	Blue  = RGB{B: 255}
	White = RGB{R: 255, G: 255, B: 255}
)

// IsOff reports whether every channel is zero.
func (c RGB) IsOff() bool {
	return c == Black
}

// Binary thresholds the colour for on/off LEDs: a channel is lit only when it
// is at full intensity.
func (c RGB) Binary() (r, g, b bool) {
	return c.R == 255, c.G == 255, c.B == 255
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

const hslMax = 65535.0

// FromHSL converts 16-bit hue, saturation and lightness to RGB.
func FromHSL(hue, saturation, lightness uint16) RGB {
	h := float64(hue) / hslMax
	s := float64(saturation) / hslMax
	l := float64(lightness) / hslMax

	if s == 0 {
		v := uint8(l * 255)
		return RGB{R: v, G: v, B: v}
	}

	var v2 float64
	if l < 0.5 {
		v2 = l * (1 + s)
	} else {
		v2 = (l + s) - s*l
	}
	v1 := 2*l - v2

	return RGB{
		R: scale(hue2rgb(v1, v2, h+1.0/3)),
		G: scale(hue2rgb(v1, v2, h)),
		B: scale(hue2rgb(v1, v2, h-1.0/3)),
	}
}

func hue2rgb(v1, v2, vh float64) float64 {
	if vh < 0 {
		vh++
	}
	if vh > 1 {
		vh--
	}
	switch {
	case 6*vh < 1:
		return v1 + (v2-v1)*6*vh
	case 2*vh < 1:
		return v2
	case 3*vh < 2:
		return v1 + (v2-v1)*(2.0/3-vh)*6
	default:
		return v1
	}
}

// scale maps a [0,1] channel to 0..255. Full intensity lands on 256 and is
// clamped.
func scale(v float64) uint8 {
	x := 256 * v
	switch {
	case x <= 0:
		return 0
	case x >= 255:
		return 255
	default:
		return uint8(x)
	}
}
