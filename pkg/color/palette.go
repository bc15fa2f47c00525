package color

import "sync"

// HSL is a 16-bit hue, saturation, lightness triple.
type HSL struct {
	Hue        uint16
	Saturation uint16
	Lightness  uint16
}

// RGB converts the triple.
func (h HSL) RGB() RGB {
	return FromHSL(h.Hue, h.Saturation, h.Lightness)
}

// Named is a palette entry.
type Named struct {
	Name string
	HSL
}

// DefaultColors is the colour cycle of a switch node.
var DefaultColors = []Named{
	{"black", HSL{0x0000, 0x0000, 0x0000}},
	{"red", HSL{0x0000, 0xFFFF, 0x7FFF}},
	{"green", HSL{0x5555, 0xFFFF, 0x7FFF}},
	{"blue", HSL{0xAAAA, 0xFFFF, 0x7FFF}},
	{"yellow", HSL{0x2AAA, 0xFFFF, 0x7FFF}},
	{"magenta", HSL{0xD555, 0xFFFF, 0x7FFF}},
	{"cyan", HSL{0x7FFF, 0xFFFF, 0x7FFF}},
	{"white", HSL{0x0000, 0x0000, 0xFFFF}},
}

// Palette cycles through a fixed list of colours. Safe for concurrent use.
type Palette struct {
	mu     sync.Mutex
	colors []Named
	idx    int
}

// NewPalette returns a palette over colors starting at index start.
// A nil colors uses DefaultColors.
func NewPalette(colors []Named, start int) *Palette {
	if len(colors) == 0 {
		colors = DefaultColors
	}
	return &Palette{colors: colors, idx: start % len(colors)}
}

// Current returns the selected colour.
func (p *Palette) Current() Named {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.colors[p.idx]
}

// Next advances to the following colour, wrapping at the end, and returns it.
func (p *Palette) Next() Named {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idx = (p.idx + 1) % len(p.colors)
	return p.colors[p.idx]
}

// Len returns the number of colours.
func (p *Palette) Len() int {
	return len(p.colors)
}
