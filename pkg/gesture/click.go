package gesture

import "time"

// Click is a classified button press.
type Click uint8

const (
	Short Click = iota + 1
	Long
	LongLong
)

// Thresholds.
const (
	LongClick     = 3000 * time.Millisecond
	LongLongClick = 10000 * time.Millisecond

	// DebounceDelay is the window after an edge in which further edges are
	// ignored.
	DebounceDelay = 200 * time.Millisecond
)

func (c Click) String() string {
	switch c {
	case Short:
		return "SHORT"
	case Long:
		return "LONG"
	case LongLong:
		return "LONG_LONG"
	default:
		return "UNKNOWN"
	}
}

// Classify maps a press duration to a click. A press of exactly LongClick is
// Long; a press of exactly LongLongClick is still Long.
func Classify(held time.Duration) Click {
	switch {
	case held < LongClick:
		return Short
	case held <= LongLongClick:
		return Long
	default:
		return LongLong
	}
}
