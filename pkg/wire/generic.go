package wire

import (
	"encoding/binary"
)

// Payload lengths.
const (
	OnOffSetLen      = 2
	OnOffStatusLen   = 1
	HSLSetLen        = 6
	HSLSetWithTIDLen = 7
)

// OnOffSet carries the parameters of OnOff Set and Set Unacknowledged.
type OnOffSet struct {
	On  bool
	TID uint8
}

// OnOffStatus carries the parameters of OnOff Status.
type OnOffStatus struct {
	On bool
}

// HSLSet carries the parameters of Light HSL Set Unacknowledged.
// The transaction id is optional on the wire.
type HSLSet struct {
	Lightness  uint16
	Hue        uint16
	Saturation uint16
	TID        uint8
	HasTID     bool
}

// decodeState treats any non-zero state byte as on.
func decodeState(b byte) bool {
	return b != 0
}

func encodeState(on bool) byte {
	if on {
		return 1
	}
	return 0
}

// DecodeOnOffSet decodes OnOff Set parameters. Trailing optional transition
// fields are ignored.
func DecodeOnOffSet(p []byte) (OnOffSet, error) {
	if len(p) < OnOffSetLen {
		return OnOffSet{}, lengthError("onoff set", len(p), ">= 2")
	}
	return OnOffSet{On: decodeState(p[0]), TID: p[1]}, nil
}

// EncodeOnOffSet encodes OnOff Set parameters.
func EncodeOnOffSet(s OnOffSet) []byte {
	return []byte{encodeState(s.On), s.TID}
}

// DecodeOnOffStatus decodes OnOff Status parameters.
func DecodeOnOffStatus(p []byte) (OnOffStatus, error) {
	if len(p) < OnOffStatusLen {
		return OnOffStatus{}, lengthError("onoff status", len(p), ">= 1")
	}
	return OnOffStatus{On: decodeState(p[0])}, nil
}

// EncodeOnOffStatus encodes OnOff Status parameters.
func EncodeOnOffStatus(s OnOffStatus) []byte {
	return []byte{encodeState(s.On)}
}

// DecodeHSLSet decodes Light HSL Set parameters: lightness, hue, saturation
// and an optional transaction id.
func DecodeHSLSet(p []byte) (HSLSet, error) {
	if len(p) != HSLSetLen && len(p) != HSLSetWithTIDLen {
		return HSLSet{}, lengthError("hsl set", len(p), "6 or 7")
	}
	s := HSLSet{
		Lightness:  binary.LittleEndian.Uint16(p[0:2]),
		Hue:        binary.LittleEndian.Uint16(p[2:4]),
		Saturation: binary.LittleEndian.Uint16(p[4:6]),
	}
	if len(p) == HSLSetWithTIDLen {
		s.TID = p[6]
		s.HasTID = true
	}
	return s, nil
}

// EncodeHSLSet encodes Light HSL Set parameters.
func EncodeHSLSet(s HSLSet) []byte {
	buf := make([]byte, HSLSetLen, HSLSetWithTIDLen)
	binary.LittleEndian.PutUint16(buf[0:2], s.Lightness)
	binary.LittleEndian.PutUint16(buf[2:4], s.Hue)
	binary.LittleEndian.PutUint16(buf[4:6], s.Saturation)
	if s.HasTID {
		buf = append(buf, s.TID)
	}
	return buf
}
