package model

import "fmt"

// Address is a 16-bit mesh address.
type Address uint16

// Reserved addresses.
const (
	AddrUnassigned Address = 0x0000
	AddrAllNodes   Address = 0xFFFF
)

// IsUnassigned reports whether the address is the unassigned address.
func (a Address) IsUnassigned() bool {
	return a == AddrUnassigned
}

// IsUnicast reports whether the address identifies a single element.
func (a Address) IsUnicast() bool {
	return a != AddrUnassigned && a&0x8000 == 0
}

// IsGroup reports whether the address is a group address, including the
// fixed all-nodes group.
func (a Address) IsGroup() bool {
	return a&0xC000 == 0xC000
}

func (a Address) String() string {
	return fmt.Sprintf("0x%04X", uint16(a))
}

// ModelID is a SIG model identifier.
type ModelID uint16

// SIG model ids.
const (
	ConfigServer   ModelID = 0x0000
	HealthServer   ModelID = 0x0002
	GenOnOffServer ModelID = 0x1000
	GenOnOffClient ModelID = 0x1001
	SensorServer   ModelID = 0x1100
	SensorClient   ModelID = 0x1102
	LightHSLServer ModelID = 0x1307
	LightHSLClient ModelID = 0x1309
)

var modelNames = map[ModelID]string{
	ConfigServer:   "ConfigServer",
	HealthServer:   "HealthServer",
	GenOnOffServer: "GenOnOffServer",
	GenOnOffClient: "GenOnOffClient",
	SensorServer:   "SensorServer",
	SensorClient:   "SensorClient",
	LightHSLServer: "LightHSLServer",
	LightHSLClient: "LightHSLClient",
}

func (id ModelID) String() string {
	if name, ok := modelNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Model(0x%04X)", uint16(id))
}

// ParseModelID returns the model id for a name as produced by String.
func ParseModelID(name string) (ModelID, bool) {
	for id, n := range modelNames {
		if n == name {
			return id, true
		}
	}
	return 0, false
}
