package log

import (
	"time"

	"github.com/lucamoroz/mesh-go/pkg/wire"
)

// Event is a protocol capture record. CBOR encoding uses integer keys.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies one run of a node (UUID).
	SessionID string `cbor:"2,keyasint"`

	Direction Direction `cbor:"3,keyasint"`
	Layer     Layer     `cbor:"4,keyasint"`
	Category  Category  `cbor:"5,keyasint"`

	// NodeRole is the role name of the capturing node (light, switch, ...).
	NodeRole string `cbor:"6,keyasint,omitempty"`

	// NodeAddress is the primary element address of the capturing node.
	NodeAddress uint16 `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Message     *MessageEvent     `cbor:"10,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"12,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	DirectionIn  Direction = 0
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates where the event was captured.
type Layer uint8

const (
	// LayerAccess is the access message layer (opcode + parameters).
	LayerAccess Layer = 0
	// LayerModel is the model layer (state stores and handlers).
	LayerModel Layer = 1
	// LayerNode is the node layer (buttons, LEDs, provisioning).
	LayerNode Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerAccess:
		return "ACCESS"
	case LayerModel:
		return "MODEL"
	case LayerNode:
		return "NODE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	CategoryMessage Category = 0
	CategoryState   Category = 1
	CategoryError   Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MessageEvent captures one access message.
type MessageEvent struct {
	Opcode wire.Opcode `cbor:"1,keyasint"`
	Src    uint16      `cbor:"2,keyasint"`
	Dst    uint16      `cbor:"3,keyasint"`
	TTL    uint8       `cbor:"4,keyasint,omitempty"`

	// Payload is the parameter bytes after the opcode.
	Payload []byte `cbor:"5,keyasint,omitempty"`

	// Published is set when the message went out through a model
	// publication rather than as a reply.
	Published bool `cbor:"6,keyasint,omitempty"`

	// Relayed is set for relay bridge re-broadcasts.
	Relayed bool `cbor:"7,keyasint,omitempty"`
}

// StateChangeEvent captures a model or node state transition.
type StateChangeEvent struct {
	Entity StateEntity `cbor:"1,keyasint"`

	// Model is the SIG model id for model state changes.
	Model uint16 `cbor:"2,keyasint,omitempty"`

	OldState string `cbor:"3,keyasint,omitempty"`
	NewState string `cbor:"4,keyasint"`
	Reason   string `cbor:"5,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	StateEntityOnOff        StateEntity = 0
	StateEntityHSL          StateEntity = 1
	StateEntityAttention    StateEntity = 2
	StateEntityAlarm        StateEntity = 3
	StateEntityProvisioning StateEntity = 4
	StateEntityGesture      StateEntity = 5
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityOnOff:
		return "ONOFF"
	case StateEntityHSL:
		return "HSL"
	case StateEntityAttention:
		return "ATTENTION"
	case StateEntityAlarm:
		return "ALARM"
	case StateEntityProvisioning:
		return "PROVISIONING"
	case StateEntityGesture:
		return "GESTURE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures a dropped message or failed operation.
type ErrorEventData struct {
	Layer   Layer  `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
