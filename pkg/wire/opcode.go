package wire

import (
	"fmt"
)

// Opcode identifies an access message. The numeric value is the opcode bytes
// read big-endian, e.g. 0x8201 for the 2-byte opcode {0x82, 0x01}.
type Opcode uint32

// Generic OnOff opcodes.
const (
	OpOnOffGet      Opcode = 0x8201
	OpOnOffSet      Opcode = 0x8202
	OpOnOffSetUnack Opcode = 0x8203
	OpOnOffStatus   Opcode = 0x8204
)

// Light HSL opcodes.
const (
	OpHSLSetUnack Opcode = 0x8277
)

// Sensor opcodes.
const (
	OpSensorGet    Opcode = 0x8231
	OpSensorStatus Opcode = 0x52
)

// rfuOpcode is the reserved 1-byte opcode.
const rfuOpcode = 0x7F

// Len returns the encoded length of the opcode in bytes.
func (o Opcode) Len() int {
	switch {
	case o <= 0x7E:
		return 1
	case o >= 0x8000 && o <= 0xBFFF:
		return 2
	case o >= 0xC00000 && o <= 0xFFFFFF:
		return 3
	default:
		return 0
	}
}

// Valid reports whether the opcode has a legal encoding.
func (o Opcode) Valid() bool {
	return o.Len() != 0
}

// String returns the opcode name.
func (o Opcode) String() string {
	switch o {
	case OpOnOffGet:
		return "ONOFF_GET"
	case OpOnOffSet:
		return "ONOFF_SET"
	case OpOnOffSetUnack:
		return "ONOFF_SET_UNACK"
	case OpOnOffStatus:
		return "ONOFF_STATUS"
	case OpHSLSetUnack:
		return "HSL_SET_UNACK"
	case OpSensorGet:
		return "SENSOR_GET"
	case OpSensorStatus:
		return "SENSOR_STATUS"
	default:
		return fmt.Sprintf("0x%X", uint32(o))
	}
}

// AppendOpcode appends the encoded opcode to buf.
func AppendOpcode(buf []byte, op Opcode) ([]byte, error) {
	switch op.Len() {
	case 1:
		return append(buf, byte(op)), nil
	case 2:
		return append(buf, byte(op>>8), byte(op)), nil
	case 3:
		return append(buf, byte(op>>16), byte(op>>8), byte(op)), nil
	default:
		return buf, fmt.Errorf("%w: opcode 0x%X", ErrInvalidOpcode, uint32(op))
	}
}

// SplitOpcode parses the opcode prefix of an access message and returns the
// opcode and the remaining parameters. The parameters alias access.
func SplitOpcode(access []byte) (Opcode, []byte, error) {
	if len(access) == 0 {
		return 0, nil, fmt.Errorf("%w: empty access message", ErrInvalidOpcode)
	}

	first := access[0]
	switch {
	case first == rfuOpcode:
		return 0, nil, fmt.Errorf("%w: reserved opcode 0x7F", ErrInvalidOpcode)
	case first&0x80 == 0:
		return Opcode(first), access[1:], nil
	case first&0xC0 == 0x80:
		if len(access) < 2 {
			return 0, nil, fmt.Errorf("%w: truncated 2-byte opcode", ErrInvalidOpcode)
		}
		return Opcode(first)<<8 | Opcode(access[1]), access[2:], nil
	default:
		if len(access) < 3 {
			return 0, nil, fmt.Errorf("%w: truncated vendor opcode", ErrInvalidOpcode)
		}
		return Opcode(first)<<16 | Opcode(access[1])<<8 | Opcode(access[2]), access[3:], nil
	}
}

// NewMessage builds an access message from an opcode and its parameters.
func NewMessage(op Opcode, params []byte) ([]byte, error) {
	buf := make([]byte, 0, op.Len()+len(params))
	buf, err := AppendOpcode(buf, op)
	if err != nil {
		return nil, err
	}
	return append(buf, params...), nil
}
