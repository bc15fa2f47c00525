// Package wire defines the binary access-layer formats of the mesh models.
//
// Every access message is an opcode followed by a fixed little-endian
// parameter layout. The opcode is 1, 2 or 3 bytes long and its length is
// encoded in its top bits:
//
//	0xxxxxxx                    1-byte opcode (0x7F reserved)
//	10xxxxxx xxxxxxxx           2-byte opcode
//	11xxxxxx xxxxxxxx xxxxxxxx  3-byte vendor opcode
//
// # Model Payloads
//
//	OnOff Set / Set Unack   state(1) tid(1)
//	OnOff Status            state(1)
//	Light HSL Set Unack     lightness(2) hue(2) saturation(2) [tid(1)]
//	Sensor Status           (id(2) value(2)) x1 or x3
//	Relayed Sensor Status   Sensor Status + original destination(2)
//
// # Malformed Messages
//
// Decoders never panic. A length outside the layout, or a sensor reading whose
// id fails the expected-id cross-check, yields an error wrapping ErrMalformed
// and no partial result.
package wire
