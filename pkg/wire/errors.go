package wire

import (
	"errors"
	"fmt"
)

// Codec errors.
var (
	// ErrMalformed is returned for payloads that do not match a model layout.
	ErrMalformed = errors.New("malformed message")

	// ErrUnexpectedReading is returned when a sensor reading id fails the
	// expected-id cross-check. It wraps ErrMalformed.
	ErrUnexpectedReading = fmt.Errorf("%w: unexpected reading id", ErrMalformed)

	// ErrInvalidOpcode is returned for opcodes with an illegal encoding.
	ErrInvalidOpcode = errors.New("invalid opcode")
)

func lengthError(what string, got int, want string) error {
	return fmt.Errorf("%w: %s length %d, want %s", ErrMalformed, what, got, want)
}
