package payload

import (
	"errors"
	"fmt"
)

var (
	// ErrDecodeFormat is matched by every DecodeFormatError.
	ErrDecodeFormat = errors.New("payload does not match any known format")

	// ErrInvalidPayload is returned when a Builder is asked to produce a
	// payload that breaks one of the payload invariants.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrInvalidRecipient is returned when a projection names a recipient the
	// payload cannot be projected for.
	ErrInvalidRecipient = errors.New("invalid recipient")
)

// DecodeFormatError reports bytes that cannot be decoded. Offset is the
// position in the input where decoding stopped.
type DecodeFormatError struct {
	Offset int
	Reason string
}

// Error implements the error interface.
func (e *DecodeFormatError) Error() string {
	return fmt.Sprintf("%s: %s at offset %d", ErrDecodeFormat, e.Reason, e.Offset)
}

// Is makes errors.Is(err, ErrDecodeFormat) true for any DecodeFormatError.
func (e *DecodeFormatError) Is(target error) bool {
	return target == ErrDecodeFormat
}
