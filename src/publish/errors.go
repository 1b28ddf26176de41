package publish

import (
	"fmt"

	"github.com/mosaicnetworks/relay/src/crypto"
)

// KeyNotFoundError is returned when no known peer owns a recipient key. It is
// a property of the payload, not of the network, so the fan-out returns it
// as is.
type KeyNotFoundError struct {
	Key crypto.PublicKey
}

// Error implements the error interface.
func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("recipient %s not found", e.Key)
}

// AsyncDeliveryError reports that a fan-out did not reach every recipient.
// Cause is the first failure observed, or the context error when the caller
// stopped waiting.
type AsyncDeliveryError struct {
	Cause error
}

// Error implements the error interface.
func (e *AsyncDeliveryError) Error() string {
	return fmt.Sprintf("fan-out delivery incomplete: %v", e.Cause)
}

// Unwrap returns Cause.
func (e *AsyncDeliveryError) Unwrap() error {
	return e.Cause
}
