package resend

import (
	"fmt"

	"github.com/mosaicnetworks/relay/src/crypto"
)

// RecipientKeyNotFoundError is returned when a payload stored without
// recipient keys cannot be opened by any local key.
type RecipientKeyNotFoundError struct {
	Hash crypto.MessageHash
}

// Error implements the error interface.
func (e *RecipientKeyNotFoundError) Error() string {
	return fmt.Sprintf("no local key can open transaction %s", e.Hash)
}
