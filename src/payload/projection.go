package payload

import (
	"fmt"

	"github.com/mosaicnetworks/relay/src/crypto"
)

// Projector derives recipient-scoped views of a payload. A payload leaving
// this node for recipient R must never carry another recipient's box or key,
// so every outbound payload goes through a Projector first.
type Projector interface {
	ForRecipient(p *EncodedPayload, key crypto.PublicKey) (*EncodedPayload, error)
	WithRecipient(p *EncodedPayload, key crypto.PublicKey) (*EncodedPayload, error)
}

// ForRecipient returns a copy of p holding only key and the box at key's
// position. It fails if key is not a recipient of p.
func ForRecipient(p *EncodedPayload, key crypto.PublicKey) (*EncodedPayload, error) {
	idx := crypto.IndexOfKey(p.recipientKeys, key)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s is not a recipient of transaction %s",
			ErrInvalidRecipient, key, p.MessageHash())
	}

	return BuilderFrom(p).
		WithRecipientKeys([]crypto.PublicKey{key}).
		WithRecipientBoxes([][]byte{p.recipientBoxes[idx]}).
		Build()
}

// WithRecipient attaches a recipient key to a payload stored without one,
// typically after the key was recovered by trial decryption. The payload must
// have no recipient keys and exactly one box.
func WithRecipient(p *EncodedPayload, key crypto.PublicKey) (*EncodedPayload, error) {
	if len(p.recipientKeys) != 0 {
		return nil, fmt.Errorf("%w: transaction %s already has recipients",
			ErrInvalidRecipient, p.MessageHash())
	}
	if len(p.recipientBoxes) != 1 {
		return nil, fmt.Errorf("%w: transaction %s has %d boxes, want 1",
			ErrInvalidRecipient, p.MessageHash(), len(p.recipientBoxes))
	}

	return BuilderFrom(p).
		WithRecipientKeys([]crypto.PublicKey{key}).
		Build()
}
