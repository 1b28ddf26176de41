package enclave

import (
	"errors"

	"github.com/mosaicnetworks/relay/src/crypto"
	"github.com/mosaicnetworks/relay/src/payload"
)

var (
	// ErrEnclaveUnavailable is returned by every operation while the enclave
	// is not Running.
	ErrEnclaveUnavailable = errors.New("enclave unavailable")

	// ErrDecryption is returned when a payload cannot be opened with the
	// provided key.
	ErrDecryption = errors.New("decryption failed")

	// ErrUnknownKey is returned when an operation names a key the enclave
	// does not hold.
	ErrUnknownKey = errors.New("key not held by enclave")
)

// Status is the lifecycle state of an Enclave.
type Status uint32

const (
	// Stopped ...
	Stopped Status = iota
	// Running ...
	Running
)

// String ...
func (s Status) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Running:
		return "Running"
	default:
		return "Unknown"
	}
}

// EncryptOptions carries the privacy metadata of a new payload.
type EncryptOptions struct {
	PrivacyMode                  payload.PrivacyMode
	AffectedContractTransactions map[payload.TxHash]payload.SecurityHash
	ExecHash                     []byte
	PrivacyGroupID               crypto.PublicKey
}

// Enclave is the contract between the node and its key material.
type Enclave interface {
	// Status returns Running when the enclave can serve requests.
	Status() Status

	// PublicKeys returns the local public keys in a stable order.
	PublicKeys() []crypto.PublicKey

	// UnencryptTransaction opens p. providedKey is the local key the payload
	// was addressed to when p came from another node, or the remote recipient
	// when p was sent by this node and carries no recipient keys.
	UnencryptTransaction(p *payload.EncodedPayload, providedKey crypto.PublicKey) ([]byte, error)

	// EncryptPayload seals message from sender, which must be a local key,
	// for every recipient.
	EncryptPayload(message []byte, sender crypto.PublicKey, recipients []crypto.PublicKey, opts EncryptOptions) (*payload.EncodedPayload, error)
}
