package enclave

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/mosaicnetworks/relay/src/crypto"
	"github.com/mosaicnetworks/relay/src/crypto/keys"
	"github.com/mosaicnetworks/relay/src/payload"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/secretbox"
)

// NaclEnclave is an Enclave backed by an in-memory set of Curve25519 key
// pairs.
type NaclEnclave struct {
	keys   []*keys.KeyPair
	byKey  map[string]*keys.KeyPair
	status uint32
	rand   io.Reader
	logger *logrus.Entry
}

// NewNaclEnclave creates a stopped enclave holding keyPairs. Call Start
// before using it.
func NewNaclEnclave(keyPairs []*keys.KeyPair, logger *logrus.Entry) *NaclEnclave {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	e := &NaclEnclave{
		keys:   keyPairs,
		byKey:  make(map[string]*keys.KeyPair, len(keyPairs)),
		rand:   rand.Reader,
		logger: logger.WithField("component", "enclave"),
	}
	for _, kp := range keyPairs {
		e.byKey[kp.Public.String()] = kp
	}
	return e
}

// Start puts the enclave in the Running state.
func (e *NaclEnclave) Start() {
	atomic.StoreUint32(&e.status, uint32(Running))
	e.logger.WithField("keys", len(e.keys)).Debug("Enclave running")
}

// Stop puts the enclave in the Stopped state.
func (e *NaclEnclave) Stop() {
	atomic.StoreUint32(&e.status, uint32(Stopped))
	e.logger.Debug("Enclave stopped")
}

// Status implements Enclave.
func (e *NaclEnclave) Status() Status {
	return Status(atomic.LoadUint32(&e.status))
}

// PublicKeys implements Enclave. Keys are returned in the order they were
// loaded.
func (e *NaclEnclave) PublicKeys() []crypto.PublicKey {
	res := make([]crypto.PublicKey, len(e.keys))
	for i, kp := range e.keys {
		res[i] = kp.Public
	}
	return res
}

// EncryptPayload implements Enclave. A fresh master key seals the message and
// is itself sealed once per recipient.
func (e *NaclEnclave) EncryptPayload(message []byte,
	sender crypto.PublicKey,
	recipients []crypto.PublicKey,
	opts EncryptOptions) (*payload.EncodedPayload, error) {

	if e.Status() != Running {
		return nil, ErrEnclaveUnavailable
	}

	senderPair, ok := e.byKey[sender.String()]
	if !ok {
		return nil, fmt.Errorf("%w: sender %s", ErrUnknownKey, sender)
	}

	var masterKey [crypto.KeySize]byte
	var nonce, recipientNonce [crypto.NonceSize]byte
	for _, b := range [][]byte{masterKey[:], nonce[:], recipientNonce[:]} {
		if _, err := io.ReadFull(e.rand, b); err != nil {
			return nil, err
		}
	}

	cipherText := secretbox.Seal(nil, message, &nonce, &masterKey)

	builder := payload.NewBuilder().
		WithSenderKey(sender).
		WithCipherText(cipherText).
		WithCipherTextNonce(crypto.Nonce(nonce[:])).
		WithRecipientNonce(crypto.Nonce(recipientNonce[:])).
		WithPrivacyMode(opts.PrivacyMode).
		WithAffectedContractTransactions(opts.AffectedContractTransactions).
		WithExecHash(opts.ExecHash).
		WithPrivacyGroupID(opts.PrivacyGroupID)

	for _, r := range recipients {
		recipientPub, err := r.Array()
		if err != nil {
			return nil, err
		}
		var shared [crypto.KeySize]byte
		box.Precompute(&shared, recipientPub, senderPair.Private)

		sealed := box.SealAfterPrecomputation(nil, masterKey[:], &recipientNonce, &shared)
		builder.WithRecipientKey(r).WithRecipientBox(payload.RecipientBox(sealed))
	}

	return builder.Build()
}

// UnencryptTransaction implements Enclave.
func (e *NaclEnclave) UnencryptTransaction(p *payload.EncodedPayload, providedKey crypto.PublicKey) ([]byte, error) {
	if e.Status() != Running {
		return nil, ErrEnclaveUnavailable
	}

	var localKey, remoteKey crypto.PublicKey
	if _, local := e.byKey[p.SenderKey().String()]; !local {
		// received from another node
		remoteKey = p.SenderKey()
		localKey = providedKey
	} else {
		localKey = p.SenderKey()
		remoteKey = providedKey
		if rk := p.RecipientKeys(); len(rk) > 0 {
			remoteKey = rk[0]
		}
	}

	localPair, ok := e.byKey[localKey.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, localKey)
	}
	remotePub, err := remoteKey.Array()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	boxes := p.RecipientBoxes()
	if len(boxes) == 0 {
		return nil, fmt.Errorf("%w: payload has no recipient box", ErrDecryption)
	}
	recipientNonce, err := p.RecipientNonce().Array()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	nonce, err := p.CipherTextNonce().Array()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	var shared [crypto.KeySize]byte
	box.Precompute(&shared, remotePub, localPair.Private)

	rawMaster, ok := box.OpenAfterPrecomputation(nil, boxes[0], recipientNonce, &shared)
	if !ok || len(rawMaster) != crypto.KeySize {
		return nil, fmt.Errorf("%w: cannot open recipient box with %s", ErrDecryption, providedKey)
	}
	var masterKey [crypto.KeySize]byte
	copy(masterKey[:], rawMaster)

	message, ok := secretbox.Open(nil, p.CipherText(), nonce, &masterKey)
	if !ok {
		return nil, fmt.Errorf("%w: cannot open cipher text", ErrDecryption)
	}
	return message, nil
}
