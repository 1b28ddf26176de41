package transaction

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mosaicnetworks/relay/src/common"
	"github.com/mosaicnetworks/relay/src/crypto"
	"github.com/mosaicnetworks/relay/src/enclave"
	"github.com/mosaicnetworks/relay/src/payload"
	"github.com/mosaicnetworks/relay/src/store"
	"github.com/sirupsen/logrus"
)

// FanOut delivers a payload to many recipients. *publish.AsyncPublisher is a
// FanOut.
type FanOut interface {
	PublishPayload(ctx context.Context, p *payload.EncodedPayload, recipients []crypto.PublicKey) error
}

// SendRequest describes a new private transaction.
type SendRequest struct {
	Payload []byte
	// From defaults to the first local key.
	From crypto.PublicKey
	To   []crypto.PublicKey

	PrivacyMode                  payload.PrivacyMode
	AffectedContractTransactions []crypto.MessageHash
	ExecHash                     []byte
	PrivacyGroupID               crypto.PublicKey
}

// Manager creates, stores and opens private transactions.
type Manager struct {
	enclave enclave.Enclave
	txs     store.TransactionStore
	fanOut  FanOut
	codec   payload.Codec

	// serialises merges of inbound copies
	storeLock sync.Mutex

	logger *logrus.Entry
}

// NewManager ...
func NewManager(enc enclave.Enclave, txs store.TransactionStore, fanOut FanOut, logger *logrus.Entry) *Manager {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	return &Manager{
		enclave: enc,
		txs:     txs,
		fanOut:  fanOut,
		codec:   payload.Current,
		logger:  logger.WithField("component", "transaction"),
	}
}

// WithCodec makes the manager read and write payloads in the format of codec
// instead of the current generation.
func (m *Manager) WithCodec(codec payload.Codec) *Manager {
	m.codec = codec
	return m
}

// Send encrypts req.Payload for its recipients and the sender, stores the
// result and publishes it to every recipient that is not a local key. The
// transaction stays stored when publishing fails.
func (m *Manager) Send(ctx context.Context, req *SendRequest) (crypto.MessageHash, error) {
	localKeys := m.enclave.PublicKeys()

	sender := req.From
	if len(sender) == 0 {
		if len(localKeys) == 0 {
			return nil, enclave.ErrUnknownKey
		}
		sender = localKeys[0]
	}

	recipients := make([]crypto.PublicKey, 0, len(req.To)+1)
	for _, r := range req.To {
		if !crypto.ContainsKey(recipients, r) {
			recipients = append(recipients, r)
		}
	}
	if !crypto.ContainsKey(recipients, sender) {
		recipients = append(recipients, sender)
	}

	acts, err := m.securityHashes(req.AffectedContractTransactions)
	if err != nil {
		return nil, err
	}

	p, err := m.enclave.EncryptPayload(req.Payload, sender, recipients, enclave.EncryptOptions{
		PrivacyMode:                  req.PrivacyMode,
		AffectedContractTransactions: acts,
		ExecHash:                     req.ExecHash,
		PrivacyGroupID:               req.PrivacyGroupID,
	})
	if err != nil {
		return nil, err
	}

	hash := p.MessageHash()
	err = m.txs.Save(&store.EncryptedTransaction{
		Hash:           hash,
		EncodedPayload: m.codec.Encode(p),
	})
	if err != nil {
		return nil, err
	}

	remote := make([]crypto.PublicKey, 0, len(recipients))
	for _, r := range recipients {
		if !crypto.ContainsKey(localKeys, r) {
			remote = append(remote, r)
		}
	}

	logger := m.logger.WithFields(logrus.Fields{
		"hash":       hash.String(),
		"recipients": len(recipients),
		"remote":     len(remote),
	})

	if err := m.fanOut.PublishPayload(ctx, p, remote); err != nil {
		logger.WithError(err).Error("Publishing transaction")
		return hash, err
	}

	logger.Debug("Sent transaction")

	return hash, nil
}

// securityHashes binds every affected contract transaction to the content
// stored for it.
func (m *Manager) securityHashes(affected []crypto.MessageHash) (map[payload.TxHash]payload.SecurityHash, error) {
	if len(affected) == 0 {
		return nil, nil
	}

	res := make(map[payload.TxHash]payload.SecurityHash, len(affected))
	for _, h := range affected {
		tx, err := m.txs.Get(h)
		if err != nil {
			if common.IsStore(err, common.KeyNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownAffectedTransaction, h)
			}
			return nil, err
		}
		p, err := m.codec.Decode(tx.EncodedPayload)
		if err != nil {
			return nil, err
		}
		res[payload.TxHashFromBytes(h)] = SecurityHash(p)
	}
	return res, nil
}

// SecurityHash returns the SHA3-512 hash of the cipher text and cipher text
// nonce of p.
func SecurityHash(p *payload.EncodedPayload) payload.SecurityHash {
	data := make([]byte, 0, len(p.CipherText())+len(p.CipherTextNonce()))
	data = append(data, p.CipherText()...)
	data = append(data, p.CipherTextNonce()...)
	return payload.SecurityHash(crypto.SHA3512(data))
}

// StorePayload decodes a payload pushed by another node and stores it under
// its message hash. When a copy already exists, the recipient views are
// merged.
func (m *Manager) StorePayload(raw []byte) (crypto.MessageHash, error) {
	p, err := m.codec.Decode(raw)
	if err != nil {
		return nil, err
	}

	hash := p.MessageHash()

	if g, err := payload.DetectGeneration(raw); err == nil {
		m.logger.WithFields(logrus.Fields{
			"hash":       hash.String(),
			"generation": g.String(),
		}).Debug("Received payload")
	}

	m.storeLock.Lock()
	defer m.storeLock.Unlock()

	existing, err := m.txs.Get(hash)
	switch {
	case err == nil:
		stored, err := m.codec.Decode(existing.EncodedPayload)
		if err != nil {
			return nil, err
		}
		if p, err = merge(stored, p); err != nil {
			return nil, err
		}
	case !common.IsStore(err, common.KeyNotFound):
		return nil, err
	}

	err = m.txs.Save(&store.EncryptedTransaction{
		Hash:           hash,
		EncodedPayload: m.codec.Encode(p),
	})
	if err != nil {
		return nil, err
	}

	m.logger.WithField("hash", hash.String()).Debug("Stored payload")

	return hash, nil
}

// merge adds to stored the recipients of incoming it does not already hold.
// Payloads without recipient keys cannot be merged and stored wins.
func merge(stored, incoming *payload.EncodedPayload) (*payload.EncodedPayload, error) {
	if len(stored.RecipientKeys()) == 0 || len(incoming.RecipientKeys()) == 0 {
		return stored, nil
	}

	b := payload.BuilderFrom(stored)
	boxes := incoming.RecipientBoxes()
	for i, k := range incoming.RecipientKeys() {
		if !stored.HasRecipient(k) {
			b.WithRecipientKey(k).WithRecipientBox(boxes[i])
		}
	}
	return b.Build()
}

// Receive opens the transaction stored under hash with the box addressed to
// to. With an empty to, every local key is tried in turn.
func (m *Manager) Receive(hash crypto.MessageHash, to crypto.PublicKey) ([]byte, error) {
	tx, err := m.txs.Get(hash)
	if err != nil {
		return nil, err
	}
	p, err := m.codec.Decode(tx.EncodedPayload)
	if err != nil {
		return nil, err
	}

	candidates := []crypto.PublicKey{to}
	if len(to) == 0 {
		candidates = m.enclave.PublicKeys()
	}

	for _, k := range candidates {
		view := p
		if p.HasRecipient(k) {
			if view, err = payload.ForRecipient(p, k); err != nil {
				return nil, err
			}
		}
		message, err := m.enclave.UnencryptTransaction(view, k)
		if err == nil {
			return message, nil
		}
		if errors.Is(err, enclave.ErrEnclaveUnavailable) {
			return nil, err
		}
		m.logger.WithError(err).WithField("key", k.String()).Debug("Cannot open transaction")
	}

	return nil, fmt.Errorf("%w: %s", ErrNoLocalKey, hash)
}
