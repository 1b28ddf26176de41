package resend

import (
	"errors"
	"sync"

	"github.com/mosaicnetworks/relay/src/crypto"
	"github.com/mosaicnetworks/relay/src/enclave"
	"github.com/mosaicnetworks/relay/src/payload"
	"github.com/mosaicnetworks/relay/src/publish"
	"github.com/mosaicnetworks/relay/src/store"
	"github.com/sirupsen/logrus"
)

// DefaultPageSize is the number of transactions read from the store at a
// time.
const DefaultPageSize = 10000

// BatchResendManager implements batch resend and the staging of inbound
// resend batches.
type BatchResendManager struct {
	enclave   enclave.Enclave
	txs       store.TransactionStore
	staging   store.StagingStore
	publisher publish.BatchPublisher
	codec     payload.Codec

	pageSize         int
	skipUnresolvable bool

	// one import at a time
	importLock sync.Mutex

	logger *logrus.Entry
}

// NewBatchResendManager creates a BatchResendManager. When skipUnresolvable
// is false, a payload that cannot be decoded or projected aborts the resend.
// When it is true, the payload is logged and skipped.
func NewBatchResendManager(
	enc enclave.Enclave,
	txs store.TransactionStore,
	staging store.StagingStore,
	publisher publish.BatchPublisher,
	pageSize int,
	skipUnresolvable bool,
	logger *logrus.Entry,
) *BatchResendManager {

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	return &BatchResendManager{
		enclave:          enc,
		txs:              txs,
		staging:          staging,
		publisher:        publisher,
		codec:            payload.Current,
		pageSize:         pageSize,
		skipUnresolvable: skipUnresolvable,
		logger:           logger.WithField("component", "resend"),
	}
}

// WithCodec makes the manager read and write payloads in the format of codec
// instead of the current generation.
func (m *BatchResendManager) WithCodec(codec payload.Codec) *BatchResendManager {
	m.codec = codec
	return m
}

// ResendBatch publishes, in batches of batchSize, every stored payload that
// targetKey is entitled to, projected for targetKey. That is every payload
// this node sent to targetKey, and every payload targetKey sent to this node.
// A batchSize of zero or less means DefaultPageSize. It returns the number of
// payloads processed.
func (m *BatchResendManager) ResendBatch(targetKey crypto.PublicKey, batchSize int) (int, error) {
	if m.enclave.Status() != enclave.Running {
		return 0, enclave.ErrEnclaveUnavailable
	}
	if batchSize <= 0 {
		batchSize = DefaultPageSize
	}

	logger := m.logger.WithField("target", targetKey.String())
	logger.Info("Resend started")

	localKeys := m.enclave.PublicKeys()
	send := func(batch []*payload.EncodedPayload) error {
		return m.publisher.PublishBatch(batch, targetKey)
	}

	acc := newAccumulator(batchSize)
	pages := 0

	for offset := 0; ; offset += m.pageSize {
		count, err := m.txs.TransactionCount()
		if err != nil {
			return acc.total, err
		}
		if offset >= count {
			break
		}

		page, err := m.txs.RetrieveTransactions(offset, m.pageSize)
		if err != nil {
			return acc.total, err
		}
		pages++

		for _, tx := range page {
			view, ok, err := m.resolve(tx, targetKey, localKeys)
			if err != nil {
				if !m.skipUnresolvable || errors.Is(err, enclave.ErrEnclaveUnavailable) {
					logger.WithError(err).WithField("hash", tx.Hash.String()).Error("Resend aborted")
					return acc.total, err
				}
				logger.WithError(err).WithField("hash", tx.Hash.String()).Warn("Skipping transaction")
				continue
			}
			if !ok {
				continue
			}

			acc = acc.add(view)
			if acc.full() {
				if acc, err = acc.flush(send); err != nil {
					return acc.total, err
				}
			}
		}
	}

	acc, err := acc.flush(send)
	if err != nil {
		return acc.total, err
	}

	logger.WithFields(logrus.Fields{
		"total": acc.total,
		"pages": pages,
	}).Info("Resend finished")

	return acc.total, nil
}

// resolve decodes tx and returns the view of it to send to target, or false
// if target is not entitled to it.
func (m *BatchResendManager) resolve(tx *store.EncryptedTransaction,
	target crypto.PublicKey,
	localKeys []crypto.PublicKey) (*payload.EncodedPayload, bool, error) {

	p, err := m.codec.Decode(tx.EncodedPayload)
	if err != nil {
		return nil, false, err
	}

	sentByTarget := p.SenderKey().Equal(target)
	sentToTarget := p.HasRecipient(target) && crypto.ContainsKey(localKeys, p.SenderKey())
	if !sentByTarget && !sentToTarget {
		return nil, false, nil
	}

	if !sentByTarget {
		view, err := m.codec.ForRecipient(p, target)
		return view, err == nil, err
	}

	if len(p.RecipientKeys()) > 0 {
		return p, true, nil
	}

	key, err := m.findRecipient(p, localKeys)
	if err != nil {
		return nil, false, err
	}
	view, err := m.codec.WithRecipient(p, key)
	return view, err == nil, err
}

// findRecipient returns the first local key able to open p. Keys are tried
// one after the other in enclave order.
func (m *BatchResendManager) findRecipient(p *payload.EncodedPayload, localKeys []crypto.PublicKey) (crypto.PublicKey, error) {
	for _, k := range localKeys {
		_, err := m.enclave.UnencryptTransaction(p, k)
		if err == nil {
			return k, nil
		}
		if errors.Is(err, enclave.ErrEnclaveUnavailable) {
			return nil, err
		}
		m.logger.WithError(err).WithField("key", k.String()).Debug("Trial decryption missed")
	}
	return nil, &RecipientKeyNotFoundError{Hash: p.MessageHash()}
}

// StoreResendBatch decodes every payload of an inbound resend batch and
// stages it. It returns the number of payloads staged. Imports never run
// concurrently with each other.
func (m *BatchResendManager) StoreResendBatch(encoded [][]byte) (int, error) {
	m.importLock.Lock()
	defer m.importLock.Unlock()

	staged := 0
	received := map[string]int{}
	for _, raw := range encoded {
		p, err := m.codec.Decode(raw)
		if err != nil {
			return staged, err
		}
		received[receivedGeneration(raw)]++

		for _, st := range store.StagingTransactionsFromPayload(p, m.codec) {
			if err := m.staging.Save(st); err != nil {
				return staged, err
			}
		}
		staged++
	}

	m.logger.WithFields(logrus.Fields{
		"staged":   staged,
		"received": received,
	}).Debug("Stored resend batch")

	return staged, nil
}

// receivedGeneration names the oldest generation able to carry raw, or
// "unknown" when the current decoder rejects it.
func receivedGeneration(raw []byte) string {
	g, err := payload.DetectGeneration(raw)
	if err != nil {
		return "unknown"
	}
	return g.String()
}
