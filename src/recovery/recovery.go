package recovery

import (
	"github.com/mosaicnetworks/relay/src/common"
	"github.com/mosaicnetworks/relay/src/crypto"
	"github.com/mosaicnetworks/relay/src/net"
	"github.com/mosaicnetworks/relay/src/peers"
	"github.com/mosaicnetworks/relay/src/store"
	"github.com/sirupsen/logrus"
)

// DefaultBatchSize is the batch size requested from peers.
const DefaultBatchSize = 10000

// Requester sends resend requests. net.Transport is a Requester.
type Requester interface {
	AdvertiseAddr() string
	ResendBatch(target string, args *net.ResendBatchRequest, resp *net.ResendBatchResponse) error
}

// KeyHolder lists the local public keys. enclave.Enclave is a KeyHolder.
type KeyHolder interface {
	PublicKeys() []crypto.PublicKey
}

// Recovery drives the recovery of the transaction store.
type Recovery struct {
	requester Requester
	peers     *peers.PeerSet
	keys      KeyHolder
	txs       store.TransactionStore
	staging   store.StagingStore
	batchSize int
	logger    *logrus.Entry
}

// NewRecovery ...
func NewRecovery(requester Requester,
	peerSet *peers.PeerSet,
	keys KeyHolder,
	txs store.TransactionStore,
	staging store.StagingStore,
	batchSize int,
	logger *logrus.Entry) *Recovery {

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	return &Recovery{
		requester: requester,
		peers:     peerSet,
		keys:      keys,
		txs:       txs,
		staging:   staging,
		batchSize: batchSize,
		logger:    logger.WithField("component", "recovery"),
	}
}

// Recover runs RequestResend then Sync. Sync is skipped when no resend
// request succeeded.
func (r *Recovery) Recover() Result {
	res := r.RequestResend()
	if res == Failure {
		r.logger.Error("Every resend request failed")
		return Failure
	}

	synced, unresolved, err := r.Sync()
	if err != nil {
		r.logger.WithError(err).Error("Sync failed")
		return Failure
	}
	if unresolved > 0 {
		res = res.worst(Partial)
	}

	r.logger.WithFields(logrus.Fields{
		"result":     res.String(),
		"synced":     synced,
		"unresolved": unresolved,
	}).Info("Recovery finished")

	return res
}

// RequestResend asks every peer to resend the transactions of every local
// key. It returns Success when every request succeeded, Failure when they
// all failed and Partial otherwise. With no request to make, it returns
// Success.
func (r *Recovery) RequestResend() Result {
	self := r.requester.AdvertiseAddr()
	localKeys := r.keys.PublicKeys()

	requests, failures := 0, 0
	for _, peer := range r.peers.Peers {
		if peer.NetAddr == self {
			continue
		}
		for _, k := range localKeys {
			requests++
			if err := r.request(peer, k); err != nil {
				failures++
				r.logger.WithError(err).WithFields(logrus.Fields{
					"peer": peer.NetAddr,
					"key":  k.String(),
				}).Warn("Resend request failed")
			}
		}
	}

	switch {
	case failures == 0:
		return Success
	case failures == requests:
		return Failure
	default:
		return Partial
	}
}

func (r *Recovery) request(peer *peers.Peer, key crypto.PublicKey) error {
	args := &net.ResendBatchRequest{
		FromAddr:  r.requester.AdvertiseAddr(),
		PublicKey: key,
		BatchSize: r.batchSize,
	}

	var resp net.ResendBatchResponse
	if err := r.requester.ResendBatch(peer.NetAddr, args, &resp); err != nil {
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"peer":  peer.NetAddr,
		"key":   key.String(),
		"total": resp.Total,
	}).Info("Resend request served")

	return nil
}

// Sync moves staged transactions into the transaction store. A staged
// transaction is stored once every contract transaction it affects is either
// in the transaction store or was synced before it. Synced records and the
// placeholders they resolve are removed from staging. Sync returns the number
// of transactions synced and the number left unresolved.
func (r *Recovery) Sync() (int, int, error) {
	staged, err := r.staging.Staged()
	if err != nil {
		return 0, 0, err
	}

	var pending, placeholders []*store.StagingTransaction
	for _, st := range staged {
		if st.Placeholder {
			placeholders = append(placeholders, st)
		} else {
			pending = append(pending, st)
		}
	}

	synced := make(map[string]bool)
	known := func(hash string) (bool, error) {
		if synced[hash] {
			return true, nil
		}
		h, err := crypto.MessageHashFromBase64(hash)
		if err != nil {
			return false, err
		}
		return r.stored(h)
	}

	for progress := true; progress && len(pending) > 0; {
		progress = false

		var next []*store.StagingTransaction
		for _, st := range pending {
			ready, err := allKnown(st.Affected, known)
			if err != nil {
				return len(synced), len(pending), err
			}
			if !ready {
				next = append(next, st)
				continue
			}

			if err := r.store(st); err != nil {
				return len(synced), len(pending), err
			}
			synced[st.Hash] = true
			progress = true
		}
		pending = next
	}

	for _, st := range placeholders {
		ok, err := known(st.Hash)
		if err != nil {
			return len(synced), len(pending), err
		}
		if ok {
			if err := r.staging.Delete(st.Hash); err != nil {
				return len(synced), len(pending), err
			}
		}
	}

	for _, st := range pending {
		r.logger.WithFields(logrus.Fields{
			"hash":     st.Hash,
			"affected": st.Affected,
		}).Warn("Unresolved staged transaction")
	}

	return len(synced), len(pending), nil
}

func allKnown(hashes []string, known func(string) (bool, error)) (bool, error) {
	for _, h := range hashes {
		ok, err := known(h)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (r *Recovery) stored(hash crypto.MessageHash) (bool, error) {
	_, err := r.txs.Get(hash)
	switch {
	case err == nil:
		return true, nil
	case common.IsStore(err, common.KeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

// store saves st unless a transaction with the same hash already exists,
// then drops it from staging.
func (r *Recovery) store(st *store.StagingTransaction) error {
	hash, err := st.MessageHash()
	if err != nil {
		return err
	}

	exists, err := r.stored(hash)
	if err != nil {
		return err
	}
	if !exists {
		err := r.txs.Save(&store.EncryptedTransaction{
			Hash:           hash,
			EncodedPayload: st.Payload,
		})
		if err != nil {
			return err
		}
	}

	r.logger.WithField("hash", st.Hash).Debug("Synced staged transaction")

	return r.staging.Delete(st.Hash)
}
