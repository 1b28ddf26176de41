package resend

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mosaicnetworks/relay/src/common"
	"github.com/mosaicnetworks/relay/src/crypto"
	"github.com/mosaicnetworks/relay/src/crypto/keys"
	"github.com/mosaicnetworks/relay/src/enclave"
	"github.com/mosaicnetworks/relay/src/payload"
	"github.com/mosaicnetworks/relay/src/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagingStore records the pages read from an InmemStore.
type pagingStore struct {
	*store.InmemStore
	mu    sync.Mutex
	pages []int
}

func (s *pagingStore) RetrieveTransactions(offset, limit int) ([]*store.EncryptedTransaction, error) {
	res, err := s.InmemStore.RetrieveTransactions(offset, limit)
	s.mu.Lock()
	s.pages = append(s.pages, len(res))
	s.mu.Unlock()
	return res, err
}

// recordingPublisher records every batch it is given.
type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]*payload.EncodedPayload
	targets []crypto.PublicKey
	err     error
}

func (r *recordingPublisher) PublishBatch(batch []*payload.EncodedPayload, recipient crypto.PublicKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]*payload.EncodedPayload, len(batch))
	copy(cp, batch)
	r.batches = append(r.batches, cp)
	r.targets = append(r.targets, recipient)
	return r.err
}

func (r *recordingPublisher) sizes() []int {
	res := make([]int, len(r.batches))
	for i, b := range r.batches {
		res[i] = len(b)
	}
	return res
}

func (r *recordingPublisher) all() []*payload.EncodedPayload {
	var res []*payload.EncodedPayload
	for _, b := range r.batches {
		res = append(res, b...)
	}
	return res
}

// staticEnclave is a running enclave that holds keys but cannot decrypt.
type staticEnclave struct {
	status enclave.Status
	keys   []crypto.PublicKey
}

func (e *staticEnclave) Status() enclave.Status { return e.status }

func (e *staticEnclave) PublicKeys() []crypto.PublicKey { return e.keys }

func (e *staticEnclave) UnencryptTransaction(p *payload.EncodedPayload, k crypto.PublicKey) ([]byte, error) {
	return nil, enclave.ErrDecryption
}

func (e *staticEnclave) EncryptPayload(m []byte, s crypto.PublicKey, r []crypto.PublicKey, o enclave.EncryptOptions) (*payload.EncodedPayload, error) {
	return nil, errors.New("not implemented")
}

var (
	localKey  = crypto.PublicKey("LOCAL")
	targetKey = crypto.PublicKey("TARGET")
	otherKey  = crypto.PublicKey("OTHER")
)

func save(t *testing.T, s store.TransactionStore, p *payload.EncodedPayload, g payload.Generation) {
	require.NoError(t, s.Save(&store.EncryptedTransaction{
		Hash:           p.MessageHash(),
		EncodedPayload: g.Encode(p),
	}))
}

func sentPayload(t *testing.T, i int, sender crypto.PublicKey, recipients ...crypto.PublicKey) *payload.EncodedPayload {
	b := payload.NewBuilder().
		WithSenderKey(sender).
		WithCipherText([]byte(fmt.Sprintf("cipher-%d", i)))
	for _, r := range recipients {
		b.WithRecipientKey(r).WithRecipientBox(payload.RecipientBox("box-" + string(r)))
	}
	p, err := b.Build()
	require.NoError(t, err)
	return p
}

func newManager(t *testing.T, enc enclave.Enclave, txs store.TransactionStore, pub *recordingPublisher, skip bool) *BatchResendManager {
	return NewBatchResendManager(enc, txs, store.NewInmemStore().Staging(), pub, 10000, skip, common.NewTestEntry(t, common.TestLogLevel))
}

func TestResendBatchPagination(t *testing.T) {
	txs := &pagingStore{InmemStore: store.NewInmemStore()}
	for i := 0; i < 25000; i++ {
		save(t, txs, sentPayload(t, i, localKey, otherKey, targetKey), payload.Current)
	}

	pub := &recordingPublisher{}
	enc := &staticEnclave{status: enclave.Running, keys: []crypto.PublicKey{localKey}}

	total, err := newManager(t, enc, txs, pub, false).ResendBatch(targetKey, 3000)
	require.NoError(t, err)

	assert.Equal(t, 25000, total)
	assert.Equal(t, []int{10000, 10000, 5000}, txs.pages)
	assert.Equal(t, []int{3000, 3000, 3000, 3000, 3000, 3000, 3000, 3000, 1000}, pub.sizes())

	// every payload leaves projected for the target only
	for _, p := range pub.all() {
		require.Len(t, p.RecipientBoxes(), 1)
		assert.True(t, p.RecipientBoxes()[0].Equal(payload.RecipientBox("box-TARGET")))
		assert.Equal(t, []crypto.PublicKey{targetKey}, p.RecipientKeys())
	}
	for _, r := range pub.targets {
		assert.Equal(t, targetKey, r)
	}
}

func TestResendBatchFilter(t *testing.T) {
	txs := store.NewInmemStore()

	// sent by us to the target: resent
	save(t, txs, sentPayload(t, 0, localKey, targetKey), payload.Current)
	// sent by us to someone else: not resent
	save(t, txs, sentPayload(t, 1, localKey, otherKey), payload.Current)
	// sent by the target to us: resent as is
	fromTarget := sentPayload(t, 2, targetKey, localKey)
	save(t, txs, fromTarget, payload.Legacy)
	// sent by someone else to the target: not ours to resend
	save(t, txs, sentPayload(t, 3, otherKey, targetKey), payload.Current)

	pub := &recordingPublisher{}
	enc := &staticEnclave{status: enclave.Running, keys: []crypto.PublicKey{localKey}}

	total, err := newManager(t, enc, txs, pub, false).ResendBatch(targetKey, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	sent := pub.all()
	require.Len(t, sent, 2)
	assert.Equal(t, []byte("cipher-0"), sent[0].CipherText())
	assert.True(t, fromTarget.Equal(sent[1]))
}

func TestResendBatchEnclaveStopped(t *testing.T) {
	pub := &recordingPublisher{}
	enc := &staticEnclave{status: enclave.Stopped}

	_, err := newManager(t, enc, store.NewInmemStore(), pub, false).ResendBatch(targetKey, 10)
	assert.True(t, errors.Is(err, enclave.ErrEnclaveUnavailable))
	assert.Empty(t, pub.batches)
}

func TestResendBatchPublishError(t *testing.T) {
	txs := store.NewInmemStore()
	save(t, txs, sentPayload(t, 0, localKey, targetKey), payload.Current)

	pub := &recordingPublisher{err: errors.New("peer unreachable")}
	enc := &staticEnclave{status: enclave.Running, keys: []crypto.PublicKey{localKey}}

	_, err := newManager(t, enc, txs, pub, false).ResendBatch(targetKey, 10)
	assert.EqualError(t, err, "peer unreachable")
}

func TestResendBatchUndecodable(t *testing.T) {
	txs := store.NewInmemStore()
	save(t, txs, sentPayload(t, 0, localKey, targetKey), payload.Current)
	require.NoError(t, txs.Save(&store.EncryptedTransaction{
		Hash:           crypto.NewMessageHash([]byte("junk")),
		EncodedPayload: []byte("junk"),
	}))
	save(t, txs, sentPayload(t, 2, localKey, targetKey), payload.Current)

	enc := &staticEnclave{status: enclave.Running, keys: []crypto.PublicKey{localKey}}

	pub := &recordingPublisher{}
	_, err := newManager(t, enc, txs, pub, false).ResendBatch(targetKey, 10)
	assert.True(t, errors.Is(err, payload.ErrDecodeFormat))
	assert.Empty(t, pub.batches)

	pub = &recordingPublisher{}
	total, err := newManager(t, enc, txs, pub, true).ResendBatch(targetKey, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []int{2}, pub.sizes())
}

func generate(t *testing.T) *keys.KeyPair {
	kp, err := keys.GenerateKeyPair()
	require.NoError(t, err)
	return kp
}

func TestResendBatchTrialDecryption(t *testing.T) {
	target := generate(t)
	local1 := generate(t)
	local2 := generate(t)
	stranger := generate(t)

	sender := enclave.NewNaclEnclave([]*keys.KeyPair{target}, common.NewTestEntry(t, common.TestLogLevel))
	sender.Start()
	local := enclave.NewNaclEnclave([]*keys.KeyPair{local1, local2}, common.NewTestEntry(t, common.TestLogLevel))
	local.Start()

	stripped := func(recipient crypto.PublicKey) *payload.EncodedPayload {
		p, err := sender.EncryptPayload([]byte("secret"), target.Public, []crypto.PublicKey{recipient}, enclave.EncryptOptions{})
		require.NoError(t, err)
		p, err = payload.BuilderFrom(p).WithRecipientKeys(nil).Build()
		require.NoError(t, err)
		return p
	}

	txs := store.NewInmemStore()
	save(t, txs, stripped(local2.Public), payload.Legacy)

	pub := &recordingPublisher{}
	total, err := newManager(t, local, txs, pub, false).ResendBatch(target.Public, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	sent := pub.all()
	require.Len(t, sent, 1)
	assert.Equal(t, []crypto.PublicKey{local2.Public}, sent[0].RecipientKeys())

	// a payload no local key can open
	lost := stripped(stranger.Public)
	save(t, txs, lost, payload.Legacy)

	pub = &recordingPublisher{}
	_, err = newManager(t, local, txs, pub, false).ResendBatch(target.Public, 10)
	var rknf *RecipientKeyNotFoundError
	require.True(t, errors.As(err, &rknf))
	assert.Equal(t, lost.MessageHash(), rknf.Hash)

	pub = &recordingPublisher{}
	total, err = newManager(t, local, txs, pub, true).ResendBatch(target.Public, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestStoreResendBatch(t *testing.T) {
	staging := store.NewInmemStore().Staging()
	m := NewBatchResendManager(&staticEnclave{status: enclave.Running}, store.NewInmemStore(), staging, &recordingPublisher{}, 0, false, common.NewTestEntry(t, common.TestLogLevel))

	withAffected, err := payload.BuilderFrom(sentPayload(t, 0, targetKey, localKey)).
		WithPrivacyMode(payload.PartyProtection).
		WithAffectedContractTransactions(map[payload.TxHash]payload.SecurityHash{
			payload.TxHash("affected"): payload.SecurityHash("sec"),
		}).
		Build()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			batch := [][]byte{
				payload.Legacy.Encode(sentPayload(t, 100+i, targetKey, localKey)),
				payload.V2.Encode(withAffected),
			}
			n, err := m.StoreResendBatch(batch)
			assert.NoError(t, err)
			assert.Equal(t, 2, n)
		}(i)
	}
	wg.Wait()

	// 4 distinct payloads, the shared one, and its placeholder
	count, err := staging.Count()
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	main, err := staging.Get(withAffected.MessageHash().String())
	require.NoError(t, err)
	assert.False(t, main.Placeholder)
	assert.Equal(t, payload.PartyProtection, main.PrivacyMode)

	_, err = m.StoreResendBatch([][]byte{[]byte("junk")})
	assert.True(t, errors.Is(err, payload.ErrDecodeFormat))
}

func TestStoreResendBatchWithCodec(t *testing.T) {
	staging := store.NewInmemStore().Staging()
	m := NewBatchResendManager(&staticEnclave{status: enclave.Running}, store.NewInmemStore(), staging, &recordingPublisher{}, 0, false, common.NewTestEntry(t, common.TestLogLevel)).
		WithCodec(payload.Legacy)

	p, err := payload.BuilderFrom(sentPayload(t, 0, targetKey, localKey)).
		WithPrivacyGroupID(crypto.PublicKey("group")).
		Build()
	require.NoError(t, err)

	// a legacy node reads the legacy section and ignores the rest
	n, err := m.StoreResendBatch([][]byte{payload.V3.Encode(p)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	st, err := staging.Get(p.MessageHash().String())
	require.NoError(t, err)
	assert.Equal(t, payload.Legacy.Encode(p), st.Payload)
}

func TestResendBatchDefaultBatchSize(t *testing.T) {
	txs := store.NewInmemStore()
	for i := 0; i < DefaultPageSize+1; i++ {
		save(t, txs, sentPayload(t, i, localKey, targetKey), payload.Current)
	}

	pub := &recordingPublisher{}
	enc := &staticEnclave{status: enclave.Running, keys: []crypto.PublicKey{localKey}}

	total, err := newManager(t, enc, txs, pub, false).ResendBatch(targetKey, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize+1, total)
	assert.Equal(t, []int{DefaultPageSize, 1}, pub.sizes())
}

func TestReceivedGeneration(t *testing.T) {
	p := sentPayload(t, 0, targetKey, localKey)

	assert.Equal(t, "legacy", receivedGeneration(payload.Legacy.Encode(p)))
	assert.Equal(t, "v2", receivedGeneration(payload.V2.Encode(p)))
	assert.Equal(t, "unknown", receivedGeneration([]byte("junk")))
}

// blockingStaging holds every Save until release receives, and records the
// highest number of Saves in progress at once.
type blockingStaging struct {
	store.StagingStore
	entered chan struct{}
	release chan struct{}

	mu        sync.Mutex
	active    int
	maxActive int
}

func (s *blockingStaging) Save(st *store.StagingTransaction) error {
	s.mu.Lock()
	s.active++
	if s.active > s.maxActive {
		s.maxActive = s.active
	}
	s.mu.Unlock()

	s.entered <- struct{}{}
	<-s.release

	s.mu.Lock()
	s.active--
	s.mu.Unlock()

	return s.StagingStore.Save(st)
}

func TestStoreResendBatchSerialized(t *testing.T) {
	staging := &blockingStaging{
		StagingStore: store.NewInmemStore().Staging(),
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	m := NewBatchResendManager(&staticEnclave{status: enclave.Running}, store.NewInmemStore(), staging, &recordingPublisher{}, 0, false, common.NewTestEntry(t, common.TestLogLevel))

	var wg sync.WaitGroup
	importBatch := func(i int) {
		defer wg.Done()
		n, err := m.StoreResendBatch([][]byte{payload.Current.Encode(sentPayload(t, i, targetKey, localKey))})
		assert.NoError(t, err)
		assert.Equal(t, 1, n)
	}

	wg.Add(2)
	go importBatch(0)
	<-staging.entered

	go importBatch(1)
	select {
	case <-staging.entered:
		t.Fatal("second import saved while the first was in progress")
	case <-time.After(100 * time.Millisecond):
	}

	staging.release <- struct{}{}

	// the second import saves once the first has released the lock
	<-staging.entered
	staging.release <- struct{}{}

	wg.Wait()
	assert.Equal(t, 1, staging.maxActive)

	count, err := staging.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
