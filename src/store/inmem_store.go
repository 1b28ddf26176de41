package store

import (
	"sort"
	"sync"

	cm "github.com/mosaicnetworks/relay/src/common"
	"github.com/mosaicnetworks/relay/src/crypto"
)

// InmemStore implements TransactionStore and StagingStore in memory.
// Transactions are paged in insertion order.
type InmemStore struct {
	sync.RWMutex
	order   []string
	txs     map[string]*EncryptedTransaction
	staging map[string]*StagingTransaction
}

// NewInmemStore ...
func NewInmemStore() *InmemStore {
	return &InmemStore{
		txs:     make(map[string]*EncryptedTransaction),
		staging: make(map[string]*StagingTransaction),
	}
}

// TransactionCount implements TransactionStore.
func (s *InmemStore) TransactionCount() (int, error) {
	s.RLock()
	defer s.RUnlock()
	return len(s.order), nil
}

// RetrieveTransactions implements TransactionStore.
func (s *InmemStore) RetrieveTransactions(offset, limit int) ([]*EncryptedTransaction, error) {
	s.RLock()
	defer s.RUnlock()

	if offset < 0 || offset >= len(s.order) || limit <= 0 {
		return []*EncryptedTransaction{}, nil
	}
	end := offset + limit
	if end > len(s.order) {
		end = len(s.order)
	}

	res := make([]*EncryptedTransaction, 0, end-offset)
	for _, k := range s.order[offset:end] {
		res = append(res, s.txs[k])
	}
	return res, nil
}

// Save implements TransactionStore.
func (s *InmemStore) Save(tx *EncryptedTransaction) error {
	s.Lock()
	defer s.Unlock()

	k := tx.Hash.String()
	if _, ok := s.txs[k]; !ok {
		s.order = append(s.order, k)
	}
	s.txs[k] = tx
	return nil
}

// Get implements TransactionStore.
func (s *InmemStore) Get(hash crypto.MessageHash) (*EncryptedTransaction, error) {
	s.RLock()
	defer s.RUnlock()

	tx, ok := s.txs[hash.String()]
	if !ok {
		return nil, cm.NewStoreErr("EncryptedTransaction", cm.KeyNotFound, hash.String())
	}
	return tx, nil
}

// Close implements TransactionStore and StagingStore.
func (s *InmemStore) Close() error {
	return nil
}

// Staging returns a StagingStore view of s. InmemStore cannot implement both
// interfaces directly because their Save and Get methods differ.
func (s *InmemStore) Staging() StagingStore {
	return (*inmemStaging)(s)
}

type inmemStaging InmemStore

func (s *inmemStaging) Save(st *StagingTransaction) error {
	s.Lock()
	defer s.Unlock()

	if existing, ok := s.staging[st.Hash]; ok && st.Placeholder && !existing.Placeholder {
		return nil
	}
	s.staging[st.Hash] = st
	return nil
}

func (s *inmemStaging) Get(hash string) (*StagingTransaction, error) {
	s.RLock()
	defer s.RUnlock()

	st, ok := s.staging[hash]
	if !ok {
		return nil, cm.NewStoreErr("StagingTransaction", cm.KeyNotFound, hash)
	}
	return st, nil
}

func (s *inmemStaging) Staged() ([]*StagingTransaction, error) {
	s.RLock()
	defer s.RUnlock()

	res := make([]*StagingTransaction, 0, len(s.staging))
	for _, st := range s.staging {
		res = append(res, st)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Hash < res[j].Hash })
	return res, nil
}

func (s *inmemStaging) Delete(hash string) error {
	s.Lock()
	defer s.Unlock()
	delete(s.staging, hash)
	return nil
}

func (s *inmemStaging) Count() (int, error) {
	s.RLock()
	defer s.RUnlock()
	return len(s.staging), nil
}

func (s *inmemStaging) Close() error {
	return nil
}
