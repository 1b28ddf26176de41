package store

import (
	"errors"
	"os"
	"sync"

	"github.com/dgraph-io/badger"
	cm "github.com/mosaicnetworks/relay/src/common"
	"github.com/mosaicnetworks/relay/src/crypto"
	"github.com/sirupsen/logrus"
)

const (
	txPrefix      = "tx_"
	stagingPrefix = "stg_"
)

// BadgerStore implements TransactionStore on top of a badger database. The
// StagingStore view returned by Staging shares the same database under a
// different key prefix.
type BadgerStore struct {
	db     *badger.DB
	logger *logrus.Entry

	// guards the read-then-write in staging Save
	stagingLock sync.Mutex
}

// NewBadgerStore opens, or creates, the database in path.
func NewBadgerStore(path string, logger *logrus.Entry) (*BadgerStore, error) {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.InfoLevel
		logger = logrus.NewEntry(log)
	}

	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(path).
		WithSyncWrites(false).
		WithLogger(logger.WithField("ns", "badger"))

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &BadgerStore{
		db:     handle,
		logger: logger,
	}, nil
}

//==============================================================================
//Keys

func txKey(hash crypto.MessageHash) []byte {
	return []byte(txPrefix + hash.String())
}

func stagingKey(hash string) []byte {
	return []byte(stagingPrefix + hash)
}

//==============================================================================
//Implement the TransactionStore interface

// TransactionCount implements TransactionStore.
func (s *BadgerStore) TransactionCount() (int, error) {
	return s.dbCount([]byte(txPrefix))
}

// RetrieveTransactions implements TransactionStore. Transactions are ordered
// by the base64 form of their hash.
func (s *BadgerStore) RetrieveTransactions(offset, limit int) ([]*EncryptedTransaction, error) {
	res := []*EncryptedTransaction{}
	if offset < 0 || limit <= 0 {
		return res, nil
	}

	prefix := []byte(txPrefix)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		skipped := 0
		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(res) < limit; it.Next() {
			if skipped < offset {
				skipped++
				continue
			}

			item := it.Item()
			hash, err := crypto.MessageHashFromBase64(string(item.Key()[len(prefix):]))
			if err != nil {
				return err
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			res = append(res, &EncryptedTransaction{Hash: hash, EncodedPayload: val})
		}
		return nil
	})

	return res, err
}

// Save implements TransactionStore.
func (s *BadgerStore) Save(tx *EncryptedTransaction) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(txKey(tx.Hash), tx.EncodedPayload)
	})
}

// Get implements TransactionStore.
func (s *BadgerStore) Get(hash crypto.MessageHash) (*EncryptedTransaction, error) {
	val, err := s.dbGet(txKey(hash))
	if err != nil {
		return nil, mapError(err, "EncryptedTransaction", hash.String())
	}
	return &EncryptedTransaction{Hash: hash, EncodedPayload: val}, nil
}

// Close implements TransactionStore.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Staging returns the StagingStore view of s.
func (s *BadgerStore) Staging() StagingStore {
	return (*badgerStaging)(s)
}

//==============================================================================
//Implement the StagingStore interface

type badgerStaging BadgerStore

func (s *badgerStaging) Save(st *StagingTransaction) error {
	s.stagingLock.Lock()
	defer s.stagingLock.Unlock()

	if st.Placeholder {
		existing, err := s.Get(st.Hash)
		if err == nil && !existing.Placeholder {
			return nil
		}
		if err != nil && !cm.IsStore(err, cm.KeyNotFound) {
			return err
		}
	}

	val, err := st.Marshal()
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(stagingKey(st.Hash), val)
	})
}

func (s *badgerStaging) Get(hash string) (*StagingTransaction, error) {
	val, err := (*BadgerStore)(s).dbGet(stagingKey(hash))
	if err != nil {
		return nil, mapError(err, "StagingTransaction", hash)
	}

	st := new(StagingTransaction)
	if err := st.Unmarshal(val); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *badgerStaging) Staged() ([]*StagingTransaction, error) {
	res := []*StagingTransaction{}
	prefix := []byte(stagingPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			st := new(StagingTransaction)
			err := it.Item().Value(func(val []byte) error {
				return st.Unmarshal(val)
			})
			if err != nil {
				return err
			}
			res = append(res, st)
		}
		return nil
	})

	return res, err
}

func (s *badgerStaging) Delete(hash string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(stagingKey(hash))
	})
}

func (s *badgerStaging) Count() (int, error) {
	return (*BadgerStore)(s).dbCount([]byte(stagingPrefix))
}

func (s *badgerStaging) Close() error {
	return nil
}

//++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++
//DB Methods

func (s *BadgerStore) dbGet(key []byte) ([]byte, error) {
	var res []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		res, err = item.ValueCopy(nil)
		return err
	})
	return res, err
}

func (s *BadgerStore) dbCount(prefix []byte) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

//++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++

func mapError(err error, name, key string) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return cm.NewStoreErr(name, cm.KeyNotFound, key)
	}
	return err
}
