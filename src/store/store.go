package store

import (
	"github.com/mosaicnetworks/relay/src/crypto"
)

// EncryptedTransaction is a stored payload. EncodedPayload holds the payload
// bytes exactly as they were written, in whichever generation that was.
type EncryptedTransaction struct {
	Hash           crypto.MessageHash
	EncodedPayload []byte
}

// TransactionStore is the query contract of the transaction database.
type TransactionStore interface {
	// TransactionCount returns the number of stored transactions.
	TransactionCount() (int, error)
	// RetrieveTransactions returns up to limit transactions starting at
	// position offset. The order is stable as long as no transaction is
	// added.
	RetrieveTransactions(offset, limit int) ([]*EncryptedTransaction, error)
	// Save inserts or replaces a transaction.
	Save(tx *EncryptedTransaction) error
	// Get returns the transaction stored under hash.
	Get(hash crypto.MessageHash) (*EncryptedTransaction, error)
	// Close releases the resources of the store.
	Close() error
}

// StagingStore holds transactions received through resend batches.
type StagingStore interface {
	// Save stores a staging record. A placeholder never replaces a full
	// record with the same hash.
	Save(st *StagingTransaction) error
	// Get returns the staging record stored under hash.
	Get(hash string) (*StagingTransaction, error)
	// Staged returns every staging record, ordered by hash.
	Staged() ([]*StagingTransaction, error)
	// Delete removes the record stored under hash.
	Delete(hash string) error
	// Count returns the number of staging records, placeholders included.
	Count() (int, error)
	// Close releases the resources of the store.
	Close() error
}
