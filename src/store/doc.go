// Package store persists encrypted transactions.
//
// A TransactionStore holds the payloads this node knows about, keyed by the
// message hash of their cipher text, and supports the paged reads used by
// batch resend. A StagingStore holds transactions received through a resend
// batch until recovery moves them into the TransactionStore.
//
// Both stores have an in-memory implementation, used in tests and for
// ephemeral nodes, and a badger implementation for persistent nodes.
package store
