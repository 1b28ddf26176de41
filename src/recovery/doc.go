// Package recovery rebuilds the transaction store of a node that lost it.
//
// Recovery runs in two phases. RequestResend asks every known peer to resend,
// for every local key, the transactions that key is entitled to. The peers
// answer with resend batches that land in the staging store. Sync then moves
// the staged transactions into the transaction store, a transaction only
// after all the contract transactions it affects are known.
package recovery
