// Package payload defines the encrypted transaction payload exchanged between
// relay nodes and the byte formats used to carry it.
//
// EncodedPayload
//
// An EncodedPayload holds a transaction body encrypted once under a random
// master key (CipherText, CipherTextNonce) and, for every recipient, a box
// containing that master key sealed for the recipient (RecipientBoxes,
// RecipientNonce). RecipientKeys lists the recipients in the same order as the
// boxes. Privacy metadata (PrivacyMode, AffectedContractTransactions, ExecHash,
// PrivacyGroupID) tells the receiving side how much it may learn about related
// transactions.
//
// Payloads are immutable. They are created with a Builder, and every
// transformation (projection for a recipient, attaching a recovered recipient
// key) returns a new value.
//
// Generations
//
// The network carries payloads in three wire generations. Each one appends a
// section to the previous one:
//
//  Legacy: sender, cipher text, nonce, boxes, recipient nonce, recipient keys
//  V2:     Legacy + privacy flag, affected contract transactions, exec hash
//  V3:     V2 + privacy group id
//
// All integers are 8-byte big-endian. A byte field is its length followed by
// its bytes, and a list is its element count followed by each element as a
// byte field. The exec hash is only written for private state validation
// payloads and the privacy group id only when one is set.
//
// A Generation both names a format and implements it: Generation.Encode writes
// every section up to and including its own, silently dropping fields the
// format cannot carry, and Generation.Decode reads every section present up to
// its own, filling in defaults for the ones that are absent. Older decoders
// ignore bytes that belong to newer sections, which is what lets nodes running
// different releases talk to each other.
package payload
