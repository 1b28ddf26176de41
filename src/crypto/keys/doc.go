// Package keys manages the key pairs a relay node uses to open and seal
// transaction payloads.
//
// Payload keys are Curve25519 key pairs as used by NaCl's box construction. A
// node may own several key pairs; their public halves are what other nodes
// address when they send a private transaction, and the order in which they
// are listed in the key store is the order in which the enclave tries them
// when it has to recover an unrecorded recipient by trial decryption.
//
// Key pairs are persisted in a keys.json file inside the data directory. The
// file contains base64 encoded public and private keys and must only be
// readable by its owner.
package keys
