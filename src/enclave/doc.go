// Package enclave holds the node's private keys and performs every operation
// that needs them: sealing a new payload for its recipients and opening a
// stored payload for one of the local keys.
//
// The Enclave interface is what the rest of the node depends on. NaclEnclave
// implements it with NaCl box (Curve25519, XSalsa20-Poly1305) for the
// per-recipient boxes and NaCl secretbox for the transaction body.
package enclave
