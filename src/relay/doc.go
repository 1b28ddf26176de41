// Package relay wires the components of a relay node together.
//
// Relay reads the key pairs and the peers from the data directory, opens the
// transaction store, starts the transport, and builds the enclave, the
// publishers, the transaction and resend managers, the recovery and the node
// on top of them. Init builds everything, Run serves until Shutdown.
package relay
