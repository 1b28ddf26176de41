// Package net implements the transports relay nodes use to exchange payloads.
//
// The Transport interface carries three RPCs:
//
// - Push: deliver one payload, projected for a recipient of the target node
//
// - PushBatch: deliver a batch of payloads produced by a resend
//
// - ResendBatch: ask the target node to resend, through PushBatch, every
// payload it holds for a public key
//
// Payloads always travel as encoded bytes, in the wire generation the target
// node speaks. The transports never decode them.
//
// There are two implementations:
//
// - Inmem: in-memory transport used only for testing
//
// - TCP: a NetworkTransport over plain TCP. Each RPC request is framed by a
// byte indicating the message type, followed by the msgpack encoded request.
// The response is an error string followed by the msgpack encoded response.
//
// To use a TCP transport, set the following configuration options in the
// Config object (cf config package):
//
// - BindAddr: the IP:PORT of the TCP socket that the relay binds to.
//
// - AdvertiseAddr: (optional) The address that is advertised to other nodes. If
// BindAddr is a local address not reachable by other peers, it is useful to
// set AdvertiseAddr to the reachable public address.
package net
