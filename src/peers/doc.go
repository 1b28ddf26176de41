// Package peers defines the remote relay nodes this node exchanges payloads
// with.
//
// A peer is reachable at a network address and owns one or more public keys.
// Payloads addressed to any of those keys are delivered to that address. A
// peer may also declare the payload wire generation it speaks, so that
// payloads sent to an older node are encoded in a format it can read. Peers
// that do not declare one are assumed to speak the current generation.
//
// Upon starting up, the relay expects to find a peers.json file in its data
// directory listing the peers it should know about.
package peers
