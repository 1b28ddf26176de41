// Package publish delivers payloads to the peers owning their recipient keys.
//
// NetworkPublisher sends one payload to one recipient and NetworkBatchPublisher
// sends a batch of payloads to one recipient. Both encode payloads in the wire
// generation the receiving peer declares, so older peers receive a format they
// can read.
//
// AsyncPublisher fans a payload out to many recipients concurrently. Every
// recipient receives a copy projected to its own box and key. The first
// failure ends the call without waiting for the remaining deliveries.
package publish
