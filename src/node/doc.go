// Package node implements the reactive component of a relay node.
//
// A Node consumes the RPCs delivered by its transport and dispatches them:
// a Push stores the payload it carries, a PushBatch stages an inbound resend
// batch, and a ResendBatch replays every stored transaction the requesting key
// is entitled to. Each RPC is processed on its own goroutine, within the limit
// set by the state package, so that a long resend never blocks the pushes a
// recovering peer is waiting on.
//
// Node implements a small state machine where the states are defined in the
// state package. Recover switches the node to Recovering while it rebuilds its
// transaction store from its peers, and back to Running when done.
package node
