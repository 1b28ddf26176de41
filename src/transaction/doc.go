// Package transaction is the entry point for private transactions created on
// this node.
//
// Manager.Send seals a message for its recipients, keeps the sender copy in
// the transaction store and pushes a recipient view to every remote
// recipient. Manager.StorePayload is the receiving side of such a push, and
// Manager.Receive opens a stored transaction with a local key.
package transaction
