// Package resend rebuilds a peer's view of the transactions this node holds.
//
// BatchResendManager.ResendBatch walks the whole transaction store page by
// page, keeps every payload the target key is entitled to, projects it for
// that key and publishes the result in batches. StoreResendBatch is the
// receiving side: it decodes an inbound batch and stages its payloads until
// recovery moves them into the transaction store.
package resend
