package net

// PushRequest delivers one encoded payload.
type PushRequest struct {
	FromAddr string
	Payload  []byte
}

// PushResponse returns the message hash under which the payload was stored.
type PushResponse struct {
	Hash []byte
}

// PushBatchRequest delivers a batch of encoded payloads produced by a resend.
type PushBatchRequest struct {
	FromAddr string
	Payloads [][]byte
}

// PushBatchResponse returns the number of payloads staged.
type PushBatchResponse struct {
	Count int
}

// ResendBatchRequest asks the target to resend every payload it holds for
// PublicKey, in batches of at most BatchSize payloads.
type ResendBatchRequest struct {
	FromAddr  string
	PublicKey []byte
	BatchSize int
}

// ResendBatchResponse returns the number of payloads the target processed.
type ResendBatchResponse struct {
	Total int
}
