package store

import (
	"bytes"
	"sort"

	"github.com/mosaicnetworks/relay/src/crypto"
	"github.com/mosaicnetworks/relay/src/payload"
	"github.com/ugorji/go/codec"
)

// StagingTransaction is a transaction waiting to be synced into the
// transaction store. A placeholder records that some staged transaction
// depends on Hash while the transaction itself has not been received.
type StagingTransaction struct {
	Hash        string
	Payload     []byte
	PrivacyMode payload.PrivacyMode
	Affected    []string
	Placeholder bool
}

// MessageHash decodes Hash.
func (st *StagingTransaction) MessageHash() (crypto.MessageHash, error) {
	return crypto.MessageHashFromBase64(st.Hash)
}

// Marshal returns the canonical JSON encoding of the record.
func (st *StagingTransaction) Marshal() ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(st); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Unmarshal ...
func (st *StagingTransaction) Unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(st)
}

// StagingTransactionsFromPayload expands p into the staging records it
// produces: one full record holding p encoded with enc, and one placeholder
// for every affected contract transaction.
func StagingTransactionsFromPayload(p *payload.EncodedPayload, enc payload.Codec) []*StagingTransaction {
	acts := p.AffectedContractTransactions()

	affected := make([]string, 0, len(acts))
	for txHash := range acts {
		affected = append(affected, crypto.MessageHash(txHash.Bytes()).String())
	}
	sort.Strings(affected)

	res := make([]*StagingTransaction, 0, len(affected)+1)
	res = append(res, &StagingTransaction{
		Hash:        p.MessageHash().String(),
		Payload:     enc.Encode(p),
		PrivacyMode: p.PrivacyMode(),
		Affected:    affected,
	})

	for _, h := range affected {
		res = append(res, &StagingTransaction{
			Hash:        h,
			Placeholder: true,
		})
	}

	return res
}
