package payload

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/mosaicnetworks/relay/src/crypto"
)

// PrivacyMode governs how much transaction-linkage metadata travels with a
// payload.
type PrivacyMode uint8

const (
	// StandardPrivate shares no linkage metadata.
	StandardPrivate PrivacyMode = 0
	// PartyProtection shares the hashes of affected contract transactions.
	PartyProtection PrivacyMode = 1
	// PrivateStateValidation additionally shares the execution hash.
	PrivateStateValidation PrivacyMode = 3
)

// PrivacyModeFromFlag returns the PrivacyMode encoded by a wire flag.
func PrivacyModeFromFlag(flag uint64) (PrivacyMode, error) {
	switch flag {
	case uint64(StandardPrivate):
		return StandardPrivate, nil
	case uint64(PartyProtection):
		return PartyProtection, nil
	case uint64(PrivateStateValidation):
		return PrivateStateValidation, nil
	default:
		return StandardPrivate, fmt.Errorf("unknown privacy flag %d", flag)
	}
}

// Flag returns the wire flag of the mode.
func (m PrivacyMode) Flag() uint64 {
	return uint64(m)
}

// String ...
func (m PrivacyMode) String() string {
	switch m {
	case StandardPrivate:
		return "StandardPrivate"
	case PartyProtection:
		return "PartyProtection"
	case PrivateStateValidation:
		return "PrivateStateValidation"
	default:
		return "Unknown"
	}
}

// TxHash identifies an affected contract transaction. It holds raw hash bytes
// in a string so that it can key a map.
type TxHash string

// TxHashFromBytes ...
func TxHashFromBytes(b []byte) TxHash {
	return TxHash(b)
}

// Bytes returns a copy of the raw hash.
func (h TxHash) Bytes() []byte {
	return []byte(h)
}

// String returns the base64 form of the hash.
func (h TxHash) String() string {
	return base64.StdEncoding.EncodeToString([]byte(h))
}

// SecurityHash is the hash a recipient uses to check that an affected
// contract transaction was not tampered with.
type SecurityHash []byte

// RecipientBox is the master key of a payload sealed for one recipient. Two
// boxes are equal when their bytes are equal, whichever generation they were
// decoded from.
type RecipientBox []byte

// Equal ...
func (b RecipientBox) Equal(other RecipientBox) bool {
	return bytes.Equal(b, other)
}

// RecipientBoxesFrom wraps raw box bytes.
func RecipientBoxesFrom(raw [][]byte) []RecipientBox {
	res := make([]RecipientBox, len(raw))
	for i, r := range raw {
		res[i] = RecipientBox(r)
	}
	return res
}

// EncodedPayload is an encrypted transaction together with its recipient key
// material and privacy metadata. Use a Builder to create one.
type EncodedPayload struct {
	senderKey                    crypto.PublicKey
	cipherText                   []byte
	cipherTextNonce              crypto.Nonce
	recipientBoxes               []RecipientBox
	recipientNonce               crypto.Nonce
	recipientKeys                []crypto.PublicKey
	privacyMode                  PrivacyMode
	affectedContractTransactions map[TxHash]SecurityHash
	execHash                     []byte
	privacyGroupID               crypto.PublicKey
}

// SenderKey ...
func (p *EncodedPayload) SenderKey() crypto.PublicKey {
	return p.senderKey
}

// CipherText ...
func (p *EncodedPayload) CipherText() []byte {
	return p.cipherText
}

// CipherTextNonce ...
func (p *EncodedPayload) CipherTextNonce() crypto.Nonce {
	return p.cipherTextNonce
}

// RecipientBoxes returns the boxes in recipient order.
func (p *EncodedPayload) RecipientBoxes() []RecipientBox {
	res := make([]RecipientBox, len(p.recipientBoxes))
	copy(res, p.recipientBoxes)
	return res
}

// RecipientNonce ...
func (p *EncodedPayload) RecipientNonce() crypto.Nonce {
	return p.recipientNonce
}

// RecipientKeys returns the recipient keys, aligned with RecipientBoxes. It
// is empty when the payload was stored without recording its recipients.
func (p *EncodedPayload) RecipientKeys() []crypto.PublicKey {
	res := make([]crypto.PublicKey, len(p.recipientKeys))
	copy(res, p.recipientKeys)
	return res
}

// PrivacyMode ...
func (p *EncodedPayload) PrivacyMode() PrivacyMode {
	return p.privacyMode
}

// AffectedContractTransactions returns a copy of the affected contract
// transactions. The map is never nil.
func (p *EncodedPayload) AffectedContractTransactions() map[TxHash]SecurityHash {
	res := make(map[TxHash]SecurityHash, len(p.affectedContractTransactions))
	for k, v := range p.affectedContractTransactions {
		res[k] = v
	}
	return res
}

// ExecHash returns nil unless the payload uses PrivateStateValidation.
func (p *EncodedPayload) ExecHash() []byte {
	return p.execHash
}

// PrivacyGroupID returns the privacy group id and whether one is set.
func (p *EncodedPayload) PrivacyGroupID() (crypto.PublicKey, bool) {
	return p.privacyGroupID, p.privacyGroupID != nil
}

// HasRecipient reports whether key is one of the recorded recipients.
func (p *EncodedPayload) HasRecipient(key crypto.PublicKey) bool {
	return crypto.ContainsKey(p.recipientKeys, key)
}

// MessageHash returns the network-wide identifier of the transaction.
func (p *EncodedPayload) MessageHash() crypto.MessageHash {
	return crypto.NewMessageHash(p.cipherText)
}

// Equal reports whether two payloads carry the same values.
func (p *EncodedPayload) Equal(o *EncodedPayload) bool {
	if p == nil || o == nil {
		return p == o
	}

	if !p.senderKey.Equal(o.senderKey) ||
		!bytes.Equal(p.cipherText, o.cipherText) ||
		!bytes.Equal(p.cipherTextNonce, o.cipherTextNonce) ||
		!bytes.Equal(p.recipientNonce, o.recipientNonce) ||
		p.privacyMode != o.privacyMode ||
		!bytes.Equal(p.execHash, o.execHash) ||
		!p.privacyGroupID.Equal(o.privacyGroupID) {
		return false
	}

	if len(p.recipientBoxes) != len(o.recipientBoxes) || len(p.recipientKeys) != len(o.recipientKeys) {
		return false
	}
	for i := range p.recipientBoxes {
		if !p.recipientBoxes[i].Equal(o.recipientBoxes[i]) {
			return false
		}
	}
	for i := range p.recipientKeys {
		if !p.recipientKeys[i].Equal(o.recipientKeys[i]) {
			return false
		}
	}

	if len(p.affectedContractTransactions) != len(o.affectedContractTransactions) {
		return false
	}
	for k, v := range p.affectedContractTransactions {
		ov, ok := o.affectedContractTransactions[k]
		if !ok || !bytes.Equal(v, ov) {
			return false
		}
	}

	return true
}

// sortedAffected returns the affected contract transaction hashes in byte
// order, which is the order they are written on the wire.
func (p *EncodedPayload) sortedAffected() []TxHash {
	res := make([]TxHash, 0, len(p.affectedContractTransactions))
	for k := range p.affectedContractTransactions {
		res = append(res, k)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}
