package payload

import (
	"fmt"

	"github.com/mosaicnetworks/relay/src/crypto"
)

// Builder assembles an EncodedPayload. The zero value is ready to use and
// builds a StandardPrivate payload.
type Builder struct {
	p EncodedPayload
}

// NewBuilder ...
func NewBuilder() *Builder {
	return &Builder{}
}

// BuilderFrom returns a Builder pre-populated with the values of p.
func BuilderFrom(p *EncodedPayload) *Builder {
	b := &Builder{p: *p}
	b.p.recipientBoxes = p.RecipientBoxes()
	b.p.recipientKeys = p.RecipientKeys()
	b.p.affectedContractTransactions = p.AffectedContractTransactions()
	return b
}

// WithSenderKey ...
func (b *Builder) WithSenderKey(k crypto.PublicKey) *Builder {
	b.p.senderKey = k
	return b
}

// WithCipherText ...
func (b *Builder) WithCipherText(c []byte) *Builder {
	b.p.cipherText = c
	return b
}

// WithCipherTextNonce ...
func (b *Builder) WithCipherTextNonce(n crypto.Nonce) *Builder {
	b.p.cipherTextNonce = n
	return b
}

// WithRecipientBoxes replaces the boxes with raw box bytes.
func (b *Builder) WithRecipientBoxes(boxes [][]byte) *Builder {
	b.p.recipientBoxes = RecipientBoxesFrom(boxes)
	return b
}

// WithRecipientBox appends one box.
func (b *Builder) WithRecipientBox(box RecipientBox) *Builder {
	b.p.recipientBoxes = append(b.p.recipientBoxes, box)
	return b
}

// WithRecipientNonce ...
func (b *Builder) WithRecipientNonce(n crypto.Nonce) *Builder {
	b.p.recipientNonce = n
	return b
}

// WithRecipientKeys replaces the recipient keys.
func (b *Builder) WithRecipientKeys(keys []crypto.PublicKey) *Builder {
	b.p.recipientKeys = append([]crypto.PublicKey(nil), keys...)
	return b
}

// WithRecipientKey appends one recipient key.
func (b *Builder) WithRecipientKey(k crypto.PublicKey) *Builder {
	b.p.recipientKeys = append(b.p.recipientKeys, k)
	return b
}

// WithPrivacyMode ...
func (b *Builder) WithPrivacyMode(m PrivacyMode) *Builder {
	b.p.privacyMode = m
	return b
}

// WithAffectedContractTransactions replaces the affected contract
// transactions.
func (b *Builder) WithAffectedContractTransactions(acts map[TxHash]SecurityHash) *Builder {
	b.p.affectedContractTransactions = make(map[TxHash]SecurityHash, len(acts))
	for k, v := range acts {
		b.p.affectedContractTransactions[k] = v
	}
	return b
}

// WithExecHash ...
func (b *Builder) WithExecHash(h []byte) *Builder {
	b.p.execHash = h
	return b
}

// WithPrivacyGroupID ...
func (b *Builder) WithPrivacyGroupID(id crypto.PublicKey) *Builder {
	b.p.privacyGroupID = id
	return b
}

// WithoutPrivacyGroupID clears the privacy group id.
func (b *Builder) WithoutPrivacyGroupID() *Builder {
	b.p.privacyGroupID = nil
	return b
}

// Build checks the payload invariants and returns an independent copy of the
// assembled payload. Empty byte fields and empty collections are normalised
// to nil so that a payload compares equal to its decoded encoding.
func (b *Builder) Build() (*EncodedPayload, error) {
	src := b.p

	if len(src.recipientKeys) > 0 && len(src.recipientKeys) != len(src.recipientBoxes) {
		return nil, fmt.Errorf("%w: %d recipient keys but %d recipient boxes",
			ErrInvalidPayload, len(src.recipientKeys), len(src.recipientBoxes))
	}
	if len(src.execHash) > 0 && src.privacyMode != PrivateStateValidation {
		return nil, fmt.Errorf("%w: exec hash set with privacy mode %s", ErrInvalidPayload, src.privacyMode)
	}
	if len(src.affectedContractTransactions) > 0 && src.privacyMode == StandardPrivate {
		return nil, fmt.Errorf("%w: affected contract transactions set with privacy mode %s", ErrInvalidPayload, src.privacyMode)
	}
	if _, err := PrivacyModeFromFlag(src.privacyMode.Flag()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	p := &EncodedPayload{
		senderKey:       crypto.PublicKey(cloneBytes(src.senderKey)),
		cipherText:      cloneBytes(src.cipherText),
		cipherTextNonce: crypto.Nonce(cloneBytes(src.cipherTextNonce)),
		recipientNonce:  crypto.Nonce(cloneBytes(src.recipientNonce)),
		privacyMode:     src.privacyMode,
		execHash:        cloneBytes(src.execHash),
		privacyGroupID:  crypto.PublicKey(cloneBytes(src.privacyGroupID)),
	}

	if len(src.recipientBoxes) > 0 {
		p.recipientBoxes = make([]RecipientBox, len(src.recipientBoxes))
		for i, box := range src.recipientBoxes {
			p.recipientBoxes[i] = RecipientBox(cloneBytes(box))
		}
	}

	if len(src.recipientKeys) > 0 {
		p.recipientKeys = make([]crypto.PublicKey, len(src.recipientKeys))
		for i, k := range src.recipientKeys {
			p.recipientKeys[i] = crypto.PublicKey(cloneBytes(k))
		}
	}

	if len(src.affectedContractTransactions) > 0 {
		p.affectedContractTransactions = make(map[TxHash]SecurityHash, len(src.affectedContractTransactions))
		for k, v := range src.affectedContractTransactions {
			p.affectedContractTransactions[k] = SecurityHash(cloneBytes(v))
		}
	}

	return p, nil
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	res := make([]byte, len(b))
	copy(res, b)
	return res
}
