package payload

import "github.com/mosaicnetworks/relay/src/crypto"

func encodeLegacy(w *wireWriter, p *EncodedPayload) {
	w.field(p.senderKey)
	w.field(p.cipherText)
	w.field(p.cipherTextNonce)

	boxes := make([][]byte, len(p.recipientBoxes))
	for i, box := range p.recipientBoxes {
		boxes[i] = box
	}
	w.array(boxes)

	w.field(p.recipientNonce)

	keys := make([][]byte, len(p.recipientKeys))
	for i, k := range p.recipientKeys {
		keys[i] = k
	}
	w.array(keys)
}

func decodeLegacy(r *wireReader, b *Builder) error {
	sender, err := r.field("sender key")
	if err != nil {
		return err
	}
	cipherText, err := r.field("cipher text")
	if err != nil {
		return err
	}
	nonce, err := r.field("cipher text nonce")
	if err != nil {
		return err
	}
	boxes, err := r.array("recipient box")
	if err != nil {
		return err
	}
	recipientNonce, err := r.field("recipient nonce")
	if err != nil {
		return err
	}
	rawKeys, err := r.array("recipient key")
	if err != nil {
		return err
	}

	keys := make([]crypto.PublicKey, len(rawKeys))
	for i, k := range rawKeys {
		keys[i] = crypto.PublicKey(k)
	}

	b.WithSenderKey(crypto.PublicKey(sender)).
		WithCipherText(cipherText).
		WithCipherTextNonce(crypto.Nonce(nonce)).
		WithRecipientBoxes(boxes).
		WithRecipientNonce(crypto.Nonce(recipientNonce)).
		WithRecipientKeys(keys)

	return nil
}
