package payload

import "github.com/mosaicnetworks/relay/src/crypto"

func encodeV3(w *wireWriter, p *EncodedPayload) {
	if id, ok := p.PrivacyGroupID(); ok {
		w.field(id)
	}
}

func decodeV3(r *wireReader, b *Builder) error {
	id, err := r.field("privacy group id")
	if err != nil {
		return err
	}
	b.WithPrivacyGroupID(crypto.PublicKey(id))
	return nil
}
