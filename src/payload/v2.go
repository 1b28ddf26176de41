package payload

func encodeV2(w *wireWriter, p *EncodedPayload) {
	w.uint64(p.privacyMode.Flag())

	affected := p.sortedAffected()
	w.uint64(uint64(len(affected)))
	for _, txHash := range affected {
		w.field(txHash.Bytes())
		w.field(p.affectedContractTransactions[txHash])
	}

	if p.privacyMode == PrivateStateValidation {
		w.field(p.execHash)
	}
}

func decodeV2(r *wireReader, b *Builder) error {
	flag, err := r.uint64("privacy flag")
	if err != nil {
		return err
	}
	mode, err := PrivacyModeFromFlag(flag)
	if err != nil {
		return r.fail("%v", err)
	}

	count, err := r.uint64("affected contract transaction count")
	if err != nil {
		return err
	}
	// each entry carries two length prefixes
	if count > uint64(r.remaining()/(2*lengthSize)) {
		return r.fail("affected contract transaction count %d exceeds remaining input", count)
	}

	affected := make(map[TxHash]SecurityHash, count)
	for i := uint64(0); i < count; i++ {
		txHash, err := r.field("affected contract transaction hash")
		if err != nil {
			return err
		}
		securityHash, err := r.field("security hash")
		if err != nil {
			return err
		}
		affected[TxHashFromBytes(txHash)] = SecurityHash(securityHash)
	}

	var execHash []byte
	if mode == PrivateStateValidation {
		if execHash, err = r.field("exec hash"); err != nil {
			return err
		}
	}

	b.WithPrivacyMode(mode).
		WithAffectedContractTransactions(affected).
		WithExecHash(execHash)

	return nil
}
