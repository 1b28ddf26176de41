package payload

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/mosaicnetworks/relay/src/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generations = []Generation{Legacy, V2, V3}

func legacyVector(t *testing.T) *EncodedPayload {
	p, err := NewBuilder().
		WithSenderKey(crypto.PublicKey("SENDER")).
		WithCipherText([]byte("cipherText")).
		WithRecipientBox(RecipientBox("box")).
		WithRecipientKey(crypto.PublicKey("RECIPIENT")).
		Build()
	require.NoError(t, err)
	return p
}

func fullPayload(t *testing.T, mode PrivacyMode) *EncodedPayload {
	b := NewBuilder().
		WithSenderKey(crypto.PublicKey("SENDER")).
		WithCipherText([]byte("cipherText")).
		WithCipherTextNonce(crypto.Nonce("nonce")).
		WithRecipientBoxes([][]byte{[]byte("box1"), []byte("box2")}).
		WithRecipientNonce(crypto.Nonce("recipientNonce")).
		WithRecipientKeys([]crypto.PublicKey{crypto.PublicKey("R1"), crypto.PublicKey("R2")}).
		WithPrivacyMode(mode).
		WithPrivacyGroupID(crypto.PublicKey("GROUP"))

	if mode != StandardPrivate {
		b.WithAffectedContractTransactions(map[TxHash]SecurityHash{
			TxHash("txB"): SecurityHash("secB"),
			TxHash("txA"): SecurityHash("secA"),
		})
	}
	if mode == PrivateStateValidation {
		b.WithExecHash([]byte("execHash"))
	}

	p, err := b.Build()
	require.NoError(t, err)
	return p
}

// expected returns p as seen by a peer that only understands g.
func expected(t *testing.T, p *EncodedPayload, g Generation) *EncodedPayload {
	b := BuilderFrom(p)
	if g < V3 {
		b.WithoutPrivacyGroupID()
	}
	if g < V2 {
		b.WithPrivacyMode(StandardPrivate).
			WithAffectedContractTransactions(nil).
			WithExecHash(nil)
	}
	res, err := b.Build()
	require.NoError(t, err)
	return res
}

func older(a, b Generation) Generation {
	if a < b {
		return a
	}
	return b
}

func TestRoundTrip(t *testing.T) {
	for _, mode := range []PrivacyMode{StandardPrivate, PartyProtection, PrivateStateValidation} {
		p := fullPayload(t, mode)
		for _, g := range generations {
			got, err := g.Decode(g.Encode(p))
			require.NoError(t, err, "%s %s", g, mode)
			assert.True(t, expected(t, p, g).Equal(got), "%s %s", g, mode)
		}
	}
}

func TestCrossGenerationDecode(t *testing.T) {
	for _, mode := range []PrivacyMode{StandardPrivate, PartyProtection, PrivateStateValidation} {
		p := fullPayload(t, mode)
		for _, enc := range generations {
			for _, dec := range generations {
				got, err := dec.Decode(enc.Encode(p))
				require.NoError(t, err, "encode %s decode %s", enc, dec)
				want := expected(t, p, older(enc, dec))
				assert.True(t, want.Equal(got), "encode %s decode %s mode %s", enc, dec, mode)
			}
		}
	}
}

func TestLegacyVectorThroughV2(t *testing.T) {
	p := legacyVector(t)

	got, err := V2.Decode(Legacy.Encode(p))
	require.NoError(t, err)

	assert.Equal(t, StandardPrivate, got.PrivacyMode())
	assert.Empty(t, got.AffectedContractTransactions())
	assert.Nil(t, got.ExecHash())
	_, ok := got.PrivacyGroupID()
	assert.False(t, ok)
	require.Len(t, got.RecipientBoxes(), 1)
	assert.True(t, got.RecipientBoxes()[0].Equal(RecipientBox("box")))
	assert.Equal(t, []crypto.PublicKey{crypto.PublicKey("RECIPIENT")}, got.RecipientKeys())
	assert.Equal(t, crypto.PublicKey("SENDER"), got.SenderKey())
	assert.Equal(t, []byte("cipherText"), got.CipherText())
}

func be(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func concat(parts ...[]byte) []byte {
	var res []byte
	for _, p := range parts {
		res = append(res, p...)
	}
	return res
}

func TestLegacyExactBytes(t *testing.T) {
	want := concat(
		be(6), []byte("SENDER"),
		be(10), []byte("cipherText"),
		be(0),
		be(1), be(3), []byte("box"),
		be(0),
		be(1), be(9), []byte("RECIPIENT"),
	)
	assert.Equal(t, want, Legacy.Encode(legacyVector(t)))
}

func TestV2ExactBytes(t *testing.T) {
	p, err := BuilderFrom(legacyVector(t)).
		WithPrivacyMode(PrivateStateValidation).
		WithAffectedContractTransactions(map[TxHash]SecurityHash{
			TxHash("b"): SecurityHash("2"),
			TxHash("a"): SecurityHash("1"),
		}).
		WithExecHash([]byte("exec")).
		WithPrivacyGroupID(crypto.PublicKey("G")).
		Build()
	require.NoError(t, err)

	legacy := Legacy.Encode(p)
	v2 := concat(legacy,
		be(3),
		be(2),
		be(1), []byte("a"), be(1), []byte("1"),
		be(1), []byte("b"), be(1), []byte("2"),
		be(4), []byte("exec"),
	)
	assert.Equal(t, v2, V2.Encode(p))
	assert.Equal(t, concat(v2, be(1), []byte("G")), V3.Encode(p))
}

func TestEncodeIsDeterministic(t *testing.T) {
	p := fullPayload(t, PartyProtection)
	first := V3.Encode(p)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, V3.Encode(p))
	}
}

func TestDetectGeneration(t *testing.T) {
	p := fullPayload(t, PartyProtection)

	cases := []struct {
		data []byte
		want Generation
	}{
		{Legacy.Encode(p), Legacy},
		{V2.Encode(p), V2},
		{V3.Encode(p), V3},
		{V3.Encode(legacyVector(t)), V2},
	}
	for _, c := range cases {
		got, err := DetectGeneration(c.data)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestDecodeErrors(t *testing.T) {
	p := fullPayload(t, PrivateStateValidation)
	v3 := V3.Encode(p)
	legacy := Legacy.Encode(p)

	cases := map[string]struct {
		gen  Generation
		data []byte
	}{
		"empty":              {Legacy, nil},
		"truncated legacy":   {Legacy, legacy[:len(legacy)-3]},
		"truncated v3":       {V3, v3[:len(v3)-1]},
		"trailing bytes":     {V3, append(append([]byte{}, v3...), 0x01)},
		"unknown flag":       {V2, concat(legacy, be(2), be(0))},
		"length overflow":    {Legacy, be(1 << 62)},
		"huge array count":   {Legacy, concat(be(0), be(0), be(0), be(1<<40))},
		"keys without boxes": {Legacy, concat(be(0), be(0), be(0), be(0), be(0), be(1), be(1), []byte("k"))},
	}

	for name, c := range cases {
		_, err := c.gen.Decode(c.data)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrDecodeFormat), name)

		var dfe *DecodeFormatError
		assert.True(t, errors.As(err, &dfe), name)
	}
}

func TestOlderDecoderIgnoresTrailingBytes(t *testing.T) {
	p := fullPayload(t, PartyProtection)

	got, err := Legacy.Decode(append(V3.Encode(p), 0xde, 0xad))
	require.NoError(t, err)
	assert.True(t, expected(t, p, Legacy).Equal(got))
}

func TestParseGeneration(t *testing.T) {
	for in, want := range map[string]Generation{
		"legacy": Legacy,
		"V2":     V2,
		"v3":     V3,
		"":       Current,
	} {
		got, err := ParseGeneration(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseGeneration("v4")
	assert.Error(t, err)

	var g Generation
	require.NoError(t, g.UnmarshalText([]byte("v2")))
	assert.Equal(t, V2, g)
}
