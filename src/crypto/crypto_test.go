package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSHA3512(t *testing.T) {
	// SHA3-512 of the empty string
	want := "a69f73cca23a9ac5c8b567dc185a756e97c982164fe25859e0d1dcc1475c80a6" +
		"15b2123af1f5f94c11e3e9402c3ac558f500199d95b6d3e301758586281dcd26"

	assert.Equal(t, want, hex.EncodeToString(SHA3512([]byte{})))
}

func TestMessageHash(t *testing.T) {
	h1 := NewMessageHash([]byte("cipherText"))
	h2 := NewMessageHash([]byte("cipherText"))
	h3 := NewMessageHash([]byte("otherCipherText"))

	assert.Len(t, h1, 64)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)

	decoded, err := MessageHashFromBase64(h1.String())
	require.NoError(t, err)
	assert.Equal(t, h1, decoded)
}

func TestPublicKey(t *testing.T) {
	k := PublicKey("RECIPIENT")

	decoded, err := PublicKeyFromBase64(k.String())
	require.NoError(t, err)
	assert.True(t, k.Equal(decoded))

	_, err = PublicKeyFromBase64("not base64!")
	assert.Error(t, err)

	_, err = k.Array()
	assert.Error(t, err, "a 9 byte key is not a curve25519 key")

	full := make(PublicKey, KeySize)
	full[0] = 7
	arr, err := full.Array()
	require.NoError(t, err)
	assert.Equal(t, byte(7), arr[0])
}

func TestIndexOfKey(t *testing.T) {
	keys := []PublicKey{PublicKey("A"), PublicKey("B"), PublicKey("C")}

	assert.Equal(t, 1, IndexOfKey(keys, PublicKey("B")))
	assert.Equal(t, -1, IndexOfKey(keys, PublicKey("D")))
	assert.True(t, ContainsKey(keys, PublicKey("C")))
	assert.False(t, ContainsKey(nil, PublicKey("C")))
}

func TestNonceArray(t *testing.T) {
	_, err := Nonce("short").Array()
	assert.Error(t, err)

	n := make(Nonce, NonceSize)
	_, err = n.Array()
	assert.NoError(t, err)
}
