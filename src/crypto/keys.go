package crypto

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

// KeySize is the length of a Curve25519 key.
const KeySize = 32

// NonceSize is the length of a NaCl nonce.
const NonceSize = 24

// PublicKey is an opaque public key. Payload keys are Curve25519 keys but the
// wire format does not constrain their length, so PublicKey carries whatever
// bytes it was built from.
type PublicKey []byte

// PublicKeyFromBase64 decodes a standard base64 public key.
func PublicKeyFromBase64(s string) (PublicKey, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding public key %q: %v", s, err)
	}
	return PublicKey(b), nil
}

// String returns the standard base64 encoding of the key. It is also the key
// used to index maps of public keys.
func (k PublicKey) String() string {
	return base64.StdEncoding.EncodeToString(k)
}

// Equal reports whether two keys hold the same bytes.
func (k PublicKey) Equal(other PublicKey) bool {
	return bytes.Equal(k, other)
}

// Array returns the key as a fixed-size array, as needed by the NaCl
// primitives. It fails if the key is not KeySize bytes long.
func (k PublicKey) Array() (*[KeySize]byte, error) {
	if len(k) != KeySize {
		return nil, fmt.Errorf("public key %s has length %d, want %d", k, len(k), KeySize)
	}
	var a [KeySize]byte
	copy(a[:], k)
	return &a, nil
}

// ContainsKey reports whether key is one of keys.
func ContainsKey(keys []PublicKey, key PublicKey) bool {
	return IndexOfKey(keys, key) >= 0
}

// IndexOfKey returns the position of key in keys, or -1.
func IndexOfKey(keys []PublicKey, key PublicKey) int {
	for i, k := range keys {
		if k.Equal(key) {
			return i
		}
	}
	return -1
}

// Nonce is a NaCl nonce.
type Nonce []byte

// Array returns the nonce as a fixed-size array. It fails if the nonce is not
// NonceSize bytes long.
func (n Nonce) Array() (*[NonceSize]byte, error) {
	if len(n) != NonceSize {
		return nil, fmt.Errorf("nonce has length %d, want %d", len(n), NonceSize)
	}
	var a [NonceSize]byte
	copy(a[:], n)
	return &a, nil
}
