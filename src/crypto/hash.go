package crypto

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/sha3"
)

// SHA256 returns the SHA256 hash of the data.
func SHA256(data []byte) []byte {
	hasher := sha256.New()
	hasher.Write(data)
	hash := hasher.Sum(nil)
	return hash
}

// SHA3512 returns the SHA3-512 hash of the data.
func SHA3512(data []byte) []byte {
	sum := sha3.Sum512(data)
	return sum[:]
}

// MessageHash identifies a transaction across the network. It is the SHA3-512
// hash of the transaction's cipher text, so every node that holds a copy of the
// payload derives the same identifier regardless of which recipient view it
// stores.
type MessageHash []byte

// NewMessageHash computes the MessageHash of a cipher text.
func NewMessageHash(cipherText []byte) MessageHash {
	return MessageHash(SHA3512(cipherText))
}

// MessageHashFromBase64 decodes the string form of a MessageHash.
func MessageHashFromBase64(s string) (MessageHash, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return MessageHash(b), nil
}

// String returns the standard base64 encoding of the hash.
func (h MessageHash) String() string {
	return base64.StdEncoding.EncodeToString(h)
}
