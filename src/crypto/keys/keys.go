package keys

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/mosaicnetworks/relay/src/crypto"
	"golang.org/x/crypto/nacl/box"
)

// KeyPair is a Curve25519 key pair.
type KeyPair struct {
	Public  crypto.PublicKey
	Private *[crypto.KeySize]byte
}

// GenerateKeyPair creates a new random KeyPair.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &KeyPair{
		Public:  crypto.PublicKey(pub[:]),
		Private: priv,
	}, nil
}

// jsonKeyPair is the on-disk form of a KeyPair.
type jsonKeyPair struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

func (kp *KeyPair) toJSON() jsonKeyPair {
	return jsonKeyPair{
		PublicKey:  kp.Public.String(),
		PrivateKey: base64.StdEncoding.EncodeToString(kp.Private[:]),
	}
}

func (j jsonKeyPair) toKeyPair() (*KeyPair, error) {
	pub, err := crypto.PublicKeyFromBase64(j.PublicKey)
	if err != nil {
		return nil, err
	}
	if len(pub) != crypto.KeySize {
		return nil, fmt.Errorf("public key %s has length %d, want %d", j.PublicKey, len(pub), crypto.KeySize)
	}

	rawPriv, err := base64.StdEncoding.DecodeString(j.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("decoding private key for %s: %v", j.PublicKey, err)
	}
	if len(rawPriv) != crypto.KeySize {
		return nil, fmt.Errorf("private key for %s has length %d, want %d", j.PublicKey, len(rawPriv), crypto.KeySize)
	}

	var priv [crypto.KeySize]byte
	copy(priv[:], rawPriv)

	return &KeyPair{Public: pub, Private: &priv}, nil
}
