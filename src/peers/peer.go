package peers

import (
	"github.com/mosaicnetworks/relay/src/crypto"
	"github.com/mosaicnetworks/relay/src/payload"
)

// Peer is a remote relay node.
type Peer struct {
	NetAddr string
	PubKeys []string
	Moniker string `json:",omitempty"`
	Wire    string `json:",omitempty"`
}

// NewPeer creates a Peer owning the base64 public keys pubKeys.
func NewPeer(netAddr, moniker string, pubKeys ...string) *Peer {
	return &Peer{
		NetAddr: netAddr,
		Moniker: moniker,
		PubKeys: pubKeys,
	}
}

// Keys decodes the public keys of the peer.
func (p *Peer) Keys() ([]crypto.PublicKey, error) {
	res := make([]crypto.PublicKey, 0, len(p.PubKeys))
	for _, s := range p.PubKeys {
		k, err := crypto.PublicKeyFromBase64(s)
		if err != nil {
			return nil, err
		}
		res = append(res, k)
	}
	return res, nil
}

// Generation returns the payload generation the peer speaks. An unset Wire
// means the current generation. JSONPeerSet rejects unparseable values, so
// only peers built in code can fall back on an invalid one.
func (p *Peer) Generation() payload.Generation {
	g, err := payload.ParseGeneration(p.Wire)
	if err != nil {
		return payload.Current
	}
	return g
}

// ExcludePeer is used to exclude a single peer from a list of peers.
func ExcludePeer(peers []*Peer, netAddr string) (int, []*Peer) {
	index := -1
	otherPeers := make([]*Peer, 0, len(peers))
	for i, p := range peers {
		if p.NetAddr != netAddr {
			otherPeers = append(otherPeers, p)
		} else {
			index = i
		}
	}
	return index, otherPeers
}
