package peers

import (
	"bytes"
	"encoding/json"

	"github.com/mosaicnetworks/relay/src/crypto"
)

// PeerSet is a set of Peers indexed by public key and by address.
type PeerSet struct {
	Peers     []*Peer          `json:"peers"`
	ByPubKey  map[string]*Peer `json:"-"`
	ByNetAddr map[string]*Peer `json:"-"`
}

// NewPeerSet creates a new PeerSet from a list of Peers. When two peers claim
// the same key, the later one wins.
func NewPeerSet(peers []*Peer) *PeerSet {
	peerSet := &PeerSet{
		ByPubKey:  make(map[string]*Peer),
		ByNetAddr: make(map[string]*Peer),
	}

	for _, peer := range peers {
		for _, k := range peer.PubKeys {
			peerSet.ByPubKey[k] = peer
		}
		peerSet.ByNetAddr[peer.NetAddr] = peer
	}

	peerSet.Peers = peers

	return peerSet
}

// WithNewPeer returns a new PeerSet with a list of peers including the new
// one. A peer with the same address is replaced.
func (peerSet *PeerSet) WithNewPeer(peer *Peer) *PeerSet {
	_, peers := ExcludePeer(peerSet.Peers, peer.NetAddr)
	return NewPeerSet(append(peers, peer))
}

// PeerFor returns the peer owning key.
func (peerSet *PeerSet) PeerFor(key crypto.PublicKey) (*Peer, bool) {
	p, ok := peerSet.ByPubKey[key.String()]
	return p, ok
}

// PubKeys returns every public key of every peer.
func (peerSet *PeerSet) PubKeys() []crypto.PublicKey {
	res := []crypto.PublicKey{}
	for _, peer := range peerSet.Peers {
		keys, err := peer.Keys()
		if err != nil {
			continue
		}
		res = append(res, keys...)
	}
	return res
}

// Len returns the number of Peers in the PeerSet
func (peerSet *PeerSet) Len() int {
	return len(peerSet.Peers)
}

// Marshal marshals the peerset
func (peerSet *PeerSet) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(peerSet.Peers); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
