package peers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sync"

	"github.com/mosaicnetworks/relay/src/payload"
)

const jsonPeerSetPath = "peers.json"

// JSONPeerSet is used to provide peer persistence on disk in the form of a JSON
// file.
type JSONPeerSet struct {
	l    sync.Mutex
	path string
}

// NewJSONPeerSet creates a new JSONPeerSet with reference to a base directory
// where the JSON file resides.
func NewJSONPeerSet(base string) *JSONPeerSet {
	return &JSONPeerSet{
		path: filepath.Join(base, jsonPeerSetPath),
	}
}

// PeerSet parses the underlying JSON file and returns the corresponding
// PeerSet.
func (j *JSONPeerSet) PeerSet() (*PeerSet, error) {
	j.l.Lock()
	defer j.l.Unlock()

	// Read the file
	buf, err := ioutil.ReadFile(j.path)
	if err != nil {
		return nil, err
	}

	// Check for no peers
	if len(buf) == 0 {
		return NewPeerSet([]*Peer{}), nil
	}

	// Decode the peers
	var peers []*Peer
	dec := json.NewDecoder(bytes.NewReader(buf))
	if err := dec.Decode(&peers); err != nil {
		return nil, err
	}

	if err := cleansePeerSet(peers); err != nil {
		return nil, err
	}

	return NewPeerSet(peers), nil
}

// cleansePeerSet rewrites every key in standard base64 so that lookups by
// crypto.PublicKey.String() find it. It also rejects unknown wire generations.
func cleansePeerSet(peers []*Peer) error {
	for _, peer := range peers {
		if peer.Wire != "" {
			if _, err := payload.ParseGeneration(peer.Wire); err != nil {
				return fmt.Errorf("peer %s: %v", peer.NetAddr, err)
			}
		}

		keys, err := peer.Keys()
		if err != nil {
			return fmt.Errorf("peer %s: %v", peer.NetAddr, err)
		}
		for i, k := range keys {
			peer.PubKeys[i] = k.String()
		}
	}
	return nil
}

// Write persists a PeerSet to a JSON file.
func (j *JSONPeerSet) Write(peers []*Peer) error {
	j.l.Lock()
	defer j.l.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "\t")
	if err := enc.Encode(peers); err != nil {
		return err
	}

	// Write out as JSON
	return ioutil.WriteFile(j.path, buf.Bytes(), 0644)
}
