package publish

import (
	"github.com/mosaicnetworks/relay/src/crypto"
	"github.com/mosaicnetworks/relay/src/net"
	"github.com/mosaicnetworks/relay/src/payload"
	"github.com/mosaicnetworks/relay/src/peers"
	"github.com/sirupsen/logrus"
)

// Publisher delivers one payload to one recipient.
type Publisher interface {
	Publish(p *payload.EncodedPayload, recipient crypto.PublicKey) error
}

// BatchPublisher delivers many payloads to one recipient.
type BatchPublisher interface {
	PublishBatch(payloads []*payload.EncodedPayload, recipient crypto.PublicKey) error
}

// Resolver finds the peer owning a public key. *peers.PeerSet is a Resolver.
type Resolver interface {
	PeerFor(key crypto.PublicKey) (*peers.Peer, bool)
}

// NetworkPublisher implements Publisher and BatchPublisher over a Transport.
type NetworkPublisher struct {
	trans    net.Transport
	resolver Resolver
	logger   *logrus.Entry
}

// NewNetworkPublisher ...
func NewNetworkPublisher(trans net.Transport, resolver Resolver, logger *logrus.Entry) *NetworkPublisher {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	return &NetworkPublisher{
		trans:    trans,
		resolver: resolver,
		logger:   logger.WithField("component", "publisher"),
	}
}

func (n *NetworkPublisher) peerFor(recipient crypto.PublicKey) (*peers.Peer, error) {
	peer, ok := n.resolver.PeerFor(recipient)
	if !ok {
		return nil, &KeyNotFoundError{Key: recipient}
	}
	return peer, nil
}

// Publish implements Publisher. p is sent as it is, so it must already be
// projected for recipient.
func (n *NetworkPublisher) Publish(p *payload.EncodedPayload, recipient crypto.PublicKey) error {
	peer, err := n.peerFor(recipient)
	if err != nil {
		return err
	}

	gen := peer.Generation()
	args := &net.PushRequest{
		FromAddr: n.trans.AdvertiseAddr(),
		Payload:  gen.Encode(p),
	}

	var resp net.PushResponse
	if err := n.trans.Push(peer.NetAddr, args, &resp); err != nil {
		return err
	}

	n.logger.WithFields(logrus.Fields{
		"hash":       p.MessageHash().String(),
		"peer":       peer.NetAddr,
		"generation": gen,
	}).Debug("Published payload")

	return nil
}

// PublishBatch implements BatchPublisher.
func (n *NetworkPublisher) PublishBatch(payloads []*payload.EncodedPayload, recipient crypto.PublicKey) error {
	peer, err := n.peerFor(recipient)
	if err != nil {
		return err
	}

	gen := peer.Generation()
	args := &net.PushBatchRequest{
		FromAddr: n.trans.AdvertiseAddr(),
		Payloads: make([][]byte, len(payloads)),
	}
	for i, p := range payloads {
		args.Payloads[i] = gen.Encode(p)
	}

	var resp net.PushBatchResponse
	if err := n.trans.PushBatch(peer.NetAddr, args, &resp); err != nil {
		return err
	}

	n.logger.WithFields(logrus.Fields{
		"size":   len(payloads),
		"staged": resp.Count,
		"peer":   peer.NetAddr,
	}).Debug("Published batch")

	return nil
}
