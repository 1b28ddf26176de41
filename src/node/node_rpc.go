package node

import (
	"fmt"
	"sync/atomic"

	"github.com/mosaicnetworks/relay/src/crypto"
	"github.com/mosaicnetworks/relay/src/net"
	"github.com/sirupsen/logrus"
)

func (n *Node) processRPC(rpc net.RPC) {
	switch cmd := rpc.Command.(type) {
	case *net.PushRequest:
		n.processPushRequest(rpc, cmd)
	case *net.PushBatchRequest:
		n.processPushBatchRequest(rpc, cmd)
	case *net.ResendBatchRequest:
		n.processResendBatchRequest(rpc, cmd)
	default:
		n.logger.WithField("cmd", rpc.Command).Error("Unexpected RPC command")
		atomic.AddInt64(&n.rpcErrors, 1)
		rpc.Respond(nil, fmt.Errorf("unexpected command"))
	}
}

func (n *Node) processPushRequest(rpc net.RPC, cmd *net.PushRequest) {
	atomic.AddInt64(&n.pushes, 1)

	hash, err := n.payloads.StorePayload(cmd.Payload)
	if err != nil {
		atomic.AddInt64(&n.rpcErrors, 1)
		n.logger.WithError(err).WithField("from", cmd.FromAddr).Error("Storing pushed payload")
		rpc.Respond(nil, err)
		return
	}

	n.logger.WithFields(logrus.Fields{
		"from": cmd.FromAddr,
		"hash": hash.String(),
	}).Debug("process PushRequest")

	rpc.Respond(&net.PushResponse{Hash: hash}, nil)
}

func (n *Node) processPushBatchRequest(rpc net.RPC, cmd *net.PushBatchRequest) {
	atomic.AddInt64(&n.batches, 1)

	count, err := n.resender.StoreResendBatch(cmd.Payloads)

	n.logger.WithFields(logrus.Fields{
		"from":    cmd.FromAddr,
		"size":    len(cmd.Payloads),
		"staged":  count,
		"rpc_err": err,
	}).Debug("process PushBatchRequest")

	if err != nil {
		atomic.AddInt64(&n.rpcErrors, 1)
		rpc.Respond(nil, err)
		return
	}

	rpc.Respond(&net.PushBatchResponse{Count: count}, nil)
}

func (n *Node) processResendBatchRequest(rpc net.RPC, cmd *net.ResendBatchRequest) {
	atomic.AddInt64(&n.resends, 1)

	key := crypto.PublicKey(cmd.PublicKey)
	logger := n.logger.WithFields(logrus.Fields{
		"from":       cmd.FromAddr,
		"key":        key.String(),
		"batch_size": cmd.BatchSize,
	})
	logger.Debug("process ResendBatchRequest")

	total, err := n.resender.ResendBatch(key, cmd.BatchSize)
	if err != nil {
		atomic.AddInt64(&n.rpcErrors, 1)
		logger.WithError(err).Error("Resend failed")
		rpc.Respond(nil, err)
		return
	}

	rpc.Respond(&net.ResendBatchResponse{Total: total}, nil)
}
