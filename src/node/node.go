package node

import (
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/mosaicnetworks/relay/src/crypto"
	"github.com/mosaicnetworks/relay/src/net"
	"github.com/mosaicnetworks/relay/src/node/state"
	"github.com/mosaicnetworks/relay/src/recovery"
	"github.com/sirupsen/logrus"
)

// ErrNodeBusy is the response to an RPC received while the node already
// processes state.WGLIMIT of them.
var ErrNodeBusy = errors.New("node busy")

// PayloadStore stores payloads pushed by other nodes.
// *transaction.Manager is a PayloadStore.
type PayloadStore interface {
	StorePayload(raw []byte) (crypto.MessageHash, error)
}

// Resender serves resend requests and stages inbound resend batches.
// *resend.BatchResendManager is a Resender.
type Resender interface {
	ResendBatch(targetKey crypto.PublicKey, batchSize int) (int, error)
	StoreResendBatch(encoded [][]byte) (int, error)
}

// Recoverer rebuilds the transaction store. *recovery.Recovery is a
// Recoverer.
type Recoverer interface {
	Recover() recovery.Result
}

// Node defines a relay node
type Node struct {
	// The state is changed by the run loop, Recover and Shutdown. The state
	// manager also tracks the RPC goroutines.
	state.Manager

	trans net.Transport
	netCh <-chan net.RPC

	payloads  PayloadStore
	resender  Resender
	recoverer Recoverer

	shutdownCh chan struct{}

	start     time.Time
	pushes    int64
	batches   int64
	resends   int64
	rpcErrors int64

	logger *logrus.Entry
}

// NewNode is a factory method that returns a Node instance. recoverer may be
// nil, in which case Recover is a no-op.
func NewNode(trans net.Transport,
	payloads PayloadStore,
	resender Resender,
	recoverer Recoverer,
	logger *logrus.Entry,
) *Node {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	node := Node{
		trans:      trans,
		netCh:      trans.Consumer(),
		payloads:   payloads,
		resender:   resender,
		recoverer:  recoverer,
		shutdownCh: make(chan struct{}),
		start:      time.Now(),
		logger:     logger.WithField("node", trans.AdvertiseAddr()),
	}

	node.SetState(state.Starting)

	return &node
}

// RunAsync calls Run as a separate thread
func (n *Node) RunAsync() {
	n.logger.Debug("runasync")
	go n.Run()
}

// Run starts the transport listener and processes RPCs until Shutdown.
func (n *Node) Run() {
	go n.trans.Listen()

	if n.GetState() == state.Starting {
		n.SetState(state.Running)
	}

	n.logger.Info("Running")

	for {
		select {
		case rpc := <-n.netCh:
			if n.GetState() == state.Shutdown {
				rpc.Respond(nil, net.ErrTransportShutdown)
				continue
			}
			if !n.GoFunc(func() { n.processRPC(rpc) }) {
				atomic.AddInt64(&n.rpcErrors, 1)
				n.logger.WithField("running", n.Running()).Warn("Too many RPCs in progress")
				rpc.Respond(nil, ErrNodeBusy)
			}
		case <-n.shutdownCh:
			return
		}
	}
}

// Recover switches the node to Recovering, runs the recoverer and switches
// back to Running. The RPC loop must be running for the requested resend
// batches to be received.
func (n *Node) Recover() recovery.Result {
	if n.recoverer == nil {
		return recovery.Success
	}

	n.SetState(state.Recovering)
	n.logger.Info("Recovering")

	res := n.recoverer.Recover()

	if n.GetState() == state.Recovering {
		n.SetState(state.Running)
	}

	n.logger.WithField("result", res.String()).Info("Recovery done")

	return res
}

// Shutdown stops the RPC loop, waits for the RPCs in progress and closes the
// transport.
func (n *Node) Shutdown() {
	if n.GetState() != state.Shutdown {
		n.logger.Debug("Shutdown")

		//Exit any non-shutdown state immediately
		n.SetState(state.Shutdown)

		//Stop and wait for concurrent operations
		close(n.shutdownCh)

		n.WaitRoutines()

		//transport should only be closed once all concurrent operations
		//are finished
		n.trans.Close()
	}
}

// Done returns a channel that is closed by Shutdown.
func (n *Node) Done() <-chan struct{} {
	return n.shutdownCh
}

// GetStats returns stats
func (n *Node) GetStats() map[string]string {
	return map[string]string{
		"state":        n.GetState().String(),
		"addr":         n.trans.AdvertiseAddr(),
		"uptime":       time.Since(n.start).Round(time.Second).String(),
		"pushes":       strconv.FormatInt(atomic.LoadInt64(&n.pushes), 10),
		"push_batches": strconv.FormatInt(atomic.LoadInt64(&n.batches), 10),
		"resends":      strconv.FormatInt(atomic.LoadInt64(&n.resends), 10),
		"rpc_errors":   strconv.FormatInt(atomic.LoadInt64(&n.rpcErrors), 10),
		"rpc_running":  strconv.Itoa(n.Running()),
	}
}
