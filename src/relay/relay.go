package relay

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mosaicnetworks/relay/src/config"
	"github.com/mosaicnetworks/relay/src/crypto/keys"
	"github.com/mosaicnetworks/relay/src/enclave"
	"github.com/mosaicnetworks/relay/src/net"
	"github.com/mosaicnetworks/relay/src/node"
	"github.com/mosaicnetworks/relay/src/payload"
	"github.com/mosaicnetworks/relay/src/peers"
	"github.com/mosaicnetworks/relay/src/publish"
	"github.com/mosaicnetworks/relay/src/recovery"
	"github.com/mosaicnetworks/relay/src/resend"
	"github.com/mosaicnetworks/relay/src/service"
	"github.com/mosaicnetworks/relay/src/store"
	"github.com/mosaicnetworks/relay/src/transaction"
	"github.com/sirupsen/logrus"
)

// txStore is a transaction store with a staging view. Both store
// implementations satisfy it.
type txStore interface {
	store.TransactionStore
	Staging() store.StagingStore
}

// Relay is the engine of a relay node.
type Relay struct {
	Config       *config.Config
	Node         *node.Node
	Transport    net.Transport
	Store        store.TransactionStore
	Staging      store.StagingStore
	Peers        *peers.PeerSet
	Enclave      *enclave.NaclEnclave
	Transactions *transaction.Manager
	Resender     *resend.BatchResendManager
	Recovery     *recovery.Recovery
	Service      *service.Service

	codec        payload.Generation
	shutdownOnce sync.Once
	logger       *logrus.Entry
}

// NewRelay is a factory method to produce a Relay instance.
func NewRelay(c *config.Config) *Relay {
	return &Relay{
		Config: c,
		logger: c.Logger(),
	}
}

// Init initialises the relay engine.
func (r *Relay) Init() error {
	gen, err := r.Config.Generation()
	if err != nil {
		return err
	}
	r.codec = gen

	if err := r.initKeys(); err != nil {
		r.logger.WithError(err).Error("relay.go:Init() initKeys")
		return err
	}

	if err := r.initPeers(); err != nil {
		r.logger.WithError(err).Error("relay.go:Init() initPeers")
		return err
	}

	if err := r.initStore(); err != nil {
		r.logger.WithError(err).Error("relay.go:Init() initStore")
		return err
	}

	if err := r.initTransport(); err != nil {
		r.logger.WithError(err).Error("relay.go:Init() initTransport")
		return err
	}

	r.initEnclave()
	r.initManagers()
	r.initNode()
	r.initService()

	return nil
}

// Run starts the node and the service, runs a recovery when the
// configuration asks for one, and blocks until Shutdown.
func (r *Relay) Run() {
	if r.Service != nil {
		go r.Service.Serve()
	}

	r.Node.RunAsync()

	if r.Config.Recover {
		r.Node.Recover()
	}

	<-r.Node.Done()
}

// Shutdown stops the service and the node and closes the store. Only the first
// call has an effect.
func (r *Relay) Shutdown() {
	r.shutdownOnce.Do(r.shutdown)
}

func (r *Relay) shutdown() {
	if r.Service != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.Service.Shutdown(ctx); err != nil {
			r.logger.WithError(err).Warn("Stopping service")
		}
	}

	if r.Node != nil {
		r.Node.Shutdown()
	}

	if r.Enclave != nil {
		r.Enclave.Stop()
	}

	if r.Store != nil {
		if err := r.Store.Close(); err != nil {
			r.logger.WithError(err).Warn("Closing store")
		}
	}
}

func (r *Relay) initKeys() error {
	if r.Config.Keys != nil {
		return nil
	}

	keyfile := keys.NewSimpleKeyfile(r.Config.Keyfile())

	kps, err := keyfile.ReadKeys()
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}

		r.logger.WithField("path", r.Config.Keyfile()).Warn("No keys file, generating a key pair")

		kps, err = Keygen(r.Config.DataDir)
		if err != nil {
			return err
		}
	}

	r.Config.Keys = kps

	return nil
}

func (r *Relay) initPeers() error {
	peerSet, err := peers.NewJSONPeerSet(r.Config.DataDir).PeerSet()
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		r.logger.WithField("datadir", r.Config.DataDir).Warn("No peers.json, starting without peers")
		peerSet = peers.NewPeerSet([]*peers.Peer{})
	}

	r.Peers = peerSet

	r.logger.WithField("peers", r.Peers.Len()).Debug("Loaded peers")

	return nil
}

func (r *Relay) initStore() error {
	var s txStore

	if !r.Config.Store {
		s = store.NewInmemStore()
		r.logger.Debug("created new in-mem store")
	} else {
		r.logger.WithField("path", r.Config.DatabaseDir).Debug("Attempting to load or create database")

		bs, err := store.NewBadgerStore(r.Config.DatabaseDir, r.logger)
		if err != nil {
			return err
		}
		s = bs
	}

	r.Store = s
	r.Staging = s.Staging()

	return nil
}

func (r *Relay) initTransport() error {
	trans, err := net.NewTCPTransport(
		r.Config.BindAddr,
		r.Config.AdvertiseAddr,
		r.Config.MaxPool,
		r.Config.TCPTimeout,
		r.Config.ResendTimeout,
		r.logger,
	)
	if err != nil {
		return err
	}

	r.Transport = trans

	return nil
}

func (r *Relay) initEnclave() {
	r.Enclave = enclave.NewNaclEnclave(r.Config.Keys, r.logger)
	r.Enclave.Start()

	localKeys := make([]string, 0, len(r.Config.Keys))
	for _, k := range r.Enclave.PublicKeys() {
		localKeys = append(localKeys, k.String())
	}
	r.logger.WithField("keys", localKeys).Info("Enclave running")
}

func (r *Relay) initManagers() {
	pub := publish.NewNetworkPublisher(r.Transport, r.Peers, r.logger)
	fanOut := publish.NewAsyncPublisher(pub, r.codec, r.Config.PublishWorkers, r.logger)

	r.Transactions = transaction.NewManager(r.Enclave, r.Store, fanOut, r.logger).
		WithCodec(r.codec)

	r.Resender = resend.NewBatchResendManager(
		r.Enclave,
		r.Store,
		r.Staging,
		pub,
		r.Config.ResendPageSize,
		r.Config.SkipUnresolvable,
		r.logger,
	).WithCodec(r.codec)

	r.Recovery = recovery.NewRecovery(
		r.Transport,
		r.Peers,
		r.Enclave,
		r.Store,
		r.Staging,
		r.Config.ResendBatchSize,
		r.logger,
	)
}

func (r *Relay) initNode() {
	r.Node = node.NewNode(r.Transport, r.Transactions, r.Resender, r.Recovery, r.logger)
}

func (r *Relay) initService() {
	if r.Config.NoService {
		return
	}
	r.Service = service.NewService(
		r.Config.ServiceAddr,
		r.Node,
		r.Enclave,
		r.Peers,
		r.Store,
		r.Staging,
		r.logger,
	)
}

// Keygen creates a key pair and writes it to the keys file of datadir. It
// fails if a keys file already exists.
func Keygen(datadir string) ([]*keys.KeyPair, error) {
	c := config.NewDefaultConfig()
	c.DataDir = datadir

	if _, err := os.Stat(c.Keyfile()); err == nil {
		return nil, fmt.Errorf("another keys file already lives under %s", datadir)
	}

	kp, err := keys.GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	kps := []*keys.KeyPair{kp}
	if err := keys.NewSimpleKeyfile(c.Keyfile()).WriteKeys(kps); err != nil {
		return nil, err
	}

	return kps, nil
}
