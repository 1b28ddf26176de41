package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/mosaicnetworks/relay/src/crypto"
	"github.com/mosaicnetworks/relay/src/peers"
	"github.com/mosaicnetworks/relay/src/store"
	"github.com/mosaicnetworks/relay/src/version"
	"github.com/sirupsen/logrus"
)

// StatsProvider reports node statistics. *node.Node is a StatsProvider.
type StatsProvider interface {
	GetStats() map[string]string
}

// KeyHolder lists the local public keys. enclave.Enclave is a KeyHolder.
type KeyHolder interface {
	PublicKeys() []crypto.PublicKey
}

// Service exposes the operational endpoints of a relay node over HTTP.
type Service struct {
	sync.Mutex

	bindAddress string
	node        StatsProvider
	keys        KeyHolder
	peers       *peers.PeerSet
	txs         store.TransactionStore
	staging     store.StagingStore

	router chi.Router
	server *http.Server
	logger *logrus.Entry
}

// NewService ...
func NewService(bindAddress string,
	n StatsProvider,
	keys KeyHolder,
	peerSet *peers.PeerSet,
	txs store.TransactionStore,
	staging store.StagingStore,
	logger *logrus.Entry) *Service {

	service := Service{
		bindAddress: bindAddress,
		node:        n,
		keys:        keys,
		peers:       peerSet,
		txs:         txs,
		staging:     staging,
		router:      chi.NewRouter(),
		logger:      logger,
	}

	service.registerHandlers()

	return &service
}

func (s *Service) registerHandlers() {
	s.logger.Debug("Registering relay API handlers")
	s.router.Get("/upcheck", s.makeHandler(s.GetUpcheck))
	s.router.Get("/version", s.makeHandler(s.GetVersion))
	s.router.Get("/stats", s.makeHandler(s.GetStats))
	s.router.Get("/keys", s.makeHandler(s.GetKeys))
	s.router.Get("/peers", s.makeHandler(s.GetPeers))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Handler returns the router serving the relay API.
func (s *Service) Handler() http.Handler {
	return s.router
}

// Serve calls ListenAndServe. This is a blocking call.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving relay API")

	s.Lock()
	s.server = &http.Server{Addr: s.bindAddress, Handler: s.router}
	server := s.server
	s.Unlock()

	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		s.logger.Error(err)
	}
}

// Shutdown stops a server started by Serve.
func (s *Service) Shutdown(ctx context.Context) error {
	s.Lock()
	server := s.server
	s.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// GetUpcheck ...
func (s *Service) GetUpcheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("I'm up!"))
}

// GetVersion ...
func (s *Service) GetVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(version.Version))
}

// GetStats returns the node statistics along with the store counts.
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := s.node.GetStats()

	txCount, err := s.txs.TransactionCount()
	if err != nil {
		s.logger.WithError(err).Error("Counting transactions")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	stats["transactions"] = strconv.Itoa(txCount)

	stagingCount, err := s.staging.Count()
	if err != nil {
		s.logger.WithError(err).Error("Counting staging transactions")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	stats["staging_transactions"] = strconv.Itoa(stagingCount)

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(stats)
}

// GetKeys returns the base64 local public keys.
func (s *Service) GetKeys(w http.ResponseWriter, r *http.Request) {
	localKeys := s.keys.PublicKeys()

	res := make([]string, len(localKeys))
	for i, k := range localKeys {
		res[i] = k.String()
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(res)
}

// GetPeers ...
func (s *Service) GetPeers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	encoder := json.NewEncoder(w)

	encoder.Encode(s.peers.Peers)
}
