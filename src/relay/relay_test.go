package relay

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mosaicnetworks/relay/src/common"
	"github.com/mosaicnetworks/relay/src/config"
	"github.com/mosaicnetworks/relay/src/crypto"
	"github.com/mosaicnetworks/relay/src/node/state"
	"github.com/mosaicnetworks/relay/src/peers"
	"github.com/mosaicnetworks/relay/src/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRelay struct {
	conf  *config.Config
	relay *Relay
	key   crypto.PublicKey
}

// newTestConfigs creates one data directory per address, each with a keys
// file and the same peers.json.
func newTestConfigs(t *testing.T, addrs ...string) []*config.Config {
	os.MkdirAll("test_data", os.ModeDir|0777)
	root, err := ioutil.TempDir("test_data", "relay")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(root) })

	confs := make([]*config.Config, len(addrs))
	ps := make([]*peers.Peer, len(addrs))
	for i, addr := range addrs {
		dir := filepath.Join(root, fmt.Sprintf("node%d", i))

		kps, err := Keygen(dir)
		require.NoError(t, err)

		c := config.NewTestConfig(t, common.TestLogLevel)
		c.SetDataDir(dir)
		c.BindAddr = addr
		c.Moniker = fmt.Sprintf("node%d", i)
		c.NoService = true
		c.Store = true
		c.ResendBatchSize = 2
		confs[i] = c

		ps[i] = peers.NewPeer(addr, c.Moniker, kps[0].Public.String())
	}

	for _, c := range confs {
		require.NoError(t, peers.NewJSONPeerSet(c.DataDir).Write(ps))
	}

	return confs
}

func start(t *testing.T, c *config.Config) *testRelay {
	c.Keys = nil
	r := NewRelay(c)
	require.NoError(t, r.Init())
	go r.Run()
	t.Cleanup(r.Shutdown)

	return &testRelay{
		conf:  c,
		relay: r,
		key:   r.Enclave.PublicKeys()[0],
	}
}

func waitRunning(t *testing.T, r *Relay) {
	deadline := time.Now().Add(5 * time.Second)
	for r.Node.GetState() != state.Running {
		if time.Now().After(deadline) {
			t.Fatalf("node state is %s", r.Node.GetState())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestKeygen(t *testing.T) {
	os.MkdirAll("test_data", os.ModeDir|0777)
	dir, err := ioutil.TempDir("test_data", "keygen")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	kps, err := Keygen(dir)
	require.NoError(t, err)
	require.Len(t, kps, 1)

	_, err = Keygen(dir)
	assert.Error(t, err)
}

func TestInitWithoutPeers(t *testing.T) {
	os.MkdirAll("test_data", os.ModeDir|0777)
	dir, err := ioutil.TempDir("test_data", "lonely")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	c := config.NewTestConfig(t, common.TestLogLevel)
	c.SetDataDir(dir)
	c.BindAddr = "127.0.0.1:1360"
	c.NoService = true

	r := NewRelay(c)
	require.NoError(t, r.Init())
	defer r.Shutdown()

	// a key pair was generated and persisted
	assert.Len(t, r.Enclave.PublicKeys(), 1)
	_, err = os.Stat(c.Keyfile())
	assert.NoError(t, err)
	assert.Equal(t, 0, r.Peers.Len())
}

func TestInitWrongGeneration(t *testing.T) {
	c := config.NewTestConfig(t, common.TestLogLevel)
	c.WireGeneration = "v42"
	assert.Error(t, NewRelay(c).Init())
}

func TestSendOverTCP(t *testing.T) {
	confs := newTestConfigs(t, "127.0.0.1:1361", "127.0.0.1:1362")
	a := start(t, confs[0])
	b := start(t, confs[1])
	waitRunning(t, a.relay)
	waitRunning(t, b.relay)

	hash, err := a.relay.Transactions.Send(context.Background(), &transaction.SendRequest{
		Payload: []byte("over the wire"),
		To:      []crypto.PublicKey{b.key},
	})
	require.NoError(t, err)

	msg, err := b.relay.Transactions.Receive(hash, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("over the wire"), msg)
}

func TestRecoverOnStartup(t *testing.T) {
	confs := newTestConfigs(t, "127.0.0.1:1363", "127.0.0.1:1364")
	a := start(t, confs[0])
	b := start(t, confs[1])
	waitRunning(t, a.relay)
	waitRunning(t, b.relay)

	var hashes []crypto.MessageHash
	for i := 0; i < 5; i++ {
		h, err := a.relay.Transactions.Send(context.Background(), &transaction.SendRequest{
			Payload: []byte(fmt.Sprintf("message %d", i)),
			To:      []crypto.PublicKey{b.key},
		})
		require.NoError(t, err)
		hashes = append(hashes, h)
	}

	// a loses its database and comes back in recovery mode
	a.relay.Shutdown()
	require.NoError(t, os.RemoveAll(a.conf.DatabaseDir))
	a.conf.Recover = true
	restored := start(t, a.conf)

	deadline := time.Now().Add(10 * time.Second)
	for {
		count, err := restored.relay.Store.TransactionCount()
		require.NoError(t, err)
		if count == len(hashes) && restored.relay.Node.GetState() == state.Running {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("recovered %d transactions, want %d", count, len(hashes))
		}
		time.Sleep(20 * time.Millisecond)
	}

	for i, h := range hashes {
		msg, err := restored.relay.Transactions.Receive(h, nil)
		require.NoError(t, err)
		assert.Equal(t, []byte(fmt.Sprintf("message %d", i)), msg)
	}
}
