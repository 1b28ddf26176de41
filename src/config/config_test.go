package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mosaicnetworks/relay/src/payload"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := NewDefaultConfig()

	assert.Equal(t, 10000, c.ResendPageSize)
	assert.Equal(t, 10000, c.ResendBatchSize)
	assert.Equal(t, 10, c.PublishWorkers)
	assert.False(t, c.SkipUnresolvable)

	g, err := c.Generation()
	require.NoError(t, err)
	assert.Equal(t, payload.Current, g)
}

func TestSetDataDir(t *testing.T) {
	c := NewDefaultConfig()
	c.SetDataDir("/tmp/relay")
	assert.Equal(t, "/tmp/relay/badger_db", c.DatabaseDir)
	assert.Equal(t, "/tmp/relay/keys.json", c.Keyfile())

	// an explicit database dir is kept
	c.DatabaseDir = "/var/db"
	c.SetDataDir("/tmp/other")
	assert.Equal(t, "/var/db", c.DatabaseDir)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, LogLevel("info"))
	assert.Equal(t, logrus.WarnLevel, LogLevel("warn"))
	assert.Equal(t, logrus.DebugLevel, LogLevel("bogus"))
}

func TestLogFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "relay-config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	c := NewDefaultConfig()
	c.LogLevel = "info"
	c.LogFile = filepath.Join(dir, "relay.log")

	logger := c.Logger()
	logger.Logger.Out = ioutil.Discard
	logger.WithField("hash", "abc").Info("Stored payload")
	logger.Debug("filtered out")

	data, err := ioutil.ReadFile(c.LogFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"msg":"Stored payload"`)
	assert.Contains(t, lines[0], `"prefix":"relay"`)
}

func TestWrongGeneration(t *testing.T) {
	c := NewDefaultConfig()
	c.WireGeneration = "v9"
	_, err := c.Generation()
	assert.Error(t, err)
}
