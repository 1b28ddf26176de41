package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/mosaicnetworks/relay/src/common"
	"github.com/mosaicnetworks/relay/src/crypto/keys"
	"github.com/mosaicnetworks/relay/src/payload"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames.
const (
	// DefaultKeyfile is the default name of the file containing the local key
	// pairs
	DefaultKeyfile = "keys.json"

	// DefaultBadgerFile is the default name of the folder containing the Badger
	// database
	DefaultBadgerFile = "badger_db"
)

// Default configuration values.
const (
	DefaultLogLevel         = "debug"
	DefaultBindAddr         = "127.0.0.1:1337"
	DefaultServiceAddr      = "127.0.0.1:8000"
	DefaultTCPTimeout       = 1000 * time.Millisecond
	DefaultResendTimeout    = 5 * time.Minute
	DefaultMaxPool          = 2
	DefaultStore            = false
	DefaultResendPageSize   = 10000
	DefaultResendBatchSize  = 10000
	DefaultSkipUnresolvable = false
	DefaultPublishWorkers   = 10
	DefaultWireGeneration   = "v3"
	DefaultRecover          = false
)

// Config contains all the configuration properties of a relay node.
type Config struct {
	// DataDir is the top-level directory containing relay configuration and
	// data
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogFile, when set, receives a JSON copy of every log entry.
	LogFile string `mapstructure:"log-file"`

	// BindAddr is the local address:port where this node serves pushes and
	// resend requests.
	BindAddr string `mapstructure:"listen"`

	// AdvertiseAddr is used to change the address that we advertise to other
	// nodes.
	AdvertiseAddr string `mapstructure:"advertise"`

	// NoService disables the HTTP API service.
	NoService bool `mapstructure:"no-service"`

	// ServiceAddr is the address:port of the HTTP service.
	ServiceAddr string `mapstructure:"service-listen"`

	// MaxPool controls how many connections are pooled per target.
	MaxPool int `mapstructure:"max-pool"`

	// TCPTimeout is the I/O timeout of push RPCs.
	TCPTimeout time.Duration `mapstructure:"timeout"`

	// ResendTimeout is the I/O timeout of resend requests, which only return
	// once the whole resend was published.
	ResendTimeout time.Duration `mapstructure:"resend-timeout"`

	// Store activates persistant storage.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	// ResendPageSize is the number of transactions read from the store at a
	// time while serving a resend request.
	ResendPageSize int `mapstructure:"resend-page-size"`

	// ResendBatchSize is the batch size requested from peers during recovery.
	ResendBatchSize int `mapstructure:"resend-batch-size"`

	// SkipUnresolvable makes a resend skip, rather than abort on, a stored
	// transaction it cannot decode or project.
	SkipUnresolvable bool `mapstructure:"skip-unresolvable"`

	// PublishWorkers bounds the number of concurrent deliveries of a new
	// transaction.
	PublishWorkers int `mapstructure:"publish-workers"`

	// WireGeneration is the payload generation this node reads and writes:
	// legacy, v2 or v3.
	WireGeneration string `mapstructure:"wire"`

	// Recover rebuilds the transaction store from the peers on startup.
	Recover bool `mapstructure:"recover"`

	// Moniker defines the friendly name of this node
	Moniker string `mapstructure:"moniker"`

	// Keys are the local key pairs. When nil, they are read from Keyfile.
	Keys []*keys.KeyPair `mapstructure:"-"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:          DefaultDataDir(),
		LogLevel:         DefaultLogLevel,
		BindAddr:         DefaultBindAddr,
		ServiceAddr:      DefaultServiceAddr,
		TCPTimeout:       DefaultTCPTimeout,
		ResendTimeout:    DefaultResendTimeout,
		MaxPool:          DefaultMaxPool,
		Store:            DefaultStore,
		DatabaseDir:      DefaultDatabaseDir(),
		ResendPageSize:   DefaultResendPageSize,
		ResendBatchSize:  DefaultResendBatchSize,
		SkipUnresolvable: DefaultSkipUnresolvable,
		PublishWorkers:   DefaultPublishWorkers,
		WireGeneration:   DefaultWireGeneration,
		Recover:          DefaultRecover,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t, level)
	return config
}

// SetDataDir sets the top-level relay directory, and updates the database
// directory if it is currently set to the default value. If the database
// directory is not currently the default, it means the user has explicitely set
// it to something else, so avoid changing it again here.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// Keyfile returns the full path of the file containing the key pairs.
func (c *Config) Keyfile() string {
	return filepath.Join(c.DataDir, DefaultKeyfile)
}

// Generation parses WireGeneration.
func (c *Config) Generation() (payload.Generation, error) {
	return payload.ParseGeneration(c.WireGeneration)
}

// Logger returns a formatted logrus Entry, with prefix set to "relay". When
// LogFile is set, every entry is also written there as JSON.
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)

		if c.LogFile != "" {
			pathMap := lfshook.PathMap{}
			for _, l := range logrus.AllLevels {
				pathMap[l] = c.LogFile
			}
			c.logger.Hooks.Add(lfshook.NewHook(
				pathMap,
				&logrus.JSONFormatter{},
			))
		}
	}
	return c.logger.WithField("prefix", "relay")
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir return the default directory name for top-level relay config
// based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Relay")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Relay")
		} else {
			return filepath.Join(home, ".relay")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
